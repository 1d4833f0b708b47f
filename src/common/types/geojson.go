package types

import "encoding/json"

// FeatureCollection is a GeoJSON document of station points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                     `json:"type"`
	Geometry   Geometry                   `json:"geometry"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

func NewFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

func NewPointFeature(lon, lat float64, properties map[string]json.RawMessage) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{lon, lat},
		},
		Properties: properties,
	}
}
