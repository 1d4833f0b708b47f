package output

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/jack-barr3tt/odpt-stations/src/common/types"
)

// Coordinate aliases in priority order. The first one present on a
// station is used even if its value turns out to be unusable.
var (
	LatitudeFields  = []string{"geo:lat", "lat", "latitude"}
	LongitudeFields = []string{"geo:long", "long", "lon", "longitude"}
)

// FeatureProperties are the only station fields copied into a feature.
var FeatureProperties = []string{
	types.FieldSameAs,
	types.FieldStationTitle,
	types.FieldOperator,
	types.FieldRailway,
}

var jsonNull = json.RawMessage("null")

type GeoJSONResult struct {
	Collection types.FeatureCollection
	Skipped    int
	// WithCoordinateFields counts stations that had any alias present.
	WithCoordinateFields int
}

func firstPresent(station types.Station, aliases []string) (json.RawMessage, bool) {
	for _, k := range aliases {
		if raw, ok := station[k]; ok {
			return raw, true
		}
	}
	return nil, false
}

// parseCoordinate accepts JSON numbers and numeric strings.
func parseCoordinate(raw json.RawMessage) (float64, bool) {
	if strings.TrimSpace(string(raw)) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// StationPoint returns a station's [lon, lat] when both are usable.
func StationPoint(station types.Station) (lon, lat float64, ok bool) {
	rawLat, okLat := firstPresent(station, LatitudeFields)
	rawLon, okLon := firstPresent(station, LongitudeFields)
	if !okLat || !okLon {
		return 0, 0, false
	}

	lat, okLat = parseCoordinate(rawLat)
	lon, okLon = parseCoordinate(rawLon)
	if !okLat || !okLon {
		return 0, 0, false
	}
	return lon, lat, true
}

func featureProperties(station types.Station) map[string]json.RawMessage {
	props := make(map[string]json.RawMessage, len(FeatureProperties))
	for _, k := range FeatureProperties {
		if raw, ok := station[k]; ok {
			props[k] = raw
		} else {
			props[k] = jsonNull
		}
	}
	return props
}

func hasCoordinateField(station types.Station) bool {
	_, hasLat := firstPresent(station, LatitudeFields)
	_, hasLon := firstPresent(station, LongitudeFields)
	return hasLat || hasLon
}

// CountWithCoordinateFields counts stations carrying any latitude or
// longitude alias, usable or not.
func CountWithCoordinateFields(stations []types.Station) int {
	n := 0
	for _, station := range stations {
		if hasCoordinateField(station) {
			n++
		}
	}
	return n
}

// BuildFeatureCollection projects stations to Point features, skipping
// any station without a usable coordinate pair.
func BuildFeatureCollection(stations []types.Station) GeoJSONResult {
	result := GeoJSONResult{Collection: types.NewFeatureCollection()}

	for _, station := range stations {
		if hasCoordinateField(station) {
			result.WithCoordinateFields++
		}

		lon, lat, ok := StationPoint(station)
		if !ok {
			result.Skipped++
			continue
		}

		result.Collection.Features = append(result.Collection.Features,
			types.NewPointFeature(lon, lat, featureProperties(station)))
	}

	return result
}
