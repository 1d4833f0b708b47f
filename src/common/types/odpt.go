package types

import "encoding/json"

const (
	FieldSameAs       = "owl:sameAs"
	FieldTitle        = "dc:title"
	FieldStationTitle = "odpt:stationTitle"
	FieldOperator     = "odpt:operator"
	FieldRailway      = "odpt:railway"
)

// Record is a flat ODPT object. Values are kept raw so every field the
// API returned is written back out untouched.
type Record map[string]json.RawMessage

// String returns the field as a string. Missing, null and non-string
// values report false.
func (r Record) String(field string) (string, bool) {
	raw, ok := r[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// ID returns owl:sameAs, or "" when absent.
func (r Record) ID() string {
	id, _ := r.String(FieldSameAs)
	return id
}

type Operator = Record

type Railway = Record

type Station = Record

// RailwayTitle falls back to the railway identifier when dc:title is missing.
func RailwayTitle(r Railway) string {
	if title, ok := r.String(FieldTitle); ok && title != "" {
		return title
	}
	return r.ID()
}

// SetRailway fills odpt:railway unless the station already carries one.
func SetRailway(s Station, railwayID string) {
	if s == nil || s.Has(FieldRailway) {
		return
	}
	raw, _ := json.Marshal(railwayID)
	s[FieldRailway] = raw
}

type Summary struct {
	Operators int `json:"operators"`
	Railways  int `json:"railways"`
	Stations  int `json:"stations"`
}

type StationsDocument struct {
	Summary  Summary   `json:"summary"`
	Stations []Station `json:"stations"`
}
