package data

import (
	"sort"

	"github.com/jack-barr3tt/odpt-stations/src/common/types"
)

// StationIndex keeps one record per station identifier. Upsert is
// last-write-wins: a later record replaces the earlier one whole, fields
// are never merged.
type StationIndex struct {
	byID map[string]types.Station
}

func NewStationIndex() *StationIndex {
	return &StationIndex{byID: make(map[string]types.Station)}
}

// Upsert stores the station under its identifier. Stations without one
// are dropped and report false.
func (idx *StationIndex) Upsert(station types.Station) bool {
	id := station.ID()
	if id == "" {
		return false
	}
	idx.byID[id] = station
	return true
}

func (idx *StationIndex) Len() int {
	return len(idx.byID)
}

// Sorted returns the stations ordered by identifier.
func (idx *StationIndex) Sorted() []types.Station {
	ids := make([]string, 0, len(idx.byID))
	for id := range idx.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stations := make([]types.Station, 0, len(ids))
	for _, id := range ids {
		stations = append(stations, idx.byID[id])
	}
	return stations
}

// Dedupe folds a fetched sequence through a StationIndex.
func Dedupe(stations []types.Station) []types.Station {
	idx := NewStationIndex()
	for _, station := range stations {
		idx.Upsert(station)
	}
	return idx.Sorted()
}
