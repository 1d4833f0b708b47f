package data

import (
	"context"
	"fmt"

	"github.com/jack-barr3tt/odpt-stations/src/common/types"
	"go.uber.org/zap"
)

// Source is the part of the ODPT client the aggregator needs.
type Source interface {
	FetchRailways(ctx context.Context, operatorID string) ([]types.Railway, error)
	FetchStations(ctx context.Context, railwayID string) ([]types.Station, error)
}

type Aggregator struct {
	source Source
	logger *zap.SugaredLogger
}

func NewAggregator(source Source, logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		source: source,
		logger: logger,
	}
}

type Result struct {
	Operators int
	Railways  int
	// Fetched counts stations including duplicates across railways.
	Fetched  int
	Stations []types.Station
}

func (r Result) Summary() types.Summary {
	return types.Summary{
		Operators: r.Operators,
		Railways:  r.Railways,
		Stations:  len(r.Stations),
	}
}

// Collect walks operators then railways in order and returns every
// fetched station, duplicates included, plus the railway count. Any
// fetch error aborts the walk and discards what was gathered.
func (a *Aggregator) Collect(ctx context.Context, operators []string) ([]types.Station, int, error) {
	var all []types.Station
	railwayCount := 0

	for _, operatorID := range operators {
		if operatorID == "" {
			continue
		}

		a.logger.Infow("Processing operator", "operator", operatorID)

		railways, err := a.source.FetchRailways(ctx, operatorID)
		if err != nil {
			return nil, 0, fmt.Errorf("railways for %s: %w", operatorID, err)
		}
		railwayCount += len(railways)

		for _, railway := range railways {
			railwayID := railway.ID()
			if railwayID == "" {
				continue
			}

			a.logger.Infow("Fetching stations for railway", "railway", types.RailwayTitle(railway))

			stations, err := a.source.FetchStations(ctx, railwayID)
			if err != nil {
				return nil, 0, fmt.Errorf("stations for %s: %w", railwayID, err)
			}
			a.logger.Infow("Found stations", "railway", railwayID, "count", len(stations))

			for _, station := range stations {
				types.SetRailway(station, railwayID)
			}
			all = append(all, stations...)
		}
	}

	return all, railwayCount, nil
}

// Aggregate collects and dedupes stations for the given operators.
func (a *Aggregator) Aggregate(ctx context.Context, operators []string) (*Result, error) {
	all, railwayCount, err := a.Collect(ctx, operators)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Operators: len(operators),
		Railways:  railwayCount,
		Fetched:   len(all),
		Stations:  Dedupe(all),
	}

	a.logger.Infow("Summary",
		"operators", result.Operators,
		"railways", result.Railways,
		"stations_with_duplicates", result.Fetched,
		"unique_stations", len(result.Stations),
	)

	return result, nil
}
