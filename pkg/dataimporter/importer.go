package dataimporter

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/stations"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const upsertBatchSize = 500

type StationWriter interface {
	Upsert(ctx context.Context, stations []*ctdf.Station) error
}

type StationPruner interface {
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// StationImporter loads the iRail station CSVs and writes them into the station store
type StationImporter struct {
	Directory  StationWriter
	Collection StationPruner
	Prune      bool

	StationsSource   string
	FacilitiesSource string
	StopsSource      string
}

func (i *StationImporter) Import(ctx context.Context) error {
	startTime := time.Now()

	allStations, err := stations.LoadSources(ctx, i.StationsSource, i.FacilitiesSource, i.StopsSource)
	if err != nil {
		return err
	}

	for start := 0; start < len(allStations); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(allStations))

		if err := i.Directory.Upsert(ctx, allStations[start:end]); err != nil {
			return err
		}
	}

	if i.Prune && len(allStations) > 0 {
		if err := i.pruneStations(ctx, allStations); err != nil {
			return err
		}
	}

	log.Info().
		Int("stations", len(allStations)).
		Str("source", i.StationsSource).
		Str("latency", time.Since(startTime).String()).
		Msg("Station import finished")

	return nil
}

// pruneStations removes every stored station that was not part of this import
func (i *StationImporter) pruneStations(ctx context.Context, imported []*ctdf.Station) error {
	ids := make([]string, 0, len(imported))
	for _, station := range imported {
		ids = append(ids, station.ID)
	}

	result, err := i.Collection.DeleteMany(ctx, bson.M{"id": bson.M{"$nin": ids}})
	if err != nil {
		return err
	}

	log.Info().Int64("removed", result.DeletedCount).Msg("Pruned stations missing from import")

	return nil
}
