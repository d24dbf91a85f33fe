package dbwatch

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StationCache interface {
	Invalidate(ctx context.Context, uri string) error
	InvalidateAll(ctx context.Context) error
}

// StationsWatch follows the stations collection change stream and keeps a station cache in step with it
type StationsWatch struct {
	Collection *mongo.Collection
	Cache      StationCache
}

func (w *StationsWatch) Run(ctx context.Context) error {
	log.Info().Str("collection", w.Collection.Name()).Msg("Starting dbwatch")

	matchPipeline := bson.D{
		{
			Key: "$match", Value: bson.D{
				{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update", "replace", "delete"}}}},
			},
		},
	}
	stream, err := w.Collection.Watch(ctx, mongo.Pipeline{matchPipeline}, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var data struct {
			OperationType string        `bson:"operationType"`
			FullDocument  *ctdf.Station `bson:"fullDocument"`
		}
		if err := stream.Decode(&data); err != nil {
			log.Error().Err(err).Msg("Failed to decode change event")
			continue
		}

		w.handle(ctx, data.OperationType, data.FullDocument)
	}

	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func (w *StationsWatch) handle(ctx context.Context, operationType string, station *ctdf.Station) {
	// Deletes only carry the document key so the station id is unknown
	if operationType == "delete" || station == nil {
		if err := w.Cache.InvalidateAll(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to clear station cache")
		}
		return
	}

	if err := w.Cache.Invalidate(ctx, station.ID); err != nil {
		log.Error().Err(err).Str("station", station.ID).Msg("Failed to invalidate station")
		return
	}

	log.Debug().Str("operation", operationType).Str("station", station.ID).Msg("Station changed")
}
