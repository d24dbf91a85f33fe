package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const StationsCollection = "stations"

func createIndexes(ctx context.Context) {
	createStationsIndexes(ctx)
}

// Nearby lookups use $nearSphere which needs the 2dsphere index on location
func createStationsIndexes(ctx context.Context) {
	stationsCollection := GetCollection(StationsCollection)
	stationsIndex := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "country", Value: 1}},
		},
	}

	if _, err := stationsCollection.Indexes().CreateMany(ctx, stationsIndex); err != nil {
		log.Error().Err(err).Str("collection", StationsCollection).Msg("Failed to create indexes")
	}
}
