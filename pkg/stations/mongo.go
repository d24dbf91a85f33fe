package stations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	redisstore "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notFoundCacheValue = "N/A"

// MongoDirectory loads stations from the stations collection and keeps them in a cache with expiry
type MongoDirectory struct {
	collection *mongo.Collection
	cache      cache.CacheInterface[string]
}

// NewMongoDirectory caches in memory, and in redis too when redisClient is set
func NewMongoDirectory(collection *mongo.Collection, redisClient *redis.Client, ttl time.Duration) *MongoDirectory {
	memoryStore := gocachestore.NewGoCache(gocache.New(ttl, ttl/2), store.WithExpiration(ttl))

	directory := &MongoDirectory{collection: collection}

	if redisClient == nil {
		directory.cache = cache.New[string](memoryStore)
	} else {
		redisStore := redisstore.NewRedis(redisClient, store.WithExpiration(ttl))
		directory.cache = cache.NewChain[string](cache.New[string](memoryStore), cache.New[string](redisStore))
	}

	return directory
}

func stationCacheKey(uri string) string {
	return fmt.Sprintf("lc_station:%s", uri)
}

func (d *MongoDirectory) Get(ctx context.Context, uri string) (*ctdf.Station, error) {
	var station *ctdf.Station

	cachedValue, err := d.cache.Get(ctx, stationCacheKey(uri))
	if err == nil && cachedValue != "" {
		if cachedValue == notFoundCacheValue {
			return nil, &ctdf.NotFoundError{Kind: "Station", ID: uri}
		}

		if err := json.Unmarshal([]byte(cachedValue), &station); err == nil {
			return station, nil
		}
	}

	err = d.collection.FindOne(ctx, bson.M{"id": uri}).Decode(&station)
	if errors.Is(err, mongo.ErrNoDocuments) {
		d.cache.Set(ctx, stationCacheKey(uri), notFoundCacheValue)
		return nil, &ctdf.NotFoundError{Kind: "Station", ID: uri}
	} else if err != nil {
		return nil, err
	}

	station.FillNames()

	stationJSON, _ := json.Marshal(station)
	d.cache.Set(ctx, stationCacheKey(uri), string(stationJSON))

	return station, nil
}

func (d *MongoDirectory) Nearby(ctx context.Context, location *ctdf.Location, radiusKm float64, limit int) ([]*ctdf.Station, error) {
	if radiusKm < 0 {
		return nil, &ctdf.InvalidInputError{Field: "radius", Reason: "must not be negative"}
	}

	query := bson.M{
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{location.Longitude(), location.Latitude()},
				},
				"$maxDistance": radiusKm * 1000,
			},
		},
	}

	findOptions := options.Find()
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := d.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stations []*ctdf.Station
	for cursor.Next(ctx) {
		var station *ctdf.Station
		if err := cursor.Decode(&station); err != nil {
			log.Error().Err(err).Msg("Failed to decode station")
			continue
		}

		station.FillNames()
		stations = append(stations, station)
	}

	return stations, cursor.Err()
}

// Upsert writes stations into the collection and drops their cache entries
func (d *MongoDirectory) Upsert(ctx context.Context, stations []*ctdf.Station) error {
	if len(stations) == 0 {
		return nil
	}

	var operations []mongo.WriteModel
	for _, station := range stations {
		operation := mongo.NewReplaceOneModel()
		operation.SetFilter(bson.M{"id": station.ID})
		operation.SetReplacement(station)
		operation.SetUpsert(true)

		operations = append(operations, operation)
	}

	result, err := d.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return err
	}

	for _, station := range stations {
		d.cache.Delete(ctx, stationCacheKey(station.ID))
	}

	log.Info().
		Int64("inserted", result.UpsertedCount).
		Int64("modified", result.ModifiedCount).
		Msg("Stations upserted")

	return nil
}

// Invalidate drops the cached entry for uri, including a cached miss
func (d *MongoDirectory) Invalidate(ctx context.Context, uri string) error {
	return d.cache.Delete(ctx, stationCacheKey(uri))
}

func (d *MongoDirectory) InvalidateAll(ctx context.Context) error {
	return d.cache.Clear(ctx)
}
