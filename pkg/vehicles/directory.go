package vehicles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/stations"
)

// Network fetches raw vehicle documents
type Network interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Directory resolves vehicle URIs into their stop lists
type Directory struct {
	network  Network
	stations stations.Directory
	cache    cache.CacheInterface[string]
}

func NewDirectory(network Network, stationDirectory stations.Directory, ttl time.Duration) *Directory {
	memoryStore := gocachestore.NewGoCache(gocache.New(ttl, ttl/2), store.WithExpiration(ttl))

	return &Directory{
		network:  network,
		stations: stationDirectory,
		cache:    cache.New[string](memoryStore),
	}
}

func vehicleCacheKey(uri string, language ctdf.Language) string {
	return fmt.Sprintf("lc_vehicle:%s:%s", language, uri)
}

// Get fetches the vehicle at uri with station names in the given language
func (d *Directory) Get(ctx context.Context, uri string, language ctdf.Language) (*ctdf.Vehicle, error) {
	if uri == "" {
		return nil, &ctdf.InvalidInputError{Field: "vehicle", Reason: "must not be empty"}
	}

	cacheKey := vehicleCacheKey(uri, language)
	if cachedValue, err := d.cache.Get(ctx, cacheKey); err == nil && cachedValue != "" {
		var vehicle *ctdf.Vehicle
		if err := json.Unmarshal([]byte(cachedValue), &vehicle); err == nil {
			return vehicle, nil
		}
	}

	body, err := d.network.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	parsed, err := parseVehicle(uri, body)
	if err != nil {
		return nil, err
	}

	vehicle := &ctdf.Vehicle{
		URI:     uri,
		TripURI: uri,
		Stops:   make([]*ctdf.VehicleStop, 0, len(parsed.Stops)),
	}
	if parsed.TripDate != "" {
		vehicle.TripURI = fmt.Sprintf("%s/%s", uri, parsed.TripDate)
	}

	for _, parsedStop := range parsed.Stops {
		station, err := d.stations.Get(ctx, parsedStop.StationURI)
		if err != nil {
			log.Error().Err(err).Str("vehicle", uri).Str("station", parsedStop.StationURI).Msg("Unknown station on vehicle")
			return nil, err
		}

		parsedStop.Stop.Station = station
		vehicle.Stops = append(vehicle.Stops, parsedStop.Stop)
	}

	if len(vehicle.Stops) > 0 {
		vehicle.Headsign = vehicle.Stops[len(vehicle.Stops)-1].Station.NameIn(language)
	}

	if vehicleJSON, err := json.Marshal(vehicle); err == nil {
		d.cache.Set(ctx, cacheKey, string(vehicleJSON))
	}

	log.Debug().Str("vehicle", uri).Int("stops", len(vehicle.Stops)).Msg("Vehicle fetched")

	return vehicle, nil
}
