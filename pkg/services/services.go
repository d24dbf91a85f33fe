package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/config"
	"github.com/travigo/lcplanner/pkg/database"
	"github.com/travigo/lcplanner/pkg/elastic_client"
	"github.com/travigo/lcplanner/pkg/footpath"
	"github.com/travigo/lcplanner/pkg/fragments"
	"github.com/travigo/lcplanner/pkg/liveboard"
	"github.com/travigo/lcplanner/pkg/network"
	"github.com/travigo/lcplanner/pkg/planner"
	"github.com/travigo/lcplanner/pkg/redis_client"
	"github.com/travigo/lcplanner/pkg/stations"
	"github.com/travigo/lcplanner/pkg/stats"
	"github.com/travigo/lcplanner/pkg/vehicles"
)

// Services is the dependency graph shared by the CLI commands and the web API
type Services struct {
	Config *config.Config

	Network   *network.Client
	Store     fragments.Store
	Fetcher   *fragments.Fetcher
	Stations  stations.Directory
	Footpaths *footpath.Model
	Vehicles  *vehicles.Directory
	Planner   *planner.Planner
	Liveboard *liveboard.Builder

	Records *stats.RecordsStats
}

// Build connects the configured backends and wires every component from cfg
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	if cfg.Cache.UseRedis && redis_client.Client == nil {
		if err := redis_client.Connect(); err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
	}

	stationDirectory, err := buildStationDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := elastic_client.Connect(false); err != nil {
		log.Error().Err(err).Msg("Failed to setup Elasticsearch, plan requests will not be indexed")
	}

	return Wire(cfg, stationDirectory, network.NewClient(cfg.Source.UserAgent, cfg.Source.FetchTimeout.Duration(), cfg.Source.MaxRetries)), nil
}

// Wire builds the components on top of an already constructed station directory and network client
func Wire(cfg *config.Config, stationDirectory stations.Directory, networkClient *network.Client) *Services {
	storeOptions := fragments.CacheStoreOptions{
		MemoryTTL: cfg.Cache.MemoryTTL.Duration(),
		RedisTTL:  cfg.Cache.RedisTTL.Duration(),
	}
	if cfg.Cache.UseRedis {
		storeOptions.Redis = redis_client.Client
	}
	store := fragments.NewCacheStore(storeOptions)

	fetcher := fragments.NewFetcher(cfg.Source.BaseURL, cfg.Source.PageGranularity.Duration(), networkClient, store)

	footpaths := footpath.NewModel(stationDirectory)
	footpaths.WalkingSpeed = cfg.Footpaths.WalkingSpeed
	footpaths.SearchRadius = cfg.Footpaths.SearchRadius
	footpaths.MaxResults = cfg.Footpaths.MaxResults
	footpaths.IntraStopFootpath = cfg.Planner.TransferBuffer.Duration()

	records := &stats.RecordsStats{}

	routePlanner := planner.NewPlanner(fetcher, stationDirectory, footpaths)
	routePlanner.MaxPages = cfg.Planner.MaxPages
	routePlanner.MaxTransferTime = cfg.Planner.MaxTransferTime.Duration()
	routePlanner.Workers = cfg.Planner.ParseWorkers
	routePlanner.Stats = stats.NewPlanRequestIndexer(records)

	liveboardBuilder := liveboard.NewBuilder(fetcher, stationDirectory)
	liveboardBuilder.DefaultWindow = cfg.Liveboard.DefaultWindow.Duration()
	liveboardBuilder.MaxPages = cfg.Liveboard.MaxPages
	liveboardBuilder.Workers = cfg.Liveboard.ParseWorkers
	liveboardBuilder.ArrivalLookback = cfg.Liveboard.ArrivalLookback.Duration()

	return &Services{
		Config:    cfg,
		Network:   networkClient,
		Store:     store,
		Fetcher:   fetcher,
		Stations:  stationDirectory,
		Footpaths: footpaths,
		Vehicles:  vehicles.NewDirectory(networkClient, stationDirectory, cfg.Cache.MemoryTTL.Duration()),
		Planner:   routePlanner,
		Liveboard: liveboardBuilder,
		Records:   records,
	}
}

func buildStationDirectory(ctx context.Context, cfg *config.Config) (stations.Directory, error) {
	switch cfg.Stations.Backend {
	case config.StationBackendMongo:
		if database.MongoGlobalInstance == nil {
			if err := database.Connect(); err != nil {
				return nil, fmt.Errorf("connecting to mongodb: %w", err)
			}
		}

		return stations.NewMongoDirectory(
			database.GetCollection(database.StationsCollection),
			redis_client.Client,
			cfg.Cache.StationTTL.Duration(),
		), nil
	default:
		allStations, err := stations.LoadSources(ctx, cfg.Stations.StationsCSV, cfg.Stations.FacilitiesCSV, cfg.Stations.StopsCSV)
		if err != nil {
			return nil, fmt.Errorf("loading stations: %w", err)
		}

		return stations.NewMemoryDirectory(allStations...), nil
	}
}
