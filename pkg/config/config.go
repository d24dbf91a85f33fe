package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/lcplanner/pkg/util"
	"gopkg.in/yaml.v3"
)

const defaultBaseURL = "https://graph.irail.be/sncb/connections"
const defaultUserAgent = "lcplanner/1.0 (Linux; cli)"
const defaultStationsRepository = "https://raw.githubusercontent.com/iRail/stations/master/"

const (
	StationBackendMemory = "memory"
	StationBackendMongo  = "mongo"
)

type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Cache     CacheConfig     `yaml:"cache"`
	Planner   PlannerConfig   `yaml:"planner"`
	Footpaths FootpathConfig  `yaml:"footpaths"`
	Liveboard LiveboardConfig `yaml:"liveboard"`
	Events    EventsConfig    `yaml:"events"`
	Stations  StationsConfig  `yaml:"stations"`
}

type SourceConfig struct {
	BaseURL         string   `yaml:"base_url" validate:"required,url"`
	PageGranularity Duration `yaml:"page_granularity" validate:"gte=0"`
	UserAgent       string   `yaml:"user_agent" validate:"required"`
	FetchTimeout    Duration `yaml:"fetch_timeout" validate:"gt=0"`
	MaxRetries      uint64   `yaml:"max_retries" validate:"lte=10"`
}

type CacheConfig struct {
	MemoryTTL  Duration `yaml:"memory_ttl" validate:"gt=0"`
	RedisTTL   Duration `yaml:"redis_ttl" validate:"gt=0"`
	StationTTL Duration `yaml:"station_ttl" validate:"gt=0"`
	UseRedis   bool     `yaml:"use_redis"`
}

type PlannerConfig struct {
	MaxTransfers    int      `yaml:"max_transfers" validate:"gte=0,lte=16"`
	MaxPages        int      `yaml:"max_pages" validate:"gt=0"`
	TransferBuffer  Duration `yaml:"transfer_buffer" validate:"gte=0"`
	MaxTransferTime Duration `yaml:"max_transfer_time" validate:"gt=0"`
	ParseWorkers    int      `yaml:"parse_workers" validate:"gt=0"`
}

type FootpathConfig struct {
	WalkingSpeed float64 `yaml:"walking_speed" validate:"gt=0"`
	SearchRadius float64 `yaml:"search_radius" validate:"gte=0"`
	MaxResults   int     `yaml:"max_results" validate:"gt=0"`
}

type LiveboardConfig struct {
	DefaultWindow   Duration `yaml:"default_window" validate:"gt=0"`
	MaxPages        int      `yaml:"max_pages" validate:"gt=0"`
	ParseWorkers    int      `yaml:"parse_workers" validate:"gt=0"`
	ArrivalLookback Duration `yaml:"arrival_lookback" validate:"gte=0"`
}

type EventsConfig struct {
	SSEURL           string `yaml:"sse_url" validate:"omitempty,url"`
	QueueName        string `yaml:"queue_name" validate:"required"`
	StompAddress     string `yaml:"stomp_address"`
	StompDestination string `yaml:"stomp_destination" validate:"required_with=StompAddress"`
}

// StationsConfig picks where stations are looked up. The CSV locations are files or http(s) URLs,
// they are loaded into memory for the memory backend and imported by the data importer for mongo.
type StationsConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=memory mongo"`
	StationsCSV   string `yaml:"stations_csv" validate:"required"`
	FacilitiesCSV string `yaml:"facilities_csv"`
	StopsCSV      string `yaml:"stops_csv"`
}

func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:         defaultBaseURL,
			PageGranularity: Duration(10 * time.Minute),
			UserAgent:       defaultUserAgent,
			FetchTimeout:    Duration(30 * time.Second),
			MaxRetries:      3,
		},
		Cache: CacheConfig{
			MemoryTTL:  Duration(time.Hour),
			RedisTTL:   Duration(6 * time.Hour),
			StationTTL: Duration(90 * time.Minute),
		},
		Planner: PlannerConfig{
			MaxTransfers:    4,
			MaxPages:        250,
			TransferBuffer:  Duration(300 * time.Second),
			MaxTransferTime: Duration(time.Hour),
			ParseWorkers:    8,
		},
		Footpaths: FootpathConfig{
			WalkingSpeed: 5.0,
			SearchRadius: 3.0,
			MaxResults:   5,
		},
		Liveboard: LiveboardConfig{
			DefaultWindow:   Duration(30 * time.Minute),
			MaxPages:        100,
			ParseWorkers:    8,
			ArrivalLookback: Duration(time.Hour),
		},
		Events: EventsConfig{
			QueueName: "lc-page-updates",
		},
		Stations: StationsConfig{
			Backend:       StationBackendMemory,
			StationsCSV:   defaultStationsRepository + "stations.csv",
			FacilitiesCSV: defaultStationsRepository + "facilities.csv",
			StopsCSV:      defaultStationsRepository + "stops.csv",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, applies environment overrides and validates the result.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	if err := config.applyEnvironment(util.GetEnvironmentVariables()); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return config, nil
}

// LoadFromEnvironment loads the file named by TRAVIGO_LC_CONFIG, if any
func LoadFromEnvironment() (*Config, error) {
	return Load(util.GetEnvironmentVariables()["TRAVIGO_LC_CONFIG"])
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["TRAVIGO_LC_BASE_URL"] != "" {
		c.Source.BaseURL = env["TRAVIGO_LC_BASE_URL"]
	}

	if env["TRAVIGO_LC_USER_AGENT"] != "" {
		c.Source.UserAgent = env["TRAVIGO_LC_USER_AGENT"]
	}

	if env["TRAVIGO_LC_MAX_TRANSFERS"] != "" {
		n, err := strconv.Atoi(env["TRAVIGO_LC_MAX_TRANSFERS"])
		if err != nil {
			return fmt.Errorf("TRAVIGO_LC_MAX_TRANSFERS: %w", err)
		}
		c.Planner.MaxTransfers = n
	}

	if env["TRAVIGO_LC_MAX_PAGES"] != "" {
		n, err := strconv.Atoi(env["TRAVIGO_LC_MAX_PAGES"])
		if err != nil {
			return fmt.Errorf("TRAVIGO_LC_MAX_PAGES: %w", err)
		}
		c.Planner.MaxPages = n
	}

	if env["TRAVIGO_LC_USE_REDIS"] == "YES" {
		c.Cache.UseRedis = true
	}

	if env["TRAVIGO_LC_STATION_BACKEND"] != "" {
		c.Stations.Backend = env["TRAVIGO_LC_STATION_BACKEND"]
	}

	if env["TRAVIGO_LC_STATIONS_CSV"] != "" {
		c.Stations.StationsCSV = env["TRAVIGO_LC_STATIONS_CSV"]
	}

	if env["TRAVIGO_LC_SSE_URL"] != "" {
		c.Events.SSEURL = env["TRAVIGO_LC_SSE_URL"]
	}

	if env["TRAVIGO_LC_STOMP_ADDRESS"] != "" {
		c.Events.StompAddress = env["TRAVIGO_LC_STOMP_ADDRESS"]
	}

	if env["TRAVIGO_LC_STOMP_DESTINATION"] != "" {
		c.Events.StompDestination = env["TRAVIGO_LC_STOMP_DESTINATION"]
	}

	return nil
}
