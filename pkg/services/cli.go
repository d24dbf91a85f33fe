package services

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/config"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/liveboard"
	"github.com/travigo/lcplanner/pkg/planner"
	"github.com/urfave/cli/v2"
)

const (
	stationURIPrefix = "http://irail.be/stations/NMBS/"
	vehicleURIPrefix = "http://irail.be/vehicle/"
)

// StationURI expands a bare NMBS station code such as 008811189 into its URI
func StationURI(value string) string {
	if value == "" || strings.HasPrefix(value, "http") {
		return value
	}

	return stationURIPrefix + value
}

// VehicleURI expands a bare vehicle id such as IC1832 into its URI
func VehicleURI(value string) string {
	if value == "" || strings.HasPrefix(value, "http") {
		return value
	}

	return vehicleURIPrefix + value
}

// LoadConfig reads the file given by the global --config flag, falling back to TRAVIGO_LC_CONFIG
func LoadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}

	return config.LoadFromEnvironment()
}

// FromCLI loads the configuration and builds the services for a command
func FromCLI(c *cli.Context) (*Services, error) {
	cfg, err := LoadConfig(c)
	if err != nil {
		return nil, err
	}

	return Build(c.Context, cfg)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}

	return time.Parse(time.RFC3339, value)
}

func languageFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "language",
		Usage: "Station name language (fr, nl, de, en)",
	}
}

func RegisterCLI() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "plan",
			Usage: "Plan routes between two stations",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "from", Usage: "Origin station URI or NMBS code", Required: true},
				&cli.StringFlag{Name: "to", Usage: "Destination station URI or NMBS code", Required: true},
				&cli.StringFlag{Name: "datetime", Usage: "Departure time in RFC3339, defaults to now"},
				&cli.IntFlag{Name: "max-transfers", Usage: "Maximum number of transfers", Value: -1},
				&cli.BoolFlag{Name: "verbose", Usage: "Print the full routes"},
				languageFlag(),
			},
			Action: func(c *cli.Context) error {
				services, err := FromCLI(c)
				if err != nil {
					return err
				}

				departureTime, err := parseTimeFlag(c.String("datetime"))
				if err != nil {
					return err
				}

				maxTransfers := c.Int("max-transfers")
				if maxTransfers < 0 {
					maxTransfers = services.Config.Planner.MaxTransfers
				}

				ctx, cancel := signalContext(c.Context)
				defer cancel()

				request := &planner.Request{
					Origin:        StationURI(c.String("from")),
					Destination:   StationURI(c.String("to")),
					DepartureTime: departureTime,
					MaxTransfers:  maxTransfers,
					Language:      ctdf.ParseLanguage(c.String("language")),
					OnStateChange: func(state planner.State) {
						log.Debug().Str("state", string(state)).Msg("Planner state")
					},
					OnProgress: func(percent int) {
						log.Debug().Int("percent", percent).Msg("Collecting connections")
					},
				}

				result, err := services.Planner.Plan(ctx, request)
				if err != nil {
					return err
				}

				if err := result.Unreachable(); err != nil {
					log.Warn().Err(err).Msg("No routes found")
					return nil
				}

				for _, route := range result.Routes {
					printRoute(route, request.Language)
					if c.Bool("verbose") {
						pretty.Println(route)
					}
				}

				log.Info().
					Int("routes", len(result.Routes)).
					Int("pages", result.Pages).
					Int("fragments", result.Fragments).
					Msg("Planning finished")

				return nil
			},
		},
		{
			Name:  "liveboard",
			Usage: "Show departures or arrivals at a station",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "station", Usage: "Station URI or NMBS code", Required: true},
				&cli.BoolFlag{Name: "arrivals", Usage: "Show arrivals instead of departures"},
				&cli.StringFlag{Name: "from", Usage: "Start of the window in RFC3339"},
				&cli.StringFlag{Name: "until", Usage: "End of the window in RFC3339"},
				&cli.StringFlag{Name: "filter", Usage: "Expression entries have to match, e.g. Delay > 0"},
				&cli.IntFlag{Name: "earlier", Usage: "Extend the board this many windows into the past"},
				&cli.IntFlag{Name: "later", Usage: "Extend the board this many windows into the future"},
				languageFlag(),
			},
			Action: func(c *cli.Context) error {
				services, err := FromCLI(c)
				if err != nil {
					return err
				}

				query := liveboard.Query{
					Station:  StationURI(c.String("station")),
					Mode:     ctdf.LiveboardModeDepartures,
					Filter:   c.String("filter"),
					Language: ctdf.ParseLanguage(c.String("language")),
				}
				if c.Bool("arrivals") {
					query.Mode = ctdf.LiveboardModeArrivals
				}
				if c.String("from") != "" {
					if query.From, err = time.Parse(time.RFC3339, c.String("from")); err != nil {
						return err
					}
				}
				if c.String("until") != "" {
					if query.Until, err = time.Parse(time.RFC3339, c.String("until")); err != nil {
						return err
					}
				}

				ctx, cancel := signalContext(c.Context)
				defer cancel()

				board, err := services.Liveboard.Get(ctx, query)
				if err != nil {
					return err
				}

				for i := 0; i < c.Int("earlier"); i++ {
					if board, err = services.Liveboard.Extend(ctx, board, liveboard.DirectionEarlier); err != nil {
						return err
					}
				}
				for i := 0; i < c.Int("later"); i++ {
					if board, err = services.Liveboard.Extend(ctx, board, liveboard.DirectionLater); err != nil {
						return err
					}
				}

				fmt.Printf("%s %s %s - %s\n", board.Station.NameIn(query.Language), board.Mode,
					board.From.Local().Format("15:04"), board.Until.Local().Format("15:04"))
				for _, entry := range board.Entries {
					delay := ""
					if !entry.IsOnTime() {
						delay = fmt.Sprintf(" +%d", int(entry.Delay.Minutes()))
					}
					fmt.Printf("  %s%s  %-30s %s\n", entry.ScheduledTime.Local().Format("15:04"), delay,
						entry.Station.NameIn(query.Language), entry.Direction)
				}

				return nil
			},
		},
		{
			Name:  "vehicle",
			Usage: "Show the stops of a vehicle",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "Vehicle URI or id such as IC1832", Required: true},
				languageFlag(),
			},
			Action: func(c *cli.Context) error {
				services, err := FromCLI(c)
				if err != nil {
					return err
				}

				ctx, cancel := signalContext(c.Context)
				defer cancel()

				vehicle, err := services.Vehicles.Get(ctx, VehicleURI(c.String("id")), ctdf.ParseLanguage(c.String("language")))
				if err != nil {
					return err
				}

				pretty.Println(vehicle)

				return nil
			},
		},
		{
			Name:  "station",
			Usage: "Look up a station and its nearby stations",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "Station URI or NMBS code", Required: true},
				&cli.BoolFlag{Name: "nearby", Usage: "List stations within walking distance"},
			},
			Action: func(c *cli.Context) error {
				services, err := FromCLI(c)
				if err != nil {
					return err
				}

				station, err := services.Stations.Get(c.Context, StationURI(c.String("id")))
				if err != nil {
					return err
				}

				pretty.Println(station)

				if c.Bool("nearby") {
					footpaths, err := services.Footpaths.Nearby(c.Context, station)
					if err != nil {
						return err
					}

					for _, profile := range footpaths {
						fmt.Printf("  %-30s %.2fkm %s\n", profile.Departure.DefaultName, profile.Distance, profile.Duration)
					}
				}

				return nil
			},
		},
	}
}

func printRoute(route *ctdf.Route, language ctdf.Language) {
	fmt.Printf("%s -> %s (%s, %d transfers)\n",
		route.DepartureTime().Local().Format("15:04"),
		route.ArrivalTime().Local().Format("15:04"),
		route.Duration(),
		route.TransferCount,
	)

	for _, leg := range route.Legs {
		description := leg.Direction
		if leg.Footpath {
			description = "walk"
		}

		fmt.Printf("  %s %-30s %s %-30s %s\n",
			leg.Departure.Time.Local().Format("15:04"), leg.Departure.Station.NameIn(language),
			leg.Arrival.Time.Local().Format("15:04"), leg.Arrival.Station.NameIn(language),
			description,
		)
	}
}
