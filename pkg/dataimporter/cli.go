package dataimporter

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/database"
	"github.com/travigo/lcplanner/pkg/redis_client"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/travigo/lcplanner/pkg/stations"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "data-importer",
		Usage: "Import the iRail station datasets into MongoDB",
		Subcommands: []*cli.Command{
			{
				Name:  "stations",
				Usage: "Import stations, facilities and platforms",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stations",
						Usage: "Stations CSV file or URL, defaults to the configured source",
					},
					&cli.StringFlag{
						Name:  "facilities",
						Usage: "Facilities CSV file or URL",
					},
					&cli.StringFlag{
						Name:  "stops",
						Usage: "Stops CSV file or URL",
					},
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Remove stations missing from the import",
					},
					&cli.StringFlag{
						Name:  "repeat-every",
						Usage: "Repeat this import every interval, e.g. 24h",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := services.LoadConfig(c)
					if err != nil {
						return err
					}

					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect(context.Background())
					if cfg.Cache.UseRedis {
						if err := redis_client.Connect(); err != nil {
							log.Fatal().Err(err).Msg("Failed to connect to Redis")
						}
					}

					importer := &StationImporter{
						Directory: stations.NewMongoDirectory(
							database.GetCollection(database.StationsCollection),
							redis_client.Client,
							cfg.Cache.StationTTL.Duration(),
						),
						Collection: database.GetCollection(database.StationsCollection),
						Prune:      c.Bool("prune"),

						StationsSource:   firstNonEmpty(c.String("stations"), cfg.Stations.StationsCSV),
						FacilitiesSource: firstNonEmpty(c.String("facilities"), cfg.Stations.FacilitiesCSV),
						StopsSource:      firstNonEmpty(c.String("stops"), cfg.Stations.StopsCSV),
					}

					repeatEvery := c.String("repeat-every")
					repeat := repeatEvery != ""
					var repeatDuration time.Duration
					if repeat {
						repeatDuration, err = time.ParseDuration(repeatEvery)
						if err != nil {
							return err
						}
					}

					for {
						startTime := time.Now()

						if err := importer.Import(c.Context); err != nil {
							return err
						}
						if !repeat {
							break
						}

						executionDuration := time.Since(startTime)
						log.Info().Msgf("Operation took %s", executionDuration.String())

						waitTime := repeatDuration - executionDuration

						if waitTime.Seconds() > 0 {
							select {
							case <-c.Context.Done():
								return nil
							case <-time.After(waitTime):
							}
						}
					}

					return nil
				},
			},
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
