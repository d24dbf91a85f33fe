package api

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/database"
	"github.com/travigo/lcplanner/pkg/dbwatch"
	"github.com/travigo/lcplanner/pkg/elastic_client"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/travigo/lcplanner/pkg/stations"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the Linked Connections web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					built, err := services.FromCLI(c)
					if err != nil {
						return err
					}
					defer elastic_client.WaitUntilQueueEmpty()

					if mongoDirectory, ok := built.Stations.(*stations.MongoDirectory); ok {
						collection := database.GetCollection(database.StationsCollection)

						go built.Records.UpdateStationCount(c.Context, collection, 10*time.Minute)

						watch := &dbwatch.StationsWatch{Collection: collection, Cache: mongoDirectory}
						go func() {
							if err := watch.Run(c.Context); err != nil {
								log.Error().Err(err).Msg("Station watch stopped")
							}
						}()
					}

					log.Info().Str("listen", c.String("listen")).Msg("Starting web API")

					return SetupServer(c.String("listen"), built)
				},
			},
		},
	}
}
