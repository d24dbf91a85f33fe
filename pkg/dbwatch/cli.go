package dbwatch

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/database"
	"github.com/travigo/lcplanner/pkg/redis_client"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/travigo/lcplanner/pkg/stations"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "dbwatch",
		Usage: "Watches the stations collection and invalidates the shared station cache",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run dbwatch",
				Action: func(c *cli.Context) error {
					cfg, err := services.LoadConfig(c)
					if err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect(context.Background())
					if err := redis_client.Connect(); err != nil {
						return err
					}

					log.Info().Msg("Starting dbwatch server")

					collection := database.GetCollection(database.StationsCollection)
					watch := &StationsWatch{
						Collection: collection,
						Cache:      stations.NewMongoDirectory(collection, redis_client.Client, cfg.Cache.StationTTL.Duration()),
					}

					ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer cancel()

					return watch.Run(ctx)
				},
			},
		},
	}
}
