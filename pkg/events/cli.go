package events

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/config"
	"github.com/travigo/lcplanner/pkg/consumer"
	"github.com/travigo/lcplanner/pkg/network"
	"github.com/travigo/lcplanner/pkg/redis_client"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/travigo/lcplanner/pkg/util"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Follows live updates and invalidates cached pages",
		Subcommands: []*cli.Command{
			{
				Name:  "listen",
				Usage: "queue page updates from the configured SSE or STOMP source",
				Action: func(c *cli.Context) error {
					cfg, err := services.LoadConfig(c)
					if err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					source, err := sourceFromConfig(cfg)
					if err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(cfg.Events.QueueName)
					if err != nil {
						return err
					}

					publisher := &QueuePublisher{
						Queue:       queue,
						BaseURL:     cfg.Source.BaseURL,
						Granularity: cfg.Source.PageGranularity.Duration(),
					}

					ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer cancel()

					err = source.Listen(ctx, publisher.Handle)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				},
			},
			{
				Name:  "invalidate",
				Usage: "drop updated pages from the fragment cache",
				Action: func(c *cli.Context) error {
					cfg, err := services.LoadConfig(c)
					if err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}
					// The consumer only matters for the shared redis layer
					cfg.Cache.UseRedis = true

					built, err := services.Build(c.Context, cfg)
					if err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       cfg.Events.QueueName,
						NumberConsumers: 2,
						BatchSize:       50,
						Timeout:         2 * time.Second,
						Consumer:        NewInvalidationConsumer(built.Store),
						StatsAddress:    ":3333",
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
		},
	}
}

func sourceFromConfig(cfg *config.Config) (Source, error) {
	switch {
	case cfg.Events.SSEURL != "":
		client := network.NewClient(cfg.Source.UserAgent, 0, 0)
		return NewSSESource(cfg.Events.SSEURL, client), nil
	case cfg.Events.StompAddress != "":
		env := util.GetEnvironmentVariables()

		return &StompSource{
			Address:     cfg.Events.StompAddress,
			Username:    env["TRAVIGO_LC_STOMP_USERNAME"],
			Password:    env["TRAVIGO_LC_STOMP_PASSWORD"],
			Destination: cfg.Events.StompDestination,
		}, nil
	default:
		log.Error().Msg("Neither an SSE URL nor a STOMP address is configured")
		return nil, errors.New("no live update source configured")
	}
}
