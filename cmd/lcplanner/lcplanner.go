package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/api"
	"github.com/travigo/lcplanner/pkg/dataimporter"
	"github.com/travigo/lcplanner/pkg/dbwatch"
	"github.com/travigo/lcplanner/pkg/events"
	"github.com/travigo/lcplanner/pkg/services"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRAVIGO_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRAVIGO_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	commands := []*cli.Command{
		api.RegisterCLI(),
		events.RegisterCLI(),
		dataimporter.RegisterCLI(),
		dbwatch.RegisterCLI(),
	}
	commands = append(commands, services.RegisterCLI()...)

	app := &cli.App{
		Name:        "lcplanner",
		Description: "Route planning and liveboards over Linked Connections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML configuration file",
				EnvVars: []string{"TRAVIGO_LC_CONFIG"},
			},
		},
		Commands: commands,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
