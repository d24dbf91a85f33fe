package redis_client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/util"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0
const pingTimeout = 10 * time.Second

const queueConnectionName = "lcplanner"

// Connect sets up the shared redis client and the rmq queue connection on top of it
func Connect() error {
	address := util.GetEnvironmentVariable("TRAVIGO_REDIS_ADDRESS", defaultConnectionAddress)
	password := util.GetEnvironmentVariable("TRAVIGO_REDIS_PASSWORD", defaultConnectionPassword)

	database, err := strconv.Atoi(util.GetEnvironmentVariable("TRAVIGO_REDIS_DATABASE", strconv.Itoa(defaultDatabase)))
	if err != nil {
		return fmt.Errorf("TRAVIGO_REDIS_DATABASE: %w", err)
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		return err
	}

	errors := make(chan error, 10)
	go logQueueErrors(errors)

	QueueConnection, err = rmq.OpenConnectionWithRedisClient(queueConnectionName, Client, errors)
	if err != nil {
		return err
	}

	log.Info().Str("address", address).Int("database", database).Msg("Redis client setup")

	return nil
}

func logQueueErrors(errors <-chan error) {
	for err := range errors {
		log.Error().Err(err).Msg("Redis queue error")
	}
}
