package consumer

import (
	"fmt"
	"net/http"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/redis_client"
)

const defaultStatsAddress = ":3333"

// RedisConsumer runs NumberConsumers batch consumers on an rmq queue
type RedisConsumer struct {
	QueueName string

	NumberConsumers int
	BatchSize       int

	Timeout time.Duration

	Consumer rmq.BatchConsumer

	// Serves queue stats and health when set, leave empty to skip
	StatsAddress string
}

func (c *RedisConsumer) Setup() error {
	if err := c.startConsumers(redis_client.QueueConnection); err != nil {
		return err
	}

	if c.StatsAddress != "" {
		go c.startStatsServer()
	}

	return nil
}

func (c *RedisConsumer) startConsumers(connection rmq.Connection) error {
	log.Info().Str("queue", c.QueueName).Int("consumers", c.NumberConsumers).Msg("Starting consumers")

	queue, err := connection.OpenQueue(c.QueueName)
	if err != nil {
		return err
	}
	if err := queue.StartConsuming(int64(c.NumberConsumers*c.BatchSize), 1*time.Second); err != nil {
		return err
	}

	for i := 0; i < c.NumberConsumers; i++ {
		tag := fmt.Sprintf("%s-%d", c.QueueName, i)
		if _, err := queue.AddBatchConsumer(tag, int64(c.BatchSize), c.Timeout, c.Consumer); err != nil {
			return err
		}
	}

	return nil
}

func (c *RedisConsumer) startStatsServer() {
	endpoint := fmt.Sprintf("/%s/stats", c.QueueName)

	mux := http.NewServeMux()
	mux.Handle(endpoint, NewStatsHandler(redis_client.QueueConnection))
	mux.Handle("/health", NewHealthHandler())

	log.Info().Msgf("Stats server listening on http://localhost%s%s", c.StatsAddress, endpoint)
	if err := http.ListenAndServe(c.StatsAddress, mux); err != nil {
		log.Error().Err(err).Msg("Stats server stopped")
	}
}
