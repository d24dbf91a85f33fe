package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/fragments"
)

// QueuePublisher turns live update messages into PageUpdate entries on the rmq queue
type QueuePublisher struct {
	Queue rmq.Queue

	BaseURL     string
	Granularity time.Duration
}

func (p *QueuePublisher) Handle(message Message) error {
	pageURIs, err := PageURIs(message, p.BaseURL, p.Granularity)
	if err != nil {
		log.Error().Err(err).Str("id", message.ID).Msg("Ignoring unreadable update message")
		return nil
	}

	for _, uri := range pageURIs {
		updateBytes, err := json.Marshal(PageUpdate{URI: uri})
		if err != nil {
			return err
		}

		if err := p.Queue.PublishBytes(updateBytes); err != nil {
			return err
		}
	}

	log.Debug().Str("id", message.ID).Int("pages", len(pageURIs)).Msg("Queued page updates")

	return nil
}

// InvalidationConsumer drops updated pages from the fragment store so the next request fetches them again
type InvalidationConsumer struct {
	Store fragments.Store
}

func NewInvalidationConsumer(store fragments.Store) *InvalidationConsumer {
	return &InvalidationConsumer{Store: store}
}

func (c *InvalidationConsumer) Consume(batch rmq.Deliveries) {
	ctx := context.Background()

	for _, delivery := range batch {
		var update PageUpdate
		if err := json.Unmarshal([]byte(delivery.Payload()), &update); err != nil || update.URI == "" {
			log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Rejecting page update")
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject page update")
			}
			continue
		}

		if err := c.Store.Invalidate(ctx, update.URI); err != nil {
			log.Error().Err(err).Str("uri", update.URI).Msg("Failed to invalidate page")
			if err := delivery.Push(); err != nil {
				log.Error().Err(err).Msg("Failed to push page update")
			}
			continue
		}

		log.Debug().Str("uri", update.URI).Msg("Invalidated page")

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack page update")
		}
	}
}
