package events

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const DefaultMaxReconnects = 3

var errStreamClosed = errors.New("event stream closed by server")

// Source delivers live update messages to handler until ctx is cancelled or the source gives up
type Source interface {
	Listen(ctx context.Context, handler func(Message) error) error
}

type Streamer interface {
	Stream(ctx context.Context, uri string) (io.ReadCloser, error)
}

// SSESource follows a text/event-stream endpoint.
// A dropped stream is reopened up to MaxReconnects times in a row, receiving a message resets the count.
type SSESource struct {
	URL    string
	Client Streamer

	MaxReconnects  uint64
	ReconnectDelay time.Duration
}

func NewSSESource(url string, client Streamer) *SSESource {
	return &SSESource{
		URL:            url,
		Client:         client,
		MaxReconnects:  DefaultMaxReconnects,
		ReconnectDelay: time.Second,
	}
}

func (s *SSESource) Listen(ctx context.Context, handler func(Message) error) error {
	reconnectBackoff := backoff.NewExponentialBackOff()
	reconnectBackoff.InitialInterval = s.ReconnectDelay
	reconnectBackoff.MaxElapsedTime = 0

	retryPolicy := backoff.WithContext(backoff.WithMaxRetries(reconnectBackoff, s.MaxReconnects), ctx)

	return backoff.RetryNotify(
		func() error {
			body, err := s.Client.Stream(ctx, s.URL)
			if err != nil {
				return err
			}
			defer body.Close()

			err = readEvents(body, func(message Message) error {
				retryPolicy.Reset()
				if message.Retry > 0 {
					reconnectBackoff.InitialInterval = message.Retry
				}

				if err := handler(message); err != nil {
					return backoff.Permanent(err)
				}
				return nil
			})
			if err != nil {
				return err
			}

			return errStreamClosed
		},
		retryPolicy,
		func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("url", s.URL).Str("wait", wait.String()).Msg("Reconnecting to event stream")
		},
	)
}

// readEvents splits r into server-sent events, a blank line ends each event
func readEvents(r io.Reader, handler func(Message) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var message Message
	var data []string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 {
				message.Data = strings.Join(data, "\n")
				if err := handler(message); err != nil {
					return err
				}
			}

			message = Message{ID: message.ID}
			data = nil
			continue
		}

		// Comment
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "id":
			message.ID = value
		case "event":
			message.Event = value
		case "data":
			data = append(data, value)
		case "retry":
			if milliseconds, err := strconv.Atoi(value); err == nil {
				message.Retry = time.Duration(milliseconds) * time.Millisecond
			}
		}
	}

	return scanner.Err()
}
