package events

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"

	"github.com/go-stomp/stomp/v3"
	"github.com/rs/zerolog/log"
)

// StompSource reads update messages from a STOMP destination, gzip compressed bodies are unpacked
type StompSource struct {
	Address     string
	Username    string
	Password    string
	Destination string
}

func (s *StompSource) Listen(ctx context.Context, handler func(Message) error) error {
	var stompOptions []func(*stomp.Conn) error
	if s.Username != "" {
		stompOptions = append(stompOptions, stomp.ConnOpt.Login(s.Username, s.Password))
	}

	conn, err := stomp.Dial("tcp", s.Address, stompOptions...)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	sub, err := conn.Subscribe(s.Destination, stomp.AckAuto)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	log.Info().Str("address", s.Address).Str("destination", s.Destination).Msg("Subscribed to STOMP destination")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C:
			if !ok {
				return errStreamClosed
			}
			if msg.Err != nil {
				return msg.Err
			}

			body, err := decodeBody(msg.Body)
			if err != nil {
				log.Error().Err(err).Msg("Cannot decode STOMP message body")
				continue
			}

			message := Message{
				ID:    msg.Header.Get("message-id"),
				Event: msg.Destination,
				Data:  string(body),
			}
			if err := handler(message); err != nil {
				return err
			}
		}
	}
}

func decodeBody(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}

	gzipDecoder, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer gzipDecoder.Close()

	return io.ReadAll(gzipDecoder)
}
