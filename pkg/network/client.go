package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/util"
)

const (
	AcceptLinkedData   = "application/ld+json"
	AcceptEventStream  = "text/event-stream"
	defaultInitialWait = 500 * time.Millisecond
)

type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	MaxRetries      uint64
	InitialInterval time.Duration

	// Bounds a single fetch including its retries
	Timeout time.Duration
}

func NewClient(userAgent string, timeout time.Duration, maxRetries uint64) *Client {
	return &Client{
		HTTPClient:      &http.Client{},
		UserAgent:       userAgent,
		MaxRetries:      maxRetries,
		InitialInterval: defaultInitialWait,
		Timeout:         timeout,
	}
}

// Fetch retrieves uri as JSON-LD. Transport failures, 429 and 5xx responses are retried with exponential backoff,
// any other non 200 response fails straight away.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	retryBackoff := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		retryBackoff.InitialInterval = c.InitialInterval
	}
	retryBackoff.MaxElapsedTime = 0

	startTime := time.Now()

	body, err := backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			return c.fetchOnce(ctx, uri)
		},
		backoff.WithContext(backoff.WithMaxRetries(retryBackoff, c.MaxRetries), ctx),
		func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("uri", uri).Str("wait", wait.String()).Msg("Retrying fetch")
		},
	)
	if err != nil {
		var networkError *ctdf.NetworkError
		if errors.As(err, &networkError) {
			return nil, networkError
		}
		return nil, &ctdf.NetworkError{URI: uri, Err: err}
	}

	log.Debug().Str("uri", uri).Str("latency", time.Since(startTime).String()).Int("bytes", len(body)).Msg("Fetched resource")

	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, uri string) ([]byte, error) {
	response, err := c.do(ctx, uri, AcceptLinkedData)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&ctdf.NetworkError{URI: uri, Err: ctx.Err()})
		}
		return nil, &ctdf.NetworkError{URI: uri, Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &ctdf.NetworkError{URI: uri, Err: err}
	}

	if response.StatusCode != http.StatusOK {
		statusError := &ctdf.NetworkError{
			URI:        uri,
			StatusCode: response.StatusCode,
			Err:        fmt.Errorf("%s: %s", response.Status, util.TrimString(string(body), 200)),
		}

		if response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= http.StatusInternalServerError {
			return nil, statusError
		}
		return nil, backoff.Permanent(statusError)
	}

	return body, nil
}

// Stream opens uri as a server-sent event stream, the caller closes the body
func (c *Client) Stream(ctx context.Context, uri string) (io.ReadCloser, error) {
	response, err := c.do(ctx, uri, AcceptEventStream)
	if err != nil {
		return nil, &ctdf.NetworkError{URI: uri, Err: err}
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, &ctdf.NetworkError{URI: uri, StatusCode: response.StatusCode}
	}

	return response.Body, nil
}

func (c *Client) do(ctx context.Context, uri string, accept string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	request.Header.Set("Accept", accept)
	request.Header.Set("User-Agent", c.UserAgent)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return httpClient.Do(request)
}
