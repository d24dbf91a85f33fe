package fragments

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"golang.org/x/sync/singleflight"
)

// Network is the raw fetch primitive the fetcher falls back to on a cache miss
type Network interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// PageSource is anything that can resolve pages by time and by URI
type PageSource interface {
	FetchPageAt(ctx context.Context, t time.Time) (*ctdf.Page, error)
	FetchPage(ctx context.Context, uri string) (*ctdf.Page, error)
}

type Fetcher struct {
	BaseURL     string
	Granularity time.Duration

	network Network
	store   Store

	requests singleflight.Group

	listenersMutex sync.RWMutex
	listeners      []func(uri string)
}

func NewFetcher(baseURL string, granularity time.Duration, network Network, store Store) *Fetcher {
	return &Fetcher{
		BaseURL:     baseURL,
		Granularity: granularity,
		network:     network,
		store:       store,
	}
}

// OnPageReceived registers a listener called with the page URI after every successful fetch
func (f *Fetcher) OnPageReceived(listener func(uri string)) {
	f.listenersMutex.Lock()
	defer f.listenersMutex.Unlock()

	f.listeners = append(f.listeners, listener)
}

func (f *Fetcher) notifyPageReceived(uri string) {
	f.listenersMutex.RLock()
	defer f.listenersMutex.RUnlock()

	for _, listener := range f.listeners {
		listener(uri)
	}
}

// FetchPageAt returns the page holding departures at t
func (f *Fetcher) FetchPageAt(ctx context.Context, t time.Time) (*ctdf.Page, error) {
	return f.FetchPage(ctx, PageURI(f.BaseURL, t, f.Granularity))
}

// FetchPage returns the page published at uri, from the store when possible.
// Concurrent fetches of the same missing uri share a single network request.
func (f *Fetcher) FetchPage(ctx context.Context, uri string) (*ctdf.Page, error) {
	if page, err := f.store.Get(ctx, uri); err == nil {
		log.Debug().Str("uri", uri).Msg("Page cache hit")
		f.notifyPageReceived(uri)
		return page, nil
	}

	result, err, _ := f.requests.Do(uri, func() (interface{}, error) {
		return f.fetchFromNetwork(ctx, uri)
	})
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Failed to fetch page")
		return nil, err
	}

	f.notifyPageReceived(uri)

	return result.(*ctdf.Page), nil
}

func (f *Fetcher) fetchFromNetwork(ctx context.Context, uri string) (*ctdf.Page, error) {
	body, err := f.network.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(uri, body)
	if err != nil {
		return nil, err
	}

	if err := f.store.Put(ctx, uri, page); err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Failed to cache page")
	}
	if page.URI != uri {
		if err := f.store.Put(ctx, page.URI, page); err != nil {
			log.Error().Err(err).Str("uri", page.URI).Msg("Failed to cache page")
		}
	}

	log.Debug().Str("uri", uri).Int("fragments", len(page.Fragments)).Msg("Page fetched")

	return page, nil
}
