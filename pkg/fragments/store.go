package fragments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	redisstore "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

// Store is the local-first page cache consulted before any network fetch
type Store interface {
	Get(ctx context.Context, uri string) (*ctdf.Page, error)
	Put(ctx context.Context, uri string, page *ctdf.Page) error
	Invalidate(ctx context.Context, uri string) error
}

type CacheStoreOptions struct {
	MemoryTTL time.Duration

	// Optional shared layer behind the in-process cache
	Redis    *redis.Client
	RedisTTL time.Duration
}

// CacheStore keeps pages in process memory and, when configured, in redis so pages are shared between instances.
// Entries expire after their layer's TTL.
type CacheStore struct {
	cache cache.CacheInterface[string]

	putMutex sync.Mutex
}

func NewCacheStore(options CacheStoreOptions) *CacheStore {
	memoryTTL := options.MemoryTTL
	if memoryTTL <= 0 {
		memoryTTL = time.Hour
	}

	memoryClient := gocache.New(memoryTTL, memoryTTL/2)
	memoryStore := gocachestore.NewGoCache(memoryClient, store.WithExpiration(memoryTTL))

	if options.Redis == nil {
		return &CacheStore{cache: cache.New[string](memoryStore)}
	}

	redisTTL := options.RedisTTL
	if redisTTL <= 0 {
		redisTTL = memoryTTL
	}
	redisStore := redisstore.NewRedis(options.Redis, store.WithExpiration(redisTTL))

	return &CacheStore{
		cache: cache.NewChain[string](
			cache.New[string](memoryStore),
			cache.New[string](redisStore),
		),
	}
}

func pageCacheKey(uri string) string {
	return fmt.Sprintf("lc_page:%s", uri)
}

func (s *CacheStore) Get(ctx context.Context, uri string) (*ctdf.Page, error) {
	cachedValue, err := s.cache.Get(ctx, pageCacheKey(uri))
	if err != nil || cachedValue == "" {
		return nil, &ctdf.NotFoundError{Kind: "Page", ID: uri}
	}

	var page *ctdf.Page
	if err := json.Unmarshal([]byte(cachedValue), &page); err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Dropping unreadable cached page")
		s.cache.Delete(ctx, pageCacheKey(uri))

		return nil, &ctdf.NotFoundError{Kind: "Page", ID: uri}
	}

	return page, nil
}

// Put stores page under uri unless an entry already exists, in which case the new page is discarded
func (s *CacheStore) Put(ctx context.Context, uri string, page *ctdf.Page) error {
	s.putMutex.Lock()
	defer s.putMutex.Unlock()

	if existing, err := s.cache.Get(ctx, pageCacheKey(uri)); err == nil && existing != "" {
		return nil
	}

	pageJSON, err := json.Marshal(page)
	if err != nil {
		return err
	}

	return s.cache.Set(ctx, pageCacheKey(uri), string(pageJSON))
}

func (s *CacheStore) Invalidate(ctx context.Context, uri string) error {
	return s.cache.Delete(ctx, pageCacheKey(uri))
}
