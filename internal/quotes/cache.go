package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tradebook/internal/logger"
)

const cacheKeyPrefix = "quote:"

// Cache stores recent quotes so refreshes inside the TTL skip the provider.
type Cache interface {
	Get(ctx context.Context, symbol string) (*Quote, error)
	Set(ctx context.Context, q Quote) error
}

// redisCmdable is the subset of *redis.Client the cache uses.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisCache keeps quotes in Redis under "quote:<SYMBOL>" with a TTL.
type RedisCache struct {
	client redisCmdable
	ttl    time.Duration
}

// NewRedisCache connects to the Redis instance at redisURL
// (e.g. redis://localhost:6379/0).
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

type cachedQuote struct {
	Price     string    `json:"price"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Get returns the cached quote, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context, symbol string) (*Quote, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+symbol).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cq cachedQuote
	if err := json.Unmarshal(raw, &cq); err != nil {
		return nil, fmt.Errorf("decoding cached quote: %w", err)
	}
	price, err := decimal.NewFromString(cq.Price)
	if err != nil {
		return nil, fmt.Errorf("decoding cached price: %w", err)
	}
	return &Quote{Symbol: symbol, Price: price, Currency: cq.Currency, FetchedAt: cq.FetchedAt}, nil
}

// Set stores a quote for the cache TTL.
func (c *RedisCache) Set(ctx context.Context, q Quote) error {
	data, err := json.Marshal(cachedQuote{Price: q.Price.String(), Currency: q.Currency, FetchedAt: q.FetchedAt})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+q.Symbol, data, c.ttl).Err()
}

// CachedProvider serves quotes from a Cache and asks the wrapped provider
// only for misses. Cache failures degrade to misses.
type CachedProvider struct {
	inner Provider
	cache Cache
}

// NewCachedProvider wraps p with cache.
func NewCachedProvider(p Provider, cache Cache) *CachedProvider {
	return &CachedProvider{inner: p, cache: cache}
}

// Name returns the wrapped provider's name.
func (p *CachedProvider) Name() string { return p.inner.Name() }

// FetchQuotes implements Provider.
func (p *CachedProvider) FetchQuotes(ctx context.Context, symbols []string) ([]Quote, []FetchError) {
	log := logger.Named("quotes")

	var (
		results []Quote
		misses  []string
	)
	for _, symbol := range symbols {
		q, err := p.cache.Get(ctx, symbol)
		if err != nil {
			log.Warnw("quote cache read failed", "symbol", symbol, "error", err)
		}
		if q != nil {
			results = append(results, *q)
			continue
		}
		misses = append(misses, symbol)
	}
	if len(misses) == 0 {
		return results, nil
	}

	fetched, errs := p.inner.FetchQuotes(ctx, misses)
	for _, q := range fetched {
		if err := p.cache.Set(ctx, q); err != nil {
			log.Warnw("quote cache write failed", "symbol", q.Symbol, "error", err)
		}
	}
	return append(results, fetched...), errs
}
