package marketdata

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"text-stock-tracker/internal/domain"
)

// Cache guarda respuestas serializadas del proveedor. Las fallas se ignoran:
// un cache caído solo significa ir al proveedor.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type redisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCache(client redis.Cmdable) Cache {
	if client == nil {
		return nil
	}
	return &redisCache{client: client, prefix: "marketdata:"}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

type lruCache struct {
	entries *expirable.LRU[string, lruEntry]
	now     func() time.Time
}

// NewLRUCache crea un cache en proceso; maxTTL acota cualquier ttl pedido en Set.
func NewLRUCache(size int, maxTTL time.Duration) Cache {
	if size <= 0 {
		size = 1024
	}
	return &lruCache{
		entries: expirable.NewLRU[string, lruEntry](size, nil, maxTTL),
		now:     time.Now,
	}
}

func (c *lruCache) Get(_ context.Context, key string) ([]byte, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *lruCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.entries.Add(key, lruEntry{value: value, expiresAt: c.now().Add(ttl)})
}

// CachingGateway decora un Gateway con cache de cotizaciones y búsquedas.
type CachingGateway struct {
	next      Gateway
	cache     Cache
	quoteTTL  time.Duration
	lookupTTL time.Duration
}

func NewCachingGateway(next Gateway, cache Cache, quoteTTL, lookupTTL time.Duration) Gateway {
	if cache == nil || (quoteTTL <= 0 && lookupTTL <= 0) {
		return next
	}
	return &CachingGateway{next: next, cache: cache, quoteTTL: quoteTTL, lookupTTL: lookupTTL}
}

func (g *CachingGateway) LookupByName(ctx context.Context, query string) ([]domain.CompanyMatch, error) {
	key := "lookup:" + strings.ToLower(strings.TrimSpace(query))
	if g.lookupTTL > 0 {
		if raw, ok := g.cache.Get(ctx, key); ok {
			var matches []domain.CompanyMatch
			if err := json.Unmarshal(raw, &matches); err == nil {
				return matches, nil
			}
		}
	}

	matches, err := g.next.LookupByName(ctx, query)
	if err != nil {
		return nil, err
	}
	if g.lookupTTL > 0 {
		if raw, err := json.Marshal(matches); err == nil {
			g.cache.Set(ctx, key, raw, g.lookupTTL)
		}
	}
	return matches, nil
}

func (g *CachingGateway) Quote(ctx context.Context, symbol string) (domain.Quote, bool, error) {
	key := "quote:" + strings.ToUpper(strings.TrimSpace(symbol))
	if g.quoteTTL > 0 {
		if raw, ok := g.cache.Get(ctx, key); ok {
			var q domain.Quote
			if err := json.Unmarshal(raw, &q); err == nil {
				return q, true, nil
			}
		}
	}

	q, found, err := g.next.Quote(ctx, symbol)
	if err != nil || !found {
		return q, found, err
	}
	if g.quoteTTL > 0 {
		if raw, err := json.Marshal(q); err == nil {
			g.cache.Set(ctx, key, raw, g.quoteTTL)
		}
	}
	return q, true, nil
}
