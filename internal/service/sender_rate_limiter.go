package service

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// SenderRateLimiter limita cuántos mensajes acepta un remitente por ventana.
type SenderRateLimiter interface {
	Allow(senderID string) bool
}

const redisSenderAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisSenderRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisSenderRateLimiter(client *redis.Client, window time.Duration, max int) SenderRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisSenderRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "sms:rl:",
	}
}

func (l *redisSenderRateLimiter) Allow(senderID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := strings.TrimSpace(senderID)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisSenderAllowScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		// Si Redis no responde preferimos contestar igual.
		return true
	}
	return count <= l.max
}

type memorySenderRateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewMemorySenderRateLimiter crea un token bucket por remitente con limpieza automática.
func NewMemorySenderRateLimiter(window time.Duration, max int) SenderRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memorySenderRateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](10000, nil, 2*window),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
	}
}

func (l *memorySenderRateLimiter) Allow(senderID string) bool {
	key := strings.TrimSpace(senderID)
	if key == "" {
		return false
	}
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, limiter)
	}
	return limiter.Allow()
}
