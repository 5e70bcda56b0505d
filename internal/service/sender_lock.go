package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SenderLocker serializa los requests de un mismo remitente.
type SenderLocker interface {
	Lock(ctx context.Context, senderID string) (unlock func(), err error)
}

type memorySenderLocker struct {
	mu    sync.Mutex
	locks map[string]*senderLock
}

type senderLock struct {
	ch   chan struct{}
	refs int
}

// NewMemorySenderLocker crea un lock por remitente válido dentro de un proceso.
func NewMemorySenderLocker() SenderLocker {
	return &memorySenderLocker{locks: make(map[string]*senderLock)}
}

func (l *memorySenderLocker) Lock(ctx context.Context, senderID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[senderID]
	if !ok {
		e = &senderLock{ch: make(chan struct{}, 1)}
		l.locks[senderID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(senderID, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(senderID, e)
		return nil, ctx.Err()
	}
}

func (l *memorySenderLocker) release(senderID string, e *senderLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, senderID)
	}
}

const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisSenderLocker struct {
	client redisLockClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisSenderLocker crea un lock distribuido (SET NX PX) compartido entre instancias.
func NewRedisSenderLocker(client *redis.Client, ttl time.Duration) SenderLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisSenderLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "sms:lock:",
	}
}

func (l *redisSenderLocker) Lock(ctx context.Context, senderID string) (func(), error) {
	key := l.prefix + senderID
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					unlockCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
					defer cancel()
					_ = l.client.Eval(unlockCtx, redisUnlockScript, []string{key}, token).Err()
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
