package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemorySenderLocker_Serializes(t *testing.T) {
	locker := NewMemorySenderLocker()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "+1555")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most one holder, got %d", maxActive)
	}
	if len(locker.(*memorySenderLocker).locks) != 0 {
		t.Fatalf("expected lock map to be cleaned up")
	}
}

func TestMemorySenderLocker_ContextCancel(t *testing.T) {
	locker := NewMemorySenderLocker()
	unlock, err := locker.Lock(context.Background(), "+1555")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "+1555"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	other, err := locker.Lock(context.Background(), "+1666")
	if err != nil {
		t.Fatalf("expected other sender unaffected, got %v", err)
	}
	other()
}

func TestRedisSenderLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewRedisSenderLocker(client, 5*time.Second)
	unlock, err := locker.Lock(context.Background(), "+1555")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("sms:lock:+1555") {
		t.Fatalf("expected lock key in redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "+1555"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected contention to time out, got %v", err)
	}

	unlock()
	unlock()
	if mr.Exists("sms:lock:+1555") {
		t.Fatalf("expected lock key released")
	}

	again, err := locker.Lock(context.Background(), "+1555")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestRedisSenderLocker_DoesNotReleaseForeignLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewRedisSenderLocker(client, time.Second)
	unlock, err := locker.Lock(context.Background(), "+1555")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Simula que el TTL venció y otro proceso tomó el lock.
	mr.Set("sms:lock:+1555", "someone-else")
	unlock()

	got, err := mr.Get("sms:lock:+1555")
	if err != nil || got != "someone-else" {
		t.Fatalf("expected foreign lock kept, got %q %v", got, err)
	}
}
