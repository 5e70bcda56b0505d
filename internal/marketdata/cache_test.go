package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text-stock-tracker/internal/domain"
)

func price(v float64) *float64 { return &v }

func TestCachingGateway_QuoteServedFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mock := &MockGateway{Quotes: map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc", LastPrice: price(150)},
	}}
	gw := NewCachingGateway(mock, NewRedisCache(client), time.Minute, time.Minute)

	for i := 0; i < 3; i++ {
		q, found, err := gw.Quote(context.Background(), "AAPL")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Apple Inc", q.Name)
		require.NotNil(t, q.LastPrice)
		assert.InDelta(t, 150.0, *q.LastPrice, 0.0001)
	}
	assert.Len(t, mock.QuoteCalls, 1)
	assert.True(t, mr.Exists("marketdata:quote:AAPL"))

	mr.FastForward(2 * time.Minute)
	_, _, err := gw.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, mock.QuoteCalls, 2)
}

func TestCachingGateway_NotFoundAndErrorsNotCached(t *testing.T) {
	mock := &MockGateway{}
	gw := NewCachingGateway(mock, NewLRUCache(16, time.Minute), time.Minute, time.Minute)

	_, found, err := gw.Quote(context.Background(), "ZZZ")
	require.NoError(t, err)
	assert.False(t, found)
	_, _, _ = gw.Quote(context.Background(), "ZZZ")
	assert.Len(t, mock.QuoteCalls, 2)

	mock.LookupErr = &GatewayError{Kind: KindUnreachable, Op: opLookup, Err: errors.New("down")}
	_, err = gw.LookupByName(context.Background(), "apple")
	require.Error(t, err)
	mock.LookupErr = nil
	_, err = gw.LookupByName(context.Background(), "apple")
	require.NoError(t, err)
	assert.Len(t, mock.LookupCalls, 2)
}

func TestCachingGateway_LookupCachedCaseInsensitive(t *testing.T) {
	mock := &MockGateway{Matches: map[string][]domain.CompanyMatch{
		"Wal Mart": {{Name: "Walmart Inc", Exchange: "NYSE", Symbol: "WMT"}},
	}}
	gw := NewCachingGateway(mock, NewLRUCache(16, time.Hour), time.Minute, time.Hour)

	first, err := gw.LookupByName(context.Background(), "Wal Mart")
	require.NoError(t, err)
	second, err := gw.LookupByName(context.Background(), "wal mart")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, mock.LookupCalls, 1)
}

func TestLRUCache_HonoursPerEntryTTL(t *testing.T) {
	c := NewLRUCache(4, time.Hour).(*lruCache)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(context.Background(), "k", []byte("v"), time.Second)
	_, ok := c.Get(context.Background(), "k")
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestNewCachingGateway_NoCacheReturnsNext(t *testing.T) {
	mock := &MockGateway{}
	gw := NewCachingGateway(mock, nil, time.Minute, time.Minute)
	assert.Same(t, mock, gw)
}
