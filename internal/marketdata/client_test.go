package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, time.Second, 0, zap.NewNop())
}

func TestHTTPClientQuote_Found(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Quote/json", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"Status":"SUCCESS","Name":"Apple Inc","Symbol":"AAPL","LastPrice":150.0,"Change":1.25,"MarketCap":2400000000000,"Open":149.5,"High":151.2,"Low":148.9}`))
	})

	q, found, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc", q.Name)
	require.NotNil(t, q.LastPrice)
	assert.InDelta(t, 150.0, *q.LastPrice, 0.0001)
	require.NotNil(t, q.Low)
	assert.InDelta(t, 148.9, *q.Low, 0.0001)
}

func TestHTTPClientQuote_MissingSymbolIsNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Message":"No symbol matches found for ZZZZZ. Try another symbol such as MSFT or AAPL, or use the Lookup API."}`))
	})

	_, found, err := client.Quote(context.Background(), "ZZZZZ")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHTTPClientQuote_PartialPayload(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Symbol":"MSFT","Name":"Microsoft Corp","LastPrice":310.5}`))
	})

	q, found, err := client.Quote(context.Background(), "MSFT")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotNil(t, q.LastPrice)
	assert.Nil(t, q.MarketCap)
	assert.Nil(t, q.High)
}

func TestHTTPClientQuote_BadFieldDegradesToNil(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Symbol":"AAPL","Name":"Apple Inc","LastPrice":150,"MarketCap":"N/A","Change":"1.5","High":{"x":1},"Low":null}`))
	})

	q, found, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Apple Inc", q.Name)
	require.NotNil(t, q.LastPrice)
	assert.InDelta(t, 150.0, *q.LastPrice, 0.0001)
	require.NotNil(t, q.Change)
	assert.InDelta(t, 1.5, *q.Change, 0.0001)
	assert.Nil(t, q.MarketCap)
	assert.Nil(t, q.High)
	assert.Nil(t, q.Low)
}

func TestHTTPClientQuote_Malformed(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, _, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestHTTPClientQuote_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client := NewHTTPClient(srv.URL, 50*time.Millisecond, 0, zap.NewNop())

	_, _, err := client.Quote(context.Background(), "MSFT")
	require.Error(t, err)
	assert.Equal(t, KindUnreachable, KindOf(err))
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusBadGateway, KindUnreachable},
		{http.StatusBadRequest, KindMalformedResponse},
	}
	for _, tc := range cases {
		client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.LookupByName(context.Background(), "apple")
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.want, KindOf(err), "status %d", tc.status)
	}
}

func TestHTTPClientLookupByName(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Lookup/json", r.URL.Path)
		assert.Equal(t, "Wal Mart", r.URL.Query().Get("input"))
		_, _ = w.Write([]byte(`[{"Symbol":"WMT","Name":"Walmart Inc","Exchange":"NYSE"},{"Symbol":"WMT","Name":"Walmart Inc","Exchange":"BATS Trading Inc"}]`))
	})

	matches, err := client.LookupByName(context.Background(), "Wal Mart")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Walmart Inc", matches[0].Name)
	assert.Equal(t, "NYSE", matches[0].Exchange)
	assert.Equal(t, "WMT", matches[0].Symbol)
}

func TestHTTPClientLookupByName_Empty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	matches, err := client.LookupByName(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestHTTPClientLookupByName_MissingSymbols(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"Name":"Walmart Inc","Exchange":"NYSE"}]`))
	})

	_, err := client.LookupByName(context.Background(), "walmart")
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestHTTPClient_LocalRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	// Un token cada 10s y timeout de 50ms: la segunda llamada no puede esperar.
	client := NewHTTPClient(srv.URL, 50*time.Millisecond, 0.1, zap.NewNop())

	_, err := client.LookupByName(context.Background(), "a")
	require.NoError(t, err)
	_, err = client.LookupByName(context.Background(), "b")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
}
