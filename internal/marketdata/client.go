package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"text-stock-tracker/internal/domain"
)

const (
	opLookup = "lookup"
	opQuote  = "quote"
)

// HTTPClient implementa Gateway contra la API v2 de MarkitOnDemand.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPClient construye el cliente. requestsPerSecond <= 0 desactiva el limitador local.
func NewHTTPClient(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://dev.markitondemand.com/MODApis/Api/v2"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		limiter: limiter,
		logger:  logger,
	}
}

func (c *HTTPClient) LookupByName(ctx context.Context, query string) ([]domain.CompanyMatch, error) {
	body, err := c.get(ctx, opLookup, "/Lookup/json?input="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	var items []lookupItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, newError(KindMalformedResponse, opLookup, fmt.Errorf("unmarshal response: %w", err))
	}

	matches := make([]domain.CompanyMatch, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Symbol) == "" {
			continue
		}
		matches = append(matches, domain.CompanyMatch{
			Name:     it.Name,
			Exchange: it.Exchange,
			Symbol:   it.Symbol,
		})
	}
	if len(items) > 0 && len(matches) == 0 {
		return nil, newError(KindMalformedResponse, opLookup, errors.New("matches without symbol"))
	}
	return matches, nil
}

func (c *HTTPClient) Quote(ctx context.Context, symbol string) (domain.Quote, bool, error) {
	body, err := c.get(ctx, opQuote, "/Quote/json?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return domain.Quote{}, false, err
	}

	var qp quotePayload
	if err := json.Unmarshal(body, &qp); err != nil {
		return domain.Quote{}, false, newError(KindMalformedResponse, opQuote, fmt.Errorf("unmarshal response: %w", err))
	}
	// Sin Symbol el proveedor está diciendo "no existe", no fallando.
	if qp.Symbol == nil || strings.TrimSpace(*qp.Symbol) == "" {
		return domain.Quote{}, false, nil
	}

	return domain.Quote{
		Symbol:    *qp.Symbol,
		Name:      optionalString(qp.Name),
		LastPrice: optionalFloat(qp.LastPrice),
		Change:    optionalFloat(qp.Change),
		MarketCap: optionalFloat(qp.MarketCap),
		Open:      optionalFloat(qp.Open),
		High:      optionalFloat(qp.High),
		Low:       optionalFloat(qp.Low),
	}, true, nil
}

func (c *HTTPClient) get(ctx context.Context, op, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newError(KindRateLimited, op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, newError(KindUnreachable, op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, newError(KindUnreachable, op, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindUnreachable, op, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("market data call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newError(KindRateLimited, op, fmt.Errorf("status=%d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, newError(KindUnreachable, op, fmt.Errorf("status=%d", resp.StatusCode))
	case resp.StatusCode >= 400:
		c.logger.Warn("market data error status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		return nil, newError(KindMalformedResponse, op, fmt.Errorf("status=%d", resp.StatusCode))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type lookupItem struct {
	Symbol   string `json:"Symbol"`
	Name     string `json:"Name"`
	Exchange string `json:"Exchange"`
}

// quotePayload deja los campos de presentación crudos: un valor raro en uno
// solo no debe invalidar la cotización entera.
type quotePayload struct {
	Symbol    *string         `json:"Symbol"`
	Name      json.RawMessage `json:"Name"`
	LastPrice json.RawMessage `json:"LastPrice"`
	Change    json.RawMessage `json:"Change"`
	MarketCap json.RawMessage `json:"MarketCap"`
	Open      json.RawMessage `json:"Open"`
	High      json.RawMessage `json:"High"`
	Low       json.RawMessage `json:"Low"`
}

// optionalFloat acepta números y strings numéricos; cualquier otra cosa es nil.
func optionalFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func optionalString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
