package marketdata

import (
	"context"
	"sync"

	"text-stock-tracker/internal/domain"
)

// MockGateway permite tests y la consola sin llamar al proveedor real.
type MockGateway struct {
	mu sync.Mutex

	Matches   map[string][]domain.CompanyMatch
	Quotes    map[string]domain.Quote
	LookupErr error
	QuoteErr  error

	LookupCalls []string
	QuoteCalls  []string
}

func (m *MockGateway) LookupByName(_ context.Context, query string) ([]domain.CompanyMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LookupCalls = append(m.LookupCalls, query)
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	return m.Matches[query], nil
}

func (m *MockGateway) Quote(_ context.Context, symbol string) (domain.Quote, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuoteCalls = append(m.QuoteCalls, symbol)
	if m.QuoteErr != nil {
		return domain.Quote{}, false, m.QuoteErr
	}
	q, ok := m.Quotes[symbol]
	return q, ok, nil
}
