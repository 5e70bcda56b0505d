package marketdata

import (
	"context"
	"errors"
	"fmt"

	"text-stock-tracker/internal/domain"
)

// Gateway define las dos consultas de solo lectura al proveedor de cotizaciones.
type Gateway interface {
	// LookupByName busca tickers por fragmento de nombre. Una lista vacía es un éxito.
	LookupByName(ctx context.Context, query string) ([]domain.CompanyMatch, error)
	// Quote devuelve found=false cuando el proveedor no reconoce el ticker.
	Quote(ctx context.Context, symbol string) (domain.Quote, bool, error)
}

type ErrorKind int

const (
	KindUnreachable ErrorKind = iota + 1
	KindMalformedResponse
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// GatewayError envuelve cualquier falla del proveedor con su categoría.
type GatewayError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("market data %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("market data %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// KindOf devuelve la categoría de err, o 0 si no es un GatewayError.
func KindOf(err error) ErrorKind {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return 0
}

func newError(kind ErrorKind, op string, err error) error {
	return &GatewayError{Kind: kind, Op: op, Err: err}
}
