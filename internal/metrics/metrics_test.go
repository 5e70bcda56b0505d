package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouterMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRouterMetrics(reg)

	m.ObserveMessage("help", 0.01)
	m.ObserveMessage("help", 0.02)
	m.ObserveGatewayError("quote", "unreachable")
	m.ObserveStoreError("record_lookup")

	if got := testutil.ToFloat64(m.messagesTotal.WithLabelValues("help")); got != 2 {
		t.Fatalf("expected 2 help messages, got %v", got)
	}
	if got := testutil.ToFloat64(m.gatewayErrors.WithLabelValues("quote", "unreachable")); got != 1 {
		t.Fatalf("expected 1 gateway error, got %v", got)
	}
	if got := testutil.ToFloat64(m.storeErrors.WithLabelValues("record_lookup")); got != 1 {
		t.Fatalf("expected 1 store error, got %v", got)
	}
}

func TestRouterMetrics_NilSafe(t *testing.T) {
	var m *RouterMetrics
	m.ObserveMessage("help", 0)
	m.ObserveGatewayError("quote", "unreachable")
	m.ObserveStoreError("ensure_user")
}
