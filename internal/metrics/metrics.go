package metrics

import "github.com/prometheus/client_golang/prometheus"

// RouterMetrics expone contadores e histogramas del router de mensajes.
type RouterMetrics struct {
	messagesTotal  *prometheus.CounterVec
	gatewayErrors  *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
	handleDuration *prometheus.HistogramVec
}

func NewRouterMetrics(reg prometheus.Registerer) *RouterMetrics {
	m := &RouterMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocktracker",
			Subsystem: "router",
			Name:      "messages_total",
			Help:      "Inbound messages by classified intent",
		}, []string{"intent"}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocktracker",
			Subsystem: "router",
			Name:      "gateway_errors_total",
			Help:      "Market data failures by operation and kind",
		}, []string{"op", "kind"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocktracker",
			Subsystem: "router",
			Name:      "store_errors_total",
			Help:      "Conversation store failures by operation",
		}, []string{"op"}),
		handleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stocktracker",
			Subsystem: "router",
			Name:      "handle_duration_seconds",
			Help:      "Time spent producing a reply",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.gatewayErrors, m.storeErrors, m.handleDuration)
	return m
}

func (m *RouterMetrics) ObserveMessage(intent string, seconds float64) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(intent).Inc()
	m.handleDuration.WithLabelValues(intent).Observe(seconds)
}

func (m *RouterMetrics) ObserveGatewayError(op, kind string) {
	if m == nil {
		return
	}
	m.gatewayErrors.WithLabelValues(op, kind).Inc()
}

func (m *RouterMetrics) ObserveStoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}
