package webhook

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts webhook invocations and the reconciliation actions they
// performed. All methods are nil-safe so the router can run unmetered in
// tests.
type Metrics struct {
	requests *prometheus.CounterVec
	actions  *prometheus.CounterVec
}

// NewMetrics creates and registers the webhook metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdmhook_requests_total",
			Help: "Webhook requests handled, by event type and response status.",
		}, []string{"event_type", "status"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdmhook_actions_total",
			Help: "Reconciliation actions recorded, by action and outcome.",
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(m.requests, m.actions)
	return m
}

// ObserveRequest counts one handled request.
func (m *Metrics) ObserveRequest(eventType string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
}

// ObserveAction counts one recorded action outcome.
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}
