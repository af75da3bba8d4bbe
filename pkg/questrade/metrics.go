package questrade

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds optional Prometheus collectors for a Client. A nil
// *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
}

// NewMetrics creates the client collectors and registers them with reg.
// Pass nil to create unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questrade",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Authenticated API requests by method and HTTP status (0 for transport failures).",
		}, []string{"method", "status"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questrade",
			Subsystem: "client",
			Name:      "token_exchanges_total",
			Help:      "Token endpoint calls by grant (access_code or refresh) and outcome.",
		}, []string{"grant", "outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "questrade",
			Subsystem: "client",
			Name:      "auth_retries_total",
			Help:      "Requests retried after a rejected access token.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.refreshes, m.retries)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeExchange(grant string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.refreshes.WithLabelValues(grant, outcome).Inc()
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
