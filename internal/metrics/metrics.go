package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	guardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "myvetstudy_guard_decisions_total",
			Help: "Route guard decisions by transport, requirement kind and outcome",
		},
		[]string{"transport", "kind", "outcome"},
	)

	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "myvetstudy_requests_total",
			Help: "Requests handled by transport, route and status",
		},
		[]string{"transport", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "myvetstudy_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"transport", "route"},
	)
)

// RecordGuardDecision counts one guard evaluation.
func RecordGuardDecision(transport, kind string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	guardDecisions.WithLabelValues(transport, kind, outcome).Inc()
}

func RecordRequest(transport, route, status string, seconds float64) {
	requests.WithLabelValues(transport, route, status).Inc()
	requestDuration.WithLabelValues(transport, route).Observe(seconds)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
