// Package telemetry exposes Prometheus metrics for the interaction pipeline
// and an HTTP middleware for request timing.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "streamflow",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})

	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamflow",
		Name:      "interactions_total",
		Help:      "Committed interactions by kind and tier.",
	}, []string{"kind", "tier"})

	revenueCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamflow",
		Name:      "revenue_cents_total",
		Help:      "Paid interaction revenue in cents by kind.",
	}, []string{"kind"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamflow",
		Name:      "ws_connections",
		Help:      "Open websocket subscriber connections.",
	})
)

// ObserveInteraction records one committed interaction.
func ObserveInteraction(kind, tier string, amountCents int64) {
	if tier == "" {
		tier = "none"
	}
	interactionsTotal.WithLabelValues(kind, tier).Inc()
	if amountCents > 0 {
		revenueCents.WithLabelValues(kind).Add(float64(amountCents))
	}
}

// WSOpened and WSClosed track the websocket connection gauge.
func WSOpened() { wsConnections.Inc() }
func WSClosed() { wsConnections.Dec() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request duration labeled by method and status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(srw.status)).
			Observe(time.Since(start).Seconds())
	})
}
