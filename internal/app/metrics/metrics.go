// Package metrics holds the Prometheus collectors for the backend.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "game_backend",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_backend",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "game_backend",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_backend",
			Subsystem: "ledger",
			Name:      "calls_total",
			Help:      "Total number of ledger invocations.",
		},
		[]string{"op", "outcome"},
	)

	sagaCompensations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "game_backend",
			Subsystem: "saga",
			Name:      "compensations_total",
			Help:      "Workflows rolled back off-chain after on-chain steps had committed.",
		},
	)

	reconAppends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_backend",
			Subsystem: "reconciliation",
			Name:      "appends_total",
			Help:      "Reconciliation queue writes by outcome.",
		},
		[]string{"outcome"},
	)

	reconResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_backend",
			Subsystem: "reconciliation",
			Name:      "resolved_total",
			Help:      "Reconciliation entries settled by the confirmer, by final status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerCalls,
		sagaCompensations,
		reconAppends,
		reconResolved,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordLedgerCall records one ledger invocation.
func RecordLedgerCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerCalls.WithLabelValues(op, outcome).Inc()
}

// RecordSagaCompensation records a workflow rollback.
func RecordSagaCompensation() {
	sagaCompensations.Inc()
}

// RecordReconAppend records a reconciliation queue write.
func RecordReconAppend(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	reconAppends.WithLabelValues(outcome).Inc()
}

// RecordReconResolved records an entry settled by the confirmer.
func RecordReconResolved(status string) {
	reconResolved.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "players":
		if len(parts) == 1 {
			return "/players"
		}
		if len(parts) == 2 {
			return "/players/:address"
		}
		return "/players/:address/" + strings.Join(parts[2:], "/")
	case "fish", "tanks", "decorations":
		if len(parts) == 1 {
			return "/" + parts[0]
		}
		if len(parts) == 2 {
			return "/" + parts[0] + "/:id"
		}
		return "/" + parts[0] + "/:id/" + strings.Join(parts[2:], "/")
	default:
		return "/" + parts[0]
	}
}
