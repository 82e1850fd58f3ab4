package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chest_rewards"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	chestOpens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chest",
			Name:      "opens_total",
			Help:      "Chest opens by reward type.",
		},
		[]string{"type"},
	)

	multiOpenStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chest",
			Name:      "multi_open_requests_total",
			Help:      "Multi-open requests by stop reason.",
		},
		[]string{"stopped_reason"},
	)

	boostsInstalled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chest",
			Name:      "boosts_installed_total",
			Help:      "Boosts installed by admins.",
		},
	)

	petsConverted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "pets_converted_total",
			Help:      "Pets converted to gems by conversion mode.",
		},
		[]string{"mode"},
	)

	gemsPaid = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "conversion_gems_total",
			Help:      "Gems credited by pet conversions.",
		},
	)

	petsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "pets_claimed_total",
			Help:      "Pets claimed by their owners.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		chestOpens,
		multiOpenStops,
		boostsInstalled,
		petsConverted,
		gemsPaid,
		petsClaimed,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Paths are labelled with the chi route pattern to keep cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordChestOpen counts one open paying out rewardType.
func RecordChestOpen(rewardType string) {
	chestOpens.WithLabelValues(rewardType).Inc()
}

// RecordMultiOpen counts a finished multi-open request.
func RecordMultiOpen(stoppedReason string) {
	if stoppedReason == "" {
		stoppedReason = "completed"
	}
	multiOpenStops.WithLabelValues(stoppedReason).Inc()
}

func RecordBoostInstalled() {
	boostsInstalled.Inc()
}

// RecordConversion counts converted pets and the gems paid for them.
func RecordConversion(mode string, converted, total int64) {
	if converted <= 0 {
		return
	}
	petsConverted.WithLabelValues(mode).Add(float64(converted))
	gemsPaid.Add(float64(total))
}

func RecordClaim() {
	petsClaimed.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
