package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-tiered-service/cache"
	"github.com/goliatone/go-tiered-service/orchestrator"
)

var (
	registerOnce sync.Once

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiered",
			Subsystem: "orchestrator",
			Name:      "operations_total",
			Help:      "Completed orchestrated operations by outcome.",
		},
		[]string{"context", "operation", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tiered",
			Subsystem: "orchestrator",
			Name:      "operation_duration_seconds",
			Help:      "Orchestrated operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"context", "operation", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiered",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tiered",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	statsMu     sync.RWMutex
	statsSource func() cache.Stats

	cacheHits = prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: "tiered",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Response cache hits.",
		},
		func() float64 { return float64(currentStats().Hits) },
	)
	cacheMisses = prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: "tiered",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Response cache misses, including expired entries.",
		},
		func() float64 { return float64(currentStats().Misses) },
	)
	cacheFailures = prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: "tiered",
			Subsystem: "cache",
			Name:      "failures_total",
			Help:      "Suppressed response cache failures.",
		},
		func() float64 { return float64(currentStats().Failures) },
	)
)

// Register registers the collectors with the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			operations, operationDuration,
			httpRequests, httpDuration,
			cacheHits, cacheMisses, cacheFailures,
		)
	})
}

// TrackCache exports the counters of rc. The last tracked cache wins.
func TrackCache(rc *cache.ResponseCache) {
	Register()
	statsMu.Lock()
	defer statsMu.Unlock()
	if rc == nil {
		statsSource = nil
		return
	}
	statsSource = rc.Stats
}

func currentStats() cache.Stats {
	statsMu.RLock()
	defer statsMu.RUnlock()
	if statsSource == nil {
		return cache.Stats{}
	}
	return statsSource()
}

// Observer records orchestrated operations.
type Observer struct{}

var _ orchestrator.Observer = Observer{}

// NewObserver registers the collectors and returns an Observer.
func NewObserver() Observer {
	Register()
	return Observer{}
}

// ObserveOperation implements orchestrator.Observer.
func (Observer) ObserveOperation(context, operation string, outcome orchestrator.Outcome, elapsed time.Duration) {
	operations.WithLabelValues(context, operation, string(outcome)).Inc()
	operationDuration.WithLabelValues(context, operation, string(outcome)).Observe(elapsed.Seconds())
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
