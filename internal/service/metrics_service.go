package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the scheduling domain.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	swapDecisions   *prometheus.CounterVec
	validationRuns  *prometheus.CounterVec
	optimizeRuns    prometheus.Counter
	fulfillmentRate prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	swapDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_decisions_total",
		Help: "Swap request state transitions by resulting status",
	}, []string{"status"})

	validationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shift_validations_total",
		Help: "Shift candidate validations by outcome",
	}, []string{"outcome"})

	optimizeRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_optimize_runs_total",
		Help: "Total auto-scheduler optimization runs",
	})

	fulfillmentRate := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_fulfillment_rate",
		Help:    "Fulfillment rate of optimization runs in percent",
		Buckets: []float64{0, 25, 50, 66, 75, 90, 100},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, dbQueryDuration,
		swapDecisions, validationRuns, optimizeRuns, fulfillmentRate, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		swapDecisions:   swapDecisions,
		validationRuns:  validationRuns,
		optimizeRuns:    optimizeRuns,
		fulfillmentRate: fulfillmentRate,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request duration and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordSwapDecision counts a swap transition by its resulting status.
func (m *MetricsService) RecordSwapDecision(status models.SwapStatus) {
	if m == nil {
		return
	}
	m.swapDecisions.WithLabelValues(string(status)).Inc()
}

// RecordValidation counts a candidate validation by outcome.
func (m *MetricsService) RecordValidation(valid bool) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.validationRuns.WithLabelValues(outcome).Inc()
}

// RecordOptimizeRun counts an optimization run and observes its fulfillment rate.
func (m *MetricsService) RecordOptimizeRun(fulfillmentRate float64) {
	if m == nil {
		return
	}
	m.optimizeRuns.Inc()
	m.fulfillmentRate.Observe(fulfillmentRate)
}
