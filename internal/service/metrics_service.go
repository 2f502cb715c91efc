package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes recorded by MetricsService.
const (
	OutcomeConfirmed         = "confirmed"
	OutcomeRedirected        = "redirected"
	OutcomeNothingWritten    = "nothing_written"
	OutcomePartialWrite      = "partial_write"
	OutcomeSequenceConflict  = "sequence_conflict"
	OutcomeReconciliationErr = "reconciliation_failed"
)

// MetricsService encapsulates Prometheus instrumentation for the admission API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	submissions         *prometheus.CounterVec
	sequenceAllocations *prometheus.CounterVec
	studentSchemaProbes *prometheus.CounterVec
	addressLookups      *prometheus.CounterVec
	classLinkRetries    *prometheus.CounterVec
	wizardTransitions   *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_submissions_total",
		Help: "Wizard confirmations by outcome",
	}, []string{"outcome"})

	sequenceAllocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_sequence_allocations_total",
		Help: "Enrollment numbers allocated by strategy",
	}, []string{"strategy", "result"})

	studentSchemaProbes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_schema_resolutions_total",
		Help: "How the students year column was resolved",
	}, []string{"source", "column"})

	addressLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "address_lookups_total",
		Help: "Postal code lookups by result",
	}, []string{"result"})

	classLinkRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_link_reconciliations_total",
		Help: "Class link reconciliation attempts by trigger and outcome",
	}, []string{"trigger", "outcome"})

	wizardTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_wizard_transitions_total",
		Help: "Wizard state transitions",
	}, []string{"from", "to"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		submissions, sequenceAllocations, studentSchemaProbes, addressLookups, classLinkRetries, wizardTransitions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		submissions:         submissions,
		sequenceAllocations: sequenceAllocations,
		studentSchemaProbes: studentSchemaProbes,
		addressLookups:      addressLookups,
		classLinkRetries:    classLinkRetries,
		wizardTransitions:   wizardTransitions,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordSubmission counts a wizard confirmation outcome.
func (m *MetricsService) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// RecordSequenceAllocation counts enrollment numbers handed out per strategy.
func (m *MetricsService) RecordSequenceAllocation(strategy string, err error) {
	if m == nil {
		return
	}
	m.sequenceAllocations.WithLabelValues(strategy, resultLabel(err)).Inc()
}

// RecordSchemaResolution counts how the students year column was chosen.
func (m *MetricsService) RecordSchemaResolution(source, column string) {
	if m == nil {
		return
	}
	m.studentSchemaProbes.WithLabelValues(source, column).Inc()
}

// RecordAddressLookup counts postal code lookups by result label.
func (m *MetricsService) RecordAddressLookup(result string) {
	if m == nil {
		return
	}
	m.addressLookups.WithLabelValues(result).Inc()
}

// RecordClassLink counts class link reconciliations. Trigger is submit, retry or manual.
func (m *MetricsService) RecordClassLink(trigger string, err error) {
	if m == nil {
		return
	}
	m.classLinkRetries.WithLabelValues(trigger, resultLabel(err)).Inc()
}

// RecordWizardTransition counts a state change.
func (m *MetricsService) RecordWizardTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.wizardTransitions.WithLabelValues(from, to).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
