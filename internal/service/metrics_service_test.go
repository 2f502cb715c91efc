package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestMetricsRecordsDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordSubmission(OutcomeConfirmed)
	m.RecordSubmission(OutcomeConfirmed)
	m.RecordSequenceAllocation("counter", errors.New("boom"))
	m.RecordClassLink(ClassLinkTriggerRetry, nil)
	m.RecordWizardTransition("reviewing", "reviewing")
	m.RecordWizardTransition("reviewing", "submitting")

	assert.Equal(t, 2.0, counterValue(t, m, "enrollment_submissions_total", map[string]string{"outcome": OutcomeConfirmed}))
	assert.Equal(t, 1.0, counterValue(t, m, "enrollment_sequence_allocations_total", map[string]string{"strategy": "counter", "result": "error"}))
	assert.Equal(t, 1.0, counterValue(t, m, "class_link_reconciliations_total", map[string]string{"trigger": ClassLinkTriggerRetry, "outcome": "ok"}))
	assert.Equal(t, 0.0, counterValue(t, m, "enrollment_wizard_transitions_total", map[string]string{"from": "reviewing", "to": "reviewing"}))
	assert.Equal(t, 1.0, counterValue(t, m, "enrollment_wizard_transitions_total", map[string]string{"from": "reviewing", "to": "submitting"}))
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordSubmission(OutcomeConfirmed)
		m.RecordCacheOperation(true, time.Millisecond)
		m.RecordAddressLookup("found")
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
