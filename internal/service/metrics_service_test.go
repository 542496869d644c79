package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/timetables/generate", http.StatusOK, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveGeneration("preview", 40*time.Millisecond, 8, 4, 1)
	m.RecordGenerationFailure("VALIDATION_ERROR")

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.001)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.001)
	assert.Equal(t, uint64(1), snap.GenerationRuns)
	assert.Equal(t, uint64(1), snap.GenerationFailures)
	assert.Equal(t, uint64(8), snap.EntriesGenerated)
	assert.Equal(t, uint64(4), snap.ShortfallSessions)
	assert.InDelta(t, 40, snap.AverageGenerationMs, 0.001)
}

func TestMetricsServiceHandlerExposesTimetableCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveGeneration("job", time.Second, 3, 0, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "timetable_entries_generated_total 3")
	assert.Contains(t, rec.Body.String(), "timetable_generation_duration_seconds_count{mode=\"job\"} 1")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveGeneration("preview", time.Millisecond, 1, 0, 0)
	m.RecordGenerationFailure("")
	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
