package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestMetrics() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), nil)
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("Failed to write counter metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		t.Fatalf("Failed to write gauge metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestMetricNames_SnakeCaseWithNamespace(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry, nil)

	// touch vectors so they show up in Gather
	m.RecordHTTPRequest("GET", "/api/boards/:boardId", 200, time.Millisecond)
	m.RecordDBQuery("select", "tasks", time.Millisecond, errors.New("boom"))
	m.RecordExternalAPICall("/api/tasks", "GET", 500, time.Millisecond, nil)
	m.RecordWSEvent("task:move")
	m.RecordBroadcast("task:moved")
	m.RecordPresenceUpdate("online")

	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	for _, f := range families {
		name := f.GetName()
		assert.True(t, strings.HasPrefix(name, namespace+"_"), name)
		assert.Equal(t, strings.ToLower(name), name)
		assert.NotContains(t, name, "-")
		assert.NotEmpty(t, f.GetHelp(), name)
	}
}

func TestBusinessCounters(t *testing.T) {
	m := getTestMetrics()

	m.IncrementTaskCreated()
	m.IncrementTaskMoved()
	m.IncrementTaskMoved()
	m.IncrementCommentCreated()

	assert.Equal(t, 1.0, getCounterValue(t, m.TasksCreatedTotal))
	assert.Equal(t, 2.0, getCounterValue(t, m.TasksMovedTotal))
	assert.Equal(t, 1.0, getCounterValue(t, m.CommentsCreatedTotal))
}

func TestGauges(t *testing.T) {
	m := getTestMetrics()

	tests := []struct {
		name  string
		count int64
	}{
		{"zero", 0},
		{"one", 1},
		{"many", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SetBoardsTotal(tt.count)
			m.SetTasksTotal(tt.count * 2)
			m.SetWSConnections(int(tt.count))
			assert.Equal(t, float64(tt.count), getGaugeValue(t, m.BoardsTotal))
			assert.Equal(t, float64(tt.count*2), getGaugeValue(t, m.TasksTotal))
			assert.Equal(t, float64(tt.count), getGaugeValue(t, m.WSConnectionsActive))
		})
	}
}

func TestRealtimeCounters(t *testing.T) {
	m := getTestMetrics()

	m.RecordWSEvent("join:board")
	m.RecordBroadcast("task:moved")
	m.IncrementBroadcastDrops()
	m.RecordPresenceUpdate("offline")

	assert.Equal(t, 1.0, getCounterValue(t, m.WSEventsReceivedTotal.WithLabelValues("join:board")))
	assert.Equal(t, 1.0, getCounterValue(t, m.WSBroadcastsTotal.WithLabelValues("task:moved")))
	assert.Equal(t, 1.0, getCounterValue(t, m.WSBroadcastDropsTotal))
	assert.Equal(t, 1.0, getCounterValue(t, m.PresenceUpdatesTotal.WithLabelValues("offline")))
}

func TestRecordDBQuery_CountsErrors(t *testing.T) {
	m := getTestMetrics()

	m.RecordDBQuery("SELECT", "tasks", 5*time.Millisecond, nil)
	assert.Equal(t, 0.0, getCounterValue(t, m.DBQueryErrors.WithLabelValues("select", "tasks")))

	m.RecordDBQuery("UPDATE", "tasks", 5*time.Millisecond, errors.New("deadlock"))
	assert.Equal(t, 1.0, getCounterValue(t, m.DBQueryErrors.WithLabelValues("update", "tasks")))
}

func TestCategorizeStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{101, "1xx"},
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{0, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorizeStatus(tt.code), "code %d", tt.code)
	}
}

func TestShouldSkipEndpoint(t *testing.T) {
	assert.True(t, ShouldSkipEndpoint("/metrics"))
	assert.True(t, ShouldSkipEndpoint("/health"))
	assert.True(t, ShouldSkipEndpoint("/api/health"))
	assert.True(t, ShouldSkipEndpoint("/api/ws"))
	assert.False(t, ShouldSkipEndpoint("/api/tasks"))
}

func TestNormalizeEndpoint(t *testing.T) {
	got := normalizeEndpoint("/api/tasks/123e4567-e89b-12d3-a456-426614174000/move?x=1")
	assert.Equal(t, "/api/tasks/{id}/move", got)
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, "conflict", getErrorType(409, nil))
	assert.Equal(t, "not_found", getErrorType(404, nil))
	assert.Equal(t, "server_error", getErrorType(599, nil))
	assert.Equal(t, "timeout", getErrorType(0, errors.New("context deadline exceeded")))
	assert.Equal(t, "connection_refused", getErrorType(0, errors.New("dial tcp: connection refused")))
	assert.Equal(t, "network_error", getErrorType(0, errors.New("weird")))
	assert.Equal(t, "unknown", getErrorType(0, nil))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementTaskMoved()
		m.RecordBroadcast("task:moved")
	})
}
