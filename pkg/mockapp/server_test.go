package mockapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(randValue float64) *Server {
	s := NewServer()
	s.rand = func() float64 { return randValue }
	return s
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(1).Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestTestEndpointBaseline(t *testing.T) {
	rec := doRequest(t, newTestServer(1).Handler(), http.MethodGet, "/api/test", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
}

func TestTestEndpointInjects5xx(t *testing.T) {
	// rand always below the rate, so every request fails
	s := newTestServer(0)
	s.State().SetErrorRates(1.0, 0, time.Minute)
	handler := s.Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/test", nil)
	assert.GreaterOrEqual(t, rec.Code, 500)
	assert.Contains(t, rec.Body.String(), "simulated")
}

func TestTestEndpointInjects4xx(t *testing.T) {
	s := newTestServer(0)
	s.State().SetErrorRates(0, 1.0, time.Minute)
	handler := s.Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/test", nil)
	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.Less(t, rec.Code, 500)
}

func TestTestEndpointHonorsLatency(t *testing.T) {
	s := newTestServer(1)
	s.State().SetLatency(50*time.Millisecond, time.Minute)
	handler := s.Handler()

	start := time.Now()
	rec := doRequest(t, handler, http.MethodGet, "/api/test", nil)
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestSimulateEndpointsReflectInStatus(t *testing.T) {
	s := newTestServer(1)
	handler := s.Handler()

	tests := []struct {
		path string
		body map[string]interface{}
	}{
		{"/api/simulate/cpu", map[string]interface{}{"intensity": 95, "duration": 60}},
		{"/api/simulate/memory", map[string]interface{}{"intensity": 88, "duration": 60}},
		{"/api/simulate/errors", map[string]interface{}{"rate": 0.5, "duration": 60}},
		{"/api/simulate/latency", map[string]interface{}{"delayMs": 1200, "duration": 60}},
	}

	for _, tt := range tests {
		rec := doRequest(t, handler, http.MethodPost, tt.path, tt.body)
		assert.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Contains(t, rec.Body.String(), "started", tt.path)
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var status StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 95.0, status.CPUPercent)
	assert.Equal(t, 88.0, status.MemoryPercent)
	assert.Equal(t, 0.5, status.ErrorRate5xx)
	assert.Equal(t, int64(1200), status.LatencyMs)
	assert.ElementsMatch(t, []string{"cpu", "memory", "errors", "latency"}, status.ActiveScenarios)

	// Leave no CPU burner running.
	s.State().Reset()
}

func TestSimulateDefaults(t *testing.T) {
	s := newTestServer(1)
	handler := s.Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/simulate/errors", map[string]interface{}{})
	assert.Equal(t, http.StatusOK, rec.Code)

	rate5xx, _, _ := s.State().Rates()
	assert.Equal(t, 0.5, rate5xx)

	rec = doRequest(t, handler, http.MethodPost, "/api/simulate/latency", map[string]interface{}{})
	assert.Equal(t, http.StatusOK, rec.Code)

	_, _, latency := s.State().Rates()
	assert.Equal(t, 1500*time.Millisecond, latency)
}

func TestSimulateRejectsMalformedBody(t *testing.T) {
	handler := newTestServer(1).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/simulate/cpu", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetClearsSimulations(t *testing.T) {
	s := newTestServer(0)
	handler := s.Handler()

	s.State().SetErrorRates(1.0, 0, time.Minute)
	s.State().SetLatency(time.Second, time.Minute)
	s.State().SetMemoryLoad(90, time.Minute)

	rec := doRequest(t, handler, http.MethodPost, "/api/reset", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var status StatusSnapshot
	rec = doRequest(t, handler, http.MethodGet, "/api/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Zero(t, status.ErrorRate5xx)
	assert.Zero(t, status.LatencyMs)
	assert.Zero(t, status.MemoryPercent)
	assert.Empty(t, status.ActiveScenarios)
	assert.Zero(t, status.TotalRequests)
}

func TestScaleEndpoint(t *testing.T) {
	handler := newTestServer(1).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/scale", map[string]interface{}{
		"action": "scale_up", "ai_confidence": 92,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestStatusCountsRequests(t *testing.T) {
	s := newTestServer(0)
	handler := s.Handler()

	doRequest(t, handler, http.MethodGet, "/api/test", nil)

	s.State().SetErrorRates(1.0, 0, time.Minute)
	doRequest(t, handler, http.MethodGet, "/api/test", nil)

	snap := s.State().Snapshot()
	assert.Equal(t, uint64(2), snap.TotalRequests)
	assert.Equal(t, uint64(1), snap.Responses2xx)
	assert.Equal(t, uint64(1), snap.Responses5xx)
}

func TestMetricsEndpointExposed(t *testing.T) {
	rec := doRequest(t, newTestServer(1).Handler(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mockapp_")
}
