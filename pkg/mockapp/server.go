package mockapp

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Server is the mock application: a handful of endpoints that pretend to be
// a production web service under configurable duress
type Server struct {
	state *SimState
	rand  func() float64 // injectable for deterministic tests
}

// NewServer creates a mock application server
func NewServer() *Server {
	return &Server{
		state: NewSimState(),
		rand:  rand.Float64,
	}
}

// State exposes the simulation state, mainly for tests
func (s *Server) State() *SimState {
	return s.state
}

// Handler builds the full HTTP handler: routes, CORS, metrics
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/test", s.handleTest).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/simulate/cpu", s.handleSimulateCPU).Methods(http.MethodPost)
	r.HandleFunc("/api/simulate/memory", s.handleSimulateMemory).Methods(http.MethodPost)
	r.HandleFunc("/api/simulate/errors", s.handleSimulateErrors).Methods(http.MethodPost)
	r.HandleFunc("/api/simulate/latency", s.handleSimulateLatency).Methods(http.MethodPost)
	r.HandleFunc("/api/scale", s.handleScale).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", s.handleReset).Methods(http.MethodPost)

	return cors.Default().Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleTest serves the synthetic traffic endpoint. Responses honor the
// configured latency and error rates.
func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	rate5xx, rate4xx, latency := s.state.Rates()

	if latency > 0 {
		time.Sleep(latency)
	}

	status := http.StatusOK
	body := map[string]string{
		"status":    "success",
		"message":   "request processed successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	switch {
	case s.rand() < rate5xx:
		codes := []int{500, 502, 503, 504}
		status = codes[rand.Intn(len(codes))]
		body = map[string]string{
			"error":     "Internal Server Error",
			"message":   fmt.Sprintf("simulated %d error", status),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
	case s.rand() < rate4xx:
		codes := []int{400, 401, 403, 404, 429}
		status = codes[rand.Intn(len(codes))]
		body = map[string]string{
			"error":     "Client Error",
			"message":   fmt.Sprintf("simulated %d error", status),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
	}

	s.state.CountRequest(status)
	httpRequestsTotal.WithLabelValues("/api/test", statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues("/api/test").Observe(time.Since(start).Seconds())

	writeJSON(w, status, body)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

type simulateRequest struct {
	Duration  int     `json:"duration"`  // seconds
	Intensity float64 `json:"intensity"` // percent, cpu/memory
	Rate      float64 `json:"rate"`      // 0-1, errors
	Rate4xx   float64 `json:"rate_4xx"`  // 0-1, optional
	DelayMs   int     `json:"delayMs"`   // latency
}

func (s *Server) handleSimulateCPU(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSimulateRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Intensity <= 0 {
		req.Intensity = 90
	}

	s.state.SetCPULoad(req.Intensity, time.Duration(req.Duration)*time.Second)
	simulationsTotal.WithLabelValues("cpu").Inc()
	logrus.Infof("CPU simulation started: intensity=%.0f%% duration=%ds", req.Intensity, req.Duration)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "started",
		"kind":      "cpu",
		"intensity": req.Intensity,
		"duration":  req.Duration,
	})
}

func (s *Server) handleSimulateMemory(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSimulateRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Intensity <= 0 {
		req.Intensity = 90
	}

	s.state.SetMemoryLoad(req.Intensity, time.Duration(req.Duration)*time.Second)
	simulationsTotal.WithLabelValues("memory").Inc()
	logrus.Infof("Memory simulation started: intensity=%.0f%% duration=%ds", req.Intensity, req.Duration)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "started",
		"kind":      "memory",
		"intensity": req.Intensity,
		"duration":  req.Duration,
	})
}

func (s *Server) handleSimulateErrors(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSimulateRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Rate <= 0 {
		req.Rate = 0.5
	}

	s.state.SetErrorRates(req.Rate, req.Rate4xx, time.Duration(req.Duration)*time.Second)
	simulationsTotal.WithLabelValues("errors").Inc()
	logrus.Infof("Error simulation started: rate_5xx=%.2f rate_4xx=%.2f duration=%ds",
		req.Rate, req.Rate4xx, req.Duration)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "started",
		"kind":     "errors",
		"rate":     req.Rate,
		"duration": req.Duration,
	})
}

func (s *Server) handleSimulateLatency(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSimulateRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.DelayMs <= 0 {
		req.DelayMs = 1500
	}

	s.state.SetLatency(time.Duration(req.DelayMs)*time.Millisecond, time.Duration(req.Duration)*time.Second)
	simulationsTotal.WithLabelValues("latency").Inc()
	logrus.Infof("Latency simulation started: delay=%dms duration=%ds", req.DelayMs, req.Duration)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "started",
		"kind":     "latency",
		"delayMs":  req.DelayMs,
		"duration": req.Duration,
	})
}

// handleScale logs the scaling request and returns a canned success, the way
// an application instance would acknowledge a drain/scale notification
func (s *Server) handleScale(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	scaleRequestsTotal.Inc()
	logrus.Infof("Scale request received: %v", body)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "scaling request acknowledged",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.state.Reset()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "reset",
		"message": "simulation state reset successfully",
	})
}

func decodeSimulateRequest(r *http.Request) (*simulateRequest, error) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Duration <= 0 {
		req.Duration = 60
	}
	return &req, nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
