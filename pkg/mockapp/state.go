package mockapp

import (
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SimState holds the simulated condition of the mock application. All access
// goes through the mutex; simulations revert automatically when their
// duration elapses.
type SimState struct {
	mu sync.RWMutex

	errorRate5xx float64 // 0..1
	errorRate4xx float64 // 0..1
	latency      time.Duration
	cpuPercent   float64
	memPercent   float64

	totalRequests uint64
	count2xx      uint64
	count4xx      uint64
	count5xx      uint64
	startTime     time.Time

	revertTimers map[string]*time.Timer
	cpuStop      chan struct{}
}

// StatusSnapshot is the response shape of /api/status
type StatusSnapshot struct {
	Status          string  `json:"status"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	ErrorRate5xx    float64 `json:"error_rate_5xx"`
	ErrorRate4xx    float64 `json:"error_rate_4xx"`
	LatencyMs       int64   `json:"latency_ms"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	TotalRequests   uint64  `json:"total_requests"`
	Responses2xx    uint64  `json:"responses_2xx"`
	Responses4xx    uint64  `json:"responses_4xx"`
	Responses5xx    uint64  `json:"responses_5xx"`
	ActiveScenarios []string `json:"active_scenarios"`
}

// NewSimState creates a state with everything at baseline
func NewSimState() *SimState {
	return &SimState{
		startTime:    time.Now(),
		revertTimers: make(map[string]*time.Timer),
	}
}

// SetErrorRates configures simulated 5xx/4xx rates for the given duration
func (s *SimState) SetErrorRates(rate5xx, rate4xx float64, duration time.Duration) {
	s.mu.Lock()
	s.errorRate5xx = clampRate(rate5xx)
	s.errorRate4xx = clampRate(rate4xx)
	s.mu.Unlock()
	simulatedErrorRate.Set(clampRate(rate5xx))

	s.scheduleRevert("errors", duration, func() {
		s.mu.Lock()
		s.errorRate5xx = 0
		s.errorRate4xx = 0
		s.mu.Unlock()
		simulatedErrorRate.Set(0)
		logrus.Info("Error simulation ended, rates back to baseline")
	})
}

// SetLatency configures simulated per-request delay for the given duration
func (s *SimState) SetLatency(delay, duration time.Duration) {
	s.mu.Lock()
	s.latency = delay
	s.mu.Unlock()

	s.scheduleRevert("latency", duration, func() {
		s.mu.Lock()
		s.latency = 0
		s.mu.Unlock()
		logrus.Info("Latency simulation ended")
	})
}

// SetCPULoad starts a CPU burn at the given intensity (percent, 0-100) for
// the duration. One spinning goroutine per logical CPU, duty-cycled to
// approximate the target.
func (s *SimState) SetCPULoad(intensity float64, duration time.Duration) {
	intensity = clampPercent(intensity)

	s.mu.Lock()
	if s.cpuStop != nil {
		close(s.cpuStop)
	}
	stop := make(chan struct{})
	s.cpuStop = stop
	s.cpuPercent = intensity
	s.mu.Unlock()
	simulatedCPUUsage.Set(intensity)

	for i := 0; i < runtime.NumCPU(); i++ {
		go burnCPU(intensity, stop)
	}

	s.scheduleRevert("cpu", duration, func() {
		s.mu.Lock()
		if s.cpuStop == stop {
			close(s.cpuStop)
			s.cpuStop = nil
			s.cpuPercent = 0
		}
		s.mu.Unlock()
		simulatedCPUUsage.Set(0)
		logrus.Info("CPU simulation ended")
	})
}

// burnCPU spins in 100ms windows, busy for intensity% of each window
func burnCPU(intensity float64, stop <-chan struct{}) {
	const window = 100 * time.Millisecond
	busy := time.Duration(float64(window) * intensity / 100)
	for {
		select {
		case <-stop:
			return
		default:
		}
		deadline := time.Now().Add(busy)
		for time.Now().Before(deadline) {
			// spin
		}
		select {
		case <-stop:
			return
		case <-time.After(window - busy):
		}
	}
}

// SetMemoryLoad sets the simulated memory pressure gauge for the duration.
// Memory is reported, not actually allocated, so the container never OOMs
// while demonstrating memory alerts.
func (s *SimState) SetMemoryLoad(intensity float64, duration time.Duration) {
	intensity = clampPercent(intensity)

	s.mu.Lock()
	s.memPercent = intensity
	s.mu.Unlock()
	simulatedMemoryUsage.Set(intensity)

	s.scheduleRevert("memory", duration, func() {
		s.mu.Lock()
		s.memPercent = 0
		s.mu.Unlock()
		simulatedMemoryUsage.Set(0)
		logrus.Info("Memory simulation ended")
	})
}

// Reset cancels all simulations and zeroes the counters
func (s *SimState) Reset() {
	s.mu.Lock()
	for name, timer := range s.revertTimers {
		timer.Stop()
		delete(s.revertTimers, name)
	}
	if s.cpuStop != nil {
		close(s.cpuStop)
		s.cpuStop = nil
	}
	s.errorRate5xx = 0
	s.errorRate4xx = 0
	s.latency = 0
	s.cpuPercent = 0
	s.memPercent = 0
	s.totalRequests = 0
	s.count2xx = 0
	s.count4xx = 0
	s.count5xx = 0
	s.startTime = time.Now()
	s.mu.Unlock()

	simulatedCPUUsage.Set(0)
	simulatedMemoryUsage.Set(0)
	simulatedErrorRate.Set(0)
	logrus.Info("Simulation state reset")
}

// scheduleRevert arms (or re-arms) the named revert timer
func (s *SimState) scheduleRevert(name string, duration time.Duration, revert func()) {
	if duration <= 0 {
		return
	}
	s.mu.Lock()
	if old, ok := s.revertTimers[name]; ok {
		old.Stop()
	}
	s.revertTimers[name] = time.AfterFunc(duration, revert)
	s.mu.Unlock()
}

// Rates returns the current error rates and latency
func (s *SimState) Rates() (rate5xx, rate4xx float64, latency time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorRate5xx, s.errorRate4xx, s.latency
}

// CountRequest records one served request by status class
func (s *SimState) CountRequest(statusCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests++
	switch {
	case statusCode >= 500:
		s.count5xx++
	case statusCode >= 400:
		s.count4xx++
	default:
		s.count2xx++
	}
}

// Snapshot returns the current simulated condition and request statistics
func (s *SimState) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scenarios := make([]string, 0, 4)
	if s.errorRate5xx > 0 || s.errorRate4xx > 0 {
		scenarios = append(scenarios, "errors")
	}
	if s.latency > 0 {
		scenarios = append(scenarios, "latency")
	}
	if s.cpuPercent > 0 {
		scenarios = append(scenarios, "cpu")
	}
	if s.memPercent > 0 {
		scenarios = append(scenarios, "memory")
	}

	return StatusSnapshot{
		Status:          "running",
		UptimeSeconds:   time.Since(s.startTime).Seconds(),
		ErrorRate5xx:    s.errorRate5xx,
		ErrorRate4xx:    s.errorRate4xx,
		LatencyMs:       s.latency.Milliseconds(),
		CPUPercent:      s.cpuPercent,
		MemoryPercent:   s.memPercent,
		TotalRequests:   s.totalRequests,
		Responses2xx:    s.count2xx,
		Responses4xx:    s.count4xx,
		Responses5xx:    s.count5xx,
		ActiveScenarios: scenarios,
	}
}

func clampRate(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
