package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// Analyzer produces a scaling verdict for an incident.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, incident *models.Incident) (*models.Analysis, error)
}

// HeuristicAnalyzer is the deterministic fallback used when the AI analyzer
// is disabled or fails. The rule table mirrors what an operator would do:
// critical resource pressure scales up aggressively, warnings scale up only
// when the reported metric is clearly above normal.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates a rule-based analyzer
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Analyze applies the rule table to the incident
func (h *HeuristicAnalyzer) Analyze(_ context.Context, incident *models.Incident) (*models.Analysis, error) {
	if incident == nil {
		return nil, fmt.Errorf("incident is nil")
	}

	action, confidence, reasoning := h.evaluate(incident)

	return &models.Analysis{
		Action:     action,
		Severity:   incident.Severity,
		Confidence: confidence,
		Reasoning:  reasoning,
		Source:     "heuristic",
		AnalyzedAt: time.Now().UTC(),
	}, nil
}

func (h *HeuristicAnalyzer) evaluate(incident *models.Incident) (models.ScaleAction, int, string) {
	value, hasValue := models.ParseMetricNumber(incident.MetricValue)

	if incident.Severity == models.SeverityCritical {
		switch incident.AlertType {
		case models.AlertTypeCPU, models.AlertTypeMemory:
			return models.ScaleActionUp, 90,
				fmt.Sprintf("critical %s pressure on %s, adding capacity", incident.AlertType, incident.Instance)
		case models.AlertTypeHTTP5xx:
			return models.ScaleActionUp, 85,
				"critical error rate, scaling out to absorb load while the cause is investigated"
		case models.AlertTypeLatency:
			return models.ScaleActionUp, 80,
				"critical latency, additional instances should reduce queueing"
		default:
			return models.ScaleActionNone, 50,
				"critical alert of unknown type, requires operator attention"
		}
	}

	// Warning severity: only act when the metric value backs it up.
	switch incident.AlertType {
	case models.AlertTypeCPU, models.AlertTypeMemory:
		if hasValue && value >= 85 {
			return models.ScaleActionUp, 75,
				fmt.Sprintf("%s at %.0f%% is trending toward saturation", incident.AlertType, value)
		}
		return models.ScaleActionNone, 60, "resource pressure within tolerable range, monitoring"
	case models.AlertTypeHTTP5xx:
		if hasValue && value >= 10 {
			return models.ScaleActionUp, 70,
				fmt.Sprintf("error rate %.1f%% above tolerance, scaling out", value)
		}
		return models.ScaleActionNone, 55, "elevated errors but below action threshold"
	case models.AlertTypeLatency:
		if hasValue && value >= 1000 {
			return models.ScaleActionUp, 70,
				fmt.Sprintf("p95 latency %.0fms exceeds budget, scaling out", value)
		}
		return models.ScaleActionNone, 55, "latency elevated but below action threshold"
	}

	return models.ScaleActionNone, 40, "no rule matched this alert type"
}

// FallbackAnalyzer tries a primary analyzer and falls back to a secondary one
// when the primary errors. The pipeline always gets a verdict.
type FallbackAnalyzer struct {
	primary  Analyzer
	fallback Analyzer
}

// NewFallbackAnalyzer wraps primary with a fallback
func NewFallbackAnalyzer(primary, fallback Analyzer) *FallbackAnalyzer {
	return &FallbackAnalyzer{primary: primary, fallback: fallback}
}

// Analyze runs the primary analyzer, then the fallback on failure
func (f *FallbackAnalyzer) Analyze(ctx context.Context, incident *models.Incident) (*models.Analysis, error) {
	analysis, err := f.primary.Analyze(ctx, incident)
	if err == nil {
		return analysis, nil
	}
	fallbackAnalysis, fbErr := f.fallback.Analyze(ctx, incident)
	if fbErr != nil {
		return nil, fmt.Errorf("primary analyzer failed (%v) and fallback failed: %w", err, fbErr)
	}
	fallbackAnalysis.Reasoning = fmt.Sprintf("%s (AI analysis unavailable: %v)", fallbackAnalysis.Reasoning, err)
	return fallbackAnalysis, nil
}
