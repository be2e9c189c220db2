package models

import (
	"strconv"
	"strings"
	"time"
)

// Severity is the triage level of an incident
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a severity string, defaulting to warning
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo
	case "critical":
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// IncidentStatus tracks an incident through its lifecycle
type IncidentStatus string

const (
	IncidentStatusDetected  IncidentStatus = "detected"
	IncidentStatusAnalyzed  IncidentStatus = "analyzed"
	IncidentStatusActioned  IncidentStatus = "actioned"
	IncidentStatusDismissed IncidentStatus = "dismissed"
	IncidentStatusResolved  IncidentStatus = "resolved"
)

// ScaleAction is what the analysis recommends doing about an incident
type ScaleAction string

const (
	ScaleActionUp   ScaleAction = "scale_up"
	ScaleActionDown ScaleAction = "scale_down"
	ScaleActionNone ScaleAction = "none"
)

// ParseScaleAction normalizes an action string. Anything unrecognized maps
// to none so a misbehaving analyzer can never trigger a scaling call.
func ParseScaleAction(s string) ScaleAction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scale_up", "scale-up", "up":
		return ScaleActionUp
	case "scale_down", "scale-down", "down":
		return ScaleActionDown
	default:
		return ScaleActionNone
	}
}

// Incident is a detected problem derived from one firing alert
type Incident struct {
	ID          string         `json:"id"`
	Fingerprint string         `json:"fingerprint"`
	AlertName   string         `json:"alertName"`
	AlertType   AlertType      `json:"alertType"`
	Instance    string         `json:"instance"`
	Environment string         `json:"environment"`
	Severity    Severity       `json:"severity"`
	MetricValue string         `json:"metricValue,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      IncidentStatus `json:"status"`
	StartsAt    time.Time      `json:"startsAt"`
	DetectedAt  time.Time      `json:"detectedAt"`
	ResolvedAt  *time.Time     `json:"resolvedAt,omitempty"`

	Analysis *Analysis `json:"analysis,omitempty"`

	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
}

// Analysis is the verdict produced for an incident, either by the AI
// analyzer or by the heuristic fallback
type Analysis struct {
	Action     ScaleAction `json:"action"`
	Severity   Severity    `json:"severity"`
	Confidence int         `json:"confidence"` // 0-100
	Reasoning  string      `json:"reasoning"`
	Source     string      `json:"source"` // "ai" or "heuristic"
	AnalyzedAt time.Time   `json:"analyzedAt"`
}

// ScaleRequest is the JSON body posted to the scaling function
type ScaleRequest struct {
	Action       ScaleAction `json:"action"`
	AlertType    AlertType   `json:"alert_type"`
	Instance     string      `json:"instance"`
	Environment  string      `json:"environment"`
	Severity     Severity    `json:"severity"`
	MetricValue  string      `json:"metric_value"`
	AIConfidence int         `json:"ai_confidence"`
	AIReasoning  string      `json:"ai_reasoning"`
	Timestamp    time.Time   `json:"timestamp"`
}

// ScaleResult is the scaling function's response
type ScaleResult struct {
	Success          bool      `json:"success"`
	Action           string    `json:"action"` // scaled_up, scaled_down, no_change
	Message          string    `json:"message"`
	GroupName        string    `json:"asg_name,omitempty"`
	PreviousCapacity int       `json:"previous_capacity,omitempty"`
	NewCapacity      int       `json:"new_capacity,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ScalingDecision records one dispatched scaling call and its outcome
type ScalingDecision struct {
	ID         string       `json:"id"`
	IncidentID string       `json:"incidentId"`
	Request    ScaleRequest `json:"request"`
	Result     *ScaleResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// AcknowledgeIncidentRequest is the request payload for acknowledging an incident
type AcknowledgeIncidentRequest struct {
	AcknowledgedBy string `json:"acknowledgedBy"`
}

// ParseMetricNumber extracts the numeric part of a metric_value annotation
// such as "92%", "1500ms" or "0.35". Returns false when no number is found.
func ParseMetricNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	end := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			end = i
			break
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
