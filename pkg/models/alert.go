package models

import (
	"strings"
	"time"
)

// AlertType categorizes what resource an alert is about
type AlertType string

const (
	AlertTypeCPU     AlertType = "cpu"
	AlertTypeMemory  AlertType = "memory"
	AlertTypeHTTP5xx AlertType = "http_5xx"
	AlertTypeLatency AlertType = "latency"
	AlertTypeUnknown AlertType = "unknown"
)

// WebhookPayload is the Alertmanager webhook contract (version 4)
type WebhookPayload struct {
	Version           string            `json:"version"`
	GroupKey          string            `json:"groupKey"`
	Status            string            `json:"status"`
	Receiver          string            `json:"receiver"`
	GroupLabels       map[string]string `json:"groupLabels"`
	CommonLabels      map[string]string `json:"commonLabels"`
	CommonAnnotations map[string]string `json:"commonAnnotations"`
	ExternalURL       string            `json:"externalURL"`
	Alerts            []Alert           `json:"alerts"`
}

// Alert is a single alert inside an Alertmanager webhook payload
type Alert struct {
	Status       string            `json:"status"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"startsAt"`
	EndsAt       *time.Time        `json:"endsAt,omitempty"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint,omitempty"`
}

// Name returns the alertname label, or empty string when the label is missing
func (a Alert) Name() string {
	return a.Labels["alertname"]
}

// Instance returns the instance label
func (a Alert) Instance() string {
	return a.Labels["instance"]
}

// Environment returns the environment label, defaulting to "production"
func (a Alert) Environment() string {
	if env, ok := a.Labels["environment"]; ok && env != "" {
		return env
	}
	return "production"
}

// Severity returns the severity label, defaulting to warning
func (a Alert) Severity() Severity {
	return ParseSeverity(a.Labels["severity"])
}

// MetricValue returns the metric_value annotation as reported by the
// alerting rule, e.g. "92%" or "1500ms". Empty when the rule does not set it.
func (a Alert) MetricValue() string {
	return a.Annotations["metric_value"]
}

// Summary returns the summary annotation
func (a Alert) Summary() string {
	return a.Annotations["summary"]
}

// Description returns the description annotation
func (a Alert) Description() string {
	return a.Annotations["description"]
}

// IsFiring reports whether the alert is currently firing
func (a Alert) IsFiring() bool {
	return a.Status == "firing"
}

// IsResolved reports whether the alert has resolved
func (a Alert) IsResolved() bool {
	return a.Status == "resolved"
}

// Type infers the alert category. The type label wins when present; otherwise
// the alertname is matched against well-known naming conventions.
func (a Alert) Type() AlertType {
	if t, ok := a.Labels["type"]; ok {
		if at := parseAlertType(t); at != AlertTypeUnknown {
			return at
		}
	}

	name := strings.ToLower(a.Name())
	switch {
	case strings.Contains(name, "cpu"):
		return AlertTypeCPU
	case strings.Contains(name, "memory"), strings.Contains(name, "oom"):
		return AlertTypeMemory
	case strings.Contains(name, "5xx"), strings.Contains(name, "error"):
		return AlertTypeHTTP5xx
	case strings.Contains(name, "latency"), strings.Contains(name, "slow"):
		return AlertTypeLatency
	}
	return AlertTypeUnknown
}

func parseAlertType(s string) AlertType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu":
		return AlertTypeCPU
	case "memory", "mem":
		return AlertTypeMemory
	case "http_5xx", "5xx", "errors", "error_rate":
		return AlertTypeHTTP5xx
	case "latency", "response_time":
		return AlertTypeLatency
	}
	return AlertTypeUnknown
}

// DedupKey identifies an alert for deduplication purposes. Alertmanager's own
// fingerprint is used when present, otherwise alertname plus instance.
func (a Alert) DedupKey() string {
	if a.Fingerprint != "" {
		return a.Fingerprint
	}
	return a.Name() + "/" + a.Instance()
}
