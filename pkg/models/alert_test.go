package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertType(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   AlertType
	}{
		{
			name:   "type label wins over alertname",
			labels: map[string]string{"type": "memory", "alertname": "HighCPUUsage"},
			want:   AlertTypeMemory,
		},
		{
			name:   "unknown type label falls back to alertname",
			labels: map[string]string{"type": "disk", "alertname": "HighCPUUsage"},
			want:   AlertTypeCPU,
		},
		{
			name:   "cpu from alertname",
			labels: map[string]string{"alertname": "HighCPUUsage"},
			want:   AlertTypeCPU,
		},
		{
			name:   "memory from alertname",
			labels: map[string]string{"alertname": "MemoryPressure"},
			want:   AlertTypeMemory,
		},
		{
			name:   "oom counts as memory",
			labels: map[string]string{"alertname": "OOMKillImminent"},
			want:   AlertTypeMemory,
		},
		{
			name:   "5xx from alertname",
			labels: map[string]string{"alertname": "High5xxRate"},
			want:   AlertTypeHTTP5xx,
		},
		{
			name:   "error from alertname",
			labels: map[string]string{"alertname": "ErrorRateHigh"},
			want:   AlertTypeHTTP5xx,
		},
		{
			name:   "latency from alertname",
			labels: map[string]string{"alertname": "HighLatency"},
			want:   AlertTypeLatency,
		},
		{
			name:   "slow counts as latency",
			labels: map[string]string{"alertname": "SlowResponses"},
			want:   AlertTypeLatency,
		},
		{
			name:   "unmatched alertname",
			labels: map[string]string{"alertname": "DiskFull"},
			want:   AlertTypeUnknown,
		},
		{
			name:   "no labels at all",
			labels: nil,
			want:   AlertTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := Alert{Labels: tt.labels}
			assert.Equal(t, tt.want, alert.Type())
		})
	}
}

func TestAlertAccessors(t *testing.T) {
	alert := Alert{
		Status: "firing",
		Labels: map[string]string{
			"alertname": "HighCPUUsage",
			"instance":  "mock-app:3000",
			"severity":  "critical",
		},
		Annotations: map[string]string{
			"summary":      "CPU above 90%",
			"description":  "sustained pressure",
			"metric_value": "95%",
		},
		StartsAt: time.Now(),
	}

	assert.Equal(t, "HighCPUUsage", alert.Name())
	assert.Equal(t, "mock-app:3000", alert.Instance())
	assert.Equal(t, SeverityCritical, alert.Severity())
	assert.Equal(t, "95%", alert.MetricValue())
	assert.Equal(t, "CPU above 90%", alert.Summary())
	assert.Equal(t, "sustained pressure", alert.Description())
	assert.True(t, alert.IsFiring())
	assert.False(t, alert.IsResolved())
}

func TestAlertEnvironmentDefaultsToProduction(t *testing.T) {
	assert.Equal(t, "production", Alert{}.Environment())
	assert.Equal(t, "production", Alert{Labels: map[string]string{"environment": ""}}.Environment())
	assert.Equal(t, "staging", Alert{Labels: map[string]string{"environment": "staging"}}.Environment())
}

func TestAlertDedupKey(t *testing.T) {
	withFingerprint := Alert{
		Fingerprint: "abc123",
		Labels:      map[string]string{"alertname": "HighCPUUsage", "instance": "a:1"},
	}
	assert.Equal(t, "abc123", withFingerprint.DedupKey())

	withoutFingerprint := Alert{
		Labels: map[string]string{"alertname": "HighCPUUsage", "instance": "a:1"},
	}
	assert.Equal(t, "HighCPUUsage/a:1", withoutFingerprint.DedupKey())
}

func TestAlertResolvedStatus(t *testing.T) {
	alert := Alert{Status: "resolved"}
	assert.True(t, alert.IsResolved())
	assert.False(t, alert.IsFiring())
}
