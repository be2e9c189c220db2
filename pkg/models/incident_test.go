package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityInfo, ParseSeverity("info"))
	assert.Equal(t, SeverityCritical, ParseSeverity("critical"))
	assert.Equal(t, SeverityCritical, ParseSeverity("  CRITICAL "))
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityWarning, ParseSeverity(""))
	assert.Equal(t, SeverityWarning, ParseSeverity("page"))
}

func TestParseScaleAction(t *testing.T) {
	tests := []struct {
		input string
		want  ScaleAction
	}{
		{"scale_up", ScaleActionUp},
		{"scale-up", ScaleActionUp},
		{"UP", ScaleActionUp},
		{"scale_down", ScaleActionDown},
		{"down", ScaleActionDown},
		{"none", ScaleActionNone},
		{"", ScaleActionNone},
		{"restart", ScaleActionNone},
		{"delete_everything", ScaleActionNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseScaleAction(tt.input), "input %q", tt.input)
	}
}

func TestParseMetricNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"92%", 92, true},
		{"1500ms", 1500, true},
		{"0.35", 0.35, true},
		{"-5", -5, true},
		{"  42  ", 42, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"%", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseMetricNumber(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 0.0001, "input %q", tt.input)
		}
	}
}
