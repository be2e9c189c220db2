package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaleops-io/incident-gateway/pkg/models"
)

func TestIncidentFromRow(t *testing.T) {
	detected := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	resolved := detected.Add(15 * time.Minute)

	row := map[string]interface{}{
		"id":                  "inc-1",
		"fingerprint":         "abc123",
		"alert_name":          "HighCPUUsage",
		"alert_type":          "cpu",
		"instance":            "mock-app:3000",
		"environment":         "production",
		"severity":            "critical",
		"metric_value":        "95%",
		"summary":             "CPU above 90%",
		"status":              "resolved",
		"analysis_action":     "scale_up",
		"analysis_confidence": int32(92),
		"analysis_reasoning":  "sustained pressure",
		"analysis_source":     "ai",
		"starts_at":           detected.Add(-2 * time.Minute),
		"detected_at":         detected,
		"resolved_at":         resolved,
	}

	incident := incidentFromRow(row)

	assert.Equal(t, "inc-1", incident.ID)
	assert.Equal(t, models.AlertTypeCPU, incident.AlertType)
	assert.Equal(t, models.SeverityCritical, incident.Severity)
	assert.Equal(t, models.IncidentStatusResolved, incident.Status)
	assert.Equal(t, detected, incident.DetectedAt)
	require.NotNil(t, incident.ResolvedAt)
	assert.Equal(t, resolved, *incident.ResolvedAt)

	require.NotNil(t, incident.Analysis)
	assert.Equal(t, models.ScaleActionUp, incident.Analysis.Action)
	assert.Equal(t, 92, incident.Analysis.Confidence)
	assert.Equal(t, "ai", incident.Analysis.Source)
}

func TestIncidentFromRowWithoutAnalysis(t *testing.T) {
	row := map[string]interface{}{
		"id":          "inc-2",
		"alert_name":  "DiskFull",
		"alert_type":  "unknown",
		"severity":    "warning",
		"status":      "detected",
		"detected_at": time.Now().UTC(),
	}

	incident := incidentFromRow(row)
	assert.Nil(t, incident.Analysis)
	assert.Nil(t, incident.ResolvedAt)
}

func TestDecisionFromRow(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)

	row := map[string]interface{}{
		"id":                "dec-1",
		"incident_id":       "inc-1",
		"action":            "scale_up",
		"alert_type":        "cpu",
		"instance":          "mock-app:3000",
		"environment":       "production",
		"severity":          "critical",
		"metric_value":      "95%",
		"ai_confidence":     int32(92),
		"ai_reasoning":      "sustained pressure",
		"result_action":     "scaled_up",
		"result_message":    "scaled from 2 to 6 instances",
		"previous_capacity": int32(2),
		"new_capacity":      int32(6),
		"error":             "",
		"created_at":        created,
	}

	decision := decisionFromRow(row)

	assert.Equal(t, "dec-1", decision.ID)
	assert.Equal(t, "inc-1", decision.IncidentID)
	assert.Equal(t, models.ScaleActionUp, decision.Request.Action)
	assert.Equal(t, 92, decision.Request.AIConfidence)

	require.NotNil(t, decision.Result)
	assert.True(t, decision.Result.Success)
	assert.Equal(t, "scaled_up", decision.Result.Action)
	assert.Equal(t, 2, decision.Result.PreviousCapacity)
	assert.Equal(t, 6, decision.Result.NewCapacity)
}

func TestDecisionFromRowWithError(t *testing.T) {
	row := map[string]interface{}{
		"id":          "dec-2",
		"incident_id": "inc-2",
		"action":      "scale_up",
		"error":       "scaling function unreachable",
		"created_at":  time.Now().UTC(),
	}

	decision := decisionFromRow(row)
	assert.Equal(t, "scaling function unreachable", decision.Error)
	assert.Nil(t, decision.Result)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil", nil, "null"},
		{"string", "hello", "'hello'"},
		{"string with quote", "it's fine", "'it''s fine'"},
		{"time", ts, "'2026-08-01 12:00:00.000'"},
		{"nil time pointer", (*time.Time)(nil), "null"},
		{"time pointer", &ts, "'2026-08-01 12:00:00.000'"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"int32", int32(7), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.input))
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	row := map[string]interface{}{
		"s":   "text",
		"i32": int32(1),
		"i64": int64(2),
		"i":   3,
		"u32": uint32(4),
		"t":   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "text", stringField(row, "s"))
	assert.Equal(t, "", stringField(row, "missing"))
	assert.Equal(t, 1, intField(row, "i32"))
	assert.Equal(t, 2, intField(row, "i64"))
	assert.Equal(t, 3, intField(row, "i"))
	assert.Equal(t, 4, intField(row, "u32"))
	assert.Equal(t, 0, intField(row, "missing"))
	assert.False(t, timeField(row, "t").IsZero())
	assert.True(t, timeField(row, "missing").IsZero())
}

func TestSchemasMatchInsertColumns(t *testing.T) {
	incidentCols := IncidentSchema()
	decisionCols := DecisionSchema()

	assert.Len(t, incidentCols, 17)
	assert.Len(t, decisionCols, 16)

	// Nullable only where the domain model allows absence.
	for _, col := range incidentCols {
		if col.Name == "resolved_at" {
			assert.True(t, col.Nullable)
		} else {
			assert.False(t, col.Nullable, col.Name)
		}
	}
}
