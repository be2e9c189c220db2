package store

import (
	"time"

	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// incidentFromRow maps a history stream row back onto the domain model
func incidentFromRow(row map[string]interface{}) models.Incident {
	incident := models.Incident{
		ID:          stringField(row, "id"),
		Fingerprint: stringField(row, "fingerprint"),
		AlertName:   stringField(row, "alert_name"),
		AlertType:   models.AlertType(stringField(row, "alert_type")),
		Instance:    stringField(row, "instance"),
		Environment: stringField(row, "environment"),
		Severity:    models.Severity(stringField(row, "severity")),
		MetricValue: stringField(row, "metric_value"),
		Summary:     stringField(row, "summary"),
		Status:      models.IncidentStatus(stringField(row, "status")),
		StartsAt:    timeField(row, "starts_at"),
		DetectedAt:  timeField(row, "detected_at"),
	}

	if t, ok := row["resolved_at"].(time.Time); ok && !t.IsZero() {
		incident.ResolvedAt = &t
	}

	if action := stringField(row, "analysis_action"); action != "" {
		incident.Analysis = &models.Analysis{
			Action:     models.ScaleAction(action),
			Severity:   incident.Severity,
			Confidence: intField(row, "analysis_confidence"),
			Reasoning:  stringField(row, "analysis_reasoning"),
			Source:     stringField(row, "analysis_source"),
		}
	}

	return incident
}

// decisionFromRow maps a decision stream row back onto the domain model
func decisionFromRow(row map[string]interface{}) models.ScalingDecision {
	decision := models.ScalingDecision{
		ID:         stringField(row, "id"),
		IncidentID: stringField(row, "incident_id"),
		Error:      stringField(row, "error"),
		CreatedAt:  timeField(row, "created_at"),
		Request: models.ScaleRequest{
			Action:       models.ScaleAction(stringField(row, "action")),
			AlertType:    models.AlertType(stringField(row, "alert_type")),
			Instance:     stringField(row, "instance"),
			Environment:  stringField(row, "environment"),
			Severity:     models.Severity(stringField(row, "severity")),
			MetricValue:  stringField(row, "metric_value"),
			AIConfidence: intField(row, "ai_confidence"),
			AIReasoning:  stringField(row, "ai_reasoning"),
			Timestamp:    timeField(row, "created_at"),
		},
	}

	if resultAction := stringField(row, "result_action"); resultAction != "" {
		decision.Result = &models.ScaleResult{
			Success:          decision.Error == "",
			Action:           resultAction,
			Message:          stringField(row, "result_message"),
			PreviousCapacity: intField(row, "previous_capacity"),
			NewCapacity:      intField(row, "new_capacity"),
			Timestamp:        decision.CreatedAt,
		}
	}

	return decision
}

func stringField(row map[string]interface{}, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func intField(row map[string]interface{}, key string) int {
	switch v := row[key].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

func timeField(row map[string]interface{}, key string) time.Time {
	if v, ok := row[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
