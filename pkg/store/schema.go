package store

// Stream names for persistent incident history
const (
	IncidentStreamName = "ig_incidents"
	DecisionStreamName = "ig_scaling_decisions"
)

// Column represents a column definition
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// IncidentSchema is the schema of the incident history stream
func IncidentSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "fingerprint", Type: "string"},
		{Name: "alert_name", Type: "string"},
		{Name: "alert_type", Type: "string"},
		{Name: "instance", Type: "string"},
		{Name: "environment", Type: "string"},
		{Name: "severity", Type: "string"},
		{Name: "metric_value", Type: "string"},
		{Name: "summary", Type: "string"},
		{Name: "status", Type: "string"},
		{Name: "analysis_action", Type: "string"},
		{Name: "analysis_confidence", Type: "int32"},
		{Name: "analysis_reasoning", Type: "string"},
		{Name: "analysis_source", Type: "string"},
		{Name: "starts_at", Type: "datetime64"},
		{Name: "detected_at", Type: "datetime64"},
		{Name: "resolved_at", Type: "datetime64", Nullable: true},
	}
}

// DecisionSchema is the schema of the scaling decision stream
func DecisionSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "incident_id", Type: "string"},
		{Name: "action", Type: "string"},
		{Name: "alert_type", Type: "string"},
		{Name: "instance", Type: "string"},
		{Name: "environment", Type: "string"},
		{Name: "severity", Type: "string"},
		{Name: "metric_value", Type: "string"},
		{Name: "ai_confidence", Type: "int32"},
		{Name: "ai_reasoning", Type: "string"},
		{Name: "result_action", Type: "string"},
		{Name: "result_message", Type: "string"},
		{Name: "previous_capacity", Type: "int32"},
		{Name: "new_capacity", Type: "int32"},
		{Name: "error", Type: "string"},
		{Name: "created_at", Type: "datetime64"},
	}
}
