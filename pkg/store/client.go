package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	proton "github.com/timeplus-io/proton-go-driver/v2"
	"github.com/timeplus-io/proton-go-driver/v2/lib/driver"

	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// Client is a wrapper around the Timeplus Proton Go driver connection,
// used to persist incident and scaling decision history
type Client struct {
	conn      driver.Conn
	workspace string
}

// NewClient connects to Timeplus and verifies the connection
func NewClient(cfg *config.TimeplusConfig) (*Client, error) {
	address := strings.TrimPrefix(cfg.Address, "http://")
	address = strings.TrimPrefix(address, "https://")
	if !strings.Contains(address, ":") {
		address += ":8464" // default native port
	}

	logrus.Infof("Connecting to Timeplus at %s (workspace: %s)", address, cfg.Workspace)

	opts := &proton.Options{
		Addr: []string{address},
		Auth: proton.Auth{
			Database: cfg.Workspace,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		Compression: &proton.Compression{
			Method: proton.CompressionLZ4,
		},
	}

	conn, err := proton.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to Timeplus: %w", err)
	}

	var pingErr error
	for i := 0; i < 5; i++ {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = conn.Ping(pingCtx)
		cancel()
		if pingErr == nil {
			break
		}
		logrus.Warnf("Failed to ping Timeplus (attempt %d/5): %v", i+1, pingErr)
		time.Sleep(2 * time.Second)
	}
	if pingErr != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping Timeplus after multiple attempts: %w", pingErr)
	}

	return &Client{conn: conn, workspace: cfg.Workspace}, nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetupStreams creates the history streams if they do not exist
func (c *Client) SetupStreams(ctx context.Context) error {
	if err := c.createStream(ctx, IncidentStreamName, IncidentSchema()); err != nil {
		return fmt.Errorf("failed to create incident stream: %w", err)
	}
	if err := c.createStream(ctx, DecisionStreamName, DecisionSchema()); err != nil {
		return fmt.Errorf("failed to create decision stream: %w", err)
	}
	return nil
}

func (c *Client) createStream(ctx context.Context, name string, schema []Column) error {
	fields := make([]string, len(schema))
	for i, col := range schema {
		if col.Nullable {
			fields[i] = fmt.Sprintf("`%s` %s NULL", col.Name, col.Type)
		} else {
			fields[i] = fmt.Sprintf("`%s` %s", col.Name, col.Type)
		}
	}
	query := fmt.Sprintf("CREATE STREAM IF NOT EXISTS `%s` (%s)", name, strings.Join(fields, ", "))
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", name, err)
	}
	return nil
}

// InsertIncident appends one incident to the history stream
func (c *Client) InsertIncident(ctx context.Context, incident *models.Incident) error {
	action, confidence, reasoning, source := "", 0, "", ""
	if incident.Analysis != nil {
		action = string(incident.Analysis.Action)
		confidence = incident.Analysis.Confidence
		reasoning = incident.Analysis.Reasoning
		source = incident.Analysis.Source
	}

	columns := []string{
		"id", "fingerprint", "alert_name", "alert_type", "instance", "environment",
		"severity", "metric_value", "summary", "status",
		"analysis_action", "analysis_confidence", "analysis_reasoning", "analysis_source",
		"starts_at", "detected_at", "resolved_at",
	}
	values := []interface{}{
		incident.ID, incident.Fingerprint, incident.AlertName, string(incident.AlertType),
		incident.Instance, incident.Environment,
		string(incident.Severity), incident.MetricValue, incident.Summary, string(incident.Status),
		action, int32(confidence), reasoning, source,
		incident.StartsAt, incident.DetectedAt, incident.ResolvedAt,
	}
	return c.insert(ctx, IncidentStreamName, columns, values)
}

// InsertDecision appends one scaling decision to the history stream
func (c *Client) InsertDecision(ctx context.Context, decision *models.ScalingDecision) error {
	resultAction, resultMessage := "", ""
	previous, newCap := 0, 0
	if decision.Result != nil {
		resultAction = decision.Result.Action
		resultMessage = decision.Result.Message
		previous = decision.Result.PreviousCapacity
		newCap = decision.Result.NewCapacity
	}

	columns := []string{
		"id", "incident_id", "action", "alert_type", "instance", "environment",
		"severity", "metric_value", "ai_confidence", "ai_reasoning",
		"result_action", "result_message", "previous_capacity", "new_capacity",
		"error", "created_at",
	}
	values := []interface{}{
		decision.ID, decision.IncidentID, string(decision.Request.Action),
		string(decision.Request.AlertType), decision.Request.Instance, decision.Request.Environment,
		string(decision.Request.Severity), decision.Request.MetricValue,
		int32(decision.Request.AIConfidence), decision.Request.AIReasoning,
		resultAction, resultMessage, int32(previous), int32(newCap),
		decision.Error, decision.CreatedAt,
	}
	return c.insert(ctx, DecisionStreamName, columns, values)
}

// insert builds and executes a literal INSERT statement. The driver's batch
// API is overkill for single-row history writes.
func (c *Client) insert(ctx context.Context, streamName string, columns []string, values []interface{}) error {
	formatted := make([]string, len(values))
	for i, val := range values {
		formatted[i] = formatValue(val)
	}
	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		streamName, strings.Join(columns, ", "), strings.Join(formatted, ", "))
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", streamName, err)
	}
	return nil
}

func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case time.Time:
		return fmt.Sprintf("'%s'", v.UTC().Format("2006-01-02 15:04:05.000"))
	case *time.Time:
		if v == nil {
			return "null"
		}
		return formatValue(*v)
	case bool:
		return fmt.Sprintf("%t", v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%f", v)
	default:
		return fmt.Sprintf("'%v'", v)
	}
}

// QueryIncidentsByTimeRange returns historical incidents detected inside [start, end]
func (c *Client) QueryIncidentsByTimeRange(ctx context.Context, start, end time.Time) ([]models.Incident, error) {
	query := fmt.Sprintf(
		"SELECT * FROM table(%s) WHERE detected_at >= '%s' AND detected_at <= '%s' ORDER BY detected_at DESC",
		IncidentStreamName,
		start.UTC().Format("2006-01-02 15:04:05.000"),
		end.UTC().Format("2006-01-02 15:04:05.000"),
	)
	rows, err := c.executeQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	incidents := make([]models.Incident, 0, len(rows))
	for _, row := range rows {
		incidents = append(incidents, incidentFromRow(row))
	}
	return incidents, nil
}

// QueryRecentDecisions returns the most recent scaling decisions
func (c *Client) QueryRecentDecisions(ctx context.Context, limit int) ([]models.ScalingDecision, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(
		"SELECT * FROM table(%s) ORDER BY created_at DESC LIMIT %d", DecisionStreamName, limit)
	rows, err := c.executeQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	decisions := make([]models.ScalingDecision, 0, len(rows))
	for _, row := range rows {
		decisions = append(decisions, decisionFromRow(row))
	}
	return decisions, nil
}

// executeQuery runs a one-off query and returns rows as maps
func (c *Client) executeQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	rows, err := c.conn.Query(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames := rows.Columns()
	columnTypes := rows.ColumnTypes()

	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		scanArgs := make([]interface{}, len(columnNames))
		for i, ct := range columnTypes {
			scanArgs[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rowMap := make(map[string]interface{})
		for i, name := range columnNames {
			rowMap[name] = reflect.ValueOf(scanArgs[i]).Elem().Interface()
		}
		result = append(result, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}
