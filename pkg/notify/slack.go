package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// Notifier delivers incident notifications to a chat channel
type Notifier interface {
	NotifyIncident(ctx context.Context, incident *models.Incident, decision *models.ScalingDecision) error
	NotifyResolved(ctx context.Context, incident *models.Incident) error
}

// SlackNotifier posts Slack-compatible webhook messages
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a notifier for the given webhook URL
func NewSlackNotifier(cfg *config.NotifierConfig) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer,omitempty"`
	Ts     int64        `json:"ts,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NotifyIncident posts a detection message, including the analysis verdict
// and the scaling outcome when one was dispatched
func (s *SlackNotifier) NotifyIncident(ctx context.Context, incident *models.Incident, decision *models.ScalingDecision) error {
	msg := slackMessage{
		Channel: s.channel,
		Text: fmt.Sprintf("%s *%s* on `%s` (%s)",
			severityEmoji(incident.Severity), incident.AlertName, incident.Instance, incident.Environment),
	}

	fields := []slackField{
		{Title: "Severity", Value: string(incident.Severity), Short: true},
		{Title: "Type", Value: string(incident.AlertType), Short: true},
	}
	if incident.MetricValue != "" {
		fields = append(fields, slackField{Title: "Metric", Value: incident.MetricValue, Short: true})
	}
	if incident.Analysis != nil {
		fields = append(fields,
			slackField{Title: "Recommended action", Value: string(incident.Analysis.Action), Short: true},
			slackField{Title: "Confidence", Value: fmt.Sprintf("%d%%", incident.Analysis.Confidence), Short: true},
			slackField{Title: "Reasoning", Value: incident.Analysis.Reasoning, Short: false},
		)
	}
	if decision != nil {
		outcome := "dispatch failed"
		if decision.Error == "" && decision.Result != nil {
			outcome = decision.Result.Message
		}
		fields = append(fields, slackField{Title: "Scaling", Value: outcome, Short: false})
	}

	msg.Attachments = []slackAttachment{{
		Color:  severityColor(incident.Severity),
		Fields: fields,
		Footer: fmt.Sprintf("incident %s", incident.ID),
		Ts:     incident.DetectedAt.Unix(),
	}}

	return s.post(ctx, msg)
}

// NotifyResolved posts a recovery message
func (s *SlackNotifier) NotifyResolved(ctx context.Context, incident *models.Incident) error {
	duration := ""
	if incident.ResolvedAt != nil {
		duration = fmt.Sprintf(" after %s", incident.ResolvedAt.Sub(incident.DetectedAt).Round(time.Second))
	}
	msg := slackMessage{
		Channel: s.channel,
		Text: fmt.Sprintf(":white_check_mark: *%s* on `%s` resolved%s",
			incident.AlertName, incident.Instance, duration),
	}
	return s.post(ctx, msg)
}

func (s *SlackNotifier) post(ctx context.Context, msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	logrus.Debugf("Notification delivered (%d bytes)", len(body))
	return nil
}

func severityEmoji(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return ":rotating_light:"
	case models.SeverityWarning:
		return ":warning:"
	default:
		return ":information_source:"
	}
}

func severityColor(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "#d32f2f"
	case models.SeverityWarning:
		return "#f9a825"
	default:
		return "#1976d2"
	}
}

// NopNotifier is used when notifications are disabled
type NopNotifier struct{}

// NotifyIncident is a no-op
func (NopNotifier) NotifyIncident(context.Context, *models.Incident, *models.ScalingDecision) error {
	return nil
}

// NotifyResolved is a no-op
func (NopNotifier) NotifyResolved(context.Context, *models.Incident) error { return nil }
