package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
)

const systemPrompt = `You are an SRE assistant for a production web service behind an ` +
	`auto-scaling group. You receive one alert at a time and decide whether the ` +
	`service should be scaled. Respond with a single JSON object and nothing else:
{"action": "scale_up" | "scale_down" | "none", "severity": "info" | "warning" | "critical", ` +
	`"confidence": <0-100>, "reasoning": "<one sentence>"}
Scale up only for sustained resource pressure or user-facing degradation. ` +
	`Prefer "none" when the signal is ambiguous.`

// OpenAIAnalyzer asks a chat completion model for a scaling verdict
type OpenAIAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIAnalyzer creates an analyzer backed by the OpenAI API
func NewOpenAIAnalyzer(cfg *config.OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))

	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4o)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIAnalyzer{
		client:  &client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Analyze sends the incident to the model and parses its JSON verdict
func (o *OpenAIAnalyzer) Analyze(ctx context.Context, incident *models.Incident) (*models.Analysis, error) {
	if incident == nil {
		return nil, fmt.Errorf("incident is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(o.model),
		MaxTokens: openai.Int(256),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(incident)),
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	analysis, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model verdict: %w", err)
	}

	logrus.Debugf("AI verdict for incident %s: action=%s confidence=%d",
		incident.ID, analysis.Action, analysis.Confidence)
	return analysis, nil
}

func buildUserPrompt(incident *models.Incident) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert: %s\n", incident.AlertName)
	fmt.Fprintf(&b, "Type: %s\n", incident.AlertType)
	fmt.Fprintf(&b, "Severity: %s\n", incident.Severity)
	fmt.Fprintf(&b, "Instance: %s\n", incident.Instance)
	fmt.Fprintf(&b, "Environment: %s\n", incident.Environment)
	if incident.MetricValue != "" {
		fmt.Fprintf(&b, "Metric value: %s\n", incident.MetricValue)
	}
	if incident.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", incident.Summary)
	}
	if incident.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", incident.Description)
	}
	fmt.Fprintf(&b, "Firing since: %s\n", incident.StartsAt.UTC().Format(time.RFC3339))
	return b.String()
}

// verdict is the JSON shape the model is instructed to return
type verdict struct {
	Action     string `json:"action"`
	Severity   string `json:"severity"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// parseVerdict decodes the model response. Models occasionally wrap the JSON
// in a markdown code fence, so that is stripped first.
func parseVerdict(content string) (*models.Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Tolerate leading prose by starting at the first brace.
	if idx := strings.Index(content, "{"); idx > 0 {
		content = content[idx:]
	}

	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON in response %q: %w", content, err)
	}

	confidence := v.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return &models.Analysis{
		Action:     models.ParseScaleAction(v.Action),
		Severity:   models.ParseSeverity(v.Severity),
		Confidence: confidence,
		Reasoning:  v.Reasoning,
		Source:     "ai",
		AnalyzedAt: time.Now().UTC(),
	}, nil
}
