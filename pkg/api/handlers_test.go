package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaleops-io/incident-gateway/pkg/ai"
	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
	"github.com/scaleops-io/incident-gateway/pkg/notify"
	"github.com/scaleops-io/incident-gateway/pkg/scaler"
	"github.com/scaleops-io/incident-gateway/pkg/services"
)

// setupTestRouter builds a router backed by the heuristic analyzer and a
// local scaling group, so no external collaborators are needed
func setupTestRouter() (*echo.Echo, *services.IncidentService) {
	group := scaler.NewGroup(&config.ScalerConfig{
		GroupName:          "test-asg",
		MinCapacity:        2,
		MaxCapacity:        10,
		ScaleUpIncrement:   2,
		ScaleDownIncrement: 1,
		CooldownSeconds:    300,
	})

	svc := services.NewIncidentService(
		ai.NewHeuristicAnalyzer(),
		notify.NopNotifier{},
		scaler.NewLocalTrigger(group),
		nil,
		config.DetectionConfig{ConfidenceThreshold: 70, ThrottleMinutes: 5, MaxIncidents: 500},
	)

	e := echo.New()
	handler := NewAPIHandler(svc)
	handler.SetupRoutes(e)
	return e, svc
}

func webhookBody(t *testing.T, status, alertname, instance, severity string) *bytes.Buffer {
	t.Helper()
	payload := models.WebhookPayload{
		Version:  "4",
		Status:   status,
		Receiver: "incident-gateway",
		Alerts: []models.Alert{{
			Status: status,
			Labels: map[string]string{
				"alertname": alertname,
				"instance":  instance,
				"severity":  severity,
			},
			Annotations: map[string]string{"metric_value": "95%"},
			StartsAt:    time.Now().UTC(),
		}},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func TestReceiveAlertmanagerWebhook(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/alertmanager",
		webhookBody(t, "firing", "HighCPUUsage", "mock-app:3000", "critical"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["received"])
	assert.Equal(t, 1, resp["incidents"])
}

func TestReceiveAlertmanagerWebhookRejectsBadPayloads(t *testing.T) {
	router, _ := setupTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{not json`},
		{name: "no alerts", body: `{"version": "4", "status": "firing", "alerts": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/alertmanager", bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetIncidents(t *testing.T) {
	router, svc := setupTestRouter()
	svc.HandleWebhook(context.Background(), &models.WebhookPayload{
		Alerts: []models.Alert{{
			Status:   "firing",
			Labels:   map[string]string{"alertname": "HighCPUUsage", "instance": "a:1", "severity": "critical"},
			StartsAt: time.Now().UTC(),
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/incidents", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var incidents []models.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incidents))
	require.Len(t, incidents, 1)
	assert.Equal(t, "HighCPUUsage", incidents[0].AlertName)

	// Status filter that matches nothing.
	req = httptest.NewRequest(http.MethodGet, "/api/incidents?status=resolved", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incidents))
	assert.Empty(t, incidents)
}

func TestGetIncidentNotFound(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/incidents/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcknowledgeIncident(t *testing.T) {
	router, svc := setupTestRouter()
	svc.HandleWebhook(context.Background(), &models.WebhookPayload{
		Alerts: []models.Alert{{
			Status:   "firing",
			Labels:   map[string]string{"alertname": "HighCPUUsage", "instance": "a:1", "severity": "critical"},
			StartsAt: time.Now().UTC(),
		}},
	})
	id := svc.GetIncidents("")[0].ID

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{name: "valid", id: id, body: `{"acknowledgedBy": "oncall@example.com"}`, wantStatus: http.StatusOK},
		{name: "missing acknowledgedBy", id: id, body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "unknown incident", id: "nonexistent", body: `{"acknowledgedBy": "oncall@example.com"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/incidents/"+tt.id+"/acknowledge", bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetIncidentsByTimeRange(t *testing.T) {
	router, svc := setupTestRouter()
	svc.HandleWebhook(context.Background(), &models.WebhookPayload{
		Alerts: []models.Alert{{
			Status:   "firing",
			Labels:   map[string]string{"alertname": "HighCPUUsage", "instance": "a:1", "severity": "critical"},
			StartsAt: time.Now().UTC(),
		}},
	})

	// Defaults cover the last 24 hours.
	req := httptest.NewRequest(http.MethodGet, "/api/incidents/by-time", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var incidents []models.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incidents))
	assert.Len(t, incidents, 1)

	// Invalid timestamps are rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/incidents/by-time?start_time=yesterday", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDecisions(t *testing.T) {
	router, svc := setupTestRouter()
	svc.HandleWebhook(context.Background(), &models.WebhookPayload{
		Alerts: []models.Alert{{
			Status:   "firing",
			Labels:   map[string]string{"alertname": "HighCPUUsage", "instance": "a:1", "severity": "critical"},
			StartsAt: time.Now().UTC(),
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var decisions []models.ScalingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decisions))
	require.Len(t, decisions, 1)
	require.NotNil(t, decisions[0].Result)
	assert.Equal(t, "scaled_up", decisions[0].Result.Action)

	req = httptest.NewRequest(http.MethodGet, "/api/decisions?limit=abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
