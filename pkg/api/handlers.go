package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/models"
	"github.com/scaleops-io/incident-gateway/pkg/services"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	incidentService *services.IncidentService
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(incidentService *services.IncidentService) *APIHandler {
	return &APIHandler{
		incidentService: incidentService,
	}
}

// ReceiveAlertmanagerWebhook ingests an Alertmanager webhook payload
func (h *APIHandler) ReceiveAlertmanagerWebhook(c echo.Context) error {
	var payload models.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		logrus.Errorf("Error binding webhook payload: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid webhook payload"})
	}

	if len(payload.Alerts) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Webhook payload contains no alerts"})
	}

	accepted := h.incidentService.HandleWebhook(c.Request().Context(), &payload)
	logrus.Infof("Webhook processed: %d alerts, %d new incidents (receiver: %s)",
		len(payload.Alerts), accepted, payload.Receiver)

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"received":  len(payload.Alerts),
		"incidents": accepted,
	})
}

// GetIncidents returns all incidents, optionally filtered by status
func (h *APIHandler) GetIncidents(c echo.Context) error {
	status := models.IncidentStatus(c.QueryParam("status"))
	incidents := h.incidentService.GetIncidents(status)
	return c.JSON(http.StatusOK, incidents)
}

// GetIncident returns an incident by ID
func (h *APIHandler) GetIncident(c echo.Context) error {
	id := c.Param("id")
	incident, ok := h.incidentService.GetIncident(id)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Incident with ID %s not found", id)})
	}
	return c.JSON(http.StatusOK, incident)
}

// AcknowledgeIncident acknowledges an incident
func (h *APIHandler) AcknowledgeIncident(c echo.Context) error {
	id := c.Param("id")
	var req models.AcknowledgeIncidentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.AcknowledgedBy == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "acknowledgedBy is required"})
	}

	if !h.incidentService.AcknowledgeIncident(id, req.AcknowledgedBy) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Incident with ID %s not found", id)})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Incident acknowledged successfully"})
}

// GetIncidentsByTimeRange returns incidents within a specified time range
func (h *APIHandler) GetIncidentsByTimeRange(c echo.Context) error {
	startTimeStr := c.QueryParam("start_time")
	endTimeStr := c.QueryParam("end_time")

	var startTime, endTime time.Time
	var err error

	if startTimeStr != "" {
		startTime, err = time.Parse(time.RFC3339, startTimeStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start_time format"})
		}
	} else {
		// Default to 24 hours ago if not specified
		startTime = time.Now().Add(-24 * time.Hour)
	}

	if endTimeStr != "" {
		endTime, err = time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid end_time format"})
		}
	} else {
		endTime = time.Now()
	}

	incidents, err := h.incidentService.GetIncidentsByTimeRange(c.Request().Context(), startTime, endTime)
	if err != nil {
		logrus.Errorf("Error getting incidents by time range: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get incidents"})
	}
	return c.JSON(http.StatusOK, incidents)
}

// GetDecisions returns recent scaling decisions
func (h *APIHandler) GetDecisions(c echo.Context) error {
	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if _, err := fmt.Sscanf(limitStr, "%d", &limit); err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
	}
	return c.JSON(http.StatusOK, h.incidentService.GetDecisions(limit))
}

// Health reports service liveness
func (h *APIHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// SetupRoutes sets up the API routes
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	// Webhook intake
	e.POST("/api/webhooks/alertmanager", h.ReceiveAlertmanagerWebhook)

	// Incident endpoints
	e.GET("/api/incidents", h.GetIncidents)
	e.GET("/api/incidents/by-time", h.GetIncidentsByTimeRange)
	e.GET("/api/incidents/:id", h.GetIncident)
	e.POST("/api/incidents/:id/acknowledge", h.AcknowledgeIncident)

	// Scaling decision endpoints
	e.GET("/api/decisions", h.GetDecisions)

	e.GET("/health", h.Health)
}
