package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/ai"
	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
	"github.com/scaleops-io/incident-gateway/pkg/notify"
	"github.com/scaleops-io/incident-gateway/pkg/scaler"
	"github.com/scaleops-io/incident-gateway/pkg/store"
)

// IncidentService runs the detection pipeline: webhook intake, dedup and
// throttling, AI analysis, confidence gating, scaling dispatch, notification
// and history write-through. The in-memory registry is the source of truth
// for the API; the store is a best-effort history sink.
type IncidentService struct {
	analyzer ai.Analyzer
	notifier notify.Notifier
	trigger  scaler.Trigger
	history  store.StoreClient // nil when the store is disabled
	cfg      config.DetectionConfig

	mu        sync.RWMutex
	incidents map[string]*models.Incident // by incident ID
	order     []string                    // incident IDs, newest first, bounded
	active    map[string]string           // fingerprint -> incident ID, unresolved only
	decisions []*models.ScalingDecision   // newest first, bounded
}

// NewIncidentService creates the pipeline with its collaborators
func NewIncidentService(analyzer ai.Analyzer, notifier notify.Notifier, trigger scaler.Trigger, history store.StoreClient, cfg config.DetectionConfig) *IncidentService {
	if cfg.MaxIncidents <= 0 {
		cfg.MaxIncidents = 500
	}
	return &IncidentService{
		analyzer:  analyzer,
		notifier:  notifier,
		trigger:   trigger,
		history:   history,
		cfg:       cfg,
		incidents: make(map[string]*models.Incident),
		active:    make(map[string]string),
	}
}

// HandleWebhook processes one Alertmanager webhook payload and returns the
// number of alerts that produced a new incident. Collaborator failures are
// logged, never propagated: the webhook must not 5xx because a downstream
// integration is unhealthy.
func (s *IncidentService) HandleWebhook(ctx context.Context, payload *models.WebhookPayload) int {
	accepted := 0
	for i := range payload.Alerts {
		alert := payload.Alerts[i]
		switch {
		case alert.IsResolved():
			s.processResolved(ctx, alert)
		case alert.IsFiring():
			if s.processFiring(ctx, alert) {
				accepted++
			}
		default:
			logrus.Debugf("Ignoring alert %s with status %q", alert.Name(), alert.Status)
		}
	}
	return accepted
}

// processFiring runs the full pipeline for one firing alert. Returns true
// when a new incident was created.
func (s *IncidentService) processFiring(ctx context.Context, alert models.Alert) bool {
	if s.cfg.Environment != "" && alert.Environment() != s.cfg.Environment {
		logrus.Debugf("Skipping alert %s from environment %s", alert.Name(), alert.Environment())
		return false
	}

	fingerprint := alert.DedupKey()
	if s.isThrottled(fingerprint) {
		logrus.Infof("Throttled duplicate alert %s (fingerprint %s)", alert.Name(), fingerprint)
		return false
	}

	incident := &models.Incident{
		ID:          uuid.New().String(),
		Fingerprint: fingerprint,
		AlertName:   alert.Name(),
		AlertType:   alert.Type(),
		Instance:    alert.Instance(),
		Environment: alert.Environment(),
		Severity:    alert.Severity(),
		MetricValue: alert.MetricValue(),
		Summary:     alert.Summary(),
		Description: alert.Description(),
		Status:      models.IncidentStatusDetected,
		StartsAt:    alert.StartsAt,
		DetectedAt:  time.Now().UTC(),
	}
	s.register(incident)

	logrus.Infof("Incident %s detected: %s on %s (%s)",
		incident.ID, incident.AlertName, incident.Instance, incident.Severity)

	analysis, err := s.analyzer.Analyze(ctx, incident)
	if err != nil {
		logrus.Errorf("Analysis failed for incident %s: %v", incident.ID, err)
		s.updateStatus(incident.ID, models.IncidentStatusDismissed)
		s.recordIncident(ctx, incident)
		return true
	}

	s.mu.Lock()
	incident.Analysis = analysis
	incident.Status = models.IncidentStatusAnalyzed
	s.mu.Unlock()

	var decision *models.ScalingDecision
	if analysis.Action == models.ScaleActionNone || analysis.Confidence < s.cfg.ConfidenceThreshold {
		s.updateStatus(incident.ID, models.IncidentStatusDismissed)
		logrus.Infof("Incident %s dismissed: action=%s confidence=%d (threshold %d)",
			incident.ID, analysis.Action, analysis.Confidence, s.cfg.ConfidenceThreshold)
		// Critical incidents are surfaced to the channel even when no
		// scaling action is warranted.
		if incident.Severity == models.SeverityCritical {
			s.notifyIncident(ctx, incident, nil)
		}
	} else {
		decision = s.dispatchScaling(ctx, incident, analysis)
		s.updateStatus(incident.ID, models.IncidentStatusActioned)
		s.notifyIncident(ctx, incident, decision)
	}

	s.recordIncident(ctx, incident)
	return true
}

// dispatchScaling sends the scale request and records the decision
func (s *IncidentService) dispatchScaling(ctx context.Context, incident *models.Incident, analysis *models.Analysis) *models.ScalingDecision {
	req := &models.ScaleRequest{
		Action:       analysis.Action,
		AlertType:    incident.AlertType,
		Instance:     incident.Instance,
		Environment:  incident.Environment,
		Severity:     incident.Severity,
		MetricValue:  incident.MetricValue,
		AIConfidence: analysis.Confidence,
		AIReasoning:  analysis.Reasoning,
		Timestamp:    time.Now().UTC(),
	}

	decision := &models.ScalingDecision{
		ID:         uuid.New().String(),
		IncidentID: incident.ID,
		Request:    *req,
		CreatedAt:  time.Now().UTC(),
	}

	result, err := s.trigger.Scale(ctx, req)
	if err != nil {
		decision.Error = err.Error()
		logrus.Errorf("Scaling dispatch failed for incident %s: %v", incident.ID, err)
	} else {
		decision.Result = result
	}

	s.mu.Lock()
	s.decisions = append([]*models.ScalingDecision{decision}, s.decisions...)
	if len(s.decisions) > s.cfg.MaxIncidents {
		s.decisions = s.decisions[:s.cfg.MaxIncidents]
	}
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.InsertDecision(ctx, decision); err != nil {
			logrus.Warnf("Failed to record scaling decision %s: %v", decision.ID, err)
		}
	}
	return decision
}

// processResolved resolves the matching active incident, if any. Resolved
// alerts that match nothing are ignored.
func (s *IncidentService) processResolved(ctx context.Context, alert models.Alert) {
	fingerprint := alert.DedupKey()

	s.mu.Lock()
	id, ok := s.active[fingerprint]
	if !ok {
		s.mu.Unlock()
		logrus.Debugf("Ignoring resolved alert with no matching incident: %s", alert.Name())
		return
	}
	incident := s.incidents[id]
	now := time.Now().UTC()
	incident.Status = models.IncidentStatusResolved
	incident.ResolvedAt = &now
	delete(s.active, fingerprint)
	s.mu.Unlock()

	logrus.Infof("Incident %s resolved: %s on %s", incident.ID, incident.AlertName, incident.Instance)

	if err := s.notifier.NotifyResolved(ctx, incident); err != nil {
		logrus.Warnf("Failed to send resolution notification for %s: %v", incident.ID, err)
	}
	s.recordIncident(ctx, incident)
}

// isThrottled reports whether an unresolved incident with the same
// fingerprint was detected inside the throttle window
func (s *IncidentService) isThrottled(fingerprint string) bool {
	window := time.Duration(s.cfg.ThrottleMinutes) * time.Minute
	if window <= 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[fingerprint]
	if !ok {
		return false
	}
	incident := s.incidents[id]
	return time.Since(incident.DetectedAt) < window
}

func (s *IncidentService) register(incident *models.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.incidents[incident.ID] = incident
	s.active[incident.Fingerprint] = incident.ID
	s.order = append([]string{incident.ID}, s.order...)

	if len(s.order) > s.cfg.MaxIncidents {
		evicted := s.order[s.cfg.MaxIncidents:]
		s.order = s.order[:s.cfg.MaxIncidents]
		for _, id := range evicted {
			if old, ok := s.incidents[id]; ok {
				if s.active[old.Fingerprint] == id {
					delete(s.active, old.Fingerprint)
				}
				delete(s.incidents, id)
			}
		}
	}
}

func (s *IncidentService) updateStatus(id string, status models.IncidentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if incident, ok := s.incidents[id]; ok {
		incident.Status = status
	}
}

func (s *IncidentService) notifyIncident(ctx context.Context, incident *models.Incident, decision *models.ScalingDecision) {
	if err := s.notifier.NotifyIncident(ctx, incident, decision); err != nil {
		logrus.Warnf("Failed to send notification for incident %s: %v", incident.ID, err)
	}
}

func (s *IncidentService) recordIncident(ctx context.Context, incident *models.Incident) {
	if s.history == nil {
		return
	}
	if err := s.history.InsertIncident(ctx, incident); err != nil {
		logrus.Warnf("Failed to record incident %s: %v", incident.ID, err)
	}
}

// GetIncidents returns registered incidents, newest first, optionally
// filtered by status
func (s *IncidentService) GetIncidents(status models.IncidentStatus) []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Incident, 0, len(s.order))
	for _, id := range s.order {
		incident := s.incidents[id]
		if status != "" && incident.Status != status {
			continue
		}
		result = append(result, *incident)
	}
	return result
}

// GetIncident returns one incident by ID
func (s *IncidentService) GetIncident(id string) (*models.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	incident, ok := s.incidents[id]
	if !ok {
		return nil, false
	}
	copied := *incident
	return &copied, true
}

// AcknowledgeIncident marks an incident as acknowledged
func (s *IncidentService) AcknowledgeIncident(id, acknowledgedBy string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	incident, ok := s.incidents[id]
	if !ok {
		return false
	}
	now := time.Now().UTC()
	incident.Acknowledged = true
	incident.AcknowledgedAt = &now
	incident.AcknowledgedBy = acknowledgedBy
	return true
}

// GetIncidentsByTimeRange returns incidents detected inside [start, end].
// The history store is consulted when enabled, so the range can reach past
// the in-memory registry's retention.
func (s *IncidentService) GetIncidentsByTimeRange(ctx context.Context, start, end time.Time) ([]models.Incident, error) {
	if s.history != nil {
		return s.history.QueryIncidentsByTimeRange(ctx, start, end)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Incident, 0)
	for _, id := range s.order {
		incident := s.incidents[id]
		if incident.DetectedAt.Before(start) || incident.DetectedAt.After(end) {
			continue
		}
		result = append(result, *incident)
	}
	return result, nil
}

// GetDecisions returns recent scaling decisions, newest first
func (s *IncidentService) GetDecisions(limit int) []models.ScalingDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.decisions) {
		limit = len(s.decisions)
	}
	result := make([]models.ScalingDecision, 0, limit)
	for _, d := range s.decisions[:limit] {
		result = append(result, *d)
	}
	return result
}
