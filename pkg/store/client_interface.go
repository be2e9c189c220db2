package store

import (
	"context"
	"time"

	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// StoreClient defines the interface for the incident history store.
// This allows us to mock the client for testing.
type StoreClient interface {
	SetupStreams(ctx context.Context) error
	InsertIncident(ctx context.Context, incident *models.Incident) error
	InsertDecision(ctx context.Context, decision *models.ScalingDecision) error
	QueryIncidentsByTimeRange(ctx context.Context, start, end time.Time) ([]models.Incident, error)
	QueryRecentDecisions(ctx context.Context, limit int) ([]models.ScalingDecision, error)
	Close() error
}

// Ensure Client implements StoreClient
var _ StoreClient = (*Client)(nil)
