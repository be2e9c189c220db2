package scaler

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// Group models an auto-scaling group's desired capacity. It applies the same
// rules the production scaling function does: increments scaled by severity
// and confidence, hard clamping at min/max, and a cooldown that only
// scale-down honors (critical scale-ups override it).
type Group struct {
	mu sync.Mutex

	name               string
	minCapacity        int
	maxCapacity        int
	scaleUpIncrement   int
	scaleDownIncrement int
	cooldown           time.Duration

	desiredCapacity int
	lastScaledAt    time.Time

	now func() time.Time
}

// GroupStatus is a point-in-time snapshot of the group
type GroupStatus struct {
	Name            string     `json:"name"`
	DesiredCapacity int        `json:"desired_capacity"`
	MinCapacity     int        `json:"min_capacity"`
	MaxCapacity     int        `json:"max_capacity"`
	LastScaledAt    *time.Time `json:"last_scaled_at,omitempty"`
}

// NewGroup creates a group at its minimum capacity
func NewGroup(cfg *config.ScalerConfig) *Group {
	return &Group{
		name:               cfg.GroupName,
		minCapacity:        cfg.MinCapacity,
		maxCapacity:        cfg.MaxCapacity,
		scaleUpIncrement:   cfg.ScaleUpIncrement,
		scaleDownIncrement: cfg.ScaleDownIncrement,
		cooldown:           time.Duration(cfg.CooldownSeconds) * time.Second,
		desiredCapacity:    cfg.MinCapacity,
		now:                time.Now,
	}
}

// Apply executes a scale request against the group and reports the outcome
func (g *Group) Apply(req *models.ScaleRequest) *models.ScaleResult {
	switch req.Action {
	case models.ScaleActionUp:
		return g.scaleUp(req)
	case models.ScaleActionDown:
		return g.scaleDown()
	default:
		g.mu.Lock()
		capacity := g.desiredCapacity
		g.mu.Unlock()
		return &models.ScaleResult{
			Success:          true,
			Action:           "no_change",
			Message:          "analysis only, no scaling action taken",
			GroupName:        g.name,
			PreviousCapacity: capacity,
			NewCapacity:      capacity,
			Timestamp:        g.now().UTC(),
		}
	}
}

func (g *Group) scaleUp(req *models.ScaleRequest) *models.ScaleResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	increment := g.scaleUpIncrement
	// Aggressive scaling for critical alerts or a highly confident verdict.
	if req.Severity == models.SeverityCritical || req.AIConfidence > 90 {
		increment *= 2
	}

	current := g.desiredCapacity
	target := current + increment
	if target > g.maxCapacity {
		target = g.maxCapacity
	}

	if target == current {
		return &models.ScaleResult{
			Success:          true,
			Action:           "no_change",
			Message:          fmt.Sprintf("already at maximum capacity (%d)", g.maxCapacity),
			GroupName:        g.name,
			PreviousCapacity: current,
			NewCapacity:      current,
			Timestamp:        g.now().UTC(),
		}
	}

	// Scale-up ignores the cooldown: absorbing load wins over churn control.
	g.desiredCapacity = target
	g.lastScaledAt = g.now()

	logrus.Infof("Scaling up %s: %d -> %d (%s %s, confidence %d)",
		g.name, current, target, req.Severity, req.AlertType, req.AIConfidence)

	return &models.ScaleResult{
		Success:          true,
		Action:           "scaled_up",
		Message:          fmt.Sprintf("scaled from %d to %d instances", current, target),
		GroupName:        g.name,
		PreviousCapacity: current,
		NewCapacity:      target,
		Timestamp:        g.now().UTC(),
	}
}

func (g *Group) scaleDown() *models.ScaleResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.desiredCapacity

	if !g.lastScaledAt.IsZero() && g.now().Sub(g.lastScaledAt) < g.cooldown {
		return &models.ScaleResult{
			Success:          true,
			Action:           "no_change",
			Message:          fmt.Sprintf("cooldown active, %s remaining", (g.cooldown - g.now().Sub(g.lastScaledAt)).Round(time.Second)),
			GroupName:        g.name,
			PreviousCapacity: current,
			NewCapacity:      current,
			Timestamp:        g.now().UTC(),
		}
	}

	target := current - g.scaleDownIncrement
	if target < g.minCapacity {
		target = g.minCapacity
	}

	if target == current {
		return &models.ScaleResult{
			Success:          true,
			Action:           "no_change",
			Message:          fmt.Sprintf("already at minimum capacity (%d)", g.minCapacity),
			GroupName:        g.name,
			PreviousCapacity: current,
			NewCapacity:      current,
			Timestamp:        g.now().UTC(),
		}
	}

	g.desiredCapacity = target
	g.lastScaledAt = g.now()

	logrus.Infof("Scaling down %s: %d -> %d", g.name, current, target)

	return &models.ScaleResult{
		Success:          true,
		Action:           "scaled_down",
		Message:          fmt.Sprintf("scaled from %d to %d instances", current, target),
		GroupName:        g.name,
		PreviousCapacity: current,
		NewCapacity:      target,
		Timestamp:        g.now().UTC(),
	}
}

// Status returns a snapshot of the group
func (g *Group) Status() GroupStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := GroupStatus{
		Name:            g.name,
		DesiredCapacity: g.desiredCapacity,
		MinCapacity:     g.minCapacity,
		MaxCapacity:     g.maxCapacity,
	}
	if !g.lastScaledAt.IsZero() {
		t := g.lastScaledAt
		status.LastScaledAt = &t
	}
	return status
}
