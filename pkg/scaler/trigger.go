package scaler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/models"
)

// Trigger dispatches scale requests to the scaling function
type Trigger interface {
	Scale(ctx context.Context, req *models.ScaleRequest) (*models.ScaleResult, error)
}

// HTTPTrigger posts scale requests to a cloud-function style HTTP endpoint
type HTTPTrigger struct {
	url    string
	client *http.Client
}

// NewHTTPTrigger creates a trigger for the given endpoint URL
func NewHTTPTrigger(url string) *HTTPTrigger {
	return &HTTPTrigger{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Scale posts the request and decodes the scaling function's response
func (t *HTTPTrigger) Scale(ctx context.Context, req *models.ScaleRequest) (*models.ScaleResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scale request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scale request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scaling trigger call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("scaling function returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result models.ScaleResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode scaling response: %w", err)
	}

	logrus.Infof("Scaling trigger dispatched: action=%s result=%s", req.Action, result.Action)
	return &result, nil
}

// LocalTrigger applies scale requests directly to an in-process Group.
// Used when no external scaling function is configured.
type LocalTrigger struct {
	group *Group
}

// NewLocalTrigger creates a trigger backed by the given group
func NewLocalTrigger(group *Group) *LocalTrigger {
	return &LocalTrigger{group: group}
}

// Scale applies the request to the local group
func (t *LocalTrigger) Scale(_ context.Context, req *models.ScaleRequest) (*models.ScaleResult, error) {
	return t.group.Apply(req), nil
}
