package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/allisson/occam/internal/agent/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

// maxWebhookResponseBytes bounds the body read from a remote agent.
const maxWebhookResponseBytes = 1 << 20

type webhookRequest struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	StepID      string         `json:"step_id"`
	UserID      string         `json:"user_id,omitempty"`
	DocumentID  string         `json:"document_id,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

type webhookResponse struct {
	Success         bool           `json:"success"`
	Status          string         `json:"status"`
	Output          map[string]any `json:"output"`
	Error           string         `json:"error"`
	ConfidenceScore *float64       `json:"confidence_score"`
}

// WebhookAgent invokes a remote agent by POSTing the step context as JSON.
// The remote answers with {"success": bool, "status": "...", "output": {...}, "error": "..."}.
type WebhookAgent struct {
	id     string
	name   string
	kind   domain.Kind
	url    string
	client *http.Client
}

// NewWebhookAgent creates a remote agent. A zero timeout falls back to 30 seconds.
func NewWebhookAgent(id, name string, kind domain.Kind, url string, timeout time.Duration) *WebhookAgent {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookAgent{
		id:     id,
		name:   name,
		kind:   kind,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (a *WebhookAgent) ID() string        { return a.id }
func (a *WebhookAgent) Name() string      { return a.name }
func (a *WebhookAgent) Kind() domain.Kind { return a.kind }

// Execute sends the step to the remote agent. Transport failures and non-2xx
// answers are returned as errors; a 2xx answer is decoded into the result.
func (a *WebhookAgent) Execute(ctx context.Context, step *domain.StepContext) (*domain.Result, error) {
	payload, err := json.Marshal(webhookRequest{
		ExecutionID: step.ExecutionID,
		WorkflowID:  step.WorkflowID,
		StepID:      step.StepID,
		UserID:      step.UserID,
		DocumentID:  step.DocumentID,
		Config:      step.Config,
		Data:        step.Data,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode agent request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build agent request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to call agent")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read agent response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("agent %s answered with status %d", a.id, resp.StatusCode)
	}

	var decoded webhookResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode agent response")
	}

	return &domain.Result{
		Success:         decoded.Success,
		Status:          decoded.Status,
		Output:          decoded.Output,
		Error:           decoded.Error,
		ConfidenceScore: decoded.ConfidenceScore,
	}, nil
}
