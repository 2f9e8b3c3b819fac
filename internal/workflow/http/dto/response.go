package dto

import (
	"time"

	"github.com/allisson/occam/internal/workflow/domain"
)

// StepResponse describes one step of a workflow definition.
type StepResponse struct {
	ID      string         `json:"id"`
	Name    string         `json:"name,omitempty"`
	AgentID string         `json:"agent_id"`
	Timeout string         `json:"timeout,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// WorkflowResponse describes a workflow definition.
type WorkflowResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Steps       []StepResponse `json:"steps"`
}

// MapWorkflowToResponse converts a definition to an API response.
func MapWorkflowToResponse(definition *domain.Definition) WorkflowResponse {
	steps := make([]StepResponse, 0, len(definition.Steps))
	for _, step := range definition.Steps {
		response := StepResponse{
			ID:      step.ID,
			Name:    step.Name,
			AgentID: step.AgentID,
			Config:  step.Config,
		}
		if step.Timeout > 0 {
			response.Timeout = step.Timeout.String()
		}
		steps = append(steps, response)
	}
	return WorkflowResponse{
		ID:          definition.ID,
		Name:        definition.Name,
		Description: definition.Description,
		Steps:       steps,
	}
}

// ListWorkflowsResponse lists workflow definitions.
type ListWorkflowsResponse struct {
	Data []WorkflowResponse `json:"data"`
}

// MapWorkflowsToListResponse converts definitions to a list API response.
func MapWorkflowsToListResponse(definitions []*domain.Definition) ListWorkflowsResponse {
	responses := make([]WorkflowResponse, 0, len(definitions))
	for _, definition := range definitions {
		responses = append(responses, MapWorkflowToResponse(definition))
	}
	return ListWorkflowsResponse{Data: responses}
}

// StepResultResponse describes the outcome of one step attempt.
type StepResultResponse struct {
	StepID          string         `json:"step_id"`
	AgentID         string         `json:"agent_id"`
	Success         bool           `json:"success"`
	Status          string         `json:"status,omitempty"`
	Output          map[string]any `json:"output,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	Error           string         `json:"error,omitempty"`
	DurationMs      int64          `json:"duration_ms"`
	Timestamp       time.Time      `json:"timestamp"`
}

// ExecutionResponse describes a workflow execution.
type ExecutionResponse struct {
	ID          string               `json:"id"`
	WorkflowID  string               `json:"workflow_id"`
	Status      string               `json:"status"`
	Success     bool                 `json:"success"`
	StepResults []StepResultResponse `json:"step_results"`
	DurationMs  int64                `json:"duration_ms"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	Data        map[string]any       `json:"data,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// MapExecutionToResponse converts an execution to an API response.
func MapExecutionToResponse(execution *domain.Execution) ExecutionResponse {
	results := make([]StepResultResponse, 0, len(execution.StepResults))
	for _, result := range execution.StepResults {
		results = append(results, StepResultResponse{
			StepID:          result.StepID,
			AgentID:         result.AgentID,
			Success:         result.Success,
			Status:          result.Status,
			Output:          result.Output,
			ConfidenceScore: result.ConfidenceScore,
			Error:           result.Error,
			DurationMs:      result.DurationMs,
			Timestamp:       result.Timestamp,
		})
	}
	return ExecutionResponse{
		ID:          execution.ID.String(),
		WorkflowID:  execution.WorkflowID,
		Status:      string(execution.Status),
		Success:     execution.Success,
		StepResults: results,
		DurationMs:  execution.DurationMs,
		StartedAt:   execution.StartedAt,
		CompletedAt: execution.CompletedAt,
		Data:        execution.Data,
		Error:       execution.Error,
	}
}
