// Package usecase implements the workflow orchestrator: definition registration
// and fail-fast sequential execution of agent steps.
package usecase

import (
	"context"

	agentDomain "github.com/allisson/occam/internal/agent/domain"
	auditDomain "github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/workflow/domain"
)

// AgentRegistry resolves the agent a step invokes.
type AgentRegistry interface {
	Get(id string) (agentDomain.Agent, error)
}

// AuditRecorder appends events to the audit trail.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, event *auditDomain.Event) (*auditDomain.Record, error)
}

// UseCase defines the workflow orchestrator operations.
type UseCase interface {
	// RegisterWorkflow validates and stores a definition, replacing one with the same id.
	RegisterWorkflow(ctx context.Context, definition *domain.Definition) error

	// GetWorkflow returns a definition or domain.ErrWorkflowNotFound.
	GetWorkflow(ctx context.Context, workflowID string) (*domain.Definition, error)

	// ListWorkflows returns the registered definitions ordered by id.
	ListWorkflows(ctx context.Context) ([]*domain.Definition, error)

	// Execute runs a workflow. When a step fails the returned execution holds
	// every step result gathered so far and the error wraps the step failure.
	Execute(ctx context.Context, workflowID string, input domain.ExecuteInput) (*domain.Execution, error)
}
