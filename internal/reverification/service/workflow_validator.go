// Package service provides the re-verification collaborators: the unit
// validator backed by the workflow orchestrator, the scheduled audit trigger
// and the locks that keep it single-instance.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/occam/internal/reverification/domain"
	workflowDomain "github.com/allisson/occam/internal/workflow/domain"
)

// WorkflowExecutor runs a registered workflow.
type WorkflowExecutor interface {
	Execute(ctx context.Context, workflowID string, input workflowDomain.ExecuteInput) (*workflowDomain.Execution, error)
}

// WorkflowValidator validates a unit by running a workflow for its document.
// The unit's clause ids and the job id are passed in the data context.
type WorkflowValidator struct {
	executor   WorkflowExecutor
	workflowID string
}

// NewWorkflowValidator creates a validator running workflowID.
func NewWorkflowValidator(executor WorkflowExecutor, workflowID string) *WorkflowValidator {
	return &WorkflowValidator{executor: executor, workflowID: workflowID}
}

// Validate runs the workflow. A failed execution is a failed unit, not an error;
// the error is reserved for runs that could not start.
func (v *WorkflowValidator) Validate(
	ctx context.Context,
	jobID uuid.UUID,
	unit domain.Unit,
) (*domain.UnitResult, error) {
	execution, err := v.executor.Execute(ctx, v.workflowID, workflowDomain.ExecuteInput{
		DocumentID: unit.DocumentID,
		Data: map[string]any{
			"job_id":     jobID.String(),
			"clause_ids": append([]string(nil), unit.ClauseIDs...),
		},
	})
	if execution == nil {
		if err == nil {
			err = fmt.Errorf("workflow %s returned no execution", v.workflowID)
		}
		return nil, err
	}

	result := &domain.UnitResult{
		DocumentID:  unit.DocumentID,
		Success:     execution.Success,
		ExecutionID: execution.ID.String(),
		CompletedAt: time.Now().UTC(),
	}
	if execution.CompletedAt != nil {
		result.CompletedAt = *execution.CompletedAt
	}
	if !execution.Success {
		result.Error = execution.Error
		if result.Error == "" && err != nil {
			result.Error = err.Error()
		}
	}
	return result, nil
}
