package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// Workflow errors.
var (
	// ErrWorkflowNotFound indicates no workflow is registered under the requested id.
	ErrWorkflowNotFound = errors.Wrap(errors.ErrNotFound, "workflow not found")

	// ErrInvalidWorkflowDefinition indicates a definition was rejected at registration.
	ErrInvalidWorkflowDefinition = errors.Wrap(errors.ErrInvalidInput, "invalid workflow definition")

	// ErrDuplicateStepID indicates two steps of a definition share an id.
	ErrDuplicateStepID = errors.Wrap(ErrInvalidWorkflowDefinition, "duplicate step id")

	// ErrStepTimeout indicates a step exceeded its time budget.
	ErrStepTimeout = errors.Wrap(errors.ErrTimeout, "workflow step timed out")

	// ErrStepExecution indicates an agent reported a failure.
	ErrStepExecution = errors.New("workflow step failed")

	// ErrExecutionCanceled indicates the run was canceled between steps.
	ErrExecutionCanceled = errors.New("workflow execution canceled")
)
