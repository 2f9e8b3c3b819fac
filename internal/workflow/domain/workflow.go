// Package domain defines workflow definitions and the results of their executions.
package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/occam/internal/errors"
	customValidation "github.com/allisson/occam/internal/validation"
)

// Status is the lifecycle state of a workflow execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Step is one agent invocation of a workflow. A zero Timeout uses the orchestrator default.
type Step struct {
	ID      string
	Name    string
	AgentID string
	Config  map[string]any
	Timeout time.Duration
}

// Definition is an ordered list of steps executed sequentially.
type Definition struct {
	ID          string
	Name        string
	Description string
	Steps       []Step
}

// Validate checks the definition: an id, at least one step, every step with an
// id and an agent, and no duplicate step ids.
func (d *Definition) Validate() error {
	err := validation.ValidateStruct(d,
		validation.Field(&d.ID, validation.Required, customValidation.Identifier),
		validation.Field(&d.Steps, validation.Required),
	)
	if err != nil {
		return apperrors.Wrap(ErrInvalidWorkflowDefinition, err.Error())
	}

	seen := make(map[string]struct{}, len(d.Steps))
	for i := range d.Steps {
		step := &d.Steps[i]
		err := validation.ValidateStruct(step,
			validation.Field(&step.ID, validation.Required, customValidation.Identifier),
			validation.Field(&step.AgentID, validation.Required, customValidation.Identifier),
			validation.Field(&step.Timeout, validation.Min(time.Duration(0))),
		)
		if err != nil {
			return apperrors.Wrap(ErrInvalidWorkflowDefinition, validation.Errors{
				"steps": validation.Errors{strconv.Itoa(i): err},
			}.Error())
		}
		if _, dup := seen[step.ID]; dup {
			return ErrDuplicateStepID
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}

// StepResult is the outcome of one step attempt.
type StepResult struct {
	StepID          string
	AgentID         string
	Success         bool
	Status          string
	Output          map[string]any
	ConfidenceScore *float64
	Error           string
	DurationMs      int64
	Timestamp       time.Time
}

// Execution is one run of a workflow. It is created per run and never reused.
type Execution struct {
	ID          uuid.UUID
	WorkflowID  string
	Status      Status
	StepResults []StepResult
	Success     bool
	DurationMs  int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Data        map[string]any
	Error       string
}

// ExecuteInput carries the caller's references and the initial data context of a run.
type ExecuteInput struct {
	UserID     string
	DocumentID string
	Data       map[string]any
}
