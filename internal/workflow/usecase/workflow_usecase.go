package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	agentDomain "github.com/allisson/occam/internal/agent/domain"
	auditDomain "github.com/allisson/occam/internal/audit/domain"
	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/workflow/domain"
)

// Config holds the orchestrator settings.
type Config struct {
	// DefaultStepTimeout applies to steps without their own timeout.
	DefaultStepTimeout time.Duration
}

type workflowUseCase struct {
	config   Config
	registry AgentRegistry
	audit    AuditRecorder
	tracer   trace.Tracer
	logger   *slog.Logger

	mu          sync.RWMutex
	definitions map[string]*domain.Definition
}

// NewWorkflowUseCase creates the workflow orchestrator.
func NewWorkflowUseCase(
	config Config,
	registry AgentRegistry,
	audit AuditRecorder,
	tracer trace.Tracer,
	logger *slog.Logger,
) UseCase {
	if config.DefaultStepTimeout <= 0 {
		config.DefaultStepTimeout = 30 * time.Second
	}
	return &workflowUseCase{
		config:      config,
		registry:    registry,
		audit:       audit,
		tracer:      tracer,
		logger:      logger,
		definitions: make(map[string]*domain.Definition),
	}
}

func (w *workflowUseCase) RegisterWorkflow(ctx context.Context, definition *domain.Definition) error {
	if definition == nil {
		return domain.ErrInvalidWorkflowDefinition
	}
	if err := definition.Validate(); err != nil {
		return err
	}

	stored := cloneDefinition(definition)

	w.mu.Lock()
	w.definitions[stored.ID] = stored
	w.mu.Unlock()

	if w.logger != nil {
		w.logger.Info("workflow registered",
			slog.String("workflow_id", stored.ID),
			slog.Int("steps", len(stored.Steps)),
		)
	}
	return nil
}

func (w *workflowUseCase) GetWorkflow(ctx context.Context, workflowID string) (*domain.Definition, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	definition, ok := w.definitions[workflowID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return cloneDefinition(definition), nil
}

func (w *workflowUseCase) ListWorkflows(ctx context.Context) ([]*domain.Definition, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(w.definitions))
	definitions := make([]*domain.Definition, 0, len(ids))
	for _, id := range ids {
		definitions = append(definitions, cloneDefinition(w.definitions[id]))
	}
	return definitions, nil
}

func (w *workflowUseCase) Execute(
	ctx context.Context,
	workflowID string,
	input domain.ExecuteInput,
) (*domain.Execution, error) {
	definition, err := w.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	execution := &domain.Execution{
		ID:          uuid.Must(uuid.NewV7()),
		WorkflowID:  definition.ID,
		Status:      domain.StatusPending,
		StepResults: make([]domain.StepResult, 0, len(definition.Steps)),
		StartedAt:   time.Now().UTC(),
		Data:        make(map[string]any),
	}
	maps.Copy(execution.Data, input.Data)

	ctx, span := w.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.id", definition.ID),
		attribute.String("workflow.execution_id", execution.ID.String()),
	))
	defer span.End()

	started := time.Now()
	execution.Status = domain.StatusRunning

	var runErr error
	for index, step := range definition.Steps {
		if err := ctx.Err(); err != nil {
			runErr = apperrors.Wrap(domain.ErrExecutionCanceled, err.Error())
			break
		}

		result, kind, stepErr := w.runStep(ctx, execution, step, input)
		execution.StepResults = append(execution.StepResults, result)

		if err := w.recordStep(ctx, execution, index, step, kind, result, input); err != nil {
			runErr = err
			break
		}
		if stepErr != nil {
			runErr = stepErr
			break
		}

		if result.Output != nil {
			execution.Data[step.ID] = result.Output
			maps.Copy(execution.Data, result.Output)
		}
	}

	completed := time.Now().UTC()
	execution.CompletedAt = &completed
	execution.DurationMs = time.Since(started).Milliseconds()

	if runErr != nil {
		execution.Status = domain.StatusFailed
		execution.Error = runErr.Error()
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		if w.logger != nil {
			w.logger.Warn("workflow execution failed",
				slog.String("workflow_id", definition.ID),
				slog.String("execution_id", execution.ID.String()),
				slog.Int("steps_run", len(execution.StepResults)),
				slog.Any("error", runErr),
			)
		}
		return execution, apperrors.Wrapf(runErr, "workflow %s failed", definition.ID)
	}

	execution.Status = domain.StatusCompleted
	execution.Success = true
	return execution, nil
}

type stepOutcome struct {
	result *agentDomain.Result
	err    error
}

// runStep invokes the agent of one step. The agent call is detached from the
// caller's cancellation: it ends when the agent returns or the step times out.
func (w *workflowUseCase) runStep(
	ctx context.Context,
	execution *domain.Execution,
	step domain.Step,
	input domain.ExecuteInput,
) (domain.StepResult, agentDomain.Kind, error) {
	result := domain.StepResult{
		StepID:    step.ID,
		AgentID:   step.AgentID,
		Timestamp: time.Now().UTC(),
	}

	ctx, span := w.tracer.Start(ctx, "workflow.step", trace.WithAttributes(
		attribute.String("workflow.step_id", step.ID),
		attribute.String("workflow.agent_id", step.AgentID),
	))
	defer span.End()

	fail := func(err error) error {
		result.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	agent, err := w.registry.Get(step.AgentID)
	if err != nil {
		err = fail(apperrors.Wrapf(err, "step %s", step.ID))
		return result, "", err
	}
	kind := agent.Kind()
	span.SetAttributes(attribute.String("workflow.agent_kind", string(kind)))

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = w.config.DefaultStepTimeout
	}
	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	stepContext := &agentDomain.StepContext{
		ExecutionID: execution.ID.String(),
		WorkflowID:  execution.WorkflowID,
		StepID:      step.ID,
		UserID:      input.UserID,
		DocumentID:  input.DocumentID,
		Config:      maps.Clone(step.Config),
		Data:        maps.Clone(execution.Data),
	}

	started := time.Now()
	done := make(chan stepOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stepOutcome{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		res, err := agent.Execute(stepCtx, stepContext)
		done <- stepOutcome{result: res, err: err}
	}()

	var outcome stepOutcome
	select {
	case outcome = <-done:
	case <-stepCtx.Done():
		outcome = stepOutcome{err: stepCtx.Err()}
	}
	result.DurationMs = time.Since(started).Milliseconds()

	switch {
	case outcome.err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		err = fail(apperrors.Wrapf(domain.ErrStepTimeout, "step %s after %s", step.ID, timeout))
		return result, kind, err
	case outcome.err != nil:
		err = fail(apperrors.Wrapf(domain.ErrStepExecution, "step %s: %v", step.ID, outcome.err))
		return result, kind, err
	case outcome.result == nil:
		err = fail(apperrors.Wrapf(domain.ErrStepExecution, "step %s: agent returned no result", step.ID))
		return result, kind, err
	}

	result.Status = outcome.result.Status
	result.Output = outcome.result.Output
	result.ConfidenceScore = outcome.result.ConfidenceScore
	if !outcome.result.Success {
		message := outcome.result.Error
		if message == "" {
			message = "agent reported failure"
		}
		err = fail(apperrors.Wrapf(domain.ErrStepExecution, "step %s: %s", step.ID, message))
		return result, kind, err
	}

	result.Success = true
	return result, kind, nil
}

// recordStep appends the audit record of a step attempt. Recording is detached
// from the caller's cancellation so failures are never lost.
func (w *workflowUseCase) recordStep(
	ctx context.Context,
	execution *domain.Execution,
	index int,
	step domain.Step,
	kind agentDomain.Kind,
	result domain.StepResult,
	input domain.ExecuteInput,
) error {
	eventType := auditDomain.EventTypeComplianceCheck
	if kind != "" {
		eventType = kind.EventType()
	}
	severity := auditDomain.SeverityInfo
	if !result.Success {
		severity = auditDomain.SeverityError
	}

	event := &auditDomain.Event{
		EventType:       eventType,
		Severity:        severity,
		AgentID:         step.AgentID,
		UserID:          input.UserID,
		DocumentID:      input.DocumentID,
		Action:          "workflow.step",
		Details:         fmt.Sprintf("workflow %s step %s", execution.WorkflowID, step.ID),
		Success:         result.Success,
		LatencyMs:       result.DurationMs,
		ConfidenceScore: result.ConfidenceScore,
		ErrorMessage:    result.Error,
		Metadata: map[string]any{
			"execution_id": execution.ID.String(),
			"workflow_id":  execution.WorkflowID,
			"step_id":      step.ID,
			"step_index":   index,
		},
	}
	if clauseID, ok := input.Data["clause_id"].(string); ok {
		event.ClauseID = clauseID
	}
	if result.Status != "" {
		event.Metadata["status"] = result.Status
	}

	if _, err := w.audit.RecordEvent(context.WithoutCancel(ctx), event); err != nil {
		return apperrors.Wrapf(err, "failed to record audit event for step %s", step.ID)
	}
	return nil
}

func cloneDefinition(definition *domain.Definition) *domain.Definition {
	clone := *definition
	clone.Steps = make([]domain.Step, len(definition.Steps))
	for i, step := range definition.Steps {
		step.Config = maps.Clone(step.Config)
		clone.Steps[i] = step
	}
	return &clone
}
