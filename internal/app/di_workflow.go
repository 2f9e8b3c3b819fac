package app

import (
	"context"
	"fmt"
	"log/slog"

	agentHTTP "github.com/allisson/occam/internal/agent/http"
	agentService "github.com/allisson/occam/internal/agent/service"
	driftService "github.com/allisson/occam/internal/drift/service"
	apperrors "github.com/allisson/occam/internal/errors"
	workflowDomain "github.com/allisson/occam/internal/workflow/domain"
	workflowHTTP "github.com/allisson/occam/internal/workflow/http"
	workflowService "github.com/allisson/occam/internal/workflow/service"
	workflowUseCase "github.com/allisson/occam/internal/workflow/usecase"
)

// AgentRegistry returns the agent registry holding the drift validator and
// the webhook agents declared in AGENTS_CONFIG_PATH.
func (c *Container) AgentRegistry() (*agentService.Registry, error) {
	var err error
	c.agentRegistryInit.Do(func() {
		c.agentRegistry, err = c.initAgentRegistry()
		if err != nil {
			c.initErrors["agentRegistry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentRegistry"]; exists {
		return nil, storedErr
	}
	return c.agentRegistry, nil
}

// WorkflowUseCase returns the workflow orchestrator.
func (c *Container) WorkflowUseCase() (workflowUseCase.UseCase, error) {
	var err error
	c.workflowUseCaseInit.Do(func() {
		c.workflowUseCase, err = c.initWorkflowUseCase()
		if err != nil {
			c.initErrors["workflowUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["workflowUseCase"]; exists {
		return nil, storedErr
	}
	return c.workflowUseCase, nil
}

// AgentHandler returns the agent HTTP handler.
func (c *Container) AgentHandler() (*agentHTTP.AgentHandler, error) {
	var err error
	c.agentHandlerInit.Do(func() {
		var registry *agentService.Registry
		registry, err = c.AgentRegistry()
		if err != nil {
			err = fmt.Errorf("failed to get agent registry for agent handler: %w", err)
			c.initErrors["agentHandler"] = err
			return
		}
		c.agentHandler = agentHTTP.NewAgentHandler(registry, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentHandler"]; exists {
		return nil, storedErr
	}
	return c.agentHandler, nil
}

// WorkflowHandler returns the workflow HTTP handler.
func (c *Container) WorkflowHandler() (*workflowHTTP.WorkflowHandler, error) {
	var err error
	c.workflowHandlerInit.Do(func() {
		var useCase workflowUseCase.UseCase
		useCase, err = c.WorkflowUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get workflow use case for workflow handler: %w", err)
			c.initErrors["workflowHandler"] = err
			return
		}
		c.workflowHandler = workflowHTTP.NewWorkflowHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["workflowHandler"]; exists {
		return nil, storedErr
	}
	return c.workflowHandler, nil
}

// clauseVerifier resolves the drift use case on each call. The drift use case
// depends on the re-verification scheduler, which runs workflows through this
// registry, so it cannot be resolved while the registry is built.
type clauseVerifier struct {
	container *Container
}

func (v clauseVerifier) VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error {
	useCase, err := v.container.DriftUseCase()
	if err != nil {
		return err
	}
	return useCase.VerifyClauses(ctx, documentID, clauseIDs)
}

func (c *Container) initAgentRegistry() (*agentService.Registry, error) {
	registry := agentService.NewRegistry()

	if err := registry.Register(driftService.NewValidatorAgent(clauseVerifier{container: c})); err != nil {
		return nil, fmt.Errorf("failed to register drift validator agent: %w", err)
	}

	if c.config.AgentsConfigPath == "" {
		return registry, nil
	}

	agents, err := agentService.LoadWebhookAgents(c.config.AgentsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	for _, agent := range agents {
		if err := registry.Register(agent); err != nil {
			return nil, fmt.Errorf("failed to register agent %s: %w", agent.ID(), err)
		}
	}

	c.Logger().Info("agents loaded",
		slog.String("path", c.config.AgentsConfigPath),
		slog.Int("count", len(agents)),
	)
	return registry, nil
}

func (c *Container) initWorkflowUseCase() (workflowUseCase.UseCase, error) {
	logger := c.Logger()

	registry, err := c.AgentRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent registry for workflow use case: %w", err)
	}

	audit, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for workflow use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for workflow use case: %w", err)
	}

	tracingProvider, err := c.TracingProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get tracing provider for workflow use case: %w", err)
	}

	useCase := workflowUseCase.NewWorkflowUseCase(
		workflowUseCase.Config{DefaultStepTimeout: c.config.WorkflowStepTimeout},
		registry,
		audit,
		tracingProvider.Tracer("github.com/allisson/occam/workflow"),
		logger,
	)

	ctx := context.Background()
	if c.config.WorkflowDefinitionsPath != "" {
		definitions, err := workflowService.LoadDefinitions(c.config.WorkflowDefinitionsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow definitions: %w", err)
		}
		for _, definition := range definitions {
			if err := useCase.RegisterWorkflow(ctx, definition); err != nil {
				return nil, fmt.Errorf("failed to register workflow %s: %w", definition.ID, err)
			}
		}
	}

	if err := c.registerReverificationWorkflow(ctx, useCase); err != nil {
		return nil, err
	}

	return workflowUseCase.NewWorkflowUseCaseWithMetrics(useCase, businessMetrics), nil
}

// registerReverificationWorkflow installs the single-step drift validation
// workflow unless a definition with the configured id was loaded.
func (c *Container) registerReverificationWorkflow(ctx context.Context, useCase workflowUseCase.UseCase) error {
	workflowID := c.config.ReverificationWorkflowID
	if workflowID == "" {
		return nil
	}

	_, err := useCase.GetWorkflow(ctx, workflowID)
	if err == nil {
		return nil
	}
	if !apperrors.Is(err, workflowDomain.ErrWorkflowNotFound) {
		return fmt.Errorf("failed to look up re-verification workflow: %w", err)
	}

	definition := &workflowDomain.Definition{
		ID:          workflowID,
		Name:        "Clause re-verification",
		Description: "Scores the clauses of one document against their sources again.",
		Steps: []workflowDomain.Step{
			{ID: "verify-clauses", Name: "Verify clauses", AgentID: driftService.ValidatorAgentID},
		},
	}
	if err := useCase.RegisterWorkflow(ctx, definition); err != nil {
		return fmt.Errorf("failed to register re-verification workflow: %w", err)
	}
	return nil
}
