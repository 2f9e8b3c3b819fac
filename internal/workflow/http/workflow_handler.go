// Package http provides HTTP handlers for workflow registration and execution.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/occam/internal/httputil"
	customValidation "github.com/allisson/occam/internal/validation"
	"github.com/allisson/occam/internal/workflow/http/dto"
	workflowUseCase "github.com/allisson/occam/internal/workflow/usecase"
)

// WorkflowHandler handles HTTP requests for workflows.
type WorkflowHandler struct {
	workflowUseCase workflowUseCase.UseCase
	logger          *slog.Logger
}

// NewWorkflowHandler creates a new workflow handler with required dependencies.
func NewWorkflowHandler(workflowUseCase workflowUseCase.UseCase, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowUseCase: workflowUseCase,
		logger:          logger,
	}
}

// ListHandler returns the registered workflow definitions.
// GET /v1/workflows
func (h *WorkflowHandler) ListHandler(c *gin.Context) {
	definitions, err := h.workflowUseCase.ListWorkflows(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapWorkflowsToListResponse(definitions))
}

// RegisterHandler registers or replaces a workflow definition.
// POST /v1/workflows
// Returns 201 Created with the stored definition.
func (h *WorkflowHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterWorkflowRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	definition := req.ToDefinition()
	if err := h.workflowUseCase.RegisterWorkflow(c.Request.Context(), definition); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapWorkflowToResponse(definition))
}

// ExecuteHandler runs a workflow.
// POST /v1/workflows/:id/executions
// Returns 201 Created with the execution, including failed ones: the step
// results tell the caller how far the run went.
func (h *WorkflowHandler) ExecuteHandler(c *gin.Context) {
	var req dto.ExecuteWorkflowRequest

	// An empty body runs the workflow with an empty data context.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	execution, err := h.workflowUseCase.Execute(c.Request.Context(), c.Param("id"), req.ToInput())
	if execution == nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if err != nil {
		h.logger.Warn("workflow execution failed",
			slog.String("execution_id", execution.ID.String()),
			slog.Any("error", err),
		)
	}

	c.JSON(http.StatusCreated, dto.MapExecutionToResponse(execution))
}
