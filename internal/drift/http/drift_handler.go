// Package http provides HTTP handlers for drift detection.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/occam/internal/drift/http/dto"
	driftUseCase "github.com/allisson/occam/internal/drift/usecase"
	"github.com/allisson/occam/internal/httputil"
	customValidation "github.com/allisson/occam/internal/validation"
)

// DriftHandler handles HTTP requests for drift detection.
type DriftHandler struct {
	driftUseCase driftUseCase.UseCase
	logger       *slog.Logger
	clock        func() time.Time
}

// NewDriftHandler creates a new drift handler with required dependencies.
func NewDriftHandler(driftUseCase driftUseCase.UseCase, logger *slog.Logger) *DriftHandler {
	return &DriftHandler{
		driftUseCase: driftUseCase,
		logger:       logger,
		clock:        time.Now,
	}
}

// EvaluateHandler scores a set of clauses against their authoritative sources.
// POST /v1/drift/checks
// Returns 201 Created with every check. Blocking drift is reported in the body
// and gates submissions through the workflow, not through this status code.
func (h *DriftHandler) EvaluateHandler(c *gin.Context) {
	var req dto.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.driftUseCase.EvaluateBatch(c.Request.Context(), req.ToInputs())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapBatchResultToResponse(result))
}

// AnalysisHandler aggregates drift over a period.
// GET /v1/drift/analysis?start_time=2026-03-01T00:00:00Z&end_time=2026-03-08T00:00:00Z
func (h *DriftHandler) AnalysisHandler(c *gin.Context) {
	start, end, err := dto.ParsePeriod(c.Query("start_time"), c.Query("end_time"), h.clock())
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	analysis, err := h.driftUseCase.Analyze(c.Request.Context(), start, end)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAnalysisToResponse(analysis))
}
