// Package http provides HTTP handlers for re-verification jobs.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/occam/internal/httputil"
	"github.com/allisson/occam/internal/reverification/http/dto"
	reverificationUseCase "github.com/allisson/occam/internal/reverification/usecase"
	customValidation "github.com/allisson/occam/internal/validation"
)

// ReverificationHandler handles HTTP requests for re-verification jobs.
type ReverificationHandler struct {
	reverificationUseCase reverificationUseCase.UseCase
	logger                *slog.Logger
}

// NewReverificationHandler creates a new re-verification handler with required dependencies.
func NewReverificationHandler(
	reverificationUseCase reverificationUseCase.UseCase,
	logger *slog.Logger,
) *ReverificationHandler {
	return &ReverificationHandler{
		reverificationUseCase: reverificationUseCase,
		logger:                logger,
	}
}

// ScheduleHandler creates a manual re-verification job. The background
// processor picks it up.
// POST /v1/reverification/jobs
func (h *ReverificationHandler) ScheduleHandler(c *gin.Context) {
	var req dto.ScheduleJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	job, err := h.reverificationUseCase.ScheduleManual(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapJobToResponse(job))
}

// GetHandler returns a job with its progress.
// GET /v1/reverification/jobs/:id
func (h *ReverificationHandler) GetHandler(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid job ID format: must be a valid UUID"),
			h.logger)
		return
	}

	job, err := h.reverificationUseCase.GetJob(c.Request.Context(), jobID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapJobToResponse(job))
}
