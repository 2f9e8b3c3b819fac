// Package http provides HTTP handlers for the SLO monitor.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/occam/internal/httputil"
	"github.com/allisson/occam/internal/slo/http/dto"
	sloUseCase "github.com/allisson/occam/internal/slo/usecase"
	customValidation "github.com/allisson/occam/internal/validation"
)

// SLOHandler handles HTTP requests for the SLO monitor.
type SLOHandler struct {
	sloUseCase sloUseCase.UseCase
	logger     *slog.Logger
}

// NewSLOHandler creates a new SLO handler with required dependencies.
func NewSLOHandler(sloUseCase sloUseCase.UseCase, logger *slog.Logger) *SLOHandler {
	return &SLOHandler{
		sloUseCase: sloUseCase,
		logger:     logger,
	}
}

// StatusHandler runs a monitoring cycle and returns its outcome.
// GET /v1/slo/status
func (h *SLOHandler) StatusHandler(c *gin.Context) {
	status, err := h.sloUseCase.Evaluate(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(status))
}

// MeasurementHandler stores an externally reported value such as build time or CPU.
// PUT /v1/slo/measurements/:metric
// Returns 204 No Content.
func (h *SLOHandler) MeasurementHandler(c *gin.Context) {
	var req dto.MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.sloUseCase.RecordMeasurement(c.Request.Context(), c.Param("metric"), *req.Value); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
