// Package http provides HTTP handlers for compliance reports.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/occam/internal/httputil"
	"github.com/allisson/occam/internal/report/http/dto"
	reportUseCase "github.com/allisson/occam/internal/report/usecase"
	customValidation "github.com/allisson/occam/internal/validation"
)

// ReportHandler handles HTTP requests for compliance reports.
type ReportHandler struct {
	reportUseCase reportUseCase.UseCase
	period        time.Duration
	logger        *slog.Logger
	clock         func() time.Time
}

// NewReportHandler creates a new report handler. period is the default report
// length when the request omits period_start.
func NewReportHandler(reportUseCase reportUseCase.UseCase, period time.Duration, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reportUseCase: reportUseCase,
		period:        period,
		logger:        logger,
		clock:         time.Now,
	}
}

// GenerateHandler generates, seals and publishes a compliance report.
// POST /v1/reports
// Returns 201 Created with the sealed report document, the same JSON the sinks receive.
func (h *ReportHandler) GenerateHandler(c *gin.Context) {
	var req dto.GenerateReportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	start, end := req.Period(h.clock(), h.period)
	report, err := h.reportUseCase.Generate(c.Request.Context(), start, end)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, report)
}
