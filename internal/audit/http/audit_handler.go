// Package http provides HTTP handlers for the audit trail.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/audit/http/dto"
	auditUseCase "github.com/allisson/occam/internal/audit/usecase"
	"github.com/allisson/occam/internal/httputil"
)

// AuditHandler handles HTTP requests for audit trail operations.
type AuditHandler struct {
	auditUseCase auditUseCase.UseCase
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler with required dependencies.
func NewAuditHandler(auditUseCase auditUseCase.UseCase, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// ListHandler returns audit records in chronological order.
// GET /v1/audit-trail?offset=0&limit=50&start_time=...&end_time=...&event_type=validation,payment
// &severity=error&agent_id=...&user_id=...&document_id=...&success_only=true
func (h *AuditHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	startTime, err := dto.ParseTime("start_time", c.Query("start_time"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	endTime, err := dto.ParseTime("end_time", c.Query("end_time"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if startTime != nil && endTime != nil && !startTime.Before(*endTime) {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("start_time must be before end_time"), h.logger)
		return
	}

	eventTypes, err := dto.ParseEventTypes(c.Query("event_type"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	severities, err := dto.ParseSeverities(c.Query("severity"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	query := domain.Query{
		StartTime:   startTime,
		EndTime:     endTime,
		EventTypes:  eventTypes,
		Severities:  severities,
		AgentID:     c.Query("agent_id"),
		UserID:      c.Query("user_id"),
		DocumentID:  c.Query("document_id"),
		SuccessOnly: c.Query("success_only") == "true",
		Offset:      offset,
		Limit:       limit,
	}

	records, err := h.auditUseCase.GetAuditTrail(c.Request.Context(), query)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordsToListResponse(records))
}

// VerifyHandler walks the hash chain and reports its integrity.
// GET /v1/audit-trail/verify?start_hash=...&end_hash=...
// Returns 200 OK with valid=true, or 409 Conflict with the first failing record.
func (h *AuditHandler) VerifyHandler(c *gin.Context) {
	result, err := h.auditUseCase.VerifyAuditChainDetailed(
		c.Request.Context(),
		c.Query("start_hash"),
		c.Query("end_hash"),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusConflict
	}
	c.JSON(status, dto.MapVerificationToResponse(result))
}
