package usecase

import (
	"context"
	"time"

	"github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/metrics"
)

// auditUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type auditUseCaseWithMetrics struct {
	next       UseCase
	metrics    metrics.BusinessMetrics
	compliance metrics.ComplianceMetrics
}

// NewAuditUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewAuditUseCaseWithMetrics(
	useCase UseCase,
	m metrics.BusinessMetrics,
	compliance metrics.ComplianceMetrics,
) UseCase {
	return &auditUseCaseWithMetrics{
		next:       useCase,
		metrics:    m,
		compliance: compliance,
	}
}

func (a *auditUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.OperationStatus(err)

	a.metrics.RecordOperation(ctx, "audit", operation, status)
	a.metrics.RecordDuration(ctx, "audit", operation, time.Since(start), status)
}

// RecordEvent records metrics for chain appends.
func (a *auditUseCaseWithMetrics) RecordEvent(ctx context.Context, event *domain.Event) (*domain.Record, error) {
	start := time.Now()
	record, err := a.next.RecordEvent(ctx, event)
	a.record(ctx, "record_event", start, err)
	return record, err
}

// GetAuditTrail records metrics for audit trail queries.
func (a *auditUseCaseWithMetrics) GetAuditTrail(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	start := time.Now()
	records, err := a.next.GetAuditTrail(ctx, query)
	a.record(ctx, "get_audit_trail", start, err)
	return records, err
}

// VerifyAuditChain records metrics for chain verification.
func (a *auditUseCaseWithMetrics) VerifyAuditChain(ctx context.Context, startHash, endHash string) (bool, error) {
	start := time.Now()
	valid, err := a.next.VerifyAuditChain(ctx, startHash, endHash)
	a.record(ctx, "verify_chain", start, err)
	if err == nil {
		a.compliance.RecordChainVerification(ctx, valid)
	}
	return valid, err
}

// VerifyAuditChainDetailed records metrics for detailed chain verification.
func (a *auditUseCaseWithMetrics) VerifyAuditChainDetailed(
	ctx context.Context,
	startHash, endHash string,
) (*domain.VerificationResult, error) {
	start := time.Now()
	result, err := a.next.VerifyAuditChainDetailed(ctx, startHash, endHash)
	a.record(ctx, "verify_chain", start, err)
	if err == nil {
		a.compliance.RecordChainVerification(ctx, result.Valid)
	}
	return result, err
}

// DeleteOlderThan records metrics for retention purges.
func (a *auditUseCaseWithMetrics) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := a.next.DeleteOlderThan(ctx, days, dryRun)
	a.record(ctx, "delete_older_than", start, err)
	return count, err
}
