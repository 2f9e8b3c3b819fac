package usecase

import (
	"context"
	"time"

	"github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/metrics"
)

// driftUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type driftUseCaseWithMetrics struct {
	next       UseCase
	metrics    metrics.BusinessMetrics
	compliance metrics.ComplianceMetrics
}

// NewDriftUseCaseWithMetrics wraps a UseCase with metrics recording. Every
// stored check is also counted by risk level and action.
func NewDriftUseCaseWithMetrics(
	useCase UseCase,
	m metrics.BusinessMetrics,
	compliance metrics.ComplianceMetrics,
) UseCase {
	return &driftUseCaseWithMetrics{
		next:       useCase,
		metrics:    m,
		compliance: compliance,
	}
}

func (d *driftUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.OperationStatus(err)

	d.metrics.RecordOperation(ctx, "drift", operation, status)
	d.metrics.RecordDuration(ctx, "drift", operation, time.Since(start), status)
}

func (d *driftUseCaseWithMetrics) recordChecks(ctx context.Context, checks []*domain.Check) {
	for _, check := range checks {
		d.compliance.RecordDriftCheck(ctx, string(check.RiskLevel), string(check.Action))
	}
}

// Evaluate records metrics for single clause evaluation.
func (d *driftUseCaseWithMetrics) Evaluate(ctx context.Context, input domain.ClauseInput) (*domain.Check, error) {
	start := time.Now()
	check, err := d.next.Evaluate(ctx, input)
	d.record(ctx, "evaluate", start, err)
	if err == nil {
		d.recordChecks(ctx, []*domain.Check{check})
	}
	return check, err
}

// EvaluateBatch records metrics for batch evaluation.
func (d *driftUseCaseWithMetrics) EvaluateBatch(
	ctx context.Context,
	inputs []domain.ClauseInput,
) (*domain.BatchResult, error) {
	start := time.Now()
	result, err := d.next.EvaluateBatch(ctx, inputs)
	d.record(ctx, "evaluate_batch", start, err)
	if err == nil {
		d.recordChecks(ctx, result.Checks)
	}
	return result, err
}

// Guard delegates without instrumentation.
func (d *driftUseCaseWithMetrics) Guard(check *domain.Check) error {
	return d.next.Guard(check)
}

// VerifyClauses records metrics for clause verification.
func (d *driftUseCaseWithMetrics) VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error {
	start := time.Now()
	err := d.next.VerifyClauses(ctx, documentID, clauseIDs)
	d.record(ctx, "verify_clauses", start, err)
	return err
}

// Analyze records metrics for drift analysis.
func (d *driftUseCaseWithMetrics) Analyze(ctx context.Context, start, end time.Time) (*domain.Analysis, error) {
	begin := time.Now()
	analysis, err := d.next.Analyze(ctx, start, end)
	d.record(ctx, "analyze", begin, err)
	return analysis, err
}
