package usecase

import (
	"context"
	"time"

	"github.com/allisson/occam/internal/metrics"
	"github.com/allisson/occam/internal/slo/domain"
)

// sloUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type sloUseCaseWithMetrics struct {
	next       UseCase
	metrics    metrics.BusinessMetrics
	compliance metrics.ComplianceMetrics
}

// NewSLOUseCaseWithMetrics wraps a UseCase with metrics recording. Each
// evaluated metric is exported as a gauge.
func NewSLOUseCaseWithMetrics(
	useCase UseCase,
	m metrics.BusinessMetrics,
	compliance metrics.ComplianceMetrics,
) UseCase {
	return &sloUseCaseWithMetrics{
		next:       useCase,
		metrics:    m,
		compliance: compliance,
	}
}

func (s *sloUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.OperationStatus(err)

	s.metrics.RecordOperation(ctx, "slo", operation, status)
	s.metrics.RecordDuration(ctx, "slo", operation, time.Since(start), status)
}

// Evaluate records metrics for a monitoring cycle.
func (s *sloUseCaseWithMetrics) Evaluate(ctx context.Context) (*domain.ComplianceStatus, error) {
	start := time.Now()
	status, err := s.next.Evaluate(ctx)
	s.record(ctx, "evaluate", start, err)
	if err == nil {
		for _, m := range status.Metrics {
			s.compliance.RecordSLO(ctx, m.Name, m.Actual, m.Compliant)
		}
	}
	return status, err
}

// RecordMeasurement records metrics for reported measurements.
func (s *sloUseCaseWithMetrics) RecordMeasurement(ctx context.Context, key string, value float64) error {
	start := time.Now()
	err := s.next.RecordMeasurement(ctx, key, value)
	s.record(ctx, "record_measurement", start, err)
	return err
}
