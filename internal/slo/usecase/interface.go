// Package usecase implements the SLO monitor: collecting measurements,
// judging them against their targets and tracking their trend between cycles.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/slo/domain"
)

// Source measures one metric.
type Source interface {
	Measure(ctx context.Context) (float64, error)
}

// ReportableSource is a Source whose value is pushed by an external system.
type ReportableSource interface {
	Source
	Set(value float64, at time.Time)
}

// AuditRecorder appends events to the audit trail.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, event *auditDomain.Event) (*auditDomain.Record, error)
}

// UseCase defines the SLO monitor operations.
type UseCase interface {
	// Evaluate runs one monitoring cycle over the six SLOs.
	Evaluate(ctx context.Context) (*domain.ComplianceStatus, error)

	// RecordMeasurement stores an externally reported value for the metric with the given key.
	RecordMeasurement(ctx context.Context, key string, value float64) error
}
