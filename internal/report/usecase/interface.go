// Package usecase implements the compliance integrity report generator.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	driftDomain "github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/report/domain"
	sloDomain "github.com/allisson/occam/internal/slo/domain"
)

// AuditTrail is the part of the audit trail a report reads from and records to.
type AuditTrail interface {
	RecordEvent(ctx context.Context, event *auditDomain.Event) (*auditDomain.Record, error)
	GetAuditTrail(ctx context.Context, query auditDomain.Query) ([]*auditDomain.Record, error)
	VerifyAuditChainDetailed(ctx context.Context, startHash, endHash string) (*auditDomain.VerificationResult, error)
}

// DriftAnalyzer aggregates drift checks over a period.
type DriftAnalyzer interface {
	Analyze(ctx context.Context, start, end time.Time) (*driftDomain.Analysis, error)
}

// SLOEvaluator runs an SLO monitoring cycle.
type SLOEvaluator interface {
	Evaluate(ctx context.Context) (*sloDomain.ComplianceStatus, error)
}

// Sink receives sealed reports.
type Sink interface {
	Name() string
	Publish(ctx context.Context, report *domain.Report) error
}

// UseCase defines the report generator operations.
type UseCase interface {
	// Generate builds, seals and publishes the report of [start, end).
	Generate(ctx context.Context, start, end time.Time) (*domain.Report, error)
}
