// Package usecase implements drift detection: scoring clauses, recording checks,
// halting submissions on blocking drift and aggregating drift over time.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/drift/domain"
)

// CheckRepository persists drift checks.
type CheckRepository interface {
	// Create stores a new check.
	Create(ctx context.Context, check *domain.Check) error

	// ListByPeriod returns checks with CheckedAt in [start, end) ordered by CheckedAt.
	ListByPeriod(ctx context.Context, start, end time.Time) ([]*domain.Check, error)

	// LatestByClause returns the most recent check of a clause or domain.ErrCheckNotFound.
	LatestByClause(ctx context.Context, documentID, clauseID string) (*domain.Check, error)
}

// Scorer computes clause similarity in [0, 1].
type Scorer interface {
	Score(ctx context.Context, current, source string) (float64, error)
}

// ReverificationTrigger turns blocking drift cases into one re-verification job.
type ReverificationTrigger interface {
	TriggerFromDrift(ctx context.Context, cases []*domain.Check) (uuid.UUID, error)
}

// AuditRecorder appends events to the audit trail.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, event *auditDomain.Event) (*auditDomain.Record, error)
}

// UseCase defines the drift detector operations.
type UseCase interface {
	// Evaluate scores and records one clause.
	Evaluate(ctx context.Context, input domain.ClauseInput) (*domain.Check, error)

	// EvaluateBatch scores and records a clause set; blocking cases are handed to
	// the re-verification scheduler as one job.
	EvaluateBatch(ctx context.Context, inputs []domain.ClauseInput) (*domain.BatchResult, error)

	// Guard returns domain.ErrDriftThresholdExceeded for a blocked check.
	Guard(check *domain.Check) error

	// VerifyClauses scores the latest stored texts of each listed clause again
	// under the current policy and fails with domain.ErrDriftThresholdExceeded
	// when any of them is blocked. Clauses never checked pass.
	VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error

	// Analyze aggregates the checks of [start, end).
	Analyze(ctx context.Context, start, end time.Time) (*domain.Analysis, error)
}
