// Package usecase implements the audit trail: appending records to the hash chain,
// querying it and verifying its integrity.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/occam/internal/audit/domain"
)

// RecordRepository persists audit records. Implementations must reject an
// Append whose Sequence already exists with domain.ErrChainConflict.
type RecordRepository interface {
	// Append stores a new record.
	Append(ctx context.Context, record *domain.Record) error

	// First returns the lowest retained record, or nil when the chain is empty.
	First(ctx context.Context) (*domain.Record, error)

	// Last returns the chain tip, or nil when the chain is empty.
	Last(ctx context.Context) (*domain.Record, error)

	// GetByHash returns the record with the given CurrentHash. Returns ErrRecordNotFound if absent.
	GetByHash(ctx context.Context, hash string) (*domain.Record, error)

	// ListBySequence returns up to limit records with Sequence >= fromSequence in chain order.
	ListBySequence(ctx context.Context, fromSequence int64, limit int) ([]*domain.Record, error)

	// List returns records matching query in chronological order.
	List(ctx context.Context, query domain.Query) ([]*domain.Record, error)

	// DeleteOlderThan removes records older than olderThan whose Sequence is below
	// beforeSequence. With dryRun set it only counts them.
	DeleteOlderThan(ctx context.Context, olderThan time.Time, beforeSequence int64, dryRun bool) (int64, error)
}

// LatencyRecorder observes the duration of audit trail retrievals.
type LatencyRecorder interface {
	Observe(d time.Duration)
}

// UseCase defines the audit trail operations.
type UseCase interface {
	// RecordEvent appends event to the chain and returns the stored record.
	RecordEvent(ctx context.Context, event *domain.Event) (*domain.Record, error)

	// GetAuditTrail returns records matching query in chronological order.
	GetAuditTrail(ctx context.Context, query domain.Query) ([]*domain.Record, error)

	// VerifyAuditChain walks the chain between two record hashes (empty means the
	// first retained record and the tip) and reports whether every link and hash holds.
	// The error is reserved for storage failures and unknown bounds.
	VerifyAuditChain(ctx context.Context, startHash, endHash string) (bool, error)

	// VerifyAuditChainDetailed is VerifyAuditChain with the position and reason of the first failure.
	VerifyAuditChainDetailed(ctx context.Context, startHash, endHash string) (*domain.VerificationResult, error)

	// DeleteOlderThan purges records older than the given number of days, never the tip.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
