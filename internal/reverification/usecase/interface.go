// Package usecase implements the re-verification scheduler: turning drift cases,
// the scheduled audit and manual requests into jobs and processing their units
// with a bounded worker pool.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	driftDomain "github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/reverification/domain"
)

// JobRepository persists jobs.
type JobRepository interface {
	// Create stores a new job.
	Create(ctx context.Context, job *domain.Job) error

	// Claim stores the running status of job only if the stored job is still
	// pending, and returns domain.ErrJobAlreadyClaimed otherwise.
	Claim(ctx context.Context, job *domain.Job) error

	// Update replaces the stored status, progress, results and error of a job.
	Update(ctx context.Context, job *domain.Job) error

	// Get returns a job or domain.ErrJobNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// ListPending returns up to limit pending jobs, oldest first. SQL
	// implementations lock the rows for the surrounding transaction.
	ListPending(ctx context.Context, limit int) ([]*domain.Job, error)
}

// UnitValidator validates the clauses of one document.
type UnitValidator interface {
	Validate(ctx context.Context, jobID uuid.UUID, unit domain.Unit) (*domain.UnitResult, error)
}

// AuditTrail is the part of the audit trail the scheduler reads and writes.
type AuditTrail interface {
	RecordEvent(ctx context.Context, event *auditDomain.Event) (*auditDomain.Record, error)
	GetAuditTrail(ctx context.Context, query auditDomain.Query) ([]*auditDomain.Record, error)
}

// ManualInput describes an operator-requested job.
type ManualInput struct {
	DocumentIDs []string
	ClauseIDs   []string
	Priority    domain.Priority
}

// UseCase defines the re-verification scheduler operations.
type UseCase interface {
	// TriggerFromDrift creates one pending job covering every blocking case.
	TriggerFromDrift(ctx context.Context, cases []*driftDomain.Check) (uuid.UUID, error)

	// ScheduleManual creates a pending job for the given documents.
	ScheduleManual(ctx context.Context, input ManualInput) (*domain.Job, error)

	// RunScheduledAudit creates a job for every document seen in the audit
	// retention window and processes it before returning.
	RunScheduledAudit(ctx context.Context) (*domain.Job, error)

	// GetJob returns a job or domain.ErrJobNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// ProcessJob runs every unit of a pending job through the worker pool.
	ProcessJob(ctx context.Context, job *domain.Job) error

	// ProcessPending claims and processes a batch of pending jobs.
	ProcessPending(ctx context.Context) error

	// Start runs ProcessPending on every tick until ctx is done.
	Start(ctx context.Context) error
}
