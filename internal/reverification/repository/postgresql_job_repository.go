package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/occam/internal/database"
	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/reverification/domain"
)

// PostgreSQLJobRepository implements job persistence for PostgreSQL.
type PostgreSQLJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLJobRepository creates a new PostgreSQL job repository.
func NewPostgreSQLJobRepository(db *sql.DB) *PostgreSQLJobRepository {
	return &PostgreSQLJobRepository{db: db}
}

// Create inserts a new job.
func (p *PostgreSQLJobRepository) Create(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, p.db)

	encoded, err := encodeJob(job)
	if err != nil {
		return err
	}

	query := `INSERT INTO reverification_jobs (` + jobColumns + `) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = querier.ExecContext(
		ctx,
		query,
		job.ID,
		string(job.Trigger),
		string(job.Status),
		string(job.Priority),
		encoded.documentIDs,
		encoded.clauseIDs,
		encoded.units,
		job.Progress.Total,
		job.Progress.Completed,
		job.Progress.Failed,
		encoded.results,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create re-verification job")
	}
	return nil
}

// Claim moves a pending job to the status of job. A job another processor
// already moved out of pending is left untouched.
func (p *PostgreSQLJobRepository) Claim(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE reverification_jobs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(
		ctx, query, string(job.Status), job.UpdatedAt, job.ID, string(domain.StatusPending),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to claim re-verification job")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to claim re-verification job")
	}
	if affected == 0 {
		return domain.ErrJobAlreadyClaimed
	}
	return nil
}

// Update stores the status, progress, results and error of a job.
func (p *PostgreSQLJobRepository) Update(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, p.db)

	encoded, err := encodeJob(job)
	if err != nil {
		return err
	}

	query := `UPDATE reverification_jobs 
			  SET status = $1, completed_units = $2, failed_units = $3, results = $4, error = $5, updated_at = $6 
			  WHERE id = $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(job.Status),
		job.Progress.Completed,
		job.Progress.Failed,
		encoded.results,
		job.Error,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update re-verification job")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update re-verification job")
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Get returns a job by id.
func (p *PostgreSQLJobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + jobColumns + ` FROM reverification_jobs WHERE id = $1`

	job, err := scanJob(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get re-verification job")
	}
	return job, nil
}

// ListPending returns up to limit pending jobs, oldest first, locking them
// for the surrounding transaction.
func (p *PostgreSQLJobRepository) ListPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + jobColumns + ` FROM reverification_jobs 
			  WHERE status = $1 
			  ORDER BY created_at ASC 
			  LIMIT $2 
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, string(domain.StatusPending), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending jobs")
	}
	return scanJobs(rows)
}
