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

// MySQLJobRepository implements job persistence for MySQL. Ids are stored as BINARY(16).
type MySQLJobRepository struct {
	db *sql.DB
}

// NewMySQLJobRepository creates a new MySQL job repository.
func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

// Create inserts a new job.
func (m *MySQLJobRepository) Create(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, m.db)

	id, err := job.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal job id")
	}
	encoded, err := encodeJob(job)
	if err != nil {
		return err
	}

	query := `INSERT INTO reverification_jobs (` + jobColumns + `) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLJobRepository) Claim(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, m.db)

	id, err := job.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal job id")
	}

	query := `UPDATE reverification_jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(
		ctx, query, string(job.Status), job.UpdatedAt, id, string(domain.StatusPending),
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
func (m *MySQLJobRepository) Update(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, m.db)

	id, err := job.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal job id")
	}
	encoded, err := encodeJob(job)
	if err != nil {
		return err
	}

	query := `UPDATE reverification_jobs 
			  SET status = ?, completed_units = ?, failed_units = ?, results = ?, error = ?, updated_at = ? 
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		string(job.Status),
		job.Progress.Completed,
		job.Progress.Failed,
		encoded.results,
		job.Error,
		job.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update re-verification job")
	}
	return nil
}

// Get returns a job by id.
func (m *MySQLJobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	querier := database.GetTx(ctx, m.db)

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal job id")
	}

	query := `SELECT ` + jobColumns + ` FROM reverification_jobs WHERE id = ?`

	job, err := scanJob(querier.QueryRowContext(ctx, query, rawID))
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
func (m *MySQLJobRepository) ListPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + jobColumns + ` FROM reverification_jobs 
			  WHERE status = ? 
			  ORDER BY created_at ASC 
			  LIMIT ? 
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, string(domain.StatusPending), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending jobs")
	}
	return scanJobs(rows)
}
