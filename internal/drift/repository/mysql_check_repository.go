package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/occam/internal/database"
	"github.com/allisson/occam/internal/drift/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

// MySQLCheckRepository implements drift check persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLCheckRepository struct {
	db *sql.DB
}

// NewMySQLCheckRepository creates a new MySQL drift check repository.
func NewMySQLCheckRepository(db *sql.DB) *MySQLCheckRepository {
	return &MySQLCheckRepository{db: db}
}

// Create inserts a new drift check.
func (m *MySQLCheckRepository) Create(ctx context.Context, check *domain.Check) error {
	querier := database.GetTx(ctx, m.db)

	id, err := check.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal drift check id")
	}

	var jobID any
	if check.JobID != nil {
		raw, err := check.JobID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal job id")
		}
		jobID = raw
	}

	query := `INSERT INTO drift_checks (` + checkColumns + `) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		check.ClauseID,
		check.DocumentID,
		check.Score,
		check.Threshold,
		check.Blocked,
		string(check.RiskLevel),
		check.Reason,
		check.Authority.AuthorityID,
		check.Authority.Timestamp,
		check.Authority.SourceContentHash,
		string(check.Action),
		jobID,
		check.CheckedAt,
		check.CurrentContent,
		check.SourceContent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create drift check")
	}
	return nil
}

// ListByPeriod returns checks with checked_at in [start, end).
func (m *MySQLCheckRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*domain.Check, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + checkColumns + ` FROM drift_checks 
			  WHERE checked_at >= ? AND checked_at < ? 
			  ORDER BY checked_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list drift checks")
	}
	return scanChecks(rows)
}

// LatestByClause returns the most recent check of a clause.
func (m *MySQLCheckRepository) LatestByClause(
	ctx context.Context,
	documentID, clauseID string,
) (*domain.Check, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + checkColumns + ` FROM drift_checks 
			  WHERE document_id = ? AND clause_id = ? 
			  ORDER BY checked_at DESC, id DESC LIMIT 1`

	check, err := scanCheck(querier.QueryRowContext(ctx, query, documentID, clauseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCheckNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest drift check")
	}
	return check, nil
}
