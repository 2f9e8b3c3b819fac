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

// PostgreSQLCheckRepository implements drift check persistence for PostgreSQL.
type PostgreSQLCheckRepository struct {
	db *sql.DB
}

// NewPostgreSQLCheckRepository creates a new PostgreSQL drift check repository.
func NewPostgreSQLCheckRepository(db *sql.DB) *PostgreSQLCheckRepository {
	return &PostgreSQLCheckRepository{db: db}
}

// Create inserts a new drift check.
func (p *PostgreSQLCheckRepository) Create(ctx context.Context, check *domain.Check) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO drift_checks (` + checkColumns + `) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	var jobID any
	if check.JobID != nil {
		jobID = *check.JobID
	}

	_, err := querier.ExecContext(
		ctx,
		query,
		check.ID,
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
func (p *PostgreSQLCheckRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*domain.Check, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + checkColumns + ` FROM drift_checks 
			  WHERE checked_at >= $1 AND checked_at < $2 
			  ORDER BY checked_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list drift checks")
	}
	return scanChecks(rows)
}

// LatestByClause returns the most recent check of a clause.
func (p *PostgreSQLCheckRepository) LatestByClause(
	ctx context.Context,
	documentID, clauseID string,
) (*domain.Check, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + checkColumns + ` FROM drift_checks 
			  WHERE document_id = $1 AND clause_id = $2 
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
