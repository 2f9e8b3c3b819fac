package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/database"
	apperrors "github.com/allisson/occam/internal/errors"
)

// PostgreSQLRecordRepository implements audit record persistence for PostgreSQL.
// The unique index on sequence turns concurrent appends at the same position
// into domain.ErrChainConflict.
type PostgreSQLRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLRecordRepository creates a new PostgreSQL audit record repository.
func NewPostgreSQLRecordRepository(db *sql.DB) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{db: db}
}

// Append inserts a new audit record.
func (p *PostgreSQLRecordRepository) Append(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := encodeMetadata(record.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_records (` + recordColumns + `) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.Sequence,
		record.Timestamp,
		string(record.EventType),
		string(record.Severity),
		record.AgentID,
		record.UserID,
		record.DocumentID,
		record.ClauseID,
		record.Action,
		record.Details,
		metadataJSON,
		record.PreviousHash,
		record.CurrentHash,
		record.Success,
		record.LatencyMs,
		nullableFloat(record.ConfidenceScore),
		record.ErrorMessage,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrChainConflict
		}
		return apperrors.Wrap(err, "failed to append audit record")
	}
	return nil
}

// First returns the lowest retained record, or nil when the chain is empty.
func (p *PostgreSQLRecordRepository) First(ctx context.Context) (*domain.Record, error) {
	return p.getOne(ctx, `SELECT `+recordColumns+` FROM audit_records ORDER BY sequence ASC LIMIT 1`)
}

// Last returns the chain tip, or nil when the chain is empty.
func (p *PostgreSQLRecordRepository) Last(ctx context.Context) (*domain.Record, error) {
	return p.getOne(ctx, `SELECT `+recordColumns+` FROM audit_records ORDER BY sequence DESC LIMIT 1`)
}

func (p *PostgreSQLRecordRepository) getOne(ctx context.Context, query string) (*domain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	record, err := scanRecord(querier.QueryRowContext(ctx, query), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to get audit record")
	}
	return record, nil
}

// GetByHash retrieves a record by its CurrentHash.
func (p *PostgreSQLRecordRepository) GetByHash(ctx context.Context, hash string) (*domain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + recordColumns + ` FROM audit_records WHERE current_hash = $1`

	record, err := scanRecord(querier.QueryRowContext(ctx, query, hash), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit record by hash")
	}
	return record, nil
}

// ListBySequence returns up to limit records with Sequence >= fromSequence.
func (p *PostgreSQLRecordRepository) ListBySequence(
	ctx context.Context,
	fromSequence int64,
	limit int,
) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + recordColumns + ` FROM audit_records 
			  WHERE sequence >= $1 
			  ORDER BY sequence ASC 
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, fromSequence, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records by sequence")
	}
	return scanRecords(rows, false)
}

// List returns records matching query in chronological order.
func (p *PostgreSQLRecordRepository) List(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	sqlQuery, args := buildListQuery(query, dollarPlaceholder)
	rows, err := querier.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	return scanRecords(rows, false)
}

// DeleteOlderThan removes (or with dryRun counts) records older than olderThan below beforeSequence.
func (p *PostgreSQLRecordRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	beforeSequence int64,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM audit_records WHERE recorded_at < $1 AND sequence < $2`
		if err := querier.QueryRowContext(ctx, query, olderThan.UTC(), beforeSequence).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit records")
		}
		return count, nil
	}

	query := `DELETE FROM audit_records WHERE recorded_at < $1 AND sequence < $2`
	result, err := querier.ExecContext(ctx, query, olderThan.UTC(), beforeSequence)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit records")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}
