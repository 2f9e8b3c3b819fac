package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/database"
	apperrors "github.com/allisson/occam/internal/errors"
)

// MySQLRecordRepository implements audit record persistence for MySQL.
// Ids are stored as BINARY(16).
type MySQLRecordRepository struct {
	db *sql.DB
}

// NewMySQLRecordRepository creates a new MySQL audit record repository.
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db}
}

// Append inserts a new audit record.
func (m *MySQLRecordRepository) Append(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit record id")
	}

	metadataJSON, err := encodeMetadata(record.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_records (` + recordColumns + `) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
		// Check for duplicate entry error (MySQL error number 1062)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return domain.ErrChainConflict
		}
		return apperrors.Wrap(err, "failed to append audit record")
	}
	return nil
}

// First returns the lowest retained record, or nil when the chain is empty.
func (m *MySQLRecordRepository) First(ctx context.Context) (*domain.Record, error) {
	return m.getOne(ctx, `SELECT `+recordColumns+` FROM audit_records ORDER BY sequence ASC LIMIT 1`)
}

// Last returns the chain tip, or nil when the chain is empty.
func (m *MySQLRecordRepository) Last(ctx context.Context) (*domain.Record, error) {
	return m.getOne(ctx, `SELECT `+recordColumns+` FROM audit_records ORDER BY sequence DESC LIMIT 1`)
}

func (m *MySQLRecordRepository) getOne(ctx context.Context, query string) (*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	record, err := scanRecord(querier.QueryRowContext(ctx, query), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to get audit record")
	}
	return record, nil
}

// GetByHash retrieves a record by its CurrentHash.
func (m *MySQLRecordRepository) GetByHash(ctx context.Context, hash string) (*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + recordColumns + ` FROM audit_records WHERE current_hash = ?`

	record, err := scanRecord(querier.QueryRowContext(ctx, query, hash), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit record by hash")
	}
	return record, nil
}

// ListBySequence returns up to limit records with Sequence >= fromSequence.
func (m *MySQLRecordRepository) ListBySequence(
	ctx context.Context,
	fromSequence int64,
	limit int,
) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + recordColumns + ` FROM audit_records 
			  WHERE sequence >= ? 
			  ORDER BY sequence ASC 
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, fromSequence, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records by sequence")
	}
	return scanRecords(rows, true)
}

// List returns records matching query in chronological order.
func (m *MySQLRecordRepository) List(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	sqlQuery, args := buildListQuery(query, questionPlaceholder)
	rows, err := querier.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	return scanRecords(rows, true)
}

// DeleteOlderThan removes (or with dryRun counts) records older than olderThan below beforeSequence.
func (m *MySQLRecordRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	beforeSequence int64,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM audit_records WHERE recorded_at < ? AND sequence < ?`
		if err := querier.QueryRowContext(ctx, query, olderThan.UTC(), beforeSequence).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit records")
		}
		return count, nil
	}

	query := `DELETE FROM audit_records WHERE recorded_at < ? AND sequence < ?`
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
