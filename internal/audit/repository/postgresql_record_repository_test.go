package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/occam/internal/audit/domain"
)

var recordColumnNames = []string{
	"id", "sequence", "recorded_at", "event_type", "severity", "agent_id", "user_id", "document_id",
	"clause_id", "action", "details", "metadata", "previous_hash", "current_hash", "success",
	"latency_ms", "confidence_score", "error_message",
}

func recordRow(id any, seq int64, ts time.Time) []driver.Value {
	return []driver.Value{
		id, seq, ts, "validation", "info", "compliance-agent", "", "doc-1",
		"clause-1", "validate", "ok", []byte(`{"source":"test"}`), domain.GenesisHash, "abc123", true,
		int64(12), 0.93, "",
	}
}

func TestPostgreSQLRecordRepository_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLRecordRepository(db)
	ctx := context.Background()
	record := &domain.Record{
		ID:           uuid.Must(uuid.NewV7()),
		Sequence:     1,
		Timestamp:    time.Now().UTC(),
		EventType:    domain.EventTypeValidation,
		Severity:     domain.SeverityInfo,
		Metadata:     map[string]any{"k": "v"},
		PreviousHash: domain.GenesisHash,
		CurrentHash:  "abc",
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_records")).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Append(ctx, record))
	})

	t.Run("Error_DuplicateSequence", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_records")).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Append(ctx, record)
		assert.ErrorIs(t, err, domain.ErrChainConflict)
	})

	t.Run("Error_Database", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_records")).
			WillReturnError(assert.AnError)

		err := repo.Append(ctx, record)
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, domain.ErrChainConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRecordRepository_Last(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLRecordRepository(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence DESC LIMIT 1")).
			WillReturnRows(sqlmock.NewRows(recordColumnNames).AddRow(recordRow(id.String(), 7, ts)...))

		record, err := repo.Last(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, record.ID)
		assert.Equal(t, int64(7), record.Sequence)
		assert.Equal(t, domain.EventTypeValidation, record.EventType)
		assert.Equal(t, map[string]any{"source": "test"}, record.Metadata)
		require.NotNil(t, record.ConfidenceScore)
		assert.Equal(t, 0.93, *record.ConfidenceScore)
	})

	t.Run("Success_EmptyChain", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sequence DESC LIMIT 1")).
			WillReturnRows(sqlmock.NewRows(recordColumnNames))

		record, err := repo.Last(ctx)
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRecordRepository_GetByHash_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectQuery(regexp.QuoteMeta("WHERE current_hash = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(recordColumnNames))

	_, err = NewPostgreSQLRecordRepository(db).GetByHash(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestPostgreSQLRecordRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE recorded_at >= $1 AND event_type IN ($2, $3) AND document_id = $4 ORDER BY sequence ASC LIMIT $5 OFFSET $6",
	)).
		WithArgs(start, "validation", "payment", "doc-1", 10, 5).
		WillReturnRows(sqlmock.NewRows(recordColumnNames).
			AddRow(recordRow(uuid.Must(uuid.NewV7()).String(), 1, ts)...).
			AddRow(recordRow(uuid.Must(uuid.NewV7()).String(), 2, ts)...))

	records, err := NewPostgreSQLRecordRepository(db).List(context.Background(), domain.Query{
		StartTime:  &start,
		EventTypes: []domain.EventType{domain.EventTypeValidation, domain.EventTypePayment},
		DocumentID: "doc-1",
		Offset:     5,
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRecordRepository_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLRecordRepository(db)
	ctx := context.Background()
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success_DryRun", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_records")).
			WithArgs(cutoff, int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		count, err := repo.DeleteOlderThan(ctx, cutoff, 10, true)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("Success_Delete", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_records")).
			WithArgs(cutoff, int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 4))

		count, err := repo.DeleteOlderThan(ctx, cutoff, 10, false)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
