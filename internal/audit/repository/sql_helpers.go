package repository

import (
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/occam/internal/audit/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

const recordColumns = `id, sequence, recorded_at, event_type, severity, agent_id, user_id, document_id, ` +
	`clause_id, action, details, metadata, previous_hash, current_hash, success, latency_ms, ` +
	`confidence_score, error_message`

// placeholderFunc renders the n-th (1-based) bind parameter of a query.
type placeholderFunc func(n int) string

func dollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func questionPlaceholder(int) string { return "?" }

type rowScanner interface {
	Scan(dest ...any) error
}

// buildListQuery renders a filtered, chronologically ordered SELECT for query.
func buildListQuery(query domain.Query, placeholder placeholderFunc) (string, []any) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if query.StartTime != nil {
		conditions = append(conditions, "recorded_at >= "+arg(query.StartTime.UTC()))
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_at < "+arg(query.EndTime.UTC()))
	}
	if len(query.EventTypes) > 0 {
		in := make([]string, 0, len(query.EventTypes))
		for _, t := range query.EventTypes {
			in = append(in, arg(string(t)))
		}
		conditions = append(conditions, "event_type IN ("+strings.Join(in, ", ")+")")
	}
	if len(query.Severities) > 0 {
		in := make([]string, 0, len(query.Severities))
		for _, s := range query.Severities {
			in = append(in, arg(string(s)))
		}
		conditions = append(conditions, "severity IN ("+strings.Join(in, ", ")+")")
	}
	if query.AgentID != "" {
		conditions = append(conditions, "agent_id = "+arg(query.AgentID))
	}
	if query.UserID != "" {
		conditions = append(conditions, "user_id = "+arg(query.UserID))
	}
	if query.DocumentID != "" {
		conditions = append(conditions, "document_id = "+arg(query.DocumentID))
	}
	if query.SuccessOnly {
		conditions = append(conditions, "success = "+arg(true))
	}

	sqlQuery := "SELECT " + recordColumns + " FROM audit_records"
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY sequence ASC"

	limit := query.Limit
	if limit <= 0 && query.Offset > 0 {
		// MySQL has no OFFSET without LIMIT.
		limit = math.MaxInt32
	}
	if limit > 0 {
		sqlQuery += " LIMIT " + arg(limit)
		if query.Offset > 0 {
			sqlQuery += " OFFSET " + arg(query.Offset)
		}
	}

	return sqlQuery, args
}

func encodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit record metadata")
	}
	return data, nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// scanRecord reads one row selected with recordColumns. binaryID selects the
// MySQL BINARY(16) id encoding instead of the native PostgreSQL UUID.
func scanRecord(scanner rowScanner, binaryID bool) (*domain.Record, error) {
	var record domain.Record
	var rawID []byte
	var eventType, severity string
	var metadataJSON []byte
	var confidence sql.NullFloat64

	var idDest any = &record.ID
	if binaryID {
		idDest = &rawID
	}

	err := scanner.Scan(
		idDest,
		&record.Sequence,
		&record.Timestamp,
		&eventType,
		&severity,
		&record.AgentID,
		&record.UserID,
		&record.DocumentID,
		&record.ClauseID,
		&record.Action,
		&record.Details,
		&metadataJSON,
		&record.PreviousHash,
		&record.CurrentHash,
		&record.Success,
		&record.LatencyMs,
		&confidence,
		&record.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}

	if binaryID {
		id, err := uuid.FromBytes(rawID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit record id")
		}
		record.ID = id
	}

	record.EventType = domain.EventType(eventType)
	record.Severity = domain.Severity(severity)
	record.Timestamp = record.Timestamp.UTC()

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit record metadata")
		}
	}
	if confidence.Valid {
		score := confidence.Float64
		record.ConfidenceScore = &score
	}

	return &record, nil
}

func scanRecords(rows *sql.Rows, binaryID bool) ([]*domain.Record, error) {
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	records := make([]*domain.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows, binaryID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit records")
	}
	return records, nil
}
