package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/occam/internal/drift/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

const checkColumns = `id, clause_id, document_id, score, threshold, blocked, risk_level, reason, 
	authority_id, authority_timestamp, source_content_hash, action, job_id, checked_at, 
	current_content, source_content`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCheck reads one row selected with checkColumns. uuid.UUID and
// uuid.NullUUID accept both the PostgreSQL text form and MySQL BINARY(16).
func scanCheck(scanner rowScanner) (*domain.Check, error) {
	var check domain.Check
	var riskLevel, action string
	var jobID uuid.NullUUID
	var currentContent, sourceContent sql.NullString

	err := scanner.Scan(
		&check.ID,
		&check.ClauseID,
		&check.DocumentID,
		&check.Score,
		&check.Threshold,
		&check.Blocked,
		&riskLevel,
		&check.Reason,
		&check.Authority.AuthorityID,
		&check.Authority.Timestamp,
		&check.Authority.SourceContentHash,
		&action,
		&jobID,
		&check.CheckedAt,
		&currentContent,
		&sourceContent,
	)
	if err != nil {
		return nil, err
	}

	check.RiskLevel = domain.RiskLevel(riskLevel)
	check.Action = domain.Action(action)
	check.CurrentContent = currentContent.String
	check.SourceContent = sourceContent.String
	check.CheckedAt = check.CheckedAt.UTC()
	check.Authority.Timestamp = check.Authority.Timestamp.UTC()
	if jobID.Valid {
		id := jobID.UUID
		check.JobID = &id
	}
	return &check, nil
}

func scanChecks(rows *sql.Rows) ([]*domain.Check, error) {
	defer func() {
		_ = rows.Close()
	}()

	checks := make([]*domain.Check, 0)
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan drift check")
		}
		checks = append(checks, check)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate drift checks")
	}
	return checks, nil
}
