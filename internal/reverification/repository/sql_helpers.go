package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/reverification/domain"
)

const jobColumns = `id, trigger_type, status, priority, document_ids, clause_ids, units,
	total_units, completed_units, failed_units, results, error, created_at, updated_at`

type unitRow struct {
	DocumentID string   `json:"document_id"`
	ClauseIDs  []string `json:"clause_ids"`
}

type resultRow struct {
	DocumentID  string    `json:"document_id"`
	Success     bool      `json:"success"`
	ExecutionID string    `json:"execution_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// encodedJob holds the JSON columns of a job.
type encodedJob struct {
	documentIDs []byte
	clauseIDs   []byte
	units       []byte
	results     []byte
}

func encodeJob(job *domain.Job) (*encodedJob, error) {
	units := make([]unitRow, 0, len(job.Units))
	for _, unit := range job.Units {
		units = append(units, unitRow{DocumentID: unit.DocumentID, ClauseIDs: unit.ClauseIDs})
	}
	results := make([]resultRow, 0, len(job.Results))
	for _, result := range job.Results {
		results = append(results, resultRow(result))
	}

	var encoded encodedJob
	var err error
	if encoded.documentIDs, err = json.Marshal(nonNil(job.DocumentIDs)); err != nil {
		return nil, apperrors.Wrap(err, "failed to encode document ids")
	}
	if encoded.clauseIDs, err = json.Marshal(nonNil(job.ClauseIDs)); err != nil {
		return nil, apperrors.Wrap(err, "failed to encode clause ids")
	}
	if encoded.units, err = json.Marshal(units); err != nil {
		return nil, apperrors.Wrap(err, "failed to encode units")
	}
	if encoded.results, err = json.Marshal(results); err != nil {
		return nil, apperrors.Wrap(err, "failed to encode results")
	}
	return &encoded, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job                                       domain.Job
		id                                        uuid.UUID
		trigger, status, priority                 string
		documentIDs, clauseIDs, unitsRaw, results []byte
	)
	err := row.Scan(
		&id, &trigger, &status, &priority, &documentIDs, &clauseIDs, &unitsRaw,
		&job.Progress.Total, &job.Progress.Completed, &job.Progress.Failed,
		&results, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ID = id
	job.Trigger = domain.Trigger(trigger)
	job.Status = domain.Status(status)
	job.Priority = domain.Priority(priority)
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()

	if err := json.Unmarshal(documentIDs, &job.DocumentIDs); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode document ids")
	}
	if err := json.Unmarshal(clauseIDs, &job.ClauseIDs); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode clause ids")
	}

	var units []unitRow
	if err := json.Unmarshal(unitsRaw, &units); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode units")
	}
	job.Units = make([]domain.Unit, 0, len(units))
	for _, unit := range units {
		job.Units = append(job.Units, domain.Unit{DocumentID: unit.DocumentID, ClauseIDs: unit.ClauseIDs})
	}

	var rows []resultRow
	if err := json.Unmarshal(results, &rows); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode results")
	}
	job.Results = make([]domain.UnitResult, 0, len(rows))
	for _, result := range rows {
		job.Results = append(job.Results, domain.UnitResult(result))
	}
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]*domain.Job, error) {
	defer func() {
		_ = rows.Close()
	}()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan re-verification job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate re-verification jobs")
	}
	return jobs, nil
}
