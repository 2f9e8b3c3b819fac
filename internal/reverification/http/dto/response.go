package dto

import (
	"time"

	"github.com/allisson/occam/internal/reverification/domain"
)

// UnitResponse is one document of a job.
type UnitResponse struct {
	DocumentID string   `json:"document_id"`
	ClauseIDs  []string `json:"clause_ids"`
}

// UnitResultResponse is the outcome of one document.
type UnitResultResponse struct {
	DocumentID  string    `json:"document_id"`
	Success     bool      `json:"success"`
	ExecutionID string    `json:"execution_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProgressResponse counts processed units.
type ProgressResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobResponse represents a re-verification job in API responses.
type JobResponse struct {
	ID          string               `json:"id"`
	Trigger     string               `json:"trigger"`
	Status      string               `json:"status"`
	Priority    string               `json:"priority"`
	DocumentIDs []string             `json:"document_ids"`
	ClauseIDs   []string             `json:"clause_ids"`
	Units       []UnitResponse       `json:"units"`
	Progress    ProgressResponse     `json:"progress"`
	Results     []UnitResultResponse `json:"results"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// MapJobToResponse converts a domain job to an API response.
func MapJobToResponse(job *domain.Job) JobResponse {
	units := make([]UnitResponse, 0, len(job.Units))
	for _, unit := range job.Units {
		clauseIDs := unit.ClauseIDs
		if clauseIDs == nil {
			clauseIDs = []string{}
		}
		units = append(units, UnitResponse{DocumentID: unit.DocumentID, ClauseIDs: clauseIDs})
	}

	results := make([]UnitResultResponse, 0, len(job.Results))
	for _, result := range job.Results {
		results = append(results, UnitResultResponse(result))
	}

	documentIDs := append([]string{}, job.DocumentIDs...)
	clauseIDs := append([]string{}, job.ClauseIDs...)

	return JobResponse{
		ID:          job.ID.String(),
		Trigger:     string(job.Trigger),
		Status:      string(job.Status),
		Priority:    string(job.Priority),
		DocumentIDs: documentIDs,
		ClauseIDs:   clauseIDs,
		Units:       units,
		Progress: ProgressResponse{
			Total:     job.Progress.Total,
			Completed: job.Progress.Completed,
			Failed:    job.Progress.Failed,
		},
		Results:   results,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}
