// Package dto provides data transfer objects for the drift detection HTTP API.
package dto

import (
	"fmt"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/occam/internal/drift/domain"
	customValidation "github.com/allisson/occam/internal/validation"
)

// AuthorityRequest references the authoritative source of a clause.
type AuthorityRequest struct {
	AuthorityID       string     `json:"authority_id"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	SourceContentHash string     `json:"source_content_hash,omitempty"`
}

// ClauseRequest is one clause to evaluate.
type ClauseRequest struct {
	ClauseID       string           `json:"clause_id"`
	DocumentID     string           `json:"document_id"`
	CurrentContent string           `json:"current_content"`
	SourceContent  string           `json:"source_content"`
	Authority      AuthorityRequest `json:"authority"`
}

// Validate checks if the clause request is valid.
func (r ClauseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ClauseID, validation.Required, customValidation.Identifier, validation.Length(1, 255)),
		validation.Field(&r.DocumentID, validation.Required, customValidation.Identifier, validation.Length(1, 255)),
		validation.Field(&r.SourceContent, validation.Required),
	)
}

// EvaluateRequest contains the clauses of one drift evaluation.
type EvaluateRequest struct {
	Clauses []ClauseRequest `json:"clauses"`
}

// Validate checks if the evaluate request is valid.
func (r *EvaluateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Clauses, validation.Required, validation.Length(1, 500)),
	)
}

// ToInputs converts the request into domain clause inputs.
func (r *EvaluateRequest) ToInputs() []domain.ClauseInput {
	inputs := make([]domain.ClauseInput, 0, len(r.Clauses))
	for _, clause := range r.Clauses {
		authority := domain.Authority{
			AuthorityID:       clause.Authority.AuthorityID,
			SourceContentHash: clause.Authority.SourceContentHash,
		}
		if clause.Authority.Timestamp != nil {
			authority.Timestamp = clause.Authority.Timestamp.UTC()
		}
		inputs = append(inputs, domain.ClauseInput{
			ClauseID:       clause.ClauseID,
			DocumentID:     clause.DocumentID,
			CurrentContent: clause.CurrentContent,
			SourceContent:  clause.SourceContent,
			Authority:      authority,
		})
	}
	return inputs
}

// ParsePeriod reads an analysis period. A missing end defaults to now and a
// missing start to one week before the end.
func ParsePeriod(rawStart, rawEnd string, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC()
	if rawEnd != "" {
		parsed, err := time.Parse(time.RFC3339, rawEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_time: must be RFC3339")
		}
		end = parsed.UTC()
	}

	start := end.Add(-7 * 24 * time.Hour)
	if rawStart != "" {
		parsed, err := time.Parse(time.RFC3339, rawStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_time: must be RFC3339")
		}
		start = parsed.UTC()
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_time must be before end_time")
	}
	return start, end, nil
}
