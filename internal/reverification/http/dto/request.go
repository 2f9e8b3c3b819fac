// Package dto provides data transfer objects for the re-verification HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/occam/internal/reverification/domain"
	"github.com/allisson/occam/internal/reverification/usecase"
	customValidation "github.com/allisson/occam/internal/validation"
)

// ScheduleJobRequest contains an operator-requested re-verification.
type ScheduleJobRequest struct {
	DocumentIDs []string `json:"document_ids"`
	ClauseIDs   []string `json:"clause_ids"`
	Priority    string   `json:"priority"`
}

// Validate checks if the schedule job request is valid.
func (r *ScheduleJobRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DocumentIDs,
			validation.Required,
			validation.Length(1, 1000),
			validation.Each(validation.Required, customValidation.Identifier),
		),
		validation.Field(&r.ClauseIDs, validation.Each(validation.Required, customValidation.Identifier)),
		validation.Field(&r.Priority, validation.In(
			string(domain.PriorityCritical),
			string(domain.PriorityHigh),
			string(domain.PriorityMedium),
			string(domain.PriorityLow),
		)),
	)
}

// ToInput converts the request into the use case input.
func (r *ScheduleJobRequest) ToInput() usecase.ManualInput {
	return usecase.ManualInput{
		DocumentIDs: r.DocumentIDs,
		ClauseIDs:   r.ClauseIDs,
		Priority:    domain.Priority(r.Priority),
	}
}
