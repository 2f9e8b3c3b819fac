// Package dto provides data transfer objects for the workflow HTTP API.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/occam/internal/validation"
	"github.com/allisson/occam/internal/workflow/domain"
)

// StepRequest declares one step of a workflow.
type StepRequest struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	AgentID string         `json:"agent_id"`
	Timeout string         `json:"timeout"`
	Config  map[string]any `json:"config"`
}

// Validate checks if the step request is valid.
func (r StepRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, customValidation.Identifier),
		validation.Field(&r.AgentID, validation.Required, customValidation.Identifier),
		validation.Field(&r.Timeout, customValidation.Duration),
	)
}

// RegisterWorkflowRequest contains a workflow definition to register.
type RegisterWorkflowRequest struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Steps       []StepRequest `json:"steps"`
}

// Validate checks if the register workflow request is valid.
func (r *RegisterWorkflowRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, customValidation.Identifier, validation.Length(1, 128)),
		validation.Field(&r.Name, validation.Length(0, 255)),
		validation.Field(&r.Steps, validation.Required),
	)
}

// ToDefinition converts the request into a domain definition. Call Validate first.
func (r *RegisterWorkflowRequest) ToDefinition() *domain.Definition {
	definition := &domain.Definition{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Steps:       make([]domain.Step, 0, len(r.Steps)),
	}
	for _, step := range r.Steps {
		timeout, _ := time.ParseDuration(step.Timeout)
		definition.Steps = append(definition.Steps, domain.Step{
			ID:      step.ID,
			Name:    step.Name,
			AgentID: step.AgentID,
			Config:  step.Config,
			Timeout: timeout,
		})
	}
	return definition
}

// ExecuteWorkflowRequest contains the input of a workflow run.
type ExecuteWorkflowRequest struct {
	UserID     string         `json:"user_id"`
	DocumentID string         `json:"document_id"`
	Data       map[string]any `json:"data"`
}

// Validate checks if the execute workflow request is valid.
func (r *ExecuteWorkflowRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, customValidation.NoWhitespace, validation.Length(0, 255)),
		validation.Field(&r.DocumentID, customValidation.NoWhitespace, validation.Length(0, 255)),
	)
}

// ToInput converts the request into the domain execution input.
func (r *ExecuteWorkflowRequest) ToInput() domain.ExecuteInput {
	return domain.ExecuteInput{
		UserID:     r.UserID,
		DocumentID: r.DocumentID,
		Data:       r.Data,
	}
}
