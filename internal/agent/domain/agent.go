// Package domain defines compliance agents: the capabilities a workflow step invokes.
package domain

import (
	"context"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
)

// Kind is the responsibility an agent fulfils inside a compliance workflow.
type Kind string

const (
	KindAccount     Kind = "account"
	KindForm        Kind = "form"
	KindPayment     Kind = "payment"
	KindStatus      Kind = "status"
	KindCompliance  Kind = "compliance"
	KindConsultancy Kind = "consultancy"
)

// Valid reports whether k is one of the known agent kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAccount, KindForm, KindPayment, KindStatus, KindCompliance, KindConsultancy:
		return true
	}
	return false
}

// EventType maps the kind to the audit event recorded for each of its invocations.
func (k Kind) EventType() auditDomain.EventType {
	switch k {
	case KindAccount:
		return auditDomain.EventTypeIngestion
	case KindForm:
		return auditDomain.EventTypeFormGeneration
	case KindPayment:
		return auditDomain.EventTypePayment
	case KindStatus:
		return auditDomain.EventTypeConfirmation
	case KindCompliance:
		return auditDomain.EventTypeValidation
	default:
		return auditDomain.EventTypeComplianceCheck
	}
}

// StepContext is what an agent receives for one step invocation. Data is a
// snapshot of the workflow data context and may be read freely.
type StepContext struct {
	ExecutionID string
	WorkflowID  string
	StepID      string
	UserID      string
	DocumentID  string
	Config      map[string]any
	Data        map[string]any
}

// Result is the outcome reported by an agent. A false Success with a nil
// error from Execute is an agent-reported failure.
type Result struct {
	Success         bool
	Status          string
	Output          map[string]any
	Error           string
	ConfidenceScore *float64
}

// Agent is an invocable compliance capability.
type Agent interface {
	ID() string
	Name() string
	Kind() Kind
	Execute(ctx context.Context, step *StepContext) (*Result, error)
}

// Info describes a registered agent.
type Info struct {
	ID   string
	Name string
	Kind Kind
}

// Describe returns the Info of an agent.
func Describe(agent Agent) Info {
	return Info{ID: agent.ID(), Name: agent.Name(), Kind: agent.Kind()}
}
