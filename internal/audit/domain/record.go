// Package domain defines the audit trail records that form the tamper-evident hash chain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the PreviousHash of the first record of a chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// EventType classifies an audit record.
type EventType string

const (
	EventTypeIngestion             EventType = "ingestion"
	EventTypeValidation            EventType = "validation"
	EventTypeFormGeneration        EventType = "form-generation"
	EventTypePayment               EventType = "payment"
	EventTypeSubmission            EventType = "submission"
	EventTypeConfirmation          EventType = "confirmation"
	EventTypeDriftDetected         EventType = "drift-detected"
	EventTypeVerificationCompleted EventType = "verification-completed"
	EventTypeComplianceCheck       EventType = "compliance-check"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeIngestion, EventTypeValidation, EventTypeFormGeneration, EventTypePayment,
		EventTypeSubmission, EventTypeConfirmation, EventTypeDriftDetected,
		EventTypeVerificationCompleted, EventTypeComplianceCheck:
		return true
	}
	return false
}

// Severity grades an audit record.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Event is the caller-supplied part of an audit record. Identity, ordering and
// hashes are assigned when the event is appended to the chain.
type Event struct {
	EventType       EventType
	Severity        Severity
	AgentID         string
	UserID          string
	DocumentID      string
	ClauseID        string
	Action          string
	Details         string
	Metadata        map[string]any
	Success         bool
	LatencyMs       int64
	ConfidenceScore *float64
	ErrorMessage    string
}

// Record is an immutable entry of the audit chain. CurrentHash covers every
// other field, including PreviousHash, so any edit breaks the link to the next record.
type Record struct {
	ID              uuid.UUID
	Sequence        int64
	Timestamp       time.Time
	EventType       EventType
	Severity        Severity
	AgentID         string
	UserID          string
	DocumentID      string
	ClauseID        string
	Action          string
	Details         string
	Metadata        map[string]any
	PreviousHash    string
	CurrentHash     string
	Success         bool
	LatencyMs       int64
	ConfidenceScore *float64
	ErrorMessage    string
}

// Query filters the audit trail. Zero values mean "no filter".
type Query struct {
	StartTime   *time.Time
	EndTime     *time.Time
	EventTypes  []EventType
	Severities  []Severity
	AgentID     string
	UserID      string
	DocumentID  string
	SuccessOnly bool
	Offset      int
	Limit       int
}

// Matches reports whether r satisfies every filter of q. Pagination is ignored.
func (q Query) Matches(r *Record) bool {
	if q.StartTime != nil && r.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && !r.Timestamp.Before(*q.EndTime) {
		return false
	}
	if len(q.EventTypes) > 0 && !contains(q.EventTypes, r.EventType) {
		return false
	}
	if len(q.Severities) > 0 && !contains(q.Severities, r.Severity) {
		return false
	}
	if q.AgentID != "" && r.AgentID != q.AgentID {
		return false
	}
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if q.DocumentID != "" && r.DocumentID != q.DocumentID {
		return false
	}
	if q.SuccessOnly && !r.Success {
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// VerificationResult describes the outcome of walking a segment of the chain.
// When Valid is false, FailedSequence and FailedRecordID point at the first
// record that did not verify.
type VerificationResult struct {
	Valid          bool
	Checked        int64
	Total          int64
	FailedSequence int64
	FailedRecordID uuid.UUID
	Reason         string
}

// VerifiedPercent is the share of the walked segment that verified before the first failure.
func (v *VerificationResult) VerifiedPercent() float64 {
	if v.Total == 0 {
		return 100
	}
	verified := v.Checked
	if !v.Valid {
		verified = v.Checked - 1
	}
	return float64(verified) / float64(v.Total) * 100
}
