// Package dto provides data transfer objects for the audit trail HTTP API.
package dto

import (
	"time"

	"github.com/allisson/occam/internal/audit/domain"
)

// RecordResponse represents an audit record in API responses.
type RecordResponse struct {
	ID              string         `json:"id"`
	Sequence        int64          `json:"sequence"`
	Timestamp       time.Time      `json:"timestamp"`
	EventType       string         `json:"event_type"`
	Severity        string         `json:"severity"`
	AgentID         string         `json:"agent_id,omitempty"`
	UserID          string         `json:"user_id,omitempty"`
	DocumentID      string         `json:"document_id,omitempty"`
	ClauseID        string         `json:"clause_id,omitempty"`
	Action          string         `json:"action,omitempty"`
	Details         string         `json:"details,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	PreviousHash    string         `json:"previous_hash"`
	CurrentHash     string         `json:"current_hash"`
	Success         bool           `json:"success"`
	LatencyMs       int64          `json:"latency_ms"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
}

// MapRecordToResponse converts a domain record to an API response.
func MapRecordToResponse(record *domain.Record) RecordResponse {
	return RecordResponse{
		ID:              record.ID.String(),
		Sequence:        record.Sequence,
		Timestamp:       record.Timestamp,
		EventType:       string(record.EventType),
		Severity:        string(record.Severity),
		AgentID:         record.AgentID,
		UserID:          record.UserID,
		DocumentID:      record.DocumentID,
		ClauseID:        record.ClauseID,
		Action:          record.Action,
		Details:         record.Details,
		Metadata:        record.Metadata,
		PreviousHash:    record.PreviousHash,
		CurrentHash:     record.CurrentHash,
		Success:         record.Success,
		LatencyMs:       record.LatencyMs,
		ConfidenceScore: record.ConfidenceScore,
		ErrorMessage:    record.ErrorMessage,
	}
}

// ListRecordsResponse represents a page of audit records.
type ListRecordsResponse struct {
	Data []RecordResponse `json:"data"`
}

// MapRecordsToListResponse converts domain records to a list API response.
func MapRecordsToListResponse(records []*domain.Record) ListRecordsResponse {
	responses := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, MapRecordToResponse(record))
	}
	return ListRecordsResponse{Data: responses}
}

// VerificationResponse reports the outcome of a chain verification.
type VerificationResponse struct {
	Valid          bool    `json:"valid"`
	Checked        int64   `json:"checked"`
	Total          int64   `json:"total"`
	VerifiedPct    float64 `json:"verified_percent"`
	FailedSequence int64   `json:"failed_sequence,omitempty"`
	FailedRecordID string  `json:"failed_record_id,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// MapVerificationToResponse converts a verification result to an API response.
func MapVerificationToResponse(result *domain.VerificationResult) VerificationResponse {
	response := VerificationResponse{
		Valid:       result.Valid,
		Checked:     result.Checked,
		Total:       result.Total,
		VerifiedPct: result.VerifiedPercent(),
		Reason:      result.Reason,
	}
	if !result.Valid {
		response.FailedSequence = result.FailedSequence
		response.FailedRecordID = result.FailedRecordID.String()
	}
	return response
}
