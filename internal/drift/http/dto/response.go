package dto

import (
	"time"

	"github.com/allisson/occam/internal/drift/domain"
)

// AuthorityResponse represents the authoritative source of a check.
type AuthorityResponse struct {
	AuthorityID       string    `json:"authority_id"`
	Timestamp         time.Time `json:"timestamp"`
	SourceContentHash string    `json:"source_content_hash"`
}

// CheckResponse represents a drift check in API responses.
type CheckResponse struct {
	ID         string            `json:"id"`
	ClauseID   string            `json:"clause_id"`
	DocumentID string            `json:"document_id"`
	Score      float64           `json:"score"`
	Threshold  float64           `json:"threshold"`
	Blocked    bool              `json:"blocked"`
	RiskLevel  string            `json:"risk_level"`
	Reason     string            `json:"reason"`
	Authority  AuthorityResponse `json:"authority"`
	Action     string            `json:"action"`
	JobID      *string           `json:"job_id,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// MapCheckToResponse converts a domain check to an API response.
func MapCheckToResponse(check *domain.Check) CheckResponse {
	response := CheckResponse{
		ID:         check.ID.String(),
		ClauseID:   check.ClauseID,
		DocumentID: check.DocumentID,
		Score:      check.Score,
		Threshold:  check.Threshold,
		Blocked:    check.Blocked,
		RiskLevel:  string(check.RiskLevel),
		Reason:     check.Reason,
		Authority: AuthorityResponse{
			AuthorityID:       check.Authority.AuthorityID,
			Timestamp:         check.Authority.Timestamp,
			SourceContentHash: check.Authority.SourceContentHash,
		},
		Action:    string(check.Action),
		CheckedAt: check.CheckedAt,
	}
	if check.JobID != nil {
		jobID := check.JobID.String()
		response.JobID = &jobID
	}
	return response
}

func mapChecks(checks []*domain.Check) []CheckResponse {
	responses := make([]CheckResponse, 0, len(checks))
	for _, check := range checks {
		responses = append(responses, MapCheckToResponse(check))
	}
	return responses
}

// EvaluateResponse is the outcome of a drift evaluation.
type EvaluateResponse struct {
	Checks  []CheckResponse `json:"checks"`
	Blocked bool            `json:"blocked"`
	JobID   *string         `json:"job_id,omitempty"`
}

// MapBatchResultToResponse converts a batch result to an API response.
func MapBatchResultToResponse(result *domain.BatchResult) EvaluateResponse {
	response := EvaluateResponse{
		Checks:  mapChecks(result.Checks),
		Blocked: len(result.Blocked()) > 0,
	}
	if result.JobID != nil {
		jobID := result.JobID.String()
		response.JobID = &jobID
	}
	return response
}

// AnalysisResponse represents a drift analysis in API responses.
type AnalysisResponse struct {
	PeriodStart        time.Time       `json:"period_start"`
	PeriodEnd          time.Time       `json:"period_end"`
	TotalClauses       int             `json:"total_clauses"`
	ClausesWithDrift   int             `json:"clauses_with_drift"`
	DriftRate          float64         `json:"drift_rate"`
	AverageDriftScore  float64         `json:"average_drift_score"`
	CriticalDriftCases []CheckResponse `json:"critical_drift_cases"`
	RiskLevels         map[string]int  `json:"risk_levels"`
	PreviousDriftRate  float64         `json:"previous_drift_rate"`
	DriftTrend         string          `json:"drift_trend"`
}

// MapAnalysisToResponse converts a domain analysis to an API response.
func MapAnalysisToResponse(analysis *domain.Analysis) AnalysisResponse {
	riskLevels := make(map[string]int, len(analysis.RiskLevels))
	for level, count := range analysis.RiskLevels {
		riskLevels[string(level)] = count
	}
	return AnalysisResponse{
		PeriodStart:        analysis.PeriodStart,
		PeriodEnd:          analysis.PeriodEnd,
		TotalClauses:       analysis.TotalClauses,
		ClausesWithDrift:   analysis.ClausesWithDrift,
		DriftRate:          analysis.DriftRate,
		AverageDriftScore:  analysis.AverageDriftScore,
		CriticalDriftCases: mapChecks(analysis.CriticalDriftCases),
		RiskLevels:         riskLevels,
		PreviousDriftRate:  analysis.PreviousDriftRate,
		DriftTrend:         string(analysis.DriftTrend),
	}
}
