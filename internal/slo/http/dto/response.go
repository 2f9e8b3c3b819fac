package dto

import (
	"time"

	"github.com/allisson/occam/internal/slo/domain"
)

// MetricResponse represents one evaluated SLO in API responses.
type MetricResponse struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Target       float64   `json:"target"`
	Actual       float64   `json:"actual"`
	Unit         string    `json:"unit"`
	Direction    string    `json:"direction"`
	Compliant    bool      `json:"compliant"`
	Trend        string    `json:"trend"`
	LastMeasured time.Time `json:"last_measured"`
	Error        string    `json:"error,omitempty"`
}

// StatusResponse represents a monitoring cycle in API responses.
type StatusResponse struct {
	Metrics           []MetricResponse `json:"metrics"`
	OverallCompliance bool             `json:"overall_compliance"`
	ViolatedSLOs      []string         `json:"violated_slos"`
	EvaluatedAt       time.Time        `json:"evaluated_at"`
}

// MapStatusToResponse converts a compliance status to an API response.
func MapStatusToResponse(status *domain.ComplianceStatus) StatusResponse {
	metrics := make([]MetricResponse, 0, len(status.Metrics))
	for _, m := range status.Metrics {
		metrics = append(metrics, MetricResponse{
			Key:          m.Key,
			Name:         m.Name,
			Target:       m.Target,
			Actual:       m.Actual,
			Unit:         m.Unit,
			Direction:    string(m.Direction),
			Compliant:    m.Compliant,
			Trend:        string(m.Trend),
			LastMeasured: m.LastMeasured,
			Error:        m.Error,
		})
	}

	violated := status.ViolatedSLOs
	if violated == nil {
		violated = make([]string, 0)
	}

	return StatusResponse{
		Metrics:           metrics,
		OverallCompliance: status.OverallCompliance,
		ViolatedSLOs:      violated,
		EvaluatedAt:       status.EvaluatedAt,
	}
}
