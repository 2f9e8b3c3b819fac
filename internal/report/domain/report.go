// Package domain defines the compliance integrity report: a sealed summary of
// validations, drift, SLO status and audit chain integrity over a period.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	driftDomain "github.com/allisson/occam/internal/drift/domain"
	sloDomain "github.com/allisson/occam/internal/slo/domain"
)

// Summary holds the headline counts of a report.
type Summary struct {
	TotalDocuments      int     `json:"total_documents"`
	VerifiedDocuments   int     `json:"verified_documents"`
	FailedDocuments     int     `json:"failed_documents"`
	ComplianceAccuracy  float64 `json:"compliance_accuracy"`
	ValidationRecords   int     `json:"validation_records"`
	ChainValid          bool    `json:"chain_valid"`
	ChainRecordsChecked int64   `json:"chain_records_checked"`
}

// ValidationResult is the latest validation outcome of a document in the period.
type ValidationResult struct {
	DocumentID  string    `json:"document_id"`
	Verified    bool      `json:"verified"`
	AgentID     string    `json:"agent_id"`
	ValidatedAt time.Time `json:"validated_at"`
}

// DriftCase is a critical drift case listed in a report.
type DriftCase struct {
	CheckID    string    `json:"check_id"`
	DocumentID string    `json:"document_id"`
	ClauseID   string    `json:"clause_id"`
	Score      float64   `json:"score"`
	Threshold  float64   `json:"threshold"`
	RiskLevel  string    `json:"risk_level"`
	Action     string    `json:"action"`
	CheckedAt  time.Time `json:"checked_at"`
}

// DriftAnalysis is the drift aggregate of the period.
type DriftAnalysis struct {
	TotalClauses      int         `json:"total_clauses"`
	ClausesWithDrift  int         `json:"clauses_with_drift"`
	DriftRate         float64     `json:"drift_rate"`
	AverageDriftScore float64     `json:"average_drift_score"`
	PreviousDriftRate float64     `json:"previous_drift_rate"`
	Trend             string      `json:"trend"`
	CriticalCases     []DriftCase `json:"critical_cases"`
}

// SLOResult is one SLO as of report generation.
type SLOResult struct {
	Name      string  `json:"name"`
	Target    float64 `json:"target"`
	Actual    float64 `json:"actual"`
	Unit      string  `json:"unit"`
	Compliant bool    `json:"compliant"`
	Trend     string  `json:"trend"`
}

// SLOCompliance is the SLO status as of report generation.
type SLOCompliance struct {
	OverallCompliance bool        `json:"overall_compliance"`
	ViolatedSLOs      []string    `json:"violated_slos"`
	Metrics           []SLOResult `json:"metrics"`
}

// Recommendation priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
)

// Recommendation is a rule-based follow-up action.
type Recommendation struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// Report is a compliance integrity report. It is immutable once sealed.
type Report struct {
	ID                 uuid.UUID          `json:"id"`
	PeriodStart        time.Time          `json:"period_start"`
	PeriodEnd          time.Time          `json:"period_end"`
	GeneratedAt        time.Time          `json:"generated_at"`
	Summary            Summary            `json:"summary"`
	ValidationResults  []ValidationResult `json:"validation_results"`
	DriftAnalysis      DriftAnalysis      `json:"drift_analysis"`
	RiskLevels         map[string]int     `json:"risk_levels"`
	SLOCompliance      SLOCompliance      `json:"slo_compliance"`
	Recommendations    []Recommendation   `json:"recommendations"`
	NextScheduledAudit time.Time          `json:"next_scheduled_audit"`
	Checksum           string             `json:"checksum"`
}

// Inputs are the collected facts a report is built from.
type Inputs struct {
	PeriodStart       time.Time
	PeriodEnd         time.Time
	ValidationRecords []*auditDomain.Record
	Chain             *auditDomain.VerificationResult
	Drift             *driftDomain.Analysis
	SLO               *sloDomain.ComplianceStatus
}

// Options tune the recommendation rules.
type Options struct {
	// DriftRateAlert is the drift rate above which drift is recommended for review.
	DriftRateAlert float64
}

// Build assembles the report body from inputs. ID, GeneratedAt,
// NextScheduledAudit and Checksum are left for the caller.
func Build(in Inputs, opts Options) *Report {
	validations := auditDomain.LatestValidations(in.ValidationRecords)
	accuracy, verified := auditDomain.ComplianceAccuracy(validations)

	report := &Report{
		PeriodStart: in.PeriodStart.UTC(),
		PeriodEnd:   in.PeriodEnd.UTC(),
		Summary: Summary{
			TotalDocuments:     len(validations),
			VerifiedDocuments:  verified,
			FailedDocuments:    len(validations) - verified,
			ComplianceAccuracy: accuracy,
			ValidationRecords:  countValidations(in.ValidationRecords),
			ChainValid:         in.Chain != nil && in.Chain.Valid,
		},
		ValidationResults: make([]ValidationResult, 0, len(validations)),
		RiskLevels:        make(map[string]int),
		SLOCompliance: SLOCompliance{
			ViolatedSLOs: make([]string, 0),
			Metrics:      make([]SLOResult, 0),
		},
		DriftAnalysis: DriftAnalysis{CriticalCases: make([]DriftCase, 0)},
	}
	if in.Chain != nil {
		report.Summary.ChainRecordsChecked = in.Chain.Checked
	}

	for _, v := range validations {
		report.ValidationResults = append(report.ValidationResults, ValidationResult{
			DocumentID:  v.DocumentID,
			Verified:    v.Verified,
			AgentID:     v.AgentID,
			ValidatedAt: v.ValidatedAt.UTC(),
		})
	}

	if in.Drift != nil {
		report.DriftAnalysis = mapDrift(in.Drift)
		for level, count := range in.Drift.RiskLevels {
			report.RiskLevels[string(level)] = count
		}
	}

	if in.SLO != nil {
		report.SLOCompliance.OverallCompliance = in.SLO.OverallCompliance
		report.SLOCompliance.ViolatedSLOs = append(report.SLOCompliance.ViolatedSLOs, in.SLO.ViolatedSLOs...)
		for _, m := range in.SLO.Metrics {
			report.SLOCompliance.Metrics = append(report.SLOCompliance.Metrics, SLOResult{
				Name:      m.Name,
				Target:    m.Target,
				Actual:    m.Actual,
				Unit:      m.Unit,
				Compliant: m.Compliant,
				Trend:     string(m.Trend),
			})
		}
	}

	report.Recommendations = Recommend(report, in.Chain, opts)
	return report
}

func countValidations(records []*auditDomain.Record) int {
	n := 0
	for _, r := range records {
		if r.EventType == auditDomain.EventTypeValidation {
			n++
		}
	}
	return n
}

func mapDrift(a *driftDomain.Analysis) DriftAnalysis {
	drift := DriftAnalysis{
		TotalClauses:      a.TotalClauses,
		ClausesWithDrift:  a.ClausesWithDrift,
		DriftRate:         a.DriftRate,
		AverageDriftScore: a.AverageDriftScore,
		PreviousDriftRate: a.PreviousDriftRate,
		Trend:             string(a.DriftTrend),
		CriticalCases:     make([]DriftCase, 0, len(a.CriticalDriftCases)),
	}
	for _, c := range a.CriticalDriftCases {
		drift.CriticalCases = append(drift.CriticalCases, DriftCase{
			CheckID:    c.ID.String(),
			DocumentID: c.DocumentID,
			ClauseID:   c.ClauseID,
			Score:      c.Score,
			Threshold:  c.Threshold,
			RiskLevel:  string(c.RiskLevel),
			Action:     string(c.Action),
			CheckedAt:  c.CheckedAt.UTC(),
		})
	}
	return drift
}

// Recommend derives follow-up actions: one per violated SLO, one when the
// drift rate exceeds the alert level and one when the audit chain failed.
func Recommend(report *Report, chain *auditDomain.VerificationResult, opts Options) []Recommendation {
	recommendations := make([]Recommendation, 0)

	for _, name := range report.SLOCompliance.ViolatedSLOs {
		message := fmt.Sprintf("%s is out of target", name)
		for _, m := range report.SLOCompliance.Metrics {
			if m.Name == name {
				message = fmt.Sprintf("%s is out of target: actual %.2f%s against %.2f%s",
					name, m.Actual, m.Unit, m.Target, m.Unit)
				break
			}
		}
		recommendations = append(recommendations, Recommendation{
			Category: "slo",
			Priority: PriorityHigh,
			Message:  message,
		})
	}

	if report.DriftAnalysis.DriftRate > opts.DriftRateAlert {
		recommendations = append(recommendations, Recommendation{
			Category: "drift",
			Priority: PriorityHigh,
			Message: fmt.Sprintf(
				"drift rate %.1f%% exceeds the %.1f%% alert level; re-verify the %d drifted clauses",
				report.DriftAnalysis.DriftRate*100, opts.DriftRateAlert*100, report.DriftAnalysis.ClausesWithDrift,
			),
		})
	}

	if chain != nil && !chain.Valid {
		recommendations = append(recommendations, Recommendation{
			Category: "audit",
			Priority: PriorityCritical,
			Message: fmt.Sprintf(
				"audit chain failed verification at sequence %d (%s); investigate tampering before relying on the trail",
				chain.FailedSequence, chain.Reason,
			),
		})
	}

	return recommendations
}

// sealExcluded are the fields that vary between regenerations of the same report.
var sealExcluded = []string{"id", "generated_at", "next_scheduled_audit", "checksum"}

// ComputeChecksum returns hex(SHA-256(JCS(report minus ID, GeneratedAt,
// NextScheduledAudit and Checksum))).
func ComputeChecksum(report *Report) (string, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("failed to decode report: %w", err)
	}
	for _, key := range sealExcluded {
		delete(body, key)
	}

	raw, err = json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode report body: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize report: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Seal stamps identity and schedule on the report and computes its checksum.
func Seal(report *Report, id uuid.UUID, generatedAt time.Time, interval time.Duration) error {
	report.ID = id
	report.GeneratedAt = generatedAt.UTC()
	report.NextScheduledAudit = report.GeneratedAt.Add(interval)

	checksum, err := ComputeChecksum(report)
	if err != nil {
		return err
	}
	report.Checksum = checksum
	return nil
}

// VerifyChecksum reports whether the stored checksum still matches the report.
func VerifyChecksum(report *Report) (bool, error) {
	checksum, err := ComputeChecksum(report)
	if err != nil {
		return false, err
	}
	return checksum == report.Checksum, nil
}
