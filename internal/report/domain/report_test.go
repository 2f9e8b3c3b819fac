package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	driftDomain "github.com/allisson/occam/internal/drift/domain"
	sloDomain "github.com/allisson/occam/internal/slo/domain"
)

var (
	periodStart = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC)
)

func validation(seq int64, document string, success bool) *auditDomain.Record {
	return &auditDomain.Record{
		Sequence:   seq,
		Timestamp:  periodStart.Add(time.Duration(seq) * time.Hour),
		EventType:  auditDomain.EventTypeValidation,
		DocumentID: document,
		AgentID:    "compliance-agent",
		Success:    success,
	}
}

func testInputs() Inputs {
	checkID := uuid.MustParse("0190a8e4-0000-7000-8000-000000000001")
	return Inputs{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		ValidationRecords: []*auditDomain.Record{
			validation(1, "doc-1", false),
			validation(2, "doc-2", true),
			validation(3, "doc-1", true),
			validation(4, "doc-3", false),
			validation(5, "doc-4", true),
		},
		Chain: &auditDomain.VerificationResult{Valid: true, Checked: 42, Total: 42},
		Drift: &driftDomain.Analysis{
			TotalClauses:      8,
			ClausesWithDrift:  2,
			DriftRate:         0.25,
			AverageDriftScore: 0.7,
			PreviousDriftRate: 0.125,
			DriftTrend:        driftDomain.TrendDegrading,
			CriticalDriftCases: []*driftDomain.Check{{
				ID:         checkID,
				DocumentID: "doc-3",
				ClauseID:   "c-9",
				Score:      0.6,
				Threshold:  0.85,
				RiskLevel:  driftDomain.RiskCritical,
				Action:     driftDomain.ActionReverificationTriggered,
				CheckedAt:  periodStart.Add(30 * time.Hour),
			}},
			RiskLevels: map[driftDomain.RiskLevel]int{
				driftDomain.RiskNone:     6,
				driftDomain.RiskMedium:   1,
				driftDomain.RiskCritical: 1,
			},
		},
		SLO: sloDomain.NewComplianceStatus([]sloDomain.Metric{
			{Name: "Retrieval Latency", Target: 2500, Actual: 1850, Unit: "ms", Compliant: true, Trend: sloDomain.TrendStable},
			{Name: "CPU Utilization", Target: 80, Actual: 92, Unit: "%", Trend: sloDomain.TrendDegrading},
		}, periodEnd),
	}
}

func TestBuild(t *testing.T) {
	report := Build(testInputs(), Options{DriftRateAlert: 0.10})

	assert.Equal(t, periodStart, report.PeriodStart)
	assert.Equal(t, periodEnd, report.PeriodEnd)
	assert.Equal(t, Summary{
		TotalDocuments:      4,
		VerifiedDocuments:   3,
		FailedDocuments:     1,
		ComplianceAccuracy:  75,
		ValidationRecords:   5,
		ChainValid:          true,
		ChainRecordsChecked: 42,
	}, report.Summary)

	require.Len(t, report.ValidationResults, 4)
	assert.Equal(t, "doc-1", report.ValidationResults[0].DocumentID)
	assert.True(t, report.ValidationResults[0].Verified)

	assert.Equal(t, 0.25, report.DriftAnalysis.DriftRate)
	assert.Equal(t, "degrading", report.DriftAnalysis.Trend)
	require.Len(t, report.DriftAnalysis.CriticalCases, 1)
	assert.Equal(t, "0190a8e4-0000-7000-8000-000000000001", report.DriftAnalysis.CriticalCases[0].CheckID)
	assert.Equal(t, map[string]int{"none": 6, "medium": 1, "critical": 1}, report.RiskLevels)

	assert.False(t, report.SLOCompliance.OverallCompliance)
	assert.Equal(t, []string{"CPU Utilization"}, report.SLOCompliance.ViolatedSLOs)
	assert.Len(t, report.SLOCompliance.Metrics, 2)

	require.Len(t, report.Recommendations, 2)
	assert.Equal(t, "slo", report.Recommendations[0].Category)
	assert.Equal(t, "CPU Utilization is out of target: actual 92.00% against 80.00%", report.Recommendations[0].Message)
	assert.Equal(t, "drift", report.Recommendations[1].Category)
	assert.Contains(t, report.Recommendations[1].Message, "25.0%")

	assert.Empty(t, report.Checksum)
	assert.Equal(t, uuid.Nil, report.ID)
}

func TestBuild_EmptyPeriod(t *testing.T) {
	report := Build(Inputs{PeriodStart: periodStart, PeriodEnd: periodEnd}, Options{DriftRateAlert: 0.10})

	assert.Equal(t, 0.0, report.Summary.ComplianceAccuracy)
	assert.Equal(t, 0, report.Summary.TotalDocuments)
	assert.False(t, report.Summary.ChainValid)
	assert.NotNil(t, report.ValidationResults)
	assert.NotNil(t, report.DriftAnalysis.CriticalCases)
	assert.NotNil(t, report.RiskLevels)
	assert.NotNil(t, report.SLOCompliance.ViolatedSLOs)
	assert.Empty(t, report.Recommendations)
}

func TestRecommend_BrokenChain(t *testing.T) {
	in := testInputs()
	in.Chain = &auditDomain.VerificationResult{Checked: 7, Total: 42, FailedSequence: 7, Reason: "hash mismatch"}
	in.SLO = sloDomain.NewComplianceStatus(nil, periodEnd)
	in.Drift.DriftRate = 0.05

	report := Build(in, Options{DriftRateAlert: 0.10})

	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, Recommendation{
		Category: "audit",
		Priority: PriorityCritical,
		Message:  "audit chain failed verification at sequence 7 (hash mismatch); investigate tampering before relying on the trail",
	}, report.Recommendations[0])
	assert.False(t, report.Summary.ChainValid)
}

func TestRecommend_DriftAtAlertLevel(t *testing.T) {
	in := testInputs()
	in.Drift.DriftRate = 0.10

	report := Build(in, Options{DriftRateAlert: 0.10})

	for _, r := range report.Recommendations {
		assert.NotEqual(t, "drift", r.Category)
	}
}

func TestSeal(t *testing.T) {
	report := Build(testInputs(), Options{DriftRateAlert: 0.10})
	id := uuid.Must(uuid.NewV7())
	generatedAt := time.Date(2026, 6, 8, 2, 0, 0, 0, time.FixedZone("BRT", -3*60*60))

	require.NoError(t, Seal(report, id, generatedAt, 7*24*time.Hour))

	assert.Equal(t, id, report.ID)
	assert.Equal(t, generatedAt.UTC(), report.GeneratedAt)
	assert.Equal(t, generatedAt.UTC().Add(7*24*time.Hour), report.NextScheduledAudit)
	assert.Len(t, report.Checksum, 64)

	ok, err := VerifyChecksum(report)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChecksum_RegenerationIsIdempotent(t *testing.T) {
	first := Build(testInputs(), Options{DriftRateAlert: 0.10})
	second := Build(testInputs(), Options{DriftRateAlert: 0.10})

	require.NoError(t, Seal(first, uuid.Must(uuid.NewV7()), time.Now(), time.Hour))
	require.NoError(t, Seal(second, uuid.Must(uuid.NewV7()), time.Now().Add(time.Minute), 2*time.Hour))

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestChecksum_DetectsTampering(t *testing.T) {
	report := Build(testInputs(), Options{DriftRateAlert: 0.10})
	require.NoError(t, Seal(report, uuid.Must(uuid.NewV7()), time.Now(), time.Hour))

	report.Summary.VerifiedDocuments = 4

	ok, err := VerifyChecksum(report)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecksum_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("identical inputs seal to the same checksum", prop.ForAll(
		func(outcomes []bool, driftRate float64) bool {
			build := func() *Report {
				in := testInputs()
				in.ValidationRecords = nil
				for i, ok := range outcomes {
					in.ValidationRecords = append(in.ValidationRecords, validation(int64(i+1), fmt.Sprintf("doc-%d", i%5), ok))
				}
				in.Drift.DriftRate = driftRate
				return Build(in, Options{DriftRateAlert: 0.10})
			}

			a, b := build(), build()
			if Seal(a, uuid.Must(uuid.NewV7()), time.Now(), time.Hour) != nil {
				return false
			}
			if Seal(b, uuid.Must(uuid.NewV7()), time.Now(), time.Hour) != nil {
				return false
			}
			return a.Checksum == b.Checksum
		},
		gen.SliceOf(gen.Bool()),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
