// Package domain defines drift checks: the classification of a clause's
// similarity to its authoritative source against a policy threshold.
package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// RiskLevel grades how far a clause drifted below the threshold.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels from none (0) to critical (4).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// Action is what the detector did with a check.
type Action string

const (
	ActionNone                    Action = "none"
	ActionFlagged                 Action = "flagged"
	ActionBlocked                 Action = "blocked"
	ActionReverificationTriggered Action = "re-verification-triggered"
)

// Trend compares the drift rate of a period with the previous one.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// Authority references the authoritative source a clause is compared with.
type Authority struct {
	AuthorityID       string
	Timestamp         time.Time
	SourceContentHash string
}

// Check is the immutable record of one clause evaluation.
type Check struct {
	ID         uuid.UUID
	ClauseID   string
	DocumentID string
	Score      float64
	Threshold  float64
	Blocked    bool
	RiskLevel  RiskLevel
	Reason     string
	Authority  Authority
	Action     Action
	JobID      *uuid.UUID
	CheckedAt  time.Time

	// CurrentContent and SourceContent are the texts that were scored, kept so
	// the clause can be scored again during re-verification.
	CurrentContent string
	SourceContent  string
}

// Drifted reports whether the check counts as drift (score below threshold).
func (c *Check) Drifted() bool {
	return c.Blocked
}

// Policy holds the thresholds a score is classified against.
type Policy struct {
	Threshold     float64
	WarningMargin float64
}

// Classification is the outcome of applying a Policy to a score.
type Classification struct {
	Blocked   bool
	RiskLevel RiskLevel
	Action    Action
	Reason    string
}

// Classify applies the policy to score. Scores below the threshold are blocked
// with a risk level bucketed by the gap; scores within the warning margin above
// the threshold are flagged.
func (p Policy) Classify(score float64) Classification {
	if score < p.Threshold {
		gap := roundGap(p.Threshold - score)
		return Classification{
			Blocked:   true,
			RiskLevel: RiskForGap(gap),
			Action:    ActionBlocked,
			Reason: fmt.Sprintf(
				"similarity %.4f is below threshold %.4f by %.4f", score, p.Threshold, gap,
			),
		}
	}
	if roundGap(score-p.Threshold) < p.WarningMargin {
		return Classification{
			RiskLevel: RiskLow,
			Action:    ActionFlagged,
			Reason: fmt.Sprintf(
				"similarity %.4f is within %.4f of threshold %.4f", score, p.WarningMargin, p.Threshold,
			),
		}
	}
	return Classification{
		RiskLevel: RiskNone,
		Action:    ActionNone,
		Reason:    fmt.Sprintf("similarity %.4f meets threshold %.4f", score, p.Threshold),
	}
}

// gapPrecision absorbs float subtraction error so that 0.85-0.80 lands on
// the 0.05 boundary instead of just under it.
const gapPrecision = 1e9

func roundGap(gap float64) float64 {
	return math.Round(gap*gapPrecision) / gapPrecision
}

// RiskForGap buckets the distance below the threshold. Bucket bounds are
// exclusive upper limits: a gap of exactly 0.05 is medium.
func RiskForGap(gap float64) RiskLevel {
	gap = roundGap(gap)
	switch {
	case gap < 0.05:
		return RiskLow
	case gap < 0.10:
		return RiskMedium
	case gap < 0.20:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ClauseInput is a clause to evaluate against its authoritative source.
type ClauseInput struct {
	ClauseID       string
	DocumentID     string
	CurrentContent string
	SourceContent  string
	Authority      Authority
}

// BatchResult is the outcome of evaluating a set of clauses.
type BatchResult struct {
	Checks []*Check
	JobID  *uuid.UUID
}

// Blocked returns the blocked checks of the batch.
func (b *BatchResult) Blocked() []*Check {
	var blocked []*Check
	for _, check := range b.Checks {
		if check.Blocked {
			blocked = append(blocked, check)
		}
	}
	return blocked
}

// Analysis aggregates the drift checks of a period.
type Analysis struct {
	PeriodStart        time.Time
	PeriodEnd          time.Time
	TotalClauses       int
	ClausesWithDrift   int
	DriftRate          float64
	AverageDriftScore  float64
	CriticalDriftCases []*Check
	RiskLevels         map[RiskLevel]int
	PreviousDriftRate  float64
	DriftTrend         Trend
}
