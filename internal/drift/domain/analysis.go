package domain

import (
	"cmp"
	"slices"
	"time"
)

// AnalysisOptions tunes Analyze.
type AnalysisOptions struct {
	TrendEpsilon     float64
	MaxCriticalCases int
}

// Analyze aggregates the checks of [start, end) and compares the drift rate with
// the checks of the preceding period. Only the latest check of each clause counts.
func Analyze(current, previous []*Check, start, end time.Time, opts AnalysisOptions) *Analysis {
	latest := LatestPerClause(current)

	analysis := &Analysis{
		PeriodStart:        start,
		PeriodEnd:          end,
		TotalClauses:       len(latest),
		CriticalDriftCases: make([]*Check, 0),
		RiskLevels:         make(map[RiskLevel]int),
	}

	var drifted []*Check
	var scoreSum float64
	for _, check := range latest {
		analysis.RiskLevels[check.RiskLevel]++
		if check.Drifted() {
			drifted = append(drifted, check)
			scoreSum += check.Score
		}
	}

	analysis.ClausesWithDrift = len(drifted)
	analysis.DriftRate = DriftRate(len(drifted), len(latest))
	if len(drifted) > 0 {
		analysis.AverageDriftScore = scoreSum / float64(len(drifted))
	}

	slices.SortStableFunc(drifted, func(a, b *Check) int {
		if c := cmp.Compare(b.RiskLevel.Rank(), a.RiskLevel.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.Score, b.Score)
	})
	limit := len(drifted)
	if opts.MaxCriticalCases > 0 && limit > opts.MaxCriticalCases {
		limit = opts.MaxCriticalCases
	}
	analysis.CriticalDriftCases = append(analysis.CriticalDriftCases, drifted[:limit]...)

	previousLatest := LatestPerClause(previous)
	previousDrifted := 0
	for _, check := range previousLatest {
		if check.Drifted() {
			previousDrifted++
		}
	}
	analysis.PreviousDriftRate = DriftRate(previousDrifted, len(previousLatest))
	analysis.DriftTrend = CompareRates(analysis.DriftRate, analysis.PreviousDriftRate, opts.TrendEpsilon)

	return analysis
}

// DriftRate is drifted/total, or 0 when there are no clauses.
func DriftRate(drifted, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(drifted) / float64(total)
}

// CompareRates classifies the move from previous to current drift rate.
// A lower rate is an improvement; moves within epsilon are stable.
func CompareRates(current, previous, epsilon float64) Trend {
	switch {
	case current < previous-epsilon:
		return TrendImproving
	case current > previous+epsilon:
		return TrendDegrading
	default:
		return TrendStable
	}
}

// LatestPerClause keeps the most recent check of each document clause, in
// first-seen order.
func LatestPerClause(checks []*Check) []*Check {
	type clauseKey struct{ document, clause string }

	index := make(map[clauseKey]int, len(checks))
	latest := make([]*Check, 0, len(checks))
	for _, check := range checks {
		key := clauseKey{check.DocumentID, check.ClauseID}
		if i, seen := index[key]; seen {
			if !check.CheckedAt.Before(latest[i].CheckedAt) {
				latest[i] = check
			}
			continue
		}
		index[key] = len(latest)
		latest = append(latest, check)
	}
	return latest
}
