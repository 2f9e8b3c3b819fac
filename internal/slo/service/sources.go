package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	auditUsecase "github.com/allisson/occam/internal/audit/usecase"
	"github.com/allisson/occam/internal/slo/domain"
)

// Gauge holds the last value reported by an external system, such as the CI
// build time or the host CPU utilization.
type Gauge struct {
	mu    sync.RWMutex
	value float64
	at    time.Time
	set   bool
}

// NewGauge creates an empty gauge.
func NewGauge() *Gauge {
	return &Gauge{}
}

// Set stores a reported value.
func (g *Gauge) Set(value float64, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.value = value
	g.at = at
	g.set = true
}

// Measure returns the last reported value, or domain.ErrNoMeasurement.
func (g *Gauge) Measure(ctx context.Context) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.set {
		return 0, domain.ErrNoMeasurement
	}
	return g.value, nil
}

// MemorySource reports the process memory held from the OS as a percentage of a budget.
type MemorySource struct {
	limitBytes   int64
	readMemStats func(*runtime.MemStats)
}

// NewMemorySource creates a source measuring against limitBytes.
func NewMemorySource(limitBytes int64) *MemorySource {
	return &MemorySource{
		limitBytes:   limitBytes,
		readMemStats: runtime.ReadMemStats,
	}
}

// Measure returns (Sys - HeapReleased) / limit * 100.
func (m *MemorySource) Measure(ctx context.Context) (float64, error) {
	if m.limitBytes <= 0 {
		return 0, fmt.Errorf("memory limit must be positive, got %d", m.limitBytes)
	}

	var stats runtime.MemStats
	m.readMemStats(&stats)
	used := stats.Sys - stats.HeapReleased
	return float64(used) / float64(m.limitBytes) * 100, nil
}

// ChainVerifier verifies the audit chain with diagnostics.
type ChainVerifier interface {
	VerifyAuditChainDetailed(ctx context.Context, startHash, endHash string) (*auditDomain.VerificationResult, error)
}

// ChainSource reports the share of the audit chain that verifies.
type ChainSource struct {
	verifier ChainVerifier
}

// NewChainSource creates a source backed by verifier.
func NewChainSource(verifier ChainVerifier) *ChainSource {
	return &ChainSource{verifier: verifier}
}

// Measure walks the whole retained chain.
func (c *ChainSource) Measure(ctx context.Context) (float64, error) {
	result, err := c.verifier.VerifyAuditChainDetailed(ctx, "", "")
	if err != nil {
		return 0, fmt.Errorf("failed to verify audit chain: %w", err)
	}
	return result.VerifiedPercent(), nil
}

// AccuracySource reports the share of documents whose latest validation in
// the window succeeded.
type AccuracySource struct {
	reader auditUsecase.TrailReader
	window time.Duration
	clock  func() time.Time
}

// NewAccuracySource creates a source reading validation records from the last window.
func NewAccuracySource(reader auditUsecase.TrailReader, window time.Duration) *AccuracySource {
	return &AccuracySource{
		reader: reader,
		window: window,
		clock:  time.Now,
	}
}

// Measure returns the compliance accuracy, or domain.ErrNoMeasurement when no
// document was validated in the window.
func (a *AccuracySource) Measure(ctx context.Context) (float64, error) {
	start := a.clock().UTC().Add(-a.window)
	records, err := auditUsecase.ReadAll(ctx, a.reader, auditDomain.Query{
		StartTime:  &start,
		EventTypes: []auditDomain.EventType{auditDomain.EventTypeValidation},
	}, 0)
	if err != nil {
		return 0, err
	}

	validations := auditDomain.LatestValidations(records)
	if len(validations) == 0 {
		return 0, domain.ErrNoMeasurement
	}
	accuracy, _ := auditDomain.ComplianceAccuracy(validations)
	return accuracy, nil
}
