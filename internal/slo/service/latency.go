// Package service provides the measurement sources the SLO monitor collects from.
package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// maxLatencySamples caps the tracker's memory; the oldest samples go first.
const maxLatencySamples = 10000

type latencySample struct {
	at time.Time
	ms float64
}

// LatencyTracker keeps retrieval durations over a sliding window and reports
// their 95th percentile in milliseconds.
type LatencyTracker struct {
	mu      sync.Mutex
	window  time.Duration
	samples []latencySample
	clock   func() time.Time
}

// NewLatencyTracker creates a tracker over window.
func NewLatencyTracker(window time.Duration) *LatencyTracker {
	return &LatencyTracker{
		window: window,
		clock:  time.Now,
	}
}

// Observe records one retrieval.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	l.prune(now)
	l.samples = append(l.samples, latencySample{at: now, ms: float64(d) / float64(time.Millisecond)})
	if len(l.samples) > maxLatencySamples {
		l.samples = l.samples[len(l.samples)-maxLatencySamples:]
	}
}

// Measure returns the p95 latency of the window, 0 when nothing was retrieved.
func (l *LatencyTracker) Measure(ctx context.Context) (float64, error) {
	l.mu.Lock()
	l.prune(l.clock())
	values := make([]float64, len(l.samples))
	for i, s := range l.samples {
		values[i] = s.ms
	}
	l.mu.Unlock()

	return Percentile(values, 95), nil
}

// prune drops samples older than the window. Callers must hold mu.
func (l *LatencyTracker) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.samples) && l.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		l.samples = append(l.samples[:0], l.samples[i:]...)
	}
}

// Percentile returns the nearest-rank p-th percentile of values, 0 when empty.
// values is sorted in place.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	rank := int(math.Ceil(p * float64(len(values)) / 100))
	if rank < 1 {
		rank = 1
	}
	return values[rank-1]
}
