// Package repository provides persistence implementations for audit records.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/allisson/occam/internal/audit/domain"
)

// MemoryRecordRepository keeps the audit chain in process memory. Records are
// copied on the way in and out so callers cannot alter stored entries.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records []domain.Record // ordered by Sequence
}

// NewMemoryRecordRepository creates an empty in-memory audit record repository.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{}
}

// Append stores a copy of record. Returns ErrChainConflict if its Sequence is taken.
func (m *MemoryRecordRepository) Append(ctx context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.search(record.Sequence)
	if i < len(m.records) && m.records[i].Sequence == record.Sequence {
		return domain.ErrChainConflict
	}

	m.records = append(m.records, domain.Record{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = *record
	return nil
}

// First returns the lowest retained record, or nil when empty.
func (m *MemoryRecordRepository) First(ctx context.Context) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, nil
	}
	r := m.records[0]
	return &r, nil
}

// Last returns the chain tip, or nil when empty.
func (m *MemoryRecordRepository) Last(ctx context.Context) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, nil
	}
	r := m.records[len(m.records)-1]
	return &r, nil
}

// GetByHash returns the record whose CurrentHash equals hash.
func (m *MemoryRecordRepository) GetByHash(ctx context.Context, hash string) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.records {
		if m.records[i].CurrentHash == hash {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

// ListBySequence returns up to limit records starting at fromSequence.
func (m *MemoryRecordRepository) ListBySequence(
	ctx context.Context,
	fromSequence int64,
	limit int,
) ([]*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*domain.Record, 0)
	for i := m.search(fromSequence); i < len(m.records) && len(records) < limit; i++ {
		r := m.records[i]
		records = append(records, &r)
	}
	return records, nil
}

// List returns records matching query in chronological order.
func (m *MemoryRecordRepository) List(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*domain.Record, 0)
	skipped := 0
	for i := range m.records {
		if !query.Matches(&m.records[i]) {
			continue
		}
		if skipped < query.Offset {
			skipped++
			continue
		}
		if query.Limit > 0 && len(records) >= query.Limit {
			break
		}
		r := m.records[i]
		records = append(records, &r)
	}
	return records, nil
}

// DeleteOlderThan removes records older than olderThan with Sequence below beforeSequence.
func (m *MemoryRecordRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	beforeSequence int64,
	dryRun bool,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	kept := m.records[:0:0]
	for _, r := range m.records {
		if r.Timestamp.Before(olderThan) && r.Sequence < beforeSequence {
			count++
			if !dryRun {
				continue
			}
		}
		kept = append(kept, r)
	}

	if !dryRun {
		m.records = kept
	}
	return count, nil
}

// search returns the index of the first record with Sequence >= sequence.
func (m *MemoryRecordRepository) search(sequence int64) int {
	return sort.Search(len(m.records), func(i int) bool {
		return m.records[i].Sequence >= sequence
	})
}
