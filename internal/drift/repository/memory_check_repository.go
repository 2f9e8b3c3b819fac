// Package repository implements drift check persistence for memory, PostgreSQL and MySQL.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/allisson/occam/internal/drift/domain"
)

// MemoryCheckRepository keeps drift checks in memory ordered by CheckedAt.
type MemoryCheckRepository struct {
	mu     sync.RWMutex
	checks []*domain.Check
}

// NewMemoryCheckRepository creates an empty in-memory drift check repository.
func NewMemoryCheckRepository() *MemoryCheckRepository {
	return &MemoryCheckRepository{}
}

// Create stores a copy of check.
func (m *MemoryCheckRepository) Create(ctx context.Context, check *domain.Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *check
	i := sort.Search(len(m.checks), func(i int) bool {
		return m.checks[i].CheckedAt.After(stored.CheckedAt)
	})
	m.checks = append(m.checks, nil)
	copy(m.checks[i+1:], m.checks[i:])
	m.checks[i] = &stored
	return nil
}

// ListByPeriod returns copies of the checks with CheckedAt in [start, end).
func (m *MemoryCheckRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*domain.Check, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checks := make([]*domain.Check, 0)
	for _, check := range m.checks {
		if check.CheckedAt.Before(start) || !check.CheckedAt.Before(end) {
			continue
		}
		c := *check
		checks = append(checks, &c)
	}
	return checks, nil
}

// LatestByClause returns the most recent check of a clause.
func (m *MemoryCheckRepository) LatestByClause(
	ctx context.Context,
	documentID, clauseID string,
) (*domain.Check, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.checks) - 1; i >= 0; i-- {
		check := m.checks[i]
		if check.DocumentID == documentID && check.ClauseID == clauseID {
			c := *check
			return &c, nil
		}
	}
	return nil, domain.ErrCheckNotFound
}
