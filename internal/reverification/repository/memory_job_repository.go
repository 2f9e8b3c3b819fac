// Package repository implements re-verification job persistence for memory, PostgreSQL and MySQL.
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/occam/internal/reverification/domain"
)

// MemoryJobRepository keeps job snapshots in memory.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

// NewMemoryJobRepository creates an empty in-memory job repository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[uuid.UUID]*domain.Job)}
}

// Create stores a snapshot of job.
func (m *MemoryJobRepository) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs[job.ID] = job.Snapshot()
	return nil
}

// Claim replaces the stored snapshot of job while it is still pending.
func (m *MemoryJobRepository) Claim(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.jobs[job.ID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if stored.Status != domain.StatusPending {
		return domain.ErrJobAlreadyClaimed
	}
	m.jobs[job.ID] = job.Snapshot()
	return nil
}

// Update replaces the stored snapshot of job.
func (m *MemoryJobRepository) Update(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	m.jobs[job.ID] = job.Snapshot()
	return nil
}

// Get returns a copy of the job.
func (m *MemoryJobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job.Snapshot(), nil
}

// ListPending returns copies of up to limit pending jobs, oldest first.
func (m *MemoryJobRepository) ListPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*domain.Job, 0)
	for _, job := range m.jobs {
		if job.Status == domain.StatusPending {
			jobs = append(jobs, job.Snapshot())
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID.String() < jobs[j].ID.String()
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
