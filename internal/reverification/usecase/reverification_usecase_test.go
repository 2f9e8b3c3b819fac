package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/database"
	driftDomain "github.com/allisson/occam/internal/drift/domain"
	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/reverification/domain"
	"github.com/allisson/occam/internal/reverification/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeValidator fails the documents listed in failing and tracks concurrency.
type fakeValidator struct {
	failing map[string]bool
	err     map[string]error
	delay   time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func (f *fakeValidator) Validate(ctx context.Context, jobID uuid.UUID, unit domain.Unit) (*domain.UnitResult, error) {
	f.calls.Add(1)
	active := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		current := f.maxActive.Load()
		if active <= current || f.maxActive.CompareAndSwap(current, active) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.err[unit.DocumentID]; err != nil {
		return nil, err
	}
	return &domain.UnitResult{DocumentID: unit.DocumentID, Success: !f.failing[unit.DocumentID]}, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	events  []*auditDomain.Event
	records []*auditDomain.Record
	queries []auditDomain.Query
}

func (f *fakeAudit) RecordEvent(ctx context.Context, event *auditDomain.Event) (*auditDomain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return &auditDomain.Record{Sequence: int64(len(f.events))}, nil
}

func (f *fakeAudit) GetAuditTrail(ctx context.Context, query auditDomain.Query) ([]*auditDomain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if query.Offset >= len(f.records) {
		return []*auditDomain.Record{}, nil
	}
	end := query.Offset + query.Limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[query.Offset:end], nil
}

// failingUpdates fails Update after the given number of successful calls.
type failingUpdates struct {
	*repository.MemoryJobRepository
	remaining atomic.Int32
}

func (f *failingUpdates) Update(ctx context.Context, job *domain.Job) error {
	if f.remaining.Add(-1) < 0 {
		return errors.New("database unavailable")
	}
	return f.MemoryJobRepository.Update(ctx, job)
}

// createHook runs afterCreate once a job is stored.
type createHook struct {
	*repository.MemoryJobRepository
	afterCreate func()
}

func (c *createHook) Create(ctx context.Context, job *domain.Job) error {
	if err := c.MemoryJobRepository.Create(ctx, job); err != nil {
		return err
	}
	c.afterCreate()
	return nil
}

// stalePending lists snapshots taken before other processors claimed them.
type stalePending struct {
	*repository.MemoryJobRepository
	jobs []*domain.Job
}

func (s *stalePending) ListPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	return s.jobs, nil
}

type fixture struct {
	useCase   *reverificationUseCase
	repo      *repository.MemoryJobRepository
	validator *fakeValidator
	audit     *fakeAudit
}

func newFixture(workers int) *fixture {
	f := &fixture{
		repo:      repository.NewMemoryJobRepository(),
		validator: &fakeValidator{failing: map[string]bool{}, err: map[string]error{}},
		audit:     &fakeAudit{},
	}
	uc := NewReverificationUseCase(
		Config{Workers: workers, Interval: 10 * time.Millisecond, BatchSize: 5, RetentionDays: 30},
		database.NewNopTxManager(),
		f.repo,
		f.validator,
		f.audit,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	f.useCase = uc.(*reverificationUseCase)
	return f
}

func documents(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, uuid.NewString())
	}
	return ids
}

func TestReverificationUseCase_TriggerFromDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	jobID, err := f.useCase.TriggerFromDrift(ctx, []*driftDomain.Check{
		{DocumentID: "doc-1", ClauseID: "c1", RiskLevel: driftDomain.RiskMedium},
		{DocumentID: "doc-1", ClauseID: "c2", RiskLevel: driftDomain.RiskCritical},
		{DocumentID: "doc-2", ClauseID: "c1", RiskLevel: driftDomain.RiskLow},
	})
	require.NoError(t, err)

	job, err := f.useCase.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerDriftDetection, job.Trigger)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, domain.PriorityCritical, job.Priority)
	assert.Equal(t, []string{"doc-1", "doc-2"}, job.DocumentIDs)
	assert.Equal(t, 2, job.Progress.Total)

	t.Run("no cases", func(t *testing.T) {
		_, err := f.useCase.TriggerFromDrift(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidJob)
	})
}

func TestReverificationUseCase_ScheduleManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	t.Run("deduplicates documents and defaults priority", func(t *testing.T) {
		job, err := f.useCase.ScheduleManual(ctx, ManualInput{
			DocumentIDs: []string{"doc-1", "doc-1", "", "doc-2"},
			ClauseIDs:   []string{"c1"},
		})
		require.NoError(t, err)

		assert.Equal(t, domain.TriggerManual, job.Trigger)
		assert.Equal(t, domain.PriorityMedium, job.Priority)
		assert.Equal(t, []string{"doc-1", "doc-2"}, job.DocumentIDs)
		assert.Equal(t, []string{"c1"}, job.Units[1].ClauseIDs)
	})

	t.Run("no documents", func(t *testing.T) {
		_, err := f.useCase.ScheduleManual(ctx, ManualInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidJob)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("unknown priority", func(t *testing.T) {
		_, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: []string{"doc-1"}, Priority: "urgent"})
		assert.ErrorIs(t, err, domain.ErrInvalidJob)
	})
}

func TestReverificationUseCase_GetJob(t *testing.T) {
	f := newFixture(1)

	_, err := f.useCase.GetJob(context.Background(), uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReverificationUseCase_ProcessJob(t *testing.T) {
	ctx := context.Background()

	t.Run("counts every unit and respects the worker limit", func(t *testing.T) {
		f := newFixture(3)
		f.validator.delay = 5 * time.Millisecond
		docs := documents(12)
		f.validator.failing[docs[0]] = true
		f.validator.err[docs[1]] = errors.New("agent unavailable")

		job, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: docs})
		require.NoError(t, err)
		pending, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)

		require.NoError(t, f.useCase.ProcessJob(ctx, pending))

		stored, err := f.useCase.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, stored.Status)
		assert.Equal(t, domain.Progress{Total: 12, Completed: 10, Failed: 2}, stored.Progress)
		assert.Len(t, stored.Results, 12)
		assert.LessOrEqual(t, f.validator.maxActive.Load(), int32(3))
		assert.Equal(t, int32(12), f.validator.calls.Load())

		require.Len(t, f.audit.events, 1)
		event := f.audit.events[0]
		assert.Equal(t, auditDomain.EventTypeVerificationCompleted, event.EventType)
		assert.Equal(t, auditDomain.SeverityWarning, event.Severity)
		assert.False(t, event.Success)
		assert.Equal(t, job.ID.String(), event.Metadata["job_id"])
	})

	t.Run("only pending jobs are processed", func(t *testing.T) {
		f := newFixture(1)
		job, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: []string{"doc-1"}})
		require.NoError(t, err)
		pending, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)
		require.NoError(t, f.useCase.ProcessJob(ctx, pending))

		err = f.useCase.ProcessJob(ctx, pending)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("stale pending copy is claimed once", func(t *testing.T) {
		f := newFixture(1)
		job, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: []string{"doc-1"}})
		require.NoError(t, err)
		first, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)
		second, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)

		require.NoError(t, f.useCase.ProcessJob(ctx, first))
		err = f.useCase.ProcessJob(ctx, second)
		assert.ErrorIs(t, err, domain.ErrJobAlreadyClaimed)
		assert.Equal(t, int32(1), f.validator.calls.Load())
		assert.Len(t, f.audit.events, 1)
	})

	t.Run("cancellation fails the job", func(t *testing.T) {
		f := newFixture(2)
		f.validator.delay = time.Second

		job, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: documents(4)})
		require.NoError(t, err)
		pending, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)

		cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err = f.useCase.ProcessJob(cancelCtx, pending)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		stored, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, stored.Status)
		assert.LessOrEqual(t, stored.Progress.Processed(), stored.Progress.Total)
		assert.NotEmpty(t, stored.Error)
		require.NotEmpty(t, f.audit.events)
		assert.Equal(t, auditDomain.SeverityError, f.audit.events[len(f.audit.events)-1].Severity)
	})

	t.Run("persistence failure fails the job", func(t *testing.T) {
		f := newFixture(1)
		repo := &failingUpdates{MemoryJobRepository: f.repo}
		repo.remaining.Store(2)
		f.useCase.repo = repo

		job, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: documents(3)})
		require.NoError(t, err)
		pending, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)

		err = f.useCase.ProcessJob(ctx, pending)
		assert.ErrorContains(t, err, "database unavailable")
		assert.Equal(t, domain.StatusFailed, pending.Snapshot().Status)
	})
}

func TestReverificationUseCase_RunScheduledAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	f.useCase.clock = func() time.Time { return now }

	for i := 0; i < scheduledAuditPageSize+2; i++ {
		f.audit.records = append(f.audit.records, &auditDomain.Record{DocumentID: "doc-1", ClauseID: "c1"})
	}
	f.audit.records = append(f.audit.records,
		&auditDomain.Record{DocumentID: "doc-2", ClauseID: "c3"},
		&auditDomain.Record{DocumentID: "doc-1", ClauseID: "c2"},
		&auditDomain.Record{},
	)

	job, err := f.useCase.RunScheduledAudit(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.TriggerScheduled, job.Trigger)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, []domain.Unit{
		{DocumentID: "doc-1", ClauseIDs: []string{"c1", "c2"}},
		{DocumentID: "doc-2", ClauseIDs: []string{"c3"}},
	}, job.Units)
	assert.Equal(t, domain.Progress{Total: 2, Completed: 2}, job.Progress)

	require.Len(t, f.audit.queries, 2)
	require.NotNil(t, f.audit.queries[0].StartTime)
	assert.Equal(t, now.AddDate(0, 0, -30), *f.audit.queries[0].StartTime)
	assert.Equal(t, scheduledAuditPageSize, f.audit.queries[1].Offset)
}

func TestReverificationUseCase_RunScheduledAudit_NotVisibleAsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(1)
	f.audit.records = []*auditDomain.Record{{DocumentID: "doc-1", ClauseID: "c1"}}

	hook := &createHook{MemoryJobRepository: f.repo}
	hook.afterCreate = func() {
		assert.NoError(t, f.useCase.ProcessPending(ctx))
	}
	f.useCase.repo = hook

	job, err := f.useCase.RunScheduledAudit(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, domain.Progress{Total: 1, Completed: 1}, job.Progress)
	assert.Equal(t, int32(1), f.validator.calls.Load())
	assert.Len(t, f.audit.events, 1)
}

func TestReverificationUseCase_ProcessPending_SkipsClaimedJobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(1)

	var stale []*domain.Job
	for i := 0; i < 2; i++ {
		job, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: documents(1)})
		require.NoError(t, err)
		copied, err := f.repo.Get(ctx, job.ID)
		require.NoError(t, err)
		stale = append(stale, copied)
	}

	claimed, err := f.repo.Get(ctx, stale[0].ID)
	require.NoError(t, err)
	require.NoError(t, f.useCase.ProcessJob(ctx, claimed))

	f.useCase.repo = &stalePending{MemoryJobRepository: f.repo, jobs: stale}
	require.NoError(t, f.useCase.ProcessPending(ctx))

	assert.Equal(t, int32(2), f.validator.calls.Load())
	assert.Len(t, f.audit.events, 2)
	stored, err := f.repo.Get(ctx, stale[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
}

func TestReverificationUseCase_ProcessPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	for i := 0; i < 3; i++ {
		_, err := f.useCase.ScheduleManual(ctx, ManualInput{DocumentIDs: documents(2)})
		require.NoError(t, err)
	}

	require.NoError(t, f.useCase.ProcessPending(ctx))

	pending, err := f.repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, int32(6), f.validator.calls.Load())
	assert.Len(t, f.audit.events, 3)
}

func TestReverificationUseCase_Start(t *testing.T) {
	f := newFixture(1)
	job, err := f.useCase.ScheduleManual(context.Background(), ManualInput{DocumentIDs: []string{"doc-1"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.useCase.Start(ctx) }()

	assert.Eventually(t, func() bool {
		stored, err := f.repo.Get(context.Background(), job.ID)
		return err == nil && stored.Status == domain.StatusCompleted
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
