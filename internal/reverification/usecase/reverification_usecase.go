package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/database"
	driftDomain "github.com/allisson/occam/internal/drift/domain"
	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/reverification/domain"
)

// scheduledAuditPageSize bounds each audit trail page read by the scheduled audit.
const scheduledAuditPageSize = 500

// Config holds re-verification scheduler configuration.
type Config struct {
	Workers       int
	Interval      time.Duration
	BatchSize     int
	RetentionDays int
}

type reverificationUseCase struct {
	config    Config
	txManager database.TxManager
	repo      JobRepository
	validator UnitValidator
	audit     AuditTrail
	logger    *slog.Logger
	clock     func() time.Time
}

// NewReverificationUseCase creates the re-verification scheduler.
func NewReverificationUseCase(
	config Config,
	txManager database.TxManager,
	repo JobRepository,
	validator UnitValidator,
	audit AuditTrail,
	logger *slog.Logger,
) UseCase {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	return &reverificationUseCase{
		config:    config,
		txManager: txManager,
		repo:      repo,
		validator: validator,
		audit:     audit,
		logger:    logger,
		clock:     time.Now,
	}
}

func (r *reverificationUseCase) now() time.Time {
	return r.clock().UTC().Truncate(time.Microsecond)
}

func (r *reverificationUseCase) create(ctx context.Context, job *domain.Job) error {
	if err := r.repo.Create(ctx, job.Snapshot()); err != nil {
		return apperrors.Wrap(err, "failed to create re-verification job")
	}
	if r.logger != nil {
		r.logger.Info("re-verification job created",
			slog.String("job_id", job.ID.String()),
			slog.String("trigger", string(job.Trigger)),
			slog.String("priority", string(job.Priority)),
			slog.Int("units", len(job.Units)),
		)
	}
	return nil
}

func (r *reverificationUseCase) TriggerFromDrift(ctx context.Context, cases []*driftDomain.Check) (uuid.UUID, error) {
	units, priority := domain.UnitsFromChecks(cases)
	if len(units) == 0 {
		return uuid.Nil, apperrors.Wrap(domain.ErrInvalidJob, "no drift cases")
	}

	job := domain.NewJob(domain.TriggerDriftDetection, priority, units, r.now())
	if err := r.create(ctx, job); err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

func (r *reverificationUseCase) ScheduleManual(ctx context.Context, input ManualInput) (*domain.Job, error) {
	if len(input.DocumentIDs) == 0 {
		return nil, apperrors.Wrap(domain.ErrInvalidJob, "no documents")
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.Wrapf(domain.ErrInvalidJob, "unknown priority %q", priority)
	}

	units := make([]domain.Unit, 0, len(input.DocumentIDs))
	seen := make(map[string]bool)
	for _, documentID := range input.DocumentIDs {
		if documentID == "" || seen[documentID] {
			continue
		}
		seen[documentID] = true
		units = append(units, domain.Unit{
			DocumentID: documentID,
			ClauseIDs:  append([]string(nil), input.ClauseIDs...),
		})
	}

	job := domain.NewJob(domain.TriggerManual, priority, units, r.now())
	if err := r.create(ctx, job); err != nil {
		return nil, err
	}
	return job.Snapshot(), nil
}

func (r *reverificationUseCase) RunScheduledAudit(ctx context.Context) (*domain.Job, error) {
	units, err := r.retainedUnits(ctx)
	if err != nil {
		return nil, err
	}

	// The job is stored already running so the pending processor never sees it.
	job := domain.NewJob(domain.TriggerScheduled, domain.PriorityLow, units, r.now())
	if err := job.Start(r.now()); err != nil {
		return nil, err
	}
	if err := r.create(ctx, job); err != nil {
		return nil, err
	}
	if err := r.run(ctx, job); err != nil {
		return job.Snapshot(), err
	}
	return job.Snapshot(), nil
}

// retainedUnits collects every document, and the clauses recorded for it, in
// the audit retention window.
func (r *reverificationUseCase) retainedUnits(ctx context.Context) ([]domain.Unit, error) {
	start := r.now().AddDate(0, 0, -r.config.RetentionDays)

	var units []domain.Unit
	index := make(map[string]int)
	seen := make(map[string]bool)

	for offset := 0; ; offset += scheduledAuditPageSize {
		records, err := r.audit.GetAuditTrail(ctx, auditDomain.Query{
			StartTime: &start,
			Offset:    offset,
			Limit:     scheduledAuditPageSize,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to read audit trail")
		}

		for _, record := range records {
			if record.DocumentID == "" {
				continue
			}
			i, ok := index[record.DocumentID]
			if !ok {
				i = len(units)
				index[record.DocumentID] = i
				units = append(units, domain.Unit{DocumentID: record.DocumentID})
			}
			key := record.DocumentID + "\x00" + record.ClauseID
			if record.ClauseID != "" && !seen[key] {
				seen[key] = true
				units[i].ClauseIDs = append(units[i].ClauseIDs, record.ClauseID)
			}
		}

		if len(records) < scheduledAuditPageSize {
			return units, nil
		}
	}
}

func (r *reverificationUseCase) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get re-verification job")
	}
	return job, nil
}

func (r *reverificationUseCase) ProcessJob(ctx context.Context, job *domain.Job) error {
	if err := r.claim(ctx, job); err != nil {
		return err
	}
	return r.run(ctx, job)
}

// claim moves a pending job to running and persists it.
func (r *reverificationUseCase) claim(ctx context.Context, job *domain.Job) error {
	if err := job.Start(r.now()); err != nil {
		return err
	}
	if err := r.repo.Claim(ctx, job.Snapshot()); err != nil {
		return apperrors.Wrap(err, "failed to claim job")
	}
	return nil
}

// run processes the units of a running job.
func (r *reverificationUseCase) run(ctx context.Context, job *domain.Job) error {
	// Snapshots are persisted in the order their outcomes were counted.
	var persist sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for _, unit := range job.Snapshot().Units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result := r.validate(gctx, job.ID, unit)
			if gctx.Err() != nil {
				return gctx.Err()
			}

			persist.Lock()
			defer persist.Unlock()

			snapshot, err := job.RecordUnit(*result)
			if err != nil {
				return err
			}
			if err := r.repo.Update(gctx, snapshot); err != nil {
				return apperrors.Wrap(err, "failed to persist job progress")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return r.fail(ctx, job, err)
	}
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, job, err)
	}

	if err := job.Complete(r.now()); err != nil {
		return r.fail(ctx, job, err)
	}
	snapshot := job.Snapshot()
	if err := r.repo.Update(ctx, snapshot); err != nil {
		return apperrors.Wrap(err, "failed to persist completed job")
	}

	r.recordOutcome(ctx, snapshot)
	return nil
}

func (r *reverificationUseCase) validate(ctx context.Context, jobID uuid.UUID, unit domain.Unit) *domain.UnitResult {
	result, err := r.validator.Validate(ctx, jobID, unit)
	if err != nil {
		result = &domain.UnitResult{DocumentID: unit.DocumentID, Error: err.Error()}
		if r.logger != nil {
			r.logger.Warn("re-verification unit failed",
				slog.String("job_id", jobID.String()),
				slog.String("document_id", unit.DocumentID),
				slog.Any("error", err),
			)
		}
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = r.now()
	}
	return result
}

// fail marks the job failed and persists it even when ctx is already canceled.
func (r *reverificationUseCase) fail(ctx context.Context, job *domain.Job, cause error) error {
	job.Fail(cause.Error(), r.now())
	snapshot := job.Snapshot()

	detached := context.WithoutCancel(ctx)
	if err := r.repo.Update(detached, snapshot); err != nil && r.logger != nil {
		r.logger.Error("failed to persist failed job",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err),
		)
	}
	r.recordOutcome(detached, snapshot)
	return apperrors.Wrapf(cause, "re-verification job %s failed", job.ID)
}

func (r *reverificationUseCase) recordOutcome(ctx context.Context, job *domain.Job) {
	severity := auditDomain.SeverityInfo
	success := job.Status == domain.StatusCompleted && job.Progress.Failed == 0
	if !success {
		severity = auditDomain.SeverityWarning
	}
	if job.Status == domain.StatusFailed {
		severity = auditDomain.SeverityError
	}

	event := &auditDomain.Event{
		EventType: auditDomain.EventTypeVerificationCompleted,
		Severity:  severity,
		Action:    "reverification.job",
		Details:   fmt.Sprintf("%d of %d units verified", job.Progress.Completed, job.Progress.Total),
		Metadata: map[string]any{
			"job_id":    job.ID.String(),
			"trigger":   string(job.Trigger),
			"status":    string(job.Status),
			"priority":  string(job.Priority),
			"total":     job.Progress.Total,
			"completed": job.Progress.Completed,
			"failed":    job.Progress.Failed,
		},
		Success:      success,
		LatencyMs:    job.UpdatedAt.Sub(job.CreatedAt).Milliseconds(),
		ErrorMessage: job.Error,
	}

	if _, err := r.audit.RecordEvent(ctx, event); err != nil && r.logger != nil {
		r.logger.Error("failed to record re-verification outcome",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (r *reverificationUseCase) ProcessPending(ctx context.Context) error {
	var claimed []*domain.Job
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		jobs, err := r.repo.ListPending(ctx, r.config.BatchSize)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			err := r.claim(ctx, job)
			if apperrors.Is(err, domain.ErrJobAlreadyClaimed) {
				continue
			}
			if err != nil {
				return err
			}
			claimed = append(claimed, job)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to claim pending jobs")
	}

	if len(claimed) > 0 && r.logger != nil {
		r.logger.Info("processing re-verification jobs", slog.Int("count", len(claimed)))
	}

	for _, job := range claimed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.run(ctx, job); err != nil && r.logger != nil {
			r.logger.Error("failed to process re-verification job",
				slog.String("job_id", job.ID.String()),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

func (r *reverificationUseCase) Start(ctx context.Context) error {
	if r.logger != nil {
		r.logger.Info("starting re-verification processor",
			slog.Duration("interval", r.config.Interval),
			slog.Int("batch_size", r.config.BatchSize),
			slog.Int("workers", r.config.Workers),
		)
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info("stopping re-verification processor")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := r.ProcessPending(ctx); err != nil && r.logger != nil {
				r.logger.Error("failed to process pending jobs", slog.Any("error", err))
			}
		}
	}
}
