package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduledAuditLockKey is the lock shared by every instance running the scheduled audit.
const scheduledAuditLockKey = "occam:scheduled-audit"

// AuditRunner runs the scheduled audit once.
type AuditRunner func(ctx context.Context) error

// Scheduler runs the scheduled audit on a cron expression, under a lock so
// only one instance runs each occurrence.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	locker  Locker
	lockTTL time.Duration
	run     AuditRunner
	logger  *slog.Logger
}

// NewScheduler creates a scheduler for a standard five-field cron expression.
func NewScheduler(
	spec string,
	locker Locker,
	lockTTL time.Duration,
	run AuditRunner,
	logger *slog.Logger,
) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid scheduled audit cron %q: %w", spec, err)
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		spec:    spec,
		locker:  locker,
		lockTTL: lockTTL,
		run:     run,
		logger:  logger,
	}, nil
}

// Start schedules the audit and blocks until ctx is done. Running occurrences
// finish before Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule audit: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("starting scheduled audit", slog.String("cron", s.spec))
	}
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()

	if s.logger != nil {
		s.logger.Info("stopping scheduled audit")
	}
	return ctx.Err()
}

// RunOnce runs the audit if the lock is free. It reports whether it ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	release, ok, err := s.locker.TryLock(ctx, scheduledAuditLockKey, s.lockTTL)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to acquire scheduled audit lock", slog.Any("error", err))
		}
		return false
	}
	if !ok {
		if s.logger != nil {
			s.logger.Info("scheduled audit already running elsewhere")
		}
		return false
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil && s.logger != nil {
			s.logger.Warn("failed to release scheduled audit lock", slog.Any("error", err))
		}
	}()

	if err := s.run(ctx); err != nil && s.logger != nil {
		s.logger.Error("scheduled audit failed", slog.Any("error", err))
	}
	return true
}
