package usecase

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/audit/service"
	apperrors "github.com/allisson/occam/internal/errors"
)

const verifyBatchSize = 500

// Config holds audit use case configuration.
type Config struct {
	// AppendRetries bounds how many times an append is retried after a chain conflict.
	AppendRetries int
}

// auditUseCase owns the chain tip. Appends are serialized by mu; across
// processes the repository's unique sequence turns a lost race into
// ErrChainConflict and the tip is reloaded.
type auditUseCase struct {
	config  Config
	repo    RecordRepository
	hasher  service.Hasher
	latency LatencyRecorder
	logger  *slog.Logger

	mu         sync.Mutex
	tipLoaded  bool
	tipHash    string
	tipSeq     int64
	clock      func() time.Time
	generateID func() uuid.UUID
}

// NewAuditUseCase creates the audit trail use case. latency may be nil.
func NewAuditUseCase(
	config Config,
	repo RecordRepository,
	hasher service.Hasher,
	latency LatencyRecorder,
	logger *slog.Logger,
) UseCase {
	if config.AppendRetries < 0 {
		config.AppendRetries = 0
	}
	return &auditUseCase{
		config:  config,
		repo:    repo,
		hasher:  hasher,
		latency: latency,
		logger:  logger,
		clock:   time.Now,
		generateID: func() uuid.UUID {
			return uuid.Must(uuid.NewV7())
		},
	}
}

// loadTip reads the chain tip from storage. Callers must hold mu.
func (a *auditUseCase) loadTip(ctx context.Context) error {
	last, err := a.repo.Last(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to load audit chain tip")
	}

	if last == nil {
		a.tipHash = domain.GenesisHash
		a.tipSeq = 0
	} else {
		a.tipHash = last.CurrentHash
		a.tipSeq = last.Sequence
	}
	a.tipLoaded = true
	return nil
}

func (a *auditUseCase) RecordEvent(ctx context.Context, event *domain.Event) (*domain.Record, error) {
	if event == nil || !event.EventType.Valid() || !event.Severity.Valid() {
		return nil, domain.ErrInvalidEvent
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if !a.tipLoaded {
			if err := a.loadTip(ctx); err != nil {
				return nil, err
			}
		}

		record := &domain.Record{
			ID:              a.generateID(),
			Sequence:        a.tipSeq + 1,
			Timestamp:       a.clock().UTC().Truncate(time.Microsecond),
			EventType:       event.EventType,
			Severity:        event.Severity,
			AgentID:         event.AgentID,
			UserID:          event.UserID,
			DocumentID:      event.DocumentID,
			ClauseID:        event.ClauseID,
			Action:          event.Action,
			Details:         event.Details,
			Metadata:        maps.Clone(event.Metadata),
			PreviousHash:    a.tipHash,
			Success:         event.Success,
			LatencyMs:       event.LatencyMs,
			ConfidenceScore: event.ConfidenceScore,
			ErrorMessage:    event.ErrorMessage,
		}

		hash, err := a.hasher.Hash(record)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to hash audit record")
		}
		record.CurrentHash = hash

		err = a.repo.Append(ctx, record)
		if err == nil {
			a.tipHash = record.CurrentHash
			a.tipSeq = record.Sequence
			return record, nil
		}

		// The tip may have moved underneath us; force a reload either way.
		a.tipLoaded = false

		if apperrors.Is(err, domain.ErrChainConflict) && attempt < a.config.AppendRetries {
			if a.logger != nil {
				a.logger.Warn("audit chain conflict, reloading tip",
					slog.Int64("sequence", record.Sequence),
					slog.Int("attempt", attempt+1),
				)
			}
			continue
		}

		return nil, apperrors.Wrap(err, "failed to append audit record")
	}
}

func (a *auditUseCase) GetAuditTrail(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	start := time.Now()
	records, err := a.repo.List(ctx, query)
	if a.latency != nil {
		a.latency.Observe(time.Since(start))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get audit trail")
	}
	return records, nil
}

func (a *auditUseCase) VerifyAuditChain(ctx context.Context, startHash, endHash string) (bool, error) {
	result, err := a.VerifyAuditChainDetailed(ctx, startHash, endHash)
	if err != nil {
		return false, err
	}
	return result.Valid, nil
}

func (a *auditUseCase) VerifyAuditChainDetailed(
	ctx context.Context,
	startHash, endHash string,
) (*domain.VerificationResult, error) {
	start, err := a.bound(ctx, startHash, a.repo.First)
	if err != nil {
		return nil, err
	}
	end, err := a.bound(ctx, endHash, a.repo.Last)
	if err != nil {
		return nil, err
	}

	// Empty chain.
	if start == nil || end == nil {
		return &domain.VerificationResult{Valid: true}, nil
	}
	if end.Sequence < start.Sequence {
		return nil, domain.ErrInvalidRange
	}

	result := &domain.VerificationResult{
		Valid: true,
		Total: end.Sequence - start.Sequence + 1,
	}

	// A chain that still holds its first record is anchored at genesis. A pruned
	// chain trusts the PreviousHash of its first retained record.
	expectedPrev := start.PreviousHash
	if start.Sequence == 1 {
		expectedPrev = domain.GenesisHash
	}

	fail := func(record *domain.Record, sequence int64, reason string) {
		result.Valid = false
		result.FailedSequence = sequence
		if record != nil {
			result.FailedRecordID = record.ID
		}
		result.Reason = reason
	}

	next := start.Sequence
	for result.Valid && next <= end.Sequence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		limit := verifyBatchSize
		if remaining := end.Sequence - next + 1; remaining < int64(limit) {
			limit = int(remaining)
		}

		batch, err := a.repo.ListBySequence(ctx, next, limit)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to read audit chain")
		}
		if len(batch) == 0 {
			result.Checked++
			fail(nil, next, "missing record")
			break
		}

		for _, record := range batch {
			result.Checked++

			if record.Sequence != next {
				fail(record, next, "missing record")
				break
			}
			if record.PreviousHash != expectedPrev {
				fail(record, record.Sequence, "previous hash does not match preceding record")
				break
			}
			ok, err := service.Verify(a.hasher, record)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to hash audit record")
			}
			if !ok {
				fail(record, record.Sequence, "current hash does not match record contents")
				break
			}

			expectedPrev = record.CurrentHash
			next++
		}
	}

	if !result.Valid && a.logger != nil {
		a.logger.Warn("audit chain verification failed",
			slog.Int64("sequence", result.FailedSequence),
			slog.String("reason", result.Reason),
		)
	}

	return result, nil
}

func (a *auditUseCase) bound(
	ctx context.Context,
	hash string,
	fallback func(ctx context.Context) (*domain.Record, error),
) (*domain.Record, error) {
	if hash == "" {
		record, err := fallback(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to read audit chain bound")
		}
		return record, nil
	}

	record, err := a.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to resolve audit chain bound")
	}
	return record, nil
}

func (a *auditUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be non-negative")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.tipLoaded {
		if err := a.loadTip(ctx); err != nil {
			return 0, err
		}
	}

	olderThan := a.clock().UTC().AddDate(0, 0, -days)
	count, err := a.repo.DeleteOlderThan(ctx, olderThan, a.tipSeq, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit records")
	}
	return count, nil
}
