package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/audit/repository"
	"github.com/allisson/occam/internal/audit/service"
	apperrors "github.com/allisson/occam/internal/errors"
)

// mockRecordRepository is a mock implementation of RecordRepository for testing.
type mockRecordRepository struct {
	mock.Mock
}

func (m *mockRecordRepository) Append(ctx context.Context, record *domain.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRecordRepository) First(ctx context.Context) (*domain.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *mockRecordRepository) Last(ctx context.Context) (*domain.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *mockRecordRepository) GetByHash(ctx context.Context, hash string) (*domain.Record, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *mockRecordRepository) ListBySequence(
	ctx context.Context,
	fromSequence int64,
	limit int,
) ([]*domain.Record, error) {
	args := m.Called(ctx, fromSequence, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

func (m *mockRecordRepository) List(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

func (m *mockRecordRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	beforeSequence int64,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, olderThan, beforeSequence, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// tamperingRepository alters records on their way out of storage.
type tamperingRepository struct {
	*repository.MemoryRecordRepository
	tamper func(r *domain.Record)
}

func (t *tamperingRepository) ListBySequence(
	ctx context.Context,
	fromSequence int64,
	limit int,
) ([]*domain.Record, error) {
	records, err := t.MemoryRecordRepository.ListBySequence(ctx, fromSequence, limit)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		t.tamper(r)
	}
	return records, nil
}

type latencyRecorderFunc func(d time.Duration)

func (f latencyRecorderFunc) Observe(d time.Duration) { f(d) }

func validationEvent(doc string) *domain.Event {
	return &domain.Event{
		EventType:  domain.EventTypeValidation,
		Severity:   domain.SeverityInfo,
		AgentID:    "compliance-agent",
		DocumentID: doc,
		Action:     "validate",
		Success:    true,
		Metadata:   map[string]any{"doc": doc},
	}
}

func seedChain(t *testing.T, uc UseCase, n int) []*domain.Record {
	t.Helper()
	records := make([]*domain.Record, 0, n)
	for i := 0; i < n; i++ {
		record, err := uc.RecordEvent(context.Background(), validationEvent(fmt.Sprintf("doc-%d", i)))
		require.NoError(t, err)
		records = append(records, record)
	}
	return records
}

func TestAuditUseCase_RecordEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LinksRecords", func(t *testing.T) {
		uc := NewAuditUseCase(Config{AppendRetries: 3}, repository.NewMemoryRecordRepository(),
			service.NewSHA256Hasher(), nil, nil)

		records := seedChain(t, uc, 3)

		assert.Equal(t, domain.GenesisHash, records[0].PreviousHash)
		for i, r := range records {
			assert.Equal(t, int64(i+1), r.Sequence)
			assert.Len(t, r.CurrentHash, 64)
			assert.Equal(t, time.UTC, r.Timestamp.Location())
			if i > 0 {
				assert.Equal(t, records[i-1].CurrentHash, r.PreviousHash)
			}
		}
	})

	t.Run("Success_ResumesFromStoredTip", func(t *testing.T) {
		repo := repository.NewMemoryRecordRepository()
		first := NewAuditUseCase(Config{}, repo, service.NewSHA256Hasher(), nil, nil)
		records := seedChain(t, first, 2)

		second := NewAuditUseCase(Config{}, repo, service.NewSHA256Hasher(), nil, nil)
		next, err := second.RecordEvent(ctx, validationEvent("doc-x"))
		require.NoError(t, err)

		assert.Equal(t, int64(3), next.Sequence)
		assert.Equal(t, records[1].CurrentHash, next.PreviousHash)
	})

	t.Run("Success_ReloadsTipOnConflict", func(t *testing.T) {
		repo := repository.NewMemoryRecordRepository()
		hasher := service.NewSHA256Hasher()
		writerA := NewAuditUseCase(Config{AppendRetries: 3}, repo, hasher, nil, nil)
		writerB := NewAuditUseCase(Config{AppendRetries: 3}, repo, hasher, nil, nil)

		_, err := writerA.RecordEvent(ctx, validationEvent("a-1"))
		require.NoError(t, err)
		fromB, err := writerB.RecordEvent(ctx, validationEvent("b-1"))
		require.NoError(t, err)

		// writerA still believes the tip is sequence 1.
		fromA, err := writerA.RecordEvent(ctx, validationEvent("a-2"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), fromA.Sequence)
		assert.Equal(t, fromB.CurrentHash, fromA.PreviousHash)

		valid, err := writerA.VerifyAuditChain(ctx, "", "")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("Error_ConflictRetriesExhausted", func(t *testing.T) {
		repo := &mockRecordRepository{}
		repo.On("Last", ctx).Return(nil, nil)
		repo.On("Append", ctx, mock.Anything).Return(domain.ErrChainConflict).Times(3)

		uc := NewAuditUseCase(Config{AppendRetries: 2}, repo, service.NewSHA256Hasher(), nil, nil)
		_, err := uc.RecordEvent(ctx, validationEvent("doc-1"))

		assert.ErrorIs(t, err, domain.ErrChainConflict)
		repo.AssertNumberOfCalls(t, "Append", 3)
		repo.AssertNumberOfCalls(t, "Last", 3)
	})

	t.Run("Error_AppendFailureKeepsTip", func(t *testing.T) {
		repo := &mockRecordRepository{}
		repo.On("Last", ctx).Return(nil, nil)
		repo.On("Append", ctx, mock.Anything).Return(assert.AnError).Once()
		repo.On("Append", ctx, mock.Anything).Return(nil).Once()

		uc := NewAuditUseCase(Config{}, repo, service.NewSHA256Hasher(), nil, nil)
		_, err := uc.RecordEvent(ctx, validationEvent("doc-1"))
		assert.ErrorIs(t, err, assert.AnError)

		record, err := uc.RecordEvent(ctx, validationEvent("doc-1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), record.Sequence)
		assert.Equal(t, domain.GenesisHash, record.PreviousHash)
	})

	t.Run("Error_InvalidEvent", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)

		_, err := uc.RecordEvent(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidEvent)

		_, err = uc.RecordEvent(ctx, &domain.Event{EventType: "unknown", Severity: domain.SeverityInfo})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Success_CopiesMetadata", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)
		event := validationEvent("doc-1")
		record, err := uc.RecordEvent(ctx, event)
		require.NoError(t, err)

		event.Metadata["doc"] = "changed"
		assert.Equal(t, "doc-1", record.Metadata["doc"])
	})
}

func TestAuditUseCase_RecordEvent_Concurrent(t *testing.T) {
	ctx := context.Background()
	uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)

	const writers = 50
	var wg sync.WaitGroup
	sequences := make(chan int64, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := uc.RecordEvent(ctx, validationEvent(fmt.Sprintf("doc-%d", i)))
			if assert.NoError(t, err) {
				sequences <- record.Sequence
			}
		}(i)
	}
	wg.Wait()
	close(sequences)

	seen := make(map[int64]bool)
	for seq := range sequences {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, writers)

	result, err := uc.VerifyAuditChainDetailed(ctx, "", "")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(writers), result.Checked)
}

func TestAuditUseCase_VerifyAuditChain(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_EmptyChain", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)

		valid, err := uc.VerifyAuditChain(ctx, "", "")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("Success_IntactChain", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)
		seedChain(t, uc, 5)

		result, err := uc.VerifyAuditChainDetailed(ctx, "", "")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, int64(5), result.Checked)
		assert.Equal(t, 100.0, result.VerifiedPercent())
	})

	t.Run("Success_Bounds", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)
		records := seedChain(t, uc, 5)

		result, err := uc.VerifyAuditChainDetailed(ctx, records[1].CurrentHash, records[3].CurrentHash)
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, int64(3), result.Total)
		assert.Equal(t, int64(3), result.Checked)
	})

	t.Run("Error_UnknownBound", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)
		seedChain(t, uc, 2)

		_, err := uc.VerifyAuditChain(ctx, "not-a-hash", "")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Error_ReversedBounds", func(t *testing.T) {
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), nil, nil)
		records := seedChain(t, uc, 3)

		_, err := uc.VerifyAuditChain(ctx, records[2].CurrentHash, records[0].CurrentHash)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})

	t.Run("Failure_TamperedContents", func(t *testing.T) {
		memory := repository.NewMemoryRecordRepository()
		uc := NewAuditUseCase(Config{}, memory, service.NewSHA256Hasher(), nil, nil)
		records := seedChain(t, uc, 4)

		tampered := NewAuditUseCase(Config{}, &tamperingRepository{
			MemoryRecordRepository: memory,
			tamper: func(r *domain.Record) {
				if r.Sequence == 2 {
					r.Success = false
				}
			},
		}, service.NewSHA256Hasher(), nil, nil)

		valid, err := tampered.VerifyAuditChain(ctx, "", "")
		require.NoError(t, err)
		assert.False(t, valid)

		result, err := tampered.VerifyAuditChainDetailed(ctx, "", "")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, int64(2), result.FailedSequence)
		assert.Equal(t, records[1].ID, result.FailedRecordID)
		assert.Equal(t, 25.0, result.VerifiedPercent())
	})

	t.Run("Failure_RehashedButRelinked", func(t *testing.T) {
		memory := repository.NewMemoryRecordRepository()
		hasher := service.NewSHA256Hasher()
		uc := NewAuditUseCase(Config{}, memory, hasher, nil, nil)
		seedChain(t, uc, 3)

		tampered := NewAuditUseCase(Config{}, &tamperingRepository{
			MemoryRecordRepository: memory,
			tamper: func(r *domain.Record) {
				if r.Sequence == 2 {
					r.Details = "rewritten"
					hash, err := hasher.Hash(r)
					require.NoError(t, err)
					r.CurrentHash = hash
				}
			},
		}, hasher, nil, nil)

		result, err := tampered.VerifyAuditChainDetailed(ctx, "", "")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, int64(3), result.FailedSequence)
		assert.Contains(t, result.Reason, "previous hash")
	})

	t.Run("Failure_MissingRecord", func(t *testing.T) {
		repo := &mockRecordRepository{}
		hasher := service.NewSHA256Hasher()
		memory := repository.NewMemoryRecordRepository()
		records := seedChain(t, NewAuditUseCase(Config{}, memory, hasher, nil, nil), 3)

		repo.On("First", ctx).Return(records[0], nil)
		repo.On("Last", ctx).Return(records[2], nil)
		repo.On("ListBySequence", ctx, int64(1), 3).Return([]*domain.Record{records[0], records[2]}, nil)

		uc := NewAuditUseCase(Config{}, repo, hasher, nil, nil)
		result, err := uc.VerifyAuditChainDetailed(ctx, "", "")
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, int64(2), result.FailedSequence)
		assert.Equal(t, "missing record", result.Reason)
	})

	t.Run("Failure_WrongKey", func(t *testing.T) {
		memory := repository.NewMemoryRecordRepository()
		keyed, err := service.NewHMACHasher([]byte("key-a"))
		require.NoError(t, err)
		seedChain(t, NewAuditUseCase(Config{}, memory, keyed, nil, nil), 2)

		other, err := service.NewHMACHasher([]byte("key-b"))
		require.NoError(t, err)
		valid, err := NewAuditUseCase(Config{}, memory, other, nil, nil).VerifyAuditChain(ctx, "", "")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("Error_StorageFailure", func(t *testing.T) {
		repo := &mockRecordRepository{}
		repo.On("First", ctx).Return(nil, assert.AnError)

		uc := NewAuditUseCase(Config{}, repo, service.NewSHA256Hasher(), nil, nil)
		_, err := uc.VerifyAuditChain(ctx, "", "")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestAuditUseCase_VerifyAuditChain_TamperProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("any single altered record is reported at its position", prop.ForAll(
		func(length, target int) bool {
			if target > length {
				target = length
			}
			memory := repository.NewMemoryRecordRepository()
			hasher := service.NewSHA256Hasher()
			uc := NewAuditUseCase(Config{}, memory, hasher, nil, nil)
			for i := 0; i < length; i++ {
				if _, err := uc.RecordEvent(context.Background(), validationEvent(fmt.Sprintf("doc-%d", i))); err != nil {
					return false
				}
			}

			intact, err := uc.VerifyAuditChain(context.Background(), "", "")
			if err != nil || !intact {
				return false
			}

			tampered := NewAuditUseCase(Config{}, &tamperingRepository{
				MemoryRecordRepository: memory,
				tamper: func(r *domain.Record) {
					if r.Sequence == int64(target) {
						r.Action = "edited"
					}
				},
			}, hasher, nil, nil)

			result, err := tampered.VerifyAuditChainDetailed(context.Background(), "", "")
			return err == nil && !result.Valid && result.FailedSequence == int64(target)
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}

func TestAuditUseCase_GetAuditTrail(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsLatency", func(t *testing.T) {
		var observed []time.Duration
		recorder := latencyRecorderFunc(func(d time.Duration) { observed = append(observed, d) })
		uc := NewAuditUseCase(Config{}, repository.NewMemoryRecordRepository(), service.NewSHA256Hasher(), recorder, nil)
		seedChain(t, uc, 3)

		records, err := uc.GetAuditTrail(ctx, domain.Query{DocumentID: "doc-1"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "doc-1", records[0].DocumentID)
		assert.Len(t, observed, 1)
	})

	t.Run("Error_Repository", func(t *testing.T) {
		repo := &mockRecordRepository{}
		repo.On("List", ctx, domain.Query{}).Return(nil, assert.AnError)

		uc := NewAuditUseCase(Config{}, repo, service.NewSHA256Hasher(), nil, nil)
		records, err := uc.GetAuditTrail(ctx, domain.Query{})
		assert.Nil(t, records)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestAuditUseCase_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	memory := repository.NewMemoryRecordRepository()
	hasher := service.NewSHA256Hasher()
	uc := NewAuditUseCase(Config{}, memory, hasher, nil, nil).(*auditUseCase)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		day := base.AddDate(0, 0, i)
		uc.clock = func() time.Time { return day }
		_, err := uc.RecordEvent(ctx, validationEvent(fmt.Sprintf("doc-%d", i)))
		require.NoError(t, err)
	}

	uc.clock = func() time.Time { return base.AddDate(0, 0, 10) }

	t.Run("Error_NegativeDays", func(t *testing.T) {
		_, err := uc.DeleteOlderThan(ctx, -1, false)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Success_DryRun", func(t *testing.T) {
		count, err := uc.DeleteOlderThan(ctx, 7, true)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("Success_PrunedChainStillVerifies", func(t *testing.T) {
		count, err := uc.DeleteOlderThan(ctx, 7, false)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		result, err := uc.VerifyAuditChainDetailed(ctx, "", "")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, int64(2), result.Checked)
	})

	t.Run("Success_NeverDeletesTip", func(t *testing.T) {
		count, err := uc.DeleteOlderThan(ctx, 0, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		last, err := memory.Last(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), last.Sequence)

		next, err := uc.RecordEvent(ctx, validationEvent("doc-next"))
		require.NoError(t, err)
		assert.Equal(t, last.CurrentHash, next.PreviousHash)
	})
}
