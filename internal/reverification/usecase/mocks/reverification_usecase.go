// Package mocks provides mock implementations of the re-verification use case for testing.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	driftDomain "github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/reverification/domain"
	"github.com/allisson/occam/internal/reverification/usecase"
)

// MockUseCase is a mock implementation of the re-verification UseCase.
type MockUseCase struct {
	mock.Mock
}

// TriggerFromDrift mocks the TriggerFromDrift method.
func (m *MockUseCase) TriggerFromDrift(ctx context.Context, cases []*driftDomain.Check) (uuid.UUID, error) {
	args := m.Called(ctx, cases)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// ScheduleManual mocks the ScheduleManual method.
func (m *MockUseCase) ScheduleManual(ctx context.Context, input usecase.ManualInput) (*domain.Job, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

// RunScheduledAudit mocks the RunScheduledAudit method.
func (m *MockUseCase) RunScheduledAudit(ctx context.Context) (*domain.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

// GetJob mocks the GetJob method.
func (m *MockUseCase) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

// ProcessJob mocks the ProcessJob method.
func (m *MockUseCase) ProcessJob(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// ProcessPending mocks the ProcessPending method.
func (m *MockUseCase) ProcessPending(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Start mocks the Start method.
func (m *MockUseCase) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
