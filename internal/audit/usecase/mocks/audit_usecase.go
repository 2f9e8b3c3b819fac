// Package mocks provides mock implementations of the audit use case for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/audit/domain"
)

// MockUseCase is a mock implementation of the audit UseCase.
type MockUseCase struct {
	mock.Mock
}

// RecordEvent mocks the RecordEvent method.
func (m *MockUseCase) RecordEvent(ctx context.Context, event *domain.Event) (*domain.Record, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

// GetAuditTrail mocks the GetAuditTrail method.
func (m *MockUseCase) GetAuditTrail(ctx context.Context, query domain.Query) ([]*domain.Record, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

// VerifyAuditChain mocks the VerifyAuditChain method.
func (m *MockUseCase) VerifyAuditChain(ctx context.Context, startHash, endHash string) (bool, error) {
	args := m.Called(ctx, startHash, endHash)
	return args.Bool(0), args.Error(1)
}

// VerifyAuditChainDetailed mocks the VerifyAuditChainDetailed method.
func (m *MockUseCase) VerifyAuditChainDetailed(
	ctx context.Context,
	startHash, endHash string,
) (*domain.VerificationResult, error) {
	args := m.Called(ctx, startHash, endHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}

// DeleteOlderThan mocks the DeleteOlderThan method.
func (m *MockUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}
