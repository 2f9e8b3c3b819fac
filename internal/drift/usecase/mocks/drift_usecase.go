// Package mocks provides mock implementations of the drift use case for testing.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/drift/domain"
)

// MockUseCase is a mock implementation of the drift UseCase.
type MockUseCase struct {
	mock.Mock
}

// Evaluate mocks the Evaluate method.
func (m *MockUseCase) Evaluate(ctx context.Context, input domain.ClauseInput) (*domain.Check, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Check), args.Error(1)
}

// EvaluateBatch mocks the EvaluateBatch method.
func (m *MockUseCase) EvaluateBatch(ctx context.Context, inputs []domain.ClauseInput) (*domain.BatchResult, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

// Guard mocks the Guard method.
func (m *MockUseCase) Guard(check *domain.Check) error {
	args := m.Called(check)
	return args.Error(0)
}

// VerifyClauses mocks the VerifyClauses method.
func (m *MockUseCase) VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error {
	args := m.Called(ctx, documentID, clauseIDs)
	return args.Error(0)
}

// Analyze mocks the Analyze method.
func (m *MockUseCase) Analyze(ctx context.Context, start, end time.Time) (*domain.Analysis, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}
