// Package mocks provides mock implementations of the workflow use case for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/workflow/domain"
)

// MockUseCase is a mock implementation of the workflow UseCase.
type MockUseCase struct {
	mock.Mock
}

// RegisterWorkflow mocks the RegisterWorkflow method.
func (m *MockUseCase) RegisterWorkflow(ctx context.Context, definition *domain.Definition) error {
	args := m.Called(ctx, definition)
	return args.Error(0)
}

// GetWorkflow mocks the GetWorkflow method.
func (m *MockUseCase) GetWorkflow(ctx context.Context, workflowID string) (*domain.Definition, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Definition), args.Error(1)
}

// ListWorkflows mocks the ListWorkflows method.
func (m *MockUseCase) ListWorkflows(ctx context.Context) ([]*domain.Definition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Definition), args.Error(1)
}

// Execute mocks the Execute method.
func (m *MockUseCase) Execute(
	ctx context.Context,
	workflowID string,
	input domain.ExecuteInput,
) (*domain.Execution, error) {
	args := m.Called(ctx, workflowID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Execution), args.Error(1)
}
