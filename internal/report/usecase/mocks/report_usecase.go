// Package mocks provides mock implementations of the report use case for testing.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/report/domain"
)

// MockUseCase is a mock implementation of the report UseCase.
type MockUseCase struct {
	mock.Mock
}

// Generate mocks the Generate method.
func (m *MockUseCase) Generate(ctx context.Context, start, end time.Time) (*domain.Report, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
