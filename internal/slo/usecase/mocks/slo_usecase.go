// Package mocks provides mock implementations of the SLO use case for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/slo/domain"
)

// MockUseCase is a mock implementation of the SLO UseCase.
type MockUseCase struct {
	mock.Mock
}

// Evaluate mocks the Evaluate method.
func (m *MockUseCase) Evaluate(ctx context.Context) (*domain.ComplianceStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComplianceStatus), args.Error(1)
}

// RecordMeasurement mocks the RecordMeasurement method.
func (m *MockUseCase) RecordMeasurement(ctx context.Context, key string, value float64) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
