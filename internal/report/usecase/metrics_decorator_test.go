package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/report/domain"
	"github.com/allisson/occam/internal/report/usecase"
	usecaseMocks "github.com/allisson/occam/internal/report/usecase/mocks"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics to avoid dependency issues.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestReportUseCaseWithMetrics_Generate(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	tests := []struct {
		name   string
		report *domain.Report
		err    error
		status string
	}{
		{"success", &domain.Report{Checksum: "abc"}, nil, "success"},
		{"error", nil, domain.ErrInvalidPeriod, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockNext := &usecaseMocks.MockUseCase{}
			mockMetrics := &mockBusinessMetrics{}
			uc := usecase.NewReportUseCaseWithMetrics(mockNext, mockMetrics)

			mockNext.On("Generate", ctx, start, end).Return(tt.report, tt.err).Once()
			mockMetrics.On("RecordOperation", ctx, "report", "generate", tt.status).Return().Once()
			mockMetrics.On("RecordDuration", ctx, "report", "generate", mock.AnythingOfType("time.Duration"), tt.status).
				Return().Once()

			report, err := uc.Generate(ctx, start, end)
			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.report, report)
			mockNext.AssertExpectations(t)
			mockMetrics.AssertExpectations(t)
		})
	}
}
