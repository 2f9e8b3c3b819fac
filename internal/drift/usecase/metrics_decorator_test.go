package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/drift/usecase"
	usecaseMocks "github.com/allisson/occam/internal/drift/usecase/mocks"
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

type mockComplianceMetrics struct {
	mock.Mock
}

func (m *mockComplianceMetrics) RecordSLO(ctx context.Context, name string, actual float64, compliant bool) {
	m.Called(ctx, name, actual, compliant)
}

func (m *mockComplianceMetrics) RecordDriftCheck(ctx context.Context, riskLevel, action string) {
	m.Called(ctx, riskLevel, action)
}

func (m *mockComplianceMetrics) RecordChainVerification(ctx context.Context, valid bool) {
	m.Called(ctx, valid)
}

func expectOperation(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "drift", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "drift", operation, mock.AnythingOfType("time.Duration"), status).Return().Once()
}

func TestDriftUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("EvaluateBatch counts every check", func(t *testing.T) {
		mockNext := &usecaseMocks.MockUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		mockCompliance := &mockComplianceMetrics{}
		uc := usecase.NewDriftUseCaseWithMetrics(mockNext, mockMetrics, mockCompliance)

		inputs := []domain.ClauseInput{{ClauseID: "c1", DocumentID: "doc-1"}, {ClauseID: "c2", DocumentID: "doc-1"}}
		result := &domain.BatchResult{Checks: []*domain.Check{
			{ClauseID: "c1", RiskLevel: domain.RiskNone, Action: domain.ActionNone},
			{ClauseID: "c2", RiskLevel: domain.RiskHigh, Action: domain.ActionReverificationTriggered},
		}}
		mockNext.On("EvaluateBatch", ctx, inputs).Return(result, nil).Once()
		expectOperation(mockMetrics, ctx, "evaluate_batch", "success")
		mockCompliance.On("RecordDriftCheck", ctx, "none", "none").Return().Once()
		mockCompliance.On("RecordDriftCheck", ctx, "high", "re-verification-triggered").Return().Once()

		got, err := uc.EvaluateBatch(ctx, inputs)
		assert.NoError(t, err)
		assert.Equal(t, result, got)
		mockMetrics.AssertExpectations(t)
		mockCompliance.AssertExpectations(t)
	})

	t.Run("Evaluate error records no check", func(t *testing.T) {
		mockNext := &usecaseMocks.MockUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		mockCompliance := &mockComplianceMetrics{}
		uc := usecase.NewDriftUseCaseWithMetrics(mockNext, mockMetrics, mockCompliance)

		input := domain.ClauseInput{ClauseID: "c1"}
		mockNext.On("Evaluate", ctx, input).Return(nil, domain.ErrInvalidClause).Once()
		expectOperation(mockMetrics, ctx, "evaluate", "error")

		_, err := uc.Evaluate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrInvalidClause)
		mockMetrics.AssertExpectations(t)
		mockCompliance.AssertNotCalled(t, "RecordDriftCheck", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("VerifyClauses blocked", func(t *testing.T) {
		mockNext := &usecaseMocks.MockUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewDriftUseCaseWithMetrics(mockNext, mockMetrics, &mockComplianceMetrics{})

		mockNext.On("VerifyClauses", ctx, "doc-1", []string{"c1"}).Return(domain.ErrDriftThresholdExceeded).Once()
		expectOperation(mockMetrics, ctx, "verify_clauses", "error")

		err := uc.VerifyClauses(ctx, "doc-1", []string{"c1"})
		assert.ErrorIs(t, err, domain.ErrDriftThresholdExceeded)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Analyze success", func(t *testing.T) {
		mockNext := &usecaseMocks.MockUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewDriftUseCaseWithMetrics(mockNext, mockMetrics, &mockComplianceMetrics{})

		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(24 * time.Hour)
		analysis := &domain.Analysis{PeriodStart: start, PeriodEnd: end}
		mockNext.On("Analyze", ctx, start, end).Return(analysis, nil).Once()
		expectOperation(mockMetrics, ctx, "analyze", "success")

		got, err := uc.Analyze(ctx, start, end)
		assert.NoError(t, err)
		assert.Equal(t, analysis, got)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Guard delegates", func(t *testing.T) {
		mockNext := &usecaseMocks.MockUseCase{}
		uc := usecase.NewDriftUseCaseWithMetrics(mockNext, &mockBusinessMetrics{}, &mockComplianceMetrics{})

		check := &domain.Check{Blocked: true}
		mockNext.On("Guard", check).Return(domain.ErrDriftThresholdExceeded).Once()

		assert.ErrorIs(t, uc.Guard(check), domain.ErrDriftThresholdExceeded)
		mockNext.AssertExpectations(t)
	})
}
