package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/slo/domain"
	"github.com/allisson/occam/internal/slo/http/dto"
	"github.com/allisson/occam/internal/slo/usecase/mocks"
)

func setupTestSLOHandler(t *testing.T) (*SLOHandler, *mocks.MockUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewSLOHandler(mockUseCase, logger), mockUseCase
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	c.Request = httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	c.Request.Header.Set("Content-Type", "application/json")

	return c, w
}

func TestSLOHandler_StatusHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)
		evaluatedAt := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
		status := domain.NewComplianceStatus([]domain.Metric{
			{
				Key:       domain.KeyRetrievalLatency,
				Name:      "Retrieval Latency",
				Target:    2500,
				Actual:    1850,
				Unit:      "ms",
				Direction: domain.LowerIsBetter,
				Compliant: true,
				Trend:     domain.TrendStable,
			},
			{
				Key:       domain.KeyCPU,
				Name:      "CPU Utilization",
				Target:    80,
				Actual:    92,
				Unit:      "%",
				Direction: domain.LowerIsBetter,
				Trend:     domain.TrendDegrading,
			},
		}, evaluatedAt)
		mockUseCase.On("Evaluate", mock.Anything).Return(status, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/slo/status", nil)
		handler.StatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.OverallCompliance)
		assert.Equal(t, []string{"CPU Utilization"}, response.ViolatedSLOs)
		require.Len(t, response.Metrics, 2)
		assert.Equal(t, "retrieval_latency", response.Metrics[0].Key)
		assert.Equal(t, "lower", response.Metrics[1].Direction)
		assert.Equal(t, "degrading", response.Metrics[1].Trend)
		assert.Equal(t, evaluatedAt, response.EvaluatedAt)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("UseCaseError", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)
		mockUseCase.On("Evaluate", mock.Anything).Return(nil, apperrors.ErrTimeout).Once()

		c, w := createTestContext(http.MethodGet, "/v1/slo/status", nil)
		handler.StatusHandler(c)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestSLOHandler_MeasurementHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)
		mockUseCase.On("RecordMeasurement", mock.Anything, domain.KeyBuildTime, 7.5).Return(nil).Once()

		c, w := createTestContext(http.MethodPut, "/v1/slo/measurements/build_time", map[string]any{"value": 7.5})
		c.Params = gin.Params{{Key: "metric", Value: domain.KeyBuildTime}}
		handler.MeasurementHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("ZeroIsAValue", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)
		mockUseCase.On("RecordMeasurement", mock.Anything, domain.KeyCPU, 0.0).Return(nil).Once()

		c, w := createTestContext(http.MethodPut, "/v1/slo/measurements/cpu_utilization", map[string]any{"value": 0})
		c.Params = gin.Params{{Key: "metric", Value: domain.KeyCPU}}
		handler.MeasurementHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("MissingValue", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)

		c, w := createTestContext(http.MethodPut, "/v1/slo/measurements/cpu_utilization", map[string]any{})
		c.Params = gin.Params{{Key: "metric", Value: domain.KeyCPU}}
		handler.MeasurementHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "RecordMeasurement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NegativeValue", func(t *testing.T) {
		handler, _ := setupTestSLOHandler(t)

		c, w := createTestContext(http.MethodPut, "/v1/slo/measurements/cpu_utilization", map[string]any{"value": -3})
		c.Params = gin.Params{{Key: "metric", Value: domain.KeyCPU}}
		handler.MeasurementHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("UnknownMetric", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)
		mockUseCase.On("RecordMeasurement", mock.Anything, "disk", 1.0).
			Return(apperrors.Wrap(domain.ErrUnknownMetric, "disk")).Once()

		c, w := createTestContext(http.MethodPut, "/v1/slo/measurements/disk", map[string]any{"value": 1})
		c.Params = gin.Params{{Key: "metric", Value: "disk"}}
		handler.MeasurementHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InternallyMeasured", func(t *testing.T) {
		handler, mockUseCase := setupTestSLOHandler(t)
		mockUseCase.On("RecordMeasurement", mock.Anything, domain.KeyMemory, 12.0).
			Return(domain.ErrMetricNotReportable).Once()

		c, w := createTestContext(http.MethodPut, "/v1/slo/measurements/memory_utilization", map[string]any{"value": 12})
		c.Params = gin.Params{{Key: "metric", Value: domain.KeyMemory}}
		handler.MeasurementHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}
