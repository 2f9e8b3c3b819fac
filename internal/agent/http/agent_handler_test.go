package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/occam/internal/agent/domain"
	"github.com/allisson/occam/internal/agent/http/dto"
	"github.com/allisson/occam/internal/agent/service"
)

func TestAgentHandler_ListHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	noop := func(ctx context.Context, step *domain.StepContext) (*domain.Result, error) {
		return &domain.Result{Success: true}, nil
	}
	registry := service.NewRegistry()
	require.NoError(t, registry.Register(service.NewFuncAgent("intake", "Intake", domain.KindAccount, noop)))
	require.NoError(t, registry.Register(service.NewFuncAgent("validator", "Validator", domain.KindCompliance, noop)))

	handler := NewAgentHandler(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/agents", nil)

	handler.ListHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.ListAgentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, "intake", response.Data[0].ID)
	assert.Equal(t, "ingestion", response.Data[0].EventType)
	assert.Equal(t, "validation", response.Data[1].EventType)
}
