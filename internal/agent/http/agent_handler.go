// Package http provides HTTP handlers for agent discovery.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/occam/internal/agent/domain"
	"github.com/allisson/occam/internal/agent/http/dto"
)

// AgentLister returns the registered agents.
type AgentLister interface {
	List() []domain.Agent
}

// AgentHandler handles HTTP requests for agents.
type AgentHandler struct {
	registry AgentLister
	logger   *slog.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(registry AgentLister, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListHandler returns every registered agent.
// GET /v1/agents
func (h *AgentHandler) ListHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapAgentsToListResponse(h.registry.List()))
}
