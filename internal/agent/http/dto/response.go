// Package dto provides data transfer objects for the agent HTTP API.
package dto

import (
	"github.com/allisson/occam/internal/agent/domain"
)

// AgentResponse describes a registered agent.
type AgentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	EventType string `json:"event_type"`
}

// ListAgentsResponse lists the registered agents in registration order.
type ListAgentsResponse struct {
	Data []AgentResponse `json:"data"`
}

// MapAgentsToListResponse converts agents to a list API response.
func MapAgentsToListResponse(agents []domain.Agent) ListAgentsResponse {
	responses := make([]AgentResponse, 0, len(agents))
	for _, agent := range agents {
		responses = append(responses, AgentResponse{
			ID:        agent.ID(),
			Name:      agent.Name(),
			Kind:      string(agent.Kind()),
			EventType: string(agent.Kind().EventType()),
		})
	}
	return ListAgentsResponse{Data: responses}
}
