// Package service provides the agent registry and the agent adapters.
package service

import (
	"sync"

	"github.com/allisson/occam/internal/agent/domain"
)

// Registry holds the invocable agents by id. It is read-mostly: agents are
// registered at startup and looked up on every workflow step.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]domain.Agent
	order  []string
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]domain.Agent),
	}
}

// Register inserts agent or replaces the agent with the same id, keeping its
// original position in the registration order.
func (r *Registry) Register(agent domain.Agent) error {
	if agent == nil || agent.ID() == "" || !agent.Kind().Valid() {
		return domain.ErrInvalidAgent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[agent.ID()]; !exists {
		r.order = append(r.order, agent.ID())
	}
	r.agents[agent.ID()] = agent
	return nil
}

// Unregister removes the agent with the given id. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[id]; !exists {
		return
	}
	delete(r.agents, id)
	for i, registered := range r.order {
		if registered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the agent with the given id or domain.ErrAgentNotFound.
func (r *Registry) Get(id string) (domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return agent, nil
}

// List returns a snapshot of the registered agents in registration order.
func (r *Registry) List() []domain.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]domain.Agent, 0, len(r.order))
	for _, id := range r.order {
		agents = append(agents, r.agents[id])
	}
	return agents
}
