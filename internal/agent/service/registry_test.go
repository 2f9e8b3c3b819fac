package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/occam/internal/agent/domain"
)

func newTestAgent(id string, kind domain.Kind) *FuncAgent {
	return NewFuncAgent(id, "Agent "+id, kind, func(ctx context.Context, step *domain.StepContext) (*domain.Result, error) {
		return &domain.Result{Success: true, Status: "ok"}, nil
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Run("Success_KeepsRegistrationOrder", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(newTestAgent("account", domain.KindAccount)))
		require.NoError(t, registry.Register(newTestAgent("form", domain.KindForm)))
		require.NoError(t, registry.Register(newTestAgent("payment", domain.KindPayment)))

		var ids []string
		for _, agent := range registry.List() {
			ids = append(ids, agent.ID())
		}
		assert.Equal(t, []string{"account", "form", "payment"}, ids)
	})

	t.Run("Success_OverwriteKeepsPosition", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(newTestAgent("account", domain.KindAccount)))
		require.NoError(t, registry.Register(newTestAgent("form", domain.KindForm)))

		replacement := NewFuncAgent("account", "Replacement", domain.KindAccount, nil)
		require.NoError(t, registry.Register(replacement))

		agents := registry.List()
		require.Len(t, agents, 2)
		assert.Equal(t, "Replacement", agents[0].Name())
		assert.Equal(t, "form", agents[1].ID())
	})

	t.Run("Error_InvalidAgent", func(t *testing.T) {
		registry := NewRegistry()
		assert.ErrorIs(t, registry.Register(newTestAgent("", domain.KindForm)), domain.ErrInvalidAgent)
		assert.ErrorIs(t, registry.Register(newTestAgent("x", domain.Kind("billing"))), domain.ErrInvalidAgent)
		assert.ErrorIs(t, registry.Register(nil), domain.ErrInvalidAgent)
		assert.Empty(t, registry.List())
	})
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newTestAgent("account", domain.KindAccount)))
	require.NoError(t, registry.Register(newTestAgent("form", domain.KindForm)))

	registry.Unregister("account")
	registry.Unregister("unknown")

	_, err := registry.Get("account")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
	agents := registry.List()
	require.Len(t, agents, 1)
	assert.Equal(t, "form", agents[0].ID())
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newTestAgent("status", domain.KindStatus)))

	agent, err := registry.Get("status")
	require.NoError(t, err)
	assert.Equal(t, domain.KindStatus, agent.Kind())

	_, err = registry.Get("missing")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}

func TestRegistry_ListIsSnapshot(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newTestAgent("account", domain.KindAccount)))

	snapshot := registry.List()
	require.NoError(t, registry.Register(newTestAgent("form", domain.KindForm)))

	assert.Len(t, snapshot, 1)
	assert.Len(t, registry.List(), 2)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = registry.Register(newTestAgent(fmt.Sprintf("agent-%d", i), domain.KindCompliance))
		}()
		go func() {
			defer wg.Done()
			_ = registry.List()
			_, _ = registry.Get("agent-0")
		}()
	}
	wg.Wait()

	assert.Len(t, registry.List(), 20)
}
