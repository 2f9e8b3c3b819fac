package service

import (
	"context"

	"github.com/allisson/occam/internal/agent/domain"
)

// ExecuteFunc is the body of an in-process agent.
type ExecuteFunc func(ctx context.Context, step *domain.StepContext) (*domain.Result, error)

// FuncAgent adapts a function to the domain.Agent interface.
type FuncAgent struct {
	id   string
	name string
	kind domain.Kind
	fn   ExecuteFunc
}

// NewFuncAgent creates an in-process agent.
func NewFuncAgent(id, name string, kind domain.Kind, fn ExecuteFunc) *FuncAgent {
	return &FuncAgent{id: id, name: name, kind: kind, fn: fn}
}

func (a *FuncAgent) ID() string        { return a.id }
func (a *FuncAgent) Name() string      { return a.name }
func (a *FuncAgent) Kind() domain.Kind { return a.kind }

// Execute runs the wrapped function.
func (a *FuncAgent) Execute(ctx context.Context, step *domain.StepContext) (*domain.Result, error) {
	return a.fn(ctx, step)
}
