package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// Agent errors.
var (
	// ErrAgentNotFound indicates no agent is registered under the requested id.
	ErrAgentNotFound = errors.Wrap(errors.ErrNotFound, "agent not found")

	// ErrInvalidAgent indicates an agent without id or with an unknown kind.
	ErrInvalidAgent = errors.Wrap(errors.ErrInvalidInput, "invalid agent")
)
