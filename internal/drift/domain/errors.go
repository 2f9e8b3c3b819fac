package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// Drift detection errors.
var (
	// ErrDriftThresholdExceeded indicates a clause drifted below its threshold; submission must halt.
	ErrDriftThresholdExceeded = errors.Wrap(errors.ErrBlocked, "drift threshold exceeded")

	// ErrCheckNotFound indicates no drift check exists for the clause.
	ErrCheckNotFound = errors.Wrap(errors.ErrNotFound, "drift check not found")

	// ErrInvalidClause indicates a clause without id or document.
	ErrInvalidClause = errors.Wrap(errors.ErrInvalidInput, "invalid clause")

	// ErrInvalidScore indicates a scorer returned a value outside [0, 1].
	ErrInvalidScore = errors.Wrap(errors.ErrInvalidInput, "similarity score out of range")

	// ErrInvalidPeriod indicates an analysis period whose end is not after its start.
	ErrInvalidPeriod = errors.Wrap(errors.ErrInvalidInput, "invalid analysis period")
)
