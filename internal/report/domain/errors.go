package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// Report errors.
var (
	// ErrInvalidPeriod indicates the report period is empty or reversed.
	ErrInvalidPeriod = errors.Wrap(errors.ErrInvalidInput, "report period end must be after start")
)
