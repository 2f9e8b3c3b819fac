package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// Re-verification errors.
var (
	// ErrJobNotFound indicates the job does not exist.
	ErrJobNotFound = errors.Wrap(errors.ErrNotFound, "re-verification job not found")

	// ErrInvalidJob indicates a job request without documents or with an unknown priority.
	ErrInvalidJob = errors.Wrap(errors.ErrInvalidInput, "invalid re-verification job")

	// ErrInvalidTransition indicates a status change the job lifecycle does not allow.
	ErrInvalidTransition = errors.Wrap(errors.ErrConflict, "invalid job status transition")

	// ErrJobAlreadyClaimed indicates another processor moved the job out of pending first.
	ErrJobAlreadyClaimed = errors.Wrap(errors.ErrConflict, "re-verification job already claimed")

	// ErrProgressOverflow indicates more unit outcomes than units.
	ErrProgressOverflow = errors.New("job progress exceeds total units")
)
