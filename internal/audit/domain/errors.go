package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// Audit trail errors.
var (
	// ErrRecordNotFound indicates no record carries the requested hash.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "audit record not found")

	// ErrChainConflict indicates another writer appended at the same chain position.
	ErrChainConflict = errors.Wrap(errors.ErrConflict, "audit chain conflict")

	// ErrChainVerification indicates the chain failed integrity verification.
	ErrChainVerification = errors.Wrap(errors.ErrIntegrity, "audit chain verification failed")

	// ErrInvalidEvent indicates the event is missing its type or severity.
	ErrInvalidEvent = errors.Wrap(errors.ErrInvalidInput, "invalid audit event")

	// ErrInvalidRange indicates the verification bounds are out of order.
	ErrInvalidRange = errors.Wrap(errors.ErrInvalidInput, "start record is after end record")
)
