package planner

import (
	"errors"

	"github.com/sadopc/planr/internal/calendar"
)

var (
	// ErrNotFound is returned when deleting a task id the week does not hold.
	ErrNotFound = errors.New("not found")

	// ErrMalformedImport is returned when an import document cannot be decoded.
	ErrMalformedImport = errors.New("malformed import")

	// ErrPersistence wraps any failure reported by the backing key-value store.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidTimeBlock is returned for blocks that are not HH:MM or do not end after they start.
	ErrInvalidTimeBlock = errors.New("invalid time block")

	// ErrInvalidKey is returned for quarter, week or day keys that cannot be parsed.
	ErrInvalidKey = calendar.ErrInvalidKey
)
