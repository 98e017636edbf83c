package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or input fails validation.
	// This is usually wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced task or knowledge point does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed is returned when an operation is not allowed in the
	// current state, e.g. completing a task that still has unmastered points.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = fmt.Errorf("%w: content cannot be empty", ErrValidation)

	// ErrInvalidID is returned when an ID is nil or malformed.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)
)

// Entity-specific not found errors.
var (
	ErrTaskNotFound             = fmt.Errorf("%w: task", ErrNotFound)
	ErrKnowledgePointNotFound   = fmt.Errorf("%w: knowledge point", ErrNotFound)
	ErrTeachingStrategyNotFound = fmt.Errorf("%w: teaching strategy", ErrNotFound)
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is, or wraps, ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPreconditionFailed reports whether err is, or wraps, ErrPreconditionFailed.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}
