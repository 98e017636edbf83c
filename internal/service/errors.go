package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/mastery/internal/domain"
)

// ServiceError wraps an unexpected failure with the service and operation it
// came from. Callers match the cause with errors.Is/errors.As.
type ServiceError struct {
	// Service names the use case, e.g. "session".
	Service string
	// Operation is the operation that failed, e.g. "record_attempt".
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsExpected reports whether err is a condition the caller is meant to handle:
// not found, validation or a failed precondition.
func IsExpected(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrPreconditionFailed)
}

// Wrap returns nil and expected errors unchanged and wraps anything else in a
// *ServiceError.
func Wrap(service, operation, message string, err error) error {
	if err == nil || IsExpected(err) {
		return err
	}
	return NewServiceError(service, operation, message, err)
}
