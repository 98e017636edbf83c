package service

import (
	"errors"
	"testing"

	"github.com/phrazzld/mastery/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		expected string
	}{
		{
			name:     "with underlying error",
			err:      NewServiceError("session", "record_attempt", "failed to save", errors.New("disk full")),
			expected: "session service record_attempt failed: failed to save: disk full",
		},
		{
			name:     "without underlying error",
			err:      NewServiceError("review", "due", "no clock", nil),
			expected: "review service due failed: no clock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewServiceError("lifecycle", "create_task", "failed to create task", cause)

	assert.ErrorIs(t, err, cause)

	var se *ServiceError
	assert.True(t, errors.As(error(err), &se))
	assert.Equal(t, "create_task", se.Operation)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("s", "op", "msg", nil))

	for _, expected := range []error{
		domain.ErrTaskNotFound,
		domain.ErrEmptyContent,
		domain.ErrPreconditionFailed,
	} {
		assert.Same(t, expected, Wrap("s", "op", "msg", expected))
	}

	cause := errors.New("boom")
	wrapped := Wrap("s", "op", "msg", cause)
	var se *ServiceError
	assert.True(t, errors.As(wrapped, &se))
	assert.ErrorIs(t, wrapped, cause)
}
