package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/mastery/internal/api/shared"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/service/session"
	"github.com/phrazzld/mastery/internal/store"
)

// MapErrorToStatusCode maps service and domain errors to HTTP status codes
// without exposing the error types themselves.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, session.ErrNoStrategyWriter):
		return http.StatusServiceUnavailable

	case errors.Is(err, session.ErrStrategyFailed):
		return http.StatusBadGateway

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrPreconditionFailed),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &verrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Only messages
// of domain sentinels are echoed; everything else gets a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, session.ErrNoStrategyWriter):
		return "Strategy suggestions are not configured"

	case errors.Is(err, session.ErrStrategyFailed):
		return "Failed to generate strategy"

	case errors.Is(err, domain.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrKnowledgePointNotFound):
		return "Knowledge point not found"

	case errors.Is(err, domain.ErrTeachingStrategyNotFound):
		return "Teaching strategy not found"

	case errors.Is(err, domain.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrPreconditionFailed):
		return "Task has knowledge points that are not mastered"

	case errors.As(err, &verrs):
		return SanitizeValidationError(err)

	case errors.Is(err, domain.ErrValidation):
		// Domain validation messages name the field and the rule, never a value
		// from storage, so they are safe to echo.
		return capitalize(err.Error())

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message for 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// SanitizeValidationError turns validator errors into "Invalid <field>: <reason>"
// for the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid ID"
	case "datetime":
		return "invalid date, expected YYYY-MM-DD"
	case "dive":
		return "invalid entry"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
