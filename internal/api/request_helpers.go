package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/api/shared"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/clock"
)

// getPathUUID parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// handlePathUUID is getPathUUID that writes the 400 itself.
func handlePathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := getPathUUID(r, paramName)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName)
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate reads the JSON body into v and validates it, writing
// the 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// parseAsOf reads the as_of query parameter as a calendar date in the
// clock's time zone. Without it, asOf is the clock's now.
func parseAsOf(r *http.Request, clk clock.Clock) (time.Time, error) {
	now := clk.Now()
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be a YYYY-MM-DD date", domain.ErrValidation)
	}
	return t, nil
}
