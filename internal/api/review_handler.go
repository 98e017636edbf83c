package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/mastery/internal/api/shared"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/service/review"
)

// ReviewHandler serves the daily due list and the weekly report.
type ReviewHandler struct {
	review review.Service
	clock  clock.Clock
	logger *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler. clk decides "today" when a
// request carries no as_of date.
func NewReviewHandler(reviewService review.Service, clk clock.Clock, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil || clk == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("review service and clock cannot be nil for ReviewHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		review: reviewService,
		clock:  clk,
		logger: logger.With(slog.String("component", "review_handler")),
	}
}

// DueReviews handles GET /api/reviews/due?as_of=YYYY-MM-DD.
func (h *ReviewHandler) DueReviews(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.clock)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	kps, err := h.review.DueReviews(r.Context(), asOf)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due reviews")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("due reviews served",
		slog.Int("count", len(kps)))
	shared.RespondWithJSON(w, r, http.StatusOK, DueReviewsResponse{
		AsOf:            domain.DateOf(asOf).Format(domain.DateLayout),
		Count:           len(kps),
		KnowledgePoints: knowledgePointsToResponse(kps),
	})
}

// WeeklyReport handles GET /api/reviews/weekly?as_of=YYYY-MM-DD.
func (h *ReviewHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.clock)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	report, err := h.review.WeeklyReport(r.Context(), asOf)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build weekly report")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(report))
}
