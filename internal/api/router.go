package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/mastery/internal/api/middleware"
	"github.com/phrazzld/mastery/internal/platform/metrics"
)

// RequestTimeout bounds every API request, including its transaction.
const RequestTimeout = 30 * time.Second

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Tasks           *TaskHandler
	Reviews         *ReviewHandler
	KnowledgePoints *KnowledgePointHandler
}

// NewRouter builds the HTTP API. A nil m leaves out /metrics and request
// instrumentation.
func NewRouter(h Handlers, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	r.Use(apiMiddleware.NewMetricsMiddleware(m))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.Tasks.CreateTask)
			r.Get("/", h.Tasks.ListTasks)
			r.Get("/{id}", h.Tasks.GetTask)
			r.Post("/{id}/knowledge-points", h.Tasks.AttachKnowledgePoints)
			r.Get("/{id}/knowledge-points", h.Tasks.ListKnowledgePoints)
			r.Post("/{id}/complete", h.Tasks.CompleteTask)
		})

		r.Get("/reviews/due", h.Reviews.DueReviews)
		r.Get("/reviews/weekly", h.Reviews.WeeklyReport)

		r.Route("/knowledge-points/{id}", func(r chi.Router) {
			r.Post("/attempts", h.KnowledgePoints.RecordAttempt)
			r.Get("/history", h.KnowledgePoints.History)
			r.Get("/strategies", h.KnowledgePoints.Strategies)
			r.Post("/strategies/suggest", h.KnowledgePoints.SuggestStrategy)
		})

		r.Put("/strategies/{id}/effectiveness", h.KnowledgePoints.UpdateEffectiveness)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	if m != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	return r
}
