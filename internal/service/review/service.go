// Package review answers "what should be practiced today" and summarizes
// recent practice.
package review

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/platform/metrics"
	"github.com/phrazzld/mastery/internal/service"
	"github.com/phrazzld/mastery/internal/store"
)

const serviceName = "review"

// ReportDays is the length of the WeeklyReport window.
const ReportDays = 7

// Report summarizes practice over a window of days.
type Report struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Attempts int       `json:"attempts"`
	Correct  int       `json:"correct"`
	// Incorrect is Attempts minus Correct.
	Incorrect int `json:"incorrect"`
	// Accuracy is Correct/Attempts, or 0 with no attempts.
	Accuracy           float64 `json:"accuracy"`
	PointsPracticed    int     `json:"points_practiced"`
	Mastered           int     `json:"mastered"`
	NeedsReinforcement int     `json:"needs_reinforcement"`
	Learning           int     `json:"learning"`
	Untested           int     `json:"untested"`
}

// Service is the read side of scheduling.
type Service interface {
	// DueReviews returns non-mastered points whose next review date is on or
	// before asOf's calendar date, oldest-due first, ties broken by ID.
	DueReviews(ctx context.Context, asOf time.Time) ([]*domain.KnowledgePoint, error)

	// Due is DueReviews as a sequence. The query runs when iteration starts,
	// so the sequence can be ranged over again for a fresh read.
	Due(ctx context.Context, asOf time.Time) iter.Seq2[*domain.KnowledgePoint, error]

	// ReviewsForTask returns a task's points in insertion order.
	// Returns domain.ErrTaskNotFound when the task is absent.
	ReviewsForTask(ctx context.Context, taskID uuid.UUID) ([]*domain.KnowledgePoint, error)

	// WeeklyReport summarizes the ReportDays calendar days ending with asOf's date.
	WeeklyReport(ctx context.Context, asOf time.Time) (*Report, error)
}

type reviewService struct {
	stores  store.Stores
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ Service = (*reviewService)(nil)

// NewService creates a review Service. m may be nil.
func NewService(stores store.Stores, m *metrics.Metrics, logger *slog.Logger) (Service, error) {
	if stores.Tasks == nil || stores.KnowledgePoints == nil || stores.History == nil {
		return nil, errors.New("stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &reviewService{
		stores:  stores,
		metrics: m,
		logger:  logger.With(slog.String("component", "review_service")),
	}, nil
}

// DueReviews implements Service.DueReviews.
func (s *reviewService) DueReviews(ctx context.Context, asOf time.Time) ([]*domain.KnowledgePoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	kps, err := s.stores.KnowledgePoints.ListDue(ctx, asOf)
	if err != nil {
		log.Error("failed to list due reviews", slog.String("error", err.Error()))
		return nil, service.Wrap(serviceName, "due_reviews", "failed to list due reviews", err)
	}

	s.metrics.SetDue(len(kps))
	log.Debug("due reviews listed",
		slog.String("as_of", domain.DateOf(asOf).Format(domain.DateLayout)),
		slog.Int("count", len(kps)))
	return kps, nil
}

// Due implements Service.Due.
//
// The full result is read before the first yield so no cursor stays open
// while the caller works; with a single-connection store that would block
// any write the caller makes between iterations.
func (s *reviewService) Due(ctx context.Context, asOf time.Time) iter.Seq2[*domain.KnowledgePoint, error] {
	return func(yield func(*domain.KnowledgePoint, error) bool) {
		kps, err := s.DueReviews(ctx, asOf)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, kp := range kps {
			if !yield(kp, nil) {
				return
			}
		}
	}
}

// ReviewsForTask implements Service.ReviewsForTask.
func (s *reviewService) ReviewsForTask(ctx context.Context, taskID uuid.UUID) ([]*domain.KnowledgePoint, error) {
	if _, err := s.stores.Tasks.GetByID(ctx, taskID); err != nil {
		return nil, service.Wrap(serviceName, "reviews_for_task", "failed to get task", err)
	}
	kps, err := s.stores.KnowledgePoints.ListByTask(ctx, taskID)
	if err != nil {
		return nil, service.Wrap(serviceName, "reviews_for_task", "failed to list knowledge points", err)
	}
	return kps, nil
}

// WeeklyReport implements Service.WeeklyReport.
func (s *reviewService) WeeklyReport(ctx context.Context, asOf time.Time) (*Report, error) {
	// Window boundaries are midnights in asOf's location.
	y, m, d := asOf.Date()
	to := time.Date(y, m, d+1, 0, 0, 0, 0, asOf.Location())
	from := time.Date(y, m, d+1-ReportDays, 0, 0, 0, 0, asOf.Location())

	entries, err := s.stores.History.ListBetween(ctx, from, to)
	if err != nil {
		return nil, service.Wrap(serviceName, "weekly_report", "failed to list history", err)
	}
	counts, err := s.stores.KnowledgePoints.CountByLevel(ctx)
	if err != nil {
		return nil, service.Wrap(serviceName, "weekly_report", "failed to count knowledge points", err)
	}

	r := &Report{
		From:               from,
		To:                 to,
		Mastered:           counts[domain.MasteryMastered],
		NeedsReinforcement: counts[domain.MasteryNeedsReinforcement],
		Learning:           counts[domain.MasteryLearning],
		Untested:           counts[domain.MasteryUntested],
	}
	practiced := make(map[uuid.UUID]struct{})
	for _, e := range entries {
		r.Attempts++
		if e.Result == domain.ResultCorrect {
			r.Correct++
		}
		practiced[e.KnowledgePointID] = struct{}{}
	}
	r.Incorrect = r.Attempts - r.Correct
	r.PointsPracticed = len(practiced)
	if r.Attempts > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Attempts)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("weekly report built",
		slog.Time("from", from),
		slog.Int("attempts", r.Attempts))
	return r, nil
}
