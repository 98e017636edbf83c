// Package session records review attempts on knowledge points, the teaching
// strategies used along the way, and checks that stored schedules still
// match their history.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/domain/mastery"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/platform/metrics"
	"github.com/phrazzld/mastery/internal/service"
	"github.com/phrazzld/mastery/internal/store"
)

const serviceName = "session"

// ErrNoStrategyWriter is returned by SuggestStrategy when no AI model is configured.
var ErrNoStrategyWriter = fmt.Errorf("%w: no strategy writer configured", domain.ErrPreconditionFailed)

// ErrStrategyFailed is wrapped around any StrategyWriter error.
var ErrStrategyFailed = errors.New("strategy writer failed")

// StrategyInput describes a teaching strategy applied during an attempt.
type StrategyInput struct {
	StrategyType string
	Content      string
}

// AttemptInput is the input for RecordAttempt.
type AttemptInput struct {
	KnowledgePointID uuid.UUID
	Result           domain.Result
	ParentFeedback   string
	AgentResponse    string
	Strategy         *StrategyInput
}

// RecordedAttempt is everything RecordAttempt wrote.
type RecordedAttempt struct {
	KnowledgePoint *domain.KnowledgePoint
	History        *domain.LearningHistory
	Strategy       *domain.TeachingStrategy
	PreviousLevel  domain.MasteryLevel
	Streak         int
}

// StrategyWriter drafts teaching-strategy text for a knowledge point.
// The text is stored verbatim and never interpreted.
type StrategyWriter interface {
	WriteStrategy(
		ctx context.Context,
		strategyType string,
		task *domain.Task,
		kp *domain.KnowledgePoint,
		recent []*domain.LearningHistory,
	) (string, error)
}

// Service records attempts and strategies.
type Service interface {
	// RecordAttempt appends a history entry, updates the point's counts,
	// mastery level and next review date, and stores the optional strategy,
	// all in one transaction. Returns domain.ErrKnowledgePointNotFound when
	// the point is absent.
	RecordAttempt(ctx context.Context, in AttemptInput) (*RecordedAttempt, error)

	// UpdateStrategyEffectiveness records how well a strategy worked.
	UpdateStrategyEffectiveness(ctx context.Context, strategyID uuid.UUID, eff domain.Effectiveness) error

	// History returns the point's attempts, newest first.
	History(ctx context.Context, kpID uuid.UUID) ([]*domain.LearningHistory, error)

	// Strategies returns the point's strategies, newest first.
	Strategies(ctx context.Context, kpID uuid.UUID) ([]*domain.TeachingStrategy, error)

	// SuggestStrategy asks the configured StrategyWriter for strategy text.
	// Nothing is persisted; the caller passes the text back with an attempt.
	SuggestStrategy(ctx context.Context, kpID uuid.UUID, strategyType string) (*StrategyInput, error)

	// VerifyProjection replays the point's history and compares the result
	// with what is stored.
	VerifyProjection(ctx context.Context, kpID uuid.UUID) (*Projection, error)
}

// Option configures optional collaborators.
type Option func(*sessionService)

// WithStrategyWriter enables SuggestStrategy.
func WithStrategyWriter(w StrategyWriter) Option {
	return func(s *sessionService) { s.writer = w }
}

type sessionService struct {
	stores    store.Stores
	evaluator mastery.Evaluator
	clock     clock.Clock
	writer    StrategyWriter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

var _ Service = (*sessionService)(nil)

// NewService creates a session Service. m may be nil.
func NewService(
	stores store.Stores,
	evaluator mastery.Evaluator,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) (Service, error) {
	if stores.DB == nil || stores.Tasks == nil || stores.KnowledgePoints == nil || stores.History == nil || stores.Strategies == nil {
		return nil, errors.New("stores cannot be nil")
	}
	if evaluator == nil {
		return nil, errors.New("evaluator cannot be nil")
	}
	if clk == nil {
		return nil, errors.New("clock cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &sessionService{
		stores:    stores,
		evaluator: evaluator,
		clock:     clk,
		metrics:   m,
		logger:    logger.With(slog.String("component", "session_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RecordAttempt implements Service.RecordAttempt.
func (s *sessionService) RecordAttempt(ctx context.Context, in AttemptInput) (*RecordedAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("kp_id", in.KnowledgePointID.String()),
		slog.String("result", string(in.Result)))

	if err := in.Result.Validate(); err != nil {
		return nil, err
	}
	if in.Strategy != nil {
		// Checked up front so a bad strategy cannot fail the transaction
		// after the history entry is written.
		if strings.TrimSpace(in.Strategy.StrategyType) == "" {
			return nil, domain.ErrStrategyTypeEmpty
		}
		if in.Strategy.Content == "" {
			return nil, domain.ErrEmptyContent
		}
	}

	start := time.Now()
	now := s.clock.Now().Truncate(time.Millisecond)
	var out *RecordedAttempt

	err := store.RunInTransaction(ctx, s.stores.DB, func(ctx context.Context, tx *sql.Tx) error {
		txs := s.stores.WithTx(tx)

		kp, err := txs.KnowledgePoints.GetForUpdate(ctx, in.KnowledgePointID)
		if err != nil {
			return err
		}
		previous := kp.MasteryLevel

		entry, err := domain.NewLearningHistory(kp.ID, in.Result, in.ParentFeedback, in.AgentResponse, now)
		if err != nil {
			return err
		}
		if err := txs.History.Create(ctx, entry); err != nil {
			return err
		}

		if in.Result == domain.ResultCorrect {
			kp.CorrectCount++
		} else {
			kp.ErrorCount++
		}

		recent, err := txs.History.ListRecent(ctx, kp.ID, s.evaluator.Lookback())
		if err != nil {
			return err
		}
		assessment, err := s.evaluator.Evaluate(mastery.Evidence{
			ErrorCount:   kp.ErrorCount,
			CorrectCount: kp.CorrectCount,
			Previous:     previous,
			Recent:       results(recent),
		}, now)
		if err != nil {
			return err
		}

		kp.MasteryLevel = assessment.Level
		kp.NextReviewDate = assessment.NextReviewDate
		testedAt := entry.TestedAt
		kp.LastTestedAt = &testedAt
		if err := txs.KnowledgePoints.Update(ctx, kp); err != nil {
			return err
		}

		out = &RecordedAttempt{
			KnowledgePoint: kp,
			History:        entry,
			PreviousLevel:  previous,
			Streak:         assessment.Streak,
		}

		if in.Strategy != nil {
			strategy, err := domain.NewTeachingStrategy(kp.ID, in.Strategy.StrategyType, in.Strategy.Content, now)
			if err != nil {
				return err
			}
			if err := txs.Strategies.Create(ctx, strategy); err != nil {
				return err
			}
			out.Strategy = strategy
		}
		return nil
	})
	if err != nil {
		if !service.IsExpected(err) {
			log.Error("failed to record attempt", slog.String("error", err.Error()))
		}
		return nil, service.Wrap(serviceName, "record_attempt", "failed to record attempt", err)
	}

	s.metrics.RecordAttempt(string(in.Result), string(out.PreviousLevel), string(out.KnowledgePoint.MasteryLevel), time.Since(start))
	log.Info("attempt recorded",
		slog.String("from_level", string(out.PreviousLevel)),
		slog.String("to_level", string(out.KnowledgePoint.MasteryLevel)),
		slog.Int("streak", out.Streak),
		slog.String("next_review_date", formatDate(out.KnowledgePoint.NextReviewDate)))
	return out, nil
}

// UpdateStrategyEffectiveness implements Service.UpdateStrategyEffectiveness.
func (s *sessionService) UpdateStrategyEffectiveness(ctx context.Context, strategyID uuid.UUID, eff domain.Effectiveness) error {
	if err := eff.Validate(); err != nil {
		return err
	}
	if err := s.stores.Strategies.UpdateEffectiveness(ctx, strategyID, eff); err != nil {
		return service.Wrap(serviceName, "update_effectiveness", "failed to update strategy", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("strategy effectiveness updated",
		slog.String("strategy_id", strategyID.String()),
		slog.String("effectiveness", string(eff)))
	return nil
}

// History implements Service.History.
func (s *sessionService) History(ctx context.Context, kpID uuid.UUID) ([]*domain.LearningHistory, error) {
	if _, err := s.stores.KnowledgePoints.GetByID(ctx, kpID); err != nil {
		return nil, service.Wrap(serviceName, "history", "failed to get knowledge point", err)
	}
	entries, err := s.stores.History.ListByKnowledgePoint(ctx, kpID)
	if err != nil {
		return nil, service.Wrap(serviceName, "history", "failed to list history", err)
	}
	return entries, nil
}

// Strategies implements Service.Strategies.
func (s *sessionService) Strategies(ctx context.Context, kpID uuid.UUID) ([]*domain.TeachingStrategy, error) {
	if _, err := s.stores.KnowledgePoints.GetByID(ctx, kpID); err != nil {
		return nil, service.Wrap(serviceName, "strategies", "failed to get knowledge point", err)
	}
	list, err := s.stores.Strategies.ListByKnowledgePoint(ctx, kpID)
	if err != nil {
		return nil, service.Wrap(serviceName, "strategies", "failed to list strategies", err)
	}
	return list, nil
}

// SuggestStrategy implements Service.SuggestStrategy.
func (s *sessionService) SuggestStrategy(ctx context.Context, kpID uuid.UUID, strategyType string) (*StrategyInput, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.writer == nil {
		return nil, ErrNoStrategyWriter
	}
	if strategyType == "" {
		return nil, domain.ErrStrategyTypeEmpty
	}

	kp, err := s.stores.KnowledgePoints.GetByID(ctx, kpID)
	if err != nil {
		return nil, service.Wrap(serviceName, "suggest_strategy", "failed to get knowledge point", err)
	}
	task, err := s.stores.Tasks.GetByID(ctx, kp.TaskID)
	if err != nil {
		return nil, service.Wrap(serviceName, "suggest_strategy", "failed to get task", err)
	}
	recent, err := s.stores.History.ListRecent(ctx, kpID, s.evaluator.Lookback())
	if err != nil {
		return nil, service.Wrap(serviceName, "suggest_strategy", "failed to list history", err)
	}

	start := time.Now()
	content, err := s.writer.WriteStrategy(ctx, strategyType, task, kp, recent)
	s.metrics.RecordStrategyRequest(err == nil, time.Since(start))
	if err != nil {
		log.Error("strategy writer failed",
			slog.String("error", err.Error()),
			slog.String("kp_id", kpID.String()))
		return nil, service.NewServiceError(serviceName, "suggest_strategy", "failed to generate strategy",
			fmt.Errorf("%w: %w", ErrStrategyFailed, err))
	}
	return &StrategyInput{StrategyType: strategyType, Content: content}, nil
}

func results(entries []*domain.LearningHistory) []domain.Result {
	out := make([]domain.Result, len(entries))
	for i, e := range entries {
		out[i] = e.Result
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}
