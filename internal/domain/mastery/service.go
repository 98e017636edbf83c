package mastery

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/mastery/internal/domain"
)

// Common errors
var (
	ErrNegativeCount = errors.New("counts cannot be negative")
	ErrInvalidParams = errors.New("invalid mastery parameters")
)

// Evaluator defines the interface for mastery evaluation.
type Evaluator interface {
	// Evaluate computes the mastery level and next review date for the
	// evidence as of the given time. It has no side effects.
	Evaluate(ev Evidence, asOf time.Time) (Assessment, error)

	// Replay recomputes the assessment from a full oldest-first history,
	// as of the point's last test time.
	Replay(results []domain.Result, asOf time.Time) (Assessment, error)

	// Lookback is the number of most recent results Evaluate needs.
	Lookback() int
}

// defaultEvaluator is the standard implementation of the Evaluator interface.
type defaultEvaluator struct {
	params *Params
}

// NewDefaultEvaluator creates a new evaluator with default parameters.
func NewDefaultEvaluator() Evaluator {
	return &defaultEvaluator{params: NewDefaultParams()}
}

// NewEvaluatorWithParams creates a new evaluator with custom parameters.
func NewEvaluatorWithParams(params *Params) (Evaluator, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	return &defaultEvaluator{params: params}, nil
}

// Evaluate implements Evaluator.Evaluate.
func (e *defaultEvaluator) Evaluate(ev Evidence, asOf time.Time) (Assessment, error) {
	if ev.ErrorCount < 0 || ev.CorrectCount < 0 {
		return Assessment{}, ErrNegativeCount
	}
	for _, r := range ev.Recent {
		if err := r.Validate(); err != nil {
			return Assessment{}, err
		}
	}
	return evaluate(ev, asOf, e.params), nil
}

// Replay implements Evaluator.Replay.
func (e *defaultEvaluator) Replay(results []domain.Result, asOf time.Time) (Assessment, error) {
	for _, r := range results {
		if err := r.Validate(); err != nil {
			return Assessment{}, err
		}
	}
	return replay(results, asOf, e.params), nil
}

// Lookback implements Evaluator.Lookback.
func (e *defaultEvaluator) Lookback() int {
	return e.params.Lookback()
}

func validateParams(params *Params) error {
	if params == nil {
		return fmt.Errorf("%w: params cannot be nil", ErrInvalidParams)
	}
	if len(params.Ladder) == 0 {
		return fmt.Errorf("%w: ladder cannot be empty", ErrInvalidParams)
	}
	prev := 0
	for i, days := range params.Ladder {
		if days < 1 {
			return fmt.Errorf("%w: ladder step %d must be at least one day", ErrInvalidParams, i)
		}
		if days < prev {
			return fmt.Errorf("%w: ladder must not decrease (step %d)", ErrInvalidParams, i)
		}
		prev = days
	}
	if params.MasteryStreak < 1 {
		return fmt.Errorf("%w: mastery streak must be at least 1", ErrInvalidParams)
	}
	if params.ReinforcementRun < 1 {
		return fmt.Errorf("%w: reinforcement run must be at least 1", ErrInvalidParams)
	}
	return nil
}
