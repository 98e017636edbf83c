package mastery

import (
	"time"

	"github.com/phrazzld/mastery/internal/domain"
)

// Evidence is everything the evaluator looks at for one knowledge point.
type Evidence struct {
	ErrorCount   int
	CorrectCount int
	Previous     domain.MasteryLevel

	// Recent holds the most recent results, newest first. It must include at
	// least Params.Lookback() entries when that many attempts exist.
	Recent []domain.Result
}

// Assessment is the evaluator's output.
type Assessment struct {
	Level          domain.MasteryLevel
	NextReviewDate *time.Time
	Streak         int
}

// Changed reports whether the level differs from the given previous level.
func (a Assessment) Changed(previous domain.MasteryLevel) bool {
	return a.Level != previous
}

// calculateStreak counts consecutive correct results from the newest one,
// stopping at the first incorrect result.
func calculateStreak(recent []domain.Result) int {
	streak := 0
	for _, r := range recent {
		if r != domain.ResultCorrect {
			break
		}
		streak++
	}
	return streak
}

// needsReinforcement reports whether the newest run results are all incorrect.
func needsReinforcement(recent []domain.Result, run int) bool {
	if run <= 0 || len(recent) < run {
		return false
	}
	for _, r := range recent[:run] {
		if r != domain.ResultIncorrect {
			return false
		}
	}
	return true
}

// calculateLevel applies the mastery policy:
//   - no attempts: untested
//   - streak at or above MasteryStreak: mastered
//   - the last ReinforcementRun results incorrect: needs-reinforcement
//   - anything else: learning
//
// The previous level plays no part; an incorrect answer on a mastered point
// drops it back like any other.
func calculateLevel(ev Evidence, streak int, params *Params) domain.MasteryLevel {
	if ev.ErrorCount == 0 && ev.CorrectCount == 0 {
		return domain.MasteryUntested
	}
	if streak >= params.MasteryStreak {
		return domain.MasteryMastered
	}
	if needsReinforcement(ev.Recent, params.ReinforcementRun) {
		return domain.MasteryNeedsReinforcement
	}
	return domain.MasteryLearning
}

// calculateNextReviewDate returns asOf's calendar date plus the ladder interval.
// Untested points have no review date.
func calculateNextReviewDate(level domain.MasteryLevel, streak int, asOf time.Time, params *Params) *time.Time {
	if level == domain.MasteryUntested {
		return nil
	}
	if level == domain.MasteryNeedsReinforcement {
		streak = 0
	}
	next := domain.AddDays(asOf, params.Interval(streak))
	return &next
}

// evaluate is the pure mastery function.
func evaluate(ev Evidence, asOf time.Time, params *Params) Assessment {
	streak := calculateStreak(ev.Recent)
	level := calculateLevel(ev, streak, params)
	return Assessment{
		Level:          level,
		NextReviewDate: calculateNextReviewDate(level, streak, asOf, params),
		Streak:         streak,
	}
}

// replay folds an oldest-first result sequence through evaluate, treating
// every result as if it had been recorded at asOf, and returns the final
// assessment. With asOf set to the point's last test time this reproduces the
// stored projection.
func replay(results []domain.Result, asOf time.Time, params *Params) Assessment {
	ev := Evidence{Previous: domain.MasteryUntested}
	assessment := evaluate(ev, asOf, params)

	lookback := params.Lookback()
	recent := make([]domain.Result, 0, lookback)
	for _, r := range results {
		if r == domain.ResultCorrect {
			ev.CorrectCount++
		} else {
			ev.ErrorCount++
		}

		recent = append([]domain.Result{r}, recent...)
		if len(recent) > lookback {
			recent = recent[:lookback]
		}
		ev.Recent = recent

		assessment = evaluate(ev, asOf, params)
		ev.Previous = assessment.Level
	}
	return assessment
}
