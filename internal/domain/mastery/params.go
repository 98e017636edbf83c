package mastery

// Params defines all configurable parameters for the mastery evaluator.
type Params struct {
	// Ladder holds the review interval in days indexed by streak.
	// Streaks past the end of the ladder use the last entry.
	Ladder []int

	// MasteryStreak is the number of consecutive correct results, since the
	// most recent incorrect one, that makes a point mastered.
	MasteryStreak int

	// ReinforcementRun is the number of most recent results that must all be
	// incorrect before a point needs reinforcement.
	ReinforcementRun int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	Ladder           []int
	MasteryStreak    int
	ReinforcementRun int
}

// NewDefaultParams creates a new Params instance with default values:
// next day, then 3, 7 and 14 days; mastered after three straight correct answers;
// needs reinforcement after two straight incorrect answers.
func NewDefaultParams() *Params {
	return &Params{
		Ladder:           []int{1, 3, 7, 14},
		MasteryStreak:    3,
		ReinforcementRun: 2,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if len(config.Ladder) > 0 {
		ladder := make([]int, len(config.Ladder))
		copy(ladder, config.Ladder)
		params.Ladder = ladder
	}
	if config.MasteryStreak > 0 {
		params.MasteryStreak = config.MasteryStreak
	}
	if config.ReinforcementRun > 0 {
		params.ReinforcementRun = config.ReinforcementRun
	}

	return params
}

// Interval returns the review interval in days for the given streak.
func (p *Params) Interval(streak int) int {
	if streak < 0 {
		streak = 0
	}
	if streak >= len(p.Ladder) {
		return p.Ladder[len(p.Ladder)-1]
	}
	return p.Ladder[streak]
}

// Lookback is how many recent results the evaluator needs to see: enough to
// decide mastery, reinforcement and the top rung of the ladder.
func (p *Params) Lookback() int {
	n := p.MasteryStreak
	if p.ReinforcementRun > n {
		n = p.ReinforcementRun
	}
	if len(p.Ladder)-1 > n {
		n = len(p.Ladder) - 1
	}
	return n
}
