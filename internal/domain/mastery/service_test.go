package mastery

import (
	"testing"

	"github.com/phrazzld/mastery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultEvaluator(t *testing.T) {
	t.Parallel()
	e := NewDefaultEvaluator()
	require.NotNil(t, e)

	impl, ok := e.(*defaultEvaluator)
	require.True(t, ok)
	assert.Equal(t, NewDefaultParams(), impl.params)
	assert.Equal(t, 3, e.Lookback())
}

func TestNewEvaluatorWithParams(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		params  *Params
		wantErr bool
	}{
		{name: "nil params", params: nil, wantErr: true},
		{name: "empty ladder", params: &Params{MasteryStreak: 3, ReinforcementRun: 2}, wantErr: true},
		{name: "zero step", params: &Params{Ladder: []int{0, 3}, MasteryStreak: 3, ReinforcementRun: 2}, wantErr: true},
		{name: "decreasing ladder", params: &Params{Ladder: []int{3, 1}, MasteryStreak: 3, ReinforcementRun: 2}, wantErr: true},
		{name: "zero streak", params: &Params{Ladder: []int{1}, MasteryStreak: 0, ReinforcementRun: 2}, wantErr: true},
		{name: "zero run", params: &Params{Ladder: []int{1}, MasteryStreak: 3, ReinforcementRun: 0}, wantErr: true},
		{name: "valid", params: NewDefaultParams(), wantErr: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewEvaluatorWithParams(tc.params)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, e)
		})
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	t.Parallel()
	e := NewDefaultEvaluator()
	asOf := date("2024-06-10")

	t.Run("negative counts rejected", func(t *testing.T) {
		_, err := e.Evaluate(Evidence{ErrorCount: -1}, asOf)
		assert.ErrorIs(t, err, ErrNegativeCount)
	})

	t.Run("unknown result rejected", func(t *testing.T) {
		_, err := e.Evaluate(Evidence{CorrectCount: 1, Recent: []domain.Result{"maybe"}}, asOf)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("three correct with no errors is mastered", func(t *testing.T) {
		a, err := e.Evaluate(Evidence{
			CorrectCount: 3,
			Previous:     domain.MasteryLearning,
			Recent:       []domain.Result{correct, correct, correct},
		}, asOf)
		require.NoError(t, err)
		assert.Equal(t, domain.MasteryMastered, a.Level)
		assert.True(t, a.Changed(domain.MasteryLearning))
	})
}

func TestEvaluator_Replay(t *testing.T) {
	t.Parallel()
	e := NewDefaultEvaluator()

	_, err := e.Replay([]domain.Result{correct, "bogus"}, date("2024-06-10"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	a, err := e.Replay([]domain.Result{incorrect, incorrect}, date("2024-06-10"))
	require.NoError(t, err)
	assert.Equal(t, domain.MasteryNeedsReinforcement, a.Level)
	require.NotNil(t, a.NextReviewDate)
	assert.Equal(t, date("2024-06-11"), *a.NextReviewDate)
}
