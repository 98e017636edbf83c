package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, []int{1, 3, 7, 14}, params.Ladder)
	assert.Equal(t, 3, params.MasteryStreak)
	assert.Equal(t, 2, params.ReinforcementRun)
	assert.Equal(t, 3, params.Lookback())
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	t.Run("zero config keeps defaults", func(t *testing.T) {
		assert.Equal(t, NewDefaultParams(), NewParams(ParamsConfig{}))
	})

	t.Run("overrides are copied", func(t *testing.T) {
		ladder := []int{1, 2, 4, 8, 16, 30}
		params := NewParams(ParamsConfig{Ladder: ladder, MasteryStreak: 4})
		ladder[0] = 99

		assert.Equal(t, []int{1, 2, 4, 8, 16, 30}, params.Ladder)
		assert.Equal(t, 4, params.MasteryStreak)
		assert.Equal(t, 2, params.ReinforcementRun)
		assert.Equal(t, 5, params.Lookback())
	})
}

func TestInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, 1, params.Interval(-1))
	assert.Equal(t, 1, params.Interval(0))
	assert.Equal(t, 3, params.Interval(1))
	assert.Equal(t, 7, params.Interval(2))
	assert.Equal(t, 14, params.Interval(3))
	assert.Equal(t, 14, params.Interval(42))
}
