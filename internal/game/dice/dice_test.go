package dice_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tabletop/internal/game/dice"
)

// fixedSrc returns val for every Intn call.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(_ int) int { return f.val }

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Die: dice.D20, Natural: 14, Modifier: 5}
	assert.Equal(t, 19.0, r.Total())
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{Die: dice.D20, Natural: 14, Modifier: 5}
	assert.Equal(t, "d20 → 14 +5 = 19", r.String())

	frac := dice.RollResult{Die: dice.D6, Natural: 2, Modifier: -1.5}
	assert.Equal(t, "d6 → 2 -1.5 = 0.5", frac.String())
}

func TestRollResult_String_PanicsOnUnknownDie(t *testing.T) {
	r := dice.RollResult{Die: dice.Die(7), Natural: 3}
	assert.Panics(t, func() { _ = r.String() })
}

func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		natural := rapid.IntRange(1, 20).Draw(rt, "natural")
		modifier := rapid.Float64Range(-100, 100).Draw(rt, "modifier")
		r := dice.RollResult{Die: dice.D20, Natural: natural, Modifier: modifier}
		assert.Equal(rt, float64(natural)+modifier, r.Total())
	})
}

func TestDieFor(t *testing.T) {
	assert.Equal(t, dice.D6, dice.DieFor(6))
	assert.Equal(t, dice.D10, dice.DieFor(10))
	assert.Equal(t, dice.D20, dice.DieFor(20))
	assert.Equal(t, dice.D20, dice.DieFor(0))
	assert.Equal(t, dice.D20, dice.DieFor(-4))
	assert.Equal(t, dice.D20, dice.DieFor(12))
}

// Property: any face count other than 6 and 10 resolves to d20.
func TestDieFor_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.Int().Draw(rt, "faces")
		d := dice.DieFor(faces)
		require.True(rt, d.Valid())
		switch faces {
		case 6, 10:
			assert.Equal(rt, faces, d.Faces())
		default:
			assert.Equal(rt, dice.D20, d)
		}
	})
}

// Property: rolls stay within [1, faces] for every supported die.
func TestRollMax_InRange_Property(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		d := dice.DieFor(rapid.SampledFrom([]int{6, 10, 20, 0, 100}).Draw(rt, "faces"))
		v := dice.RollMax(d.Faces(), src)
		assert.GreaterOrEqual(rt, v, 1)
		assert.LessOrEqual(rt, v, d.Faces())
	})
}

func TestRollMax_UsesSourceOffsetByOne(t *testing.T) {
	assert.Equal(t, 1, dice.RollMax(20, fixedSrc{val: 0}))
	assert.Equal(t, 20, dice.RollMax(20, fixedSrc{val: 19}))
}

func TestRollMax_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.RollMax(0, fixedSrc{}) })
}

func TestRollModified(t *testing.T) {
	r := dice.RollModified(dice.D10, 3.5, fixedSrc{val: 4})
	assert.Equal(t, dice.D10, r.Die)
	assert.Equal(t, 5, r.Natural)
	assert.Equal(t, 8.5, r.Total())
}

func TestChance_Bounds(t *testing.T) {
	assert.False(t, dice.Chance(0, fixedSrc{val: 0}))
	assert.True(t, dice.Chance(1, fixedSrc{val: 999_999}))
	assert.True(t, dice.Chance(0.5, fixedSrc{val: 499_999}))
	assert.False(t, dice.Chance(0.5, fixedSrc{val: 500_000}))
}

func TestChance_Rate(t *testing.T) {
	src := dice.NewSeededSource(42)
	hits := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		if dice.Chance(0.5, src) {
			hits++
		}
	}
	rate := float64(hits) / trials
	assert.InDelta(t, 0.5, rate, 0.02, "observed rate %f", rate)
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(7)
	b := dice.NewSeededSource(7)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestRoller_LogsAndRolls(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSrc{val: 2}, zaptest.NewLogger(t))
	assert.Equal(t, 3, r.Roll(6))
	res := r.RollModified(dice.D6, 1)
	assert.Equal(t, 4.0, res.Total())
	assert.True(t, strings.HasPrefix(res.String(), "d6"))
	assert.True(t, r.Chance(1))
	assert.Equal(t, "d10", fmt.Sprint(dice.D10))
}
