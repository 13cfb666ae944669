package dice

// RollMax returns a uniformly distributed integer in [1, max] drawn from src.
//
// Precondition: max >= 1; src must be non-nil.
// Postcondition: 1 <= result <= max.
func RollMax(max int, src Source) int {
	if max < 1 {
		panic("dice: RollMax called with max < 1")
	}
	return src.Intn(max) + 1
}

// RollModified rolls d once and attaches modifier.
//
// Precondition: d must be Valid; src must be non-nil.
// Postcondition: result.Natural in [1, d.Faces()].
func RollModified(d Die, modifier float64, src Source) RollResult {
	return RollResult{
		Die:      d,
		Natural:  RollMax(d.Faces(), src),
		Modifier: modifier,
	}
}

// chanceResolution is the granularity of Chance draws.
const chanceResolution = 1_000_000

// Chance draws once from src and reports whether the draw falls below p.
// p <= 0 never succeeds and p >= 1 always succeeds; neither consumes a draw.
//
// Precondition: src must be non-nil.
func Chance(p float64, src Source) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(chanceResolution) < int(p*chanceResolution)
}
