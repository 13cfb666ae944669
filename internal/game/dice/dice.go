// Package dice provides the core randomness abstraction and roll-result types
// used by interaction resolution.
package dice

import "fmt"

// RollResult holds the full audit trail for a single modified die roll.
//
// Postcondition: Total() == float64(Natural) + Modifier.
type RollResult struct {
	Die      Die     // die the roll was made with
	Natural  int     // face shown, in [1, Die.Faces()]
	Modifier float64 // stat-derived bonus (may be negative or fractional)
}

// Total returns the natural face plus the modifier.
func (r RollResult) Total() float64 {
	return float64(r.Natural) + r.Modifier
}

// String returns a human-readable audit string in the format:
//
//	"d20 → 14 +5 = 19"
//
// Precondition: r.Die must be a known die.
func (r RollResult) String() string {
	if !r.Die.Valid() {
		panic("dice: RollResult.String() precondition violated: unknown die")
	}
	return fmt.Sprintf("%s → %d %+g = %g", r.Die, r.Natural, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls and chance draws.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
