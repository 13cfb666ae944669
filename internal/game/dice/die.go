package dice

import "fmt"

// Die is one of the polyhedral dice an interaction may be resolved with.
type Die int

const (
	D6  Die = 6
	D10 Die = 10
	D20 Die = 20
)

// DieFor maps a requested face count onto a supported die.
// Exactly 6 and 10 select d6 and d10; every other value, including zero
// (unspecified) and 20, selects d20.
//
// Postcondition: the returned Die is Valid.
func DieFor(faces int) Die {
	switch faces {
	case 6:
		return D6
	case 10:
		return D10
	default:
		return D20
	}
}

// Faces returns the number of faces on d.
func (d Die) Faces() int { return int(d) }

// Valid reports whether d is one of D6, D10 or D20.
func (d Die) Valid() bool {
	return d == D6 || d == D10 || d == D20
}

// String returns the conventional "dN" notation.
func (d Die) String() string {
	return fmt.Sprintf("d%d", int(d))
}
