package interaction

// Outcome categorizes a resolved interaction from the character's point of view.
type Outcome int

const (
	GreatSuccess Outcome = iota
	Success
	Tie
	Failure
	Catastrophe
)

// String returns the outcome label reported to clients.
func (o Outcome) String() string {
	switch o {
	case GreatSuccess:
		return "great success"
	case Success:
		return "success"
	case Tie:
		return "tie"
	case Failure:
		return "failure"
	case Catastrophe:
		return "catastrophe"
	default:
		return "unknown"
	}
}

// MarshalText lets Outcome serialize as its label.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Classify maps an outcome margin onto a category. Bands are half-open and
// checked from the top: [10,∞) great success, [5,10) success, [0,5) tie,
// [-5,0) failure, (-∞,-5) catastrophe.
func Classify(margin float64) Outcome {
	switch {
	case margin >= 10:
		return GreatSuccess
	case margin >= 5:
		return Success
	case margin >= 0:
		return Tie
	case margin >= -5:
		return Failure
	default:
		return Catastrophe
	}
}

// HealthImpact returns the signed health change the outcome applies to its target.
func (o Outcome) HealthImpact() int {
	switch o {
	case GreatSuccess, Catastrophe:
		return -10
	case Success, Failure:
		return -5
	default:
		return 0
	}
}

// HitsCharacter reports whether the health impact lands on the character
// rather than the enemy.
func (o Outcome) HitsCharacter() bool {
	return o == Failure || o == Catastrophe
}

// EffectChance is the probability that the enemy inflicts its first effect.
func (o Outcome) EffectChance() float64 {
	switch o {
	case Failure:
		return 0.5
	case Catastrophe:
		return 1
	default:
		return 0
	}
}
