package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// Every roll and chance draw is logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll returns a uniform integer in [1, max].
//
// Precondition: max >= 1.
func (r *Roller) Roll(max int) int {
	v := RollMax(max, r.src)
	r.logger.Debug("dice roll",
		zap.Int("max", max),
		zap.Int("result", v),
	)
	return v
}

// RollModified rolls d once, adds modifier, and logs the audit string.
//
// Precondition: d must be Valid.
func (r *Roller) RollModified(d Die, modifier float64) RollResult {
	result := RollModified(d, modifier, r.src)
	r.logger.Debug("dice roll",
		zap.Stringer("die", result.Die),
		zap.Int("natural", result.Natural),
		zap.Float64("modifier", result.Modifier),
		zap.Float64("total", result.Total()),
	)
	return result
}

// Chance reports whether an independent draw succeeds with probability p.
func (r *Roller) Chance(p float64) bool {
	ok := Chance(p, r.src)
	r.logger.Debug("chance draw",
		zap.Float64("probability", p),
		zap.Bool("success", ok),
	)
	return ok
}
