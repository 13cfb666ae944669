package interaction

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/game/dice"
)

// ErrResolutionFailed is returned when resolution aborts on malformed input or
// an internal fault. No result accompanies it.
var ErrResolutionFailed = errors.New("interaction resolution failed")

// AbilityNotFoundError reports that a participant lacks the contested ability.
type AbilityNotFoundError struct {
	Role    Kind   // which side of the interaction is missing the ability
	Name    string // participant display name; may be empty
	Ability string
}

func (e *AbilityNotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("ability %q not found on %s", e.Ability, e.Role)
	}
	return fmt.Sprintf("ability %q not found on %s %q", e.Ability, e.Role, e.Name)
}

// Roller is the subset of *dice.Roller used by the resolver.
type Roller interface {
	RollModified(d dice.Die, modifier float64) dice.RollResult
	Chance(p float64) bool
}

// Request describes one interaction to resolve.
type Request struct {
	Character    *Participant
	Enemy        *Participant
	SelectedStat string
	// DiceType selects the die; see dice.DieFor.
	DiceType int
	// OverrideOutcome, when non-nil, replaces the rolled margin.
	OverrideOutcome *float64
}

// Result is the outcome of a resolved interaction.
type Result struct {
	Outcome         Outcome      `json:"result"`
	Die             dice.Die     `json:"die"`
	Margin          float64      `json:"margin"`
	CharacterRoll   float64      `json:"characterRoll"`
	EnemyRoll       float64      `json:"enemyRoll"`
	InflictedEffect *string      `json:"inflictedEffect"`
	Character       *Participant `json:"character"`
	Enemy           *Participant `json:"enemy"`
}

// Resolver resolves character-versus-enemy interactions.
type Resolver struct {
	roller Roller
	logger *zap.Logger
}

// NewResolver creates a Resolver drawing all randomness from roller.
//
// Precondition: roller and logger must be non-nil.
func NewResolver(roller Roller, logger *zap.Logger) *Resolver {
	return &Resolver{roller: roller, logger: logger}
}

// Resolve contests req.SelectedStat between the character and the enemy.
//
// Both participants are checked for the ability before any roll. Each side
// rolls the selected die once and adds Modifier(ability value); the margin is
// characterRoll - enemyRoll unless OverrideOutcome is set. The category's health
// impact is added to the enemy on success bands and to the character on failure
// bands. On failure the enemy's first effect is inflicted with probability 0.5,
// on catastrophe always.
//
// Postcondition: only the Health fields of req.Character and req.Enemy are mutated.
// Returns *AbilityNotFoundError, or ErrResolutionFailed for malformed input.
func (r *Resolver) Resolve(req Request) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("interaction resolution panicked", zap.Any("panic", rec))
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrResolutionFailed, rec)
		}
	}()

	if req.Character == nil || req.Enemy == nil {
		return Result{}, fmt.Errorf("%w: character and enemy are required", ErrResolutionFailed)
	}
	char, enemy := req.Character, req.Enemy

	die := dice.DieFor(req.DiceType)

	charAbility, ok := char.Ability(req.SelectedStat)
	if !ok {
		return Result{}, &AbilityNotFoundError{Role: KindCharacter, Name: char.Name, Ability: req.SelectedStat}
	}
	enemyAbility, ok := enemy.Ability(req.SelectedStat)
	if !ok {
		return Result{}, &AbilityNotFoundError{Role: KindEnemy, Name: enemy.Name, Ability: req.SelectedStat}
	}

	charRoll := r.roller.RollModified(die, Modifier(charAbility.Value))
	enemyRoll := r.roller.RollModified(die, Modifier(enemyAbility.Value))

	margin := charRoll.Total() - enemyRoll.Total()
	if req.OverrideOutcome != nil {
		margin = *req.OverrideOutcome
	}
	outcome := Classify(margin)

	if impact := outcome.HealthImpact(); impact != 0 {
		if outcome.HitsCharacter() {
			char.Health += impact
		} else {
			enemy.Health += impact
		}
	}

	var inflicted *string
	if p := outcome.EffectChance(); p > 0 && len(enemy.Effects) > 0 && r.roller.Chance(p) {
		name := enemy.Effects[0].Name
		inflicted = &name
	}

	r.logger.Info("interaction resolved",
		zap.String("stat", req.SelectedStat),
		zap.Stringer("die", die),
		zap.Stringer("character_roll", charRoll),
		zap.Stringer("enemy_roll", enemyRoll),
		zap.Float64("margin", margin),
		zap.Bool("overridden", req.OverrideOutcome != nil),
		zap.Stringer("outcome", outcome),
	)

	return Result{
		Outcome:         outcome,
		Die:             die,
		Margin:          margin,
		CharacterRoll:   charRoll.Total(),
		EnemyRoll:       enemyRoll.Total(),
		InflictedEffect: inflicted,
		Character:       char,
		Enemy:           enemy,
	}, nil
}
