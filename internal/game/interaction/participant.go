// Package interaction resolves a dice contest between a character and an enemy.
package interaction

import (
	"errors"
	"fmt"
	"time"
)

// Kind distinguishes player-controlled characters from enemies.
type Kind string

const (
	KindCharacter Kind = "character"
	KindEnemy     Kind = "enemy"
)

// Valid reports whether k is a known participant kind.
func (k Kind) Valid() bool {
	return k == KindCharacter || k == KindEnemy
}

// Ability is a named stat a participant can contest with.
type Ability struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Effect is a named status effect a participant can inflict.
type Effect struct {
	Name string `json:"name" yaml:"name"`
}

// Participant is any entity that takes part in an interaction.
//
// Health is signed and never clamped here; callers decide what negative health means.
type Participant struct {
	ID        string    `json:"id,omitempty"`
	Kind      Kind      `json:"kind,omitempty"`
	OwnerID   string    `json:"ownerId,omitempty"`
	Name      string    `json:"name,omitempty"`
	Health    int       `json:"health"`
	Abilities []Ability `json:"abilities"`
	Effects   []Effect  `json:"effects"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Ability returns the first ability named name.
func (p *Participant) Ability(name string) (Ability, bool) {
	for _, a := range p.Abilities {
		if a.Name == name {
			return a, true
		}
	}
	return Ability{}, false
}

// ErrParticipantNotFound is returned when a participant lookup yields no results.
var ErrParticipantNotFound = errors.New("participant not found")

// Validate checks the invariants a stored participant must satisfy.
//
// Postcondition: Returns nil iff Kind is known, Name is non-empty and every
// ability and effect has a non-empty name.
func (p *Participant) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("participant kind must be one of [character, enemy], got %q", p.Kind)
	}
	if p.Name == "" {
		return errors.New("participant name must not be empty")
	}
	for i, a := range p.Abilities {
		if a.Name == "" {
			return fmt.Errorf("participant %q: ability %d has no name", p.Name, i)
		}
	}
	for i, e := range p.Effects {
		if e.Name == "" {
			return fmt.Errorf("participant %q: effect %d has no name", p.Name, i)
		}
	}
	return nil
}

// Modifier derives the roll bonus for a raw stat value: value / 10.
func Modifier(value float64) float64 {
	return value / 10
}
