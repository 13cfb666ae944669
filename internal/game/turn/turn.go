// Package turn tracks round completion for a game session: every player and the
// game master finish their turn, then the round advances.
package turn

import (
	"errors"
	"slices"
	"time"
)

// ErrTurnNotFound is returned when a game has no turn record.
var ErrTurnNotFound = errors.New("turn not found")

// ErrAlreadyFinished is returned when a participant finishes twice in one round.
var ErrAlreadyFinished = errors.New("turn already finished this round")

// ErrNotParticipant is returned when the finisher is neither the game master nor a player.
var ErrNotParticipant = errors.New("not a participant of this game")

// FirstRound is the index every game starts on.
const FirstRound = 1

// Turn is the round tracker owned by a single game.
//
// Invariant: CurrentRound >= FirstRound; FinishedPlayers holds no duplicates and
// never reaches the required finisher count (reaching it resets the set).
type Turn struct {
	GameID          string    `json:"gameId"`
	CurrentRound    int       `json:"currentTurnIndex"`
	FinishedPlayers []string  `json:"finishedPlayers"`
	CreatedAt       time.Time `json:"createdAt,omitzero"`
	UpdatedAt       time.Time `json:"updatedAt,omitzero"`
}

// New returns a turn at the first round with nobody finished.
func New(gameID string) *Turn {
	return &Turn{
		GameID:          gameID,
		CurrentRound:    FirstRound,
		FinishedPlayers: []string{},
	}
}

// HasFinished reports whether uid already finished the current round.
func (t *Turn) HasFinished(uid string) bool {
	return slices.Contains(t.FinishedPlayers, uid)
}

// Advance moves to the next round and clears the finished set, whether or not
// the round was complete.
func (t *Turn) Advance() {
	t.CurrentRound++
	t.FinishedPlayers = []string{}
}

// Finish records uid as finished. When the finished set reaches required the
// round is complete: the set is cleared and the round advances.
//
// Precondition: required >= 1.
// Postcondition: Returns ErrAlreadyFinished with no state change if uid already
// finished; otherwise reports whether the round completed.
func (t *Turn) Finish(uid string, required int) (roundComplete bool, err error) {
	if t.HasFinished(uid) {
		return false, ErrAlreadyFinished
	}
	t.FinishedPlayers = append(t.FinishedPlayers, uid)
	if len(t.FinishedPlayers) >= required {
		t.Advance()
		return true, nil
	}
	return false, nil
}
