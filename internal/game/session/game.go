package session

import (
	"encoding/json"
	"errors"
	"slices"
	"time"
)

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// ErrGameNotFound is returned when a game lookup yields no results.
var ErrGameNotFound = errors.New("game not found")

// ErrGameNotActive is returned when mutating a game that has already ended.
var ErrGameNotActive = errors.New("game is not active")

// Game is a single tabletop session run by one game master.
//
// Invariant: Players never contains duplicates; Status only moves active → ended.
type Game struct {
	ID               string          `json:"id"`
	Name             string          `json:"gameName"`
	GameMaster       string          `json:"gameMaster"`
	Players          []string        `json:"players"`
	Status           Status          `json:"status"`
	GameState        json.RawMessage `json:"gameState,omitempty"`
	DiscordChannelID string          `json:"discordChannelId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt,omitzero"`
	UpdatedAt        time.Time       `json:"updatedAt,omitzero"`
}

// NewGame returns an active game with no players.
//
// Precondition: id, name and gameMaster must be non-empty.
func NewGame(id, name, gameMaster string) *Game {
	return &Game{
		ID:         id,
		Name:       name,
		GameMaster: gameMaster,
		Players:    []string{},
		Status:     StatusActive,
	}
}

// Active reports whether the game still accepts changes.
func (g *Game) Active() bool { return g.Status == StatusActive }

// HasPlayer reports whether uid is in the player set.
func (g *Game) HasPlayer(uid string) bool {
	return slices.Contains(g.Players, uid)
}

// IsMember reports whether uid is the game master or one of the players.
func (g *Game) IsMember(uid string) bool {
	return uid == g.GameMaster || g.HasPlayer(uid)
}

// AddPlayer inserts uid into the player set.
//
// Postcondition: Returns true iff uid was not already a player.
func (g *Game) AddPlayer(uid string) bool {
	if g.HasPlayer(uid) {
		return false
	}
	g.Players = append(g.Players, uid)
	return true
}

// RequiredFinishers is the number of distinct finishers that completes a round:
// every player plus the game master.
func (g *Game) RequiredFinishers() int {
	return len(g.Players) + 1
}

// End moves the game to StatusEnded.
//
// Postcondition: Returns ErrGameNotActive if the game had already ended.
func (g *Game) End() error {
	if !g.Active() {
		return ErrGameNotActive
	}
	g.Status = StatusEnded
	return nil
}
