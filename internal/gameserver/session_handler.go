// Package gameserver runs game sessions on top of the storage, turn and chat
// collaborators.
package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/chat"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
)

// ErrInvalidArgument is returned when a request is well-formed but its values are not acceptable.
var ErrInvalidArgument = errors.New("invalid argument")

// GameStore persists game sessions.
type GameStore interface {
	CreateGame(ctx context.Context, g *session.Game) (*session.Game, error)
	GetGame(ctx context.Context, id string) (*session.Game, error)
	SaveGame(ctx context.Context, g *session.Game) error
}

// UserReader looks users up by ID.
type UserReader interface {
	GetUser(ctx context.Context, id string) (*account.User, error)
}

// SessionHandler runs the game session lifecycle: create, join, finish turn,
// save state, end.
type SessionHandler struct {
	games  GameStore
	users  UserReader
	turns  *turn.Service
	chat   chat.Platform
	logger *zap.Logger
}

// NewSessionHandler creates a SessionHandler with the given dependencies.
//
// Precondition: all arguments must be non-nil.
func NewSessionHandler(games GameStore, users UserReader, turns *turn.Service, platform chat.Platform, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		games:  games,
		users:  users,
		turns:  turns,
		chat:   platform,
		logger: logger,
	}
}

// Create starts a new game run by gameMaster, initializes its turn tracker and
// opens its chat channel.
//
// Postcondition: Returns the stored game with DiscordChannelID set. A chat failure
// is returned after the game and turn are already stored; nothing is rolled back.
func (h *SessionHandler) Create(ctx context.Context, name, gameMaster string) (*session.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: gameName must not be empty", ErrInvalidArgument)
	}
	if _, err := h.users.GetUser(ctx, gameMaster); err != nil {
		return nil, fmt.Errorf("game master %s: %w", gameMaster, err)
	}

	g, err := h.games.CreateGame(ctx, session.NewGame(uuid.NewString(), name, gameMaster))
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}
	if _, _, err := h.turns.Initialize(ctx, g.ID); err != nil {
		return nil, fmt.Errorf("initializing turn for game %s: %w", g.ID, err)
	}

	ch, err := h.chat.CreateChannel(ctx, g.ID, g.Name)
	if err != nil {
		return nil, err
	}
	g.DiscordChannelID = ch.ID
	if err := h.games.SaveGame(ctx, g); err != nil {
		return nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}

	h.logger.Info("game created",
		zap.String("game_id", g.ID),
		zap.String("game_master", gameMaster),
		zap.String("channel_id", g.DiscordChannelID),
	)
	return g, nil
}

// Join adds playerID to an active game and returns an invite to its channel.
// Joining twice is not an error; the player set is unchanged.
//
// Postcondition: Returns account.ErrUserNotFound, session.ErrGameNotFound,
// session.ErrGameNotActive, ErrInvalidArgument (game master joining as player),
// or the game and invite.
func (h *SessionHandler) Join(ctx context.Context, gameID, playerID string) (*session.Game, chat.Invite, error) {
	if _, err := h.users.GetUser(ctx, playerID); err != nil {
		return nil, chat.Invite{}, fmt.Errorf("player %s: %w", playerID, err)
	}
	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, chat.Invite{}, err
	}
	if !g.Active() {
		return nil, chat.Invite{}, session.ErrGameNotActive
	}
	if playerID == g.GameMaster {
		return nil, chat.Invite{}, fmt.Errorf("%w: the game master cannot join as a player", ErrInvalidArgument)
	}

	if g.AddPlayer(playerID) {
		if err := h.games.SaveGame(ctx, g); err != nil {
			return nil, chat.Invite{}, fmt.Errorf("saving game %s: %w", g.ID, err)
		}
		h.logger.Info("player joined game",
			zap.String("game_id", g.ID),
			zap.String("player_id", playerID),
			zap.Int("players", len(g.Players)),
		)
	}

	invite, err := h.chat.CreateInvite(ctx, g.DiscordChannelID)
	if err != nil {
		return nil, chat.Invite{}, err
	}
	return g, invite, nil
}

// FinishTurn records that uid finished the current round of an active game.
// It shares the game's single turn tracker with the turn endpoints.
func (h *SessionHandler) FinishTurn(ctx context.Context, gameID, uid string) (*session.Game, *turn.Turn, turn.Progress, error) {
	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, turn.TurnFinished, err
	}
	t, progress, err := h.turns.FinishActive(ctx, g, uid)
	if err != nil {
		return nil, nil, turn.TurnFinished, err
	}
	return g, t, progress, nil
}

// SaveState replaces the game's state payload.
//
// Precondition: state must be valid JSON or empty.
func (h *SessionHandler) SaveState(ctx context.Context, gameID string, state json.RawMessage) (*session.Game, error) {
	if len(state) > 0 && !json.Valid(state) {
		return nil, fmt.Errorf("%w: gameState must be valid JSON", ErrInvalidArgument)
	}
	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !g.Active() {
		return nil, session.ErrGameNotActive
	}
	g.GameState = state
	if err := h.games.SaveGame(ctx, g); err != nil {
		return nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	h.logger.Debug("game state saved", zap.String("game_id", g.ID), zap.Int("bytes", len(state)))
	return g, nil
}

// End moves an active game to ended.
func (h *SessionHandler) End(ctx context.Context, gameID string) (*session.Game, error) {
	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := g.End(); err != nil {
		return nil, err
	}
	if err := h.games.SaveGame(ctx, g); err != nil {
		return nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	h.logger.Info("game ended", zap.String("game_id", g.ID))
	return g, nil
}

// Get returns the game and its turn. The turn is nil if it was never initialized.
func (h *SessionHandler) Get(ctx context.Context, gameID string) (*session.Game, *turn.Turn, error) {
	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	t, err := h.turns.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, turn.ErrTurnNotFound) {
			return g, nil, nil
		}
		return nil, nil, err
	}
	return g, t, nil
}
