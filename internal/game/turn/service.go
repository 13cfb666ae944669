package turn

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/game/session"
)

// Store persists turn records, one per game.
type Store interface {
	// GetTurn returns the turn for gameID or ErrTurnNotFound.
	GetTurn(ctx context.Context, gameID string) (*Turn, error)
	// CreateTurnIfAbsent inserts t unless a turn for t.GameID exists, and returns
	// the stored record plus whether it was created.
	CreateTurnIfAbsent(ctx context.Context, t *Turn) (*Turn, bool, error)
	// SaveTurn overwrites the stored record for t.GameID.
	SaveTurn(ctx context.Context, t *Turn) error
}

// GameReader is the read side of the game store the tracker needs.
type GameReader interface {
	// GetGame returns the game or session.ErrGameNotFound.
	GetGame(ctx context.Context, id string) (*session.Game, error)
}

// Progress tells the caller what a finish request did.
type Progress int

const (
	// TurnFinished means the participant was recorded and the round is still open.
	TurnFinished Progress = iota
	// RoundComplete means the participant closed the round and it advanced.
	RoundComplete
)

// String returns the client-facing message for p.
func (p Progress) String() string {
	if p == RoundComplete {
		return "round complete"
	}
	return "turn finished"
}

// Service implements turn initialization, manual advance and per-participant finish.
type Service struct {
	turns  Store
	games  GameReader
	logger *zap.Logger
}

// NewService creates a turn Service.
//
// Precondition: turns, games and logger must be non-nil.
func NewService(turns Store, games GameReader, logger *zap.Logger) *Service {
	return &Service{turns: turns, games: games, logger: logger}
}

// Initialize creates the turn record for gameID if none exists.
//
// Postcondition: Returns the stored turn and whether it was created by this call,
// or session.ErrGameNotFound.
func (s *Service) Initialize(ctx context.Context, gameID string) (*Turn, bool, error) {
	if _, err := s.games.GetGame(ctx, gameID); err != nil {
		return nil, false, err
	}
	t, created, err := s.turns.CreateTurnIfAbsent(ctx, New(gameID))
	if err != nil {
		return nil, false, fmt.Errorf("creating turn for game %s: %w", gameID, err)
	}
	s.logger.Info("turn initialized",
		zap.String("game_id", gameID),
		zap.Bool("created", created),
		zap.Int("round", t.CurrentRound),
	)
	return t, created, nil
}

// Advance unconditionally moves gameID to its next round.
//
// Postcondition: Returns the updated turn, ErrTurnNotFound or session.ErrGameNotFound.
func (s *Service) Advance(ctx context.Context, gameID string) (*Turn, error) {
	t, _, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	t.Advance()
	if err := s.turns.SaveTurn(ctx, t); err != nil {
		return nil, fmt.Errorf("saving turn for game %s: %w", gameID, err)
	}
	s.logger.Info("round advanced manually",
		zap.String("game_id", gameID),
		zap.Int("round", t.CurrentRound),
	)
	return t, nil
}

// Finish records that uid finished the current round of gameID.
//
// Postcondition: Returns the updated turn and progress, or one of ErrTurnNotFound,
// session.ErrGameNotFound, ErrNotParticipant, ErrAlreadyFinished. A rejected call
// changes nothing.
func (s *Service) Finish(ctx context.Context, gameID, uid string) (*Turn, Progress, error) {
	t, g, err := s.load(ctx, gameID)
	if err != nil {
		return nil, TurnFinished, err
	}
	return s.finish(ctx, t, g, uid)
}

// FinishActive is Finish for callers that already hold the game and require it
// to be active.
//
// Postcondition: Returns session.ErrGameNotActive for ended games, otherwise as Finish.
func (s *Service) FinishActive(ctx context.Context, g *session.Game, uid string) (*Turn, Progress, error) {
	if !g.Active() {
		return nil, TurnFinished, session.ErrGameNotActive
	}
	t, err := s.turns.GetTurn(ctx, g.ID)
	if err != nil {
		return nil, TurnFinished, err
	}
	return s.finish(ctx, t, g, uid)
}

// Get returns the turn for gameID.
func (s *Service) Get(ctx context.Context, gameID string) (*Turn, error) {
	return s.turns.GetTurn(ctx, gameID)
}

func (s *Service) finish(ctx context.Context, t *Turn, g *session.Game, uid string) (*Turn, Progress, error) {
	if !g.IsMember(uid) {
		return nil, TurnFinished, ErrNotParticipant
	}
	complete, err := t.Finish(uid, g.RequiredFinishers())
	if err != nil {
		return nil, TurnFinished, err
	}
	if err := s.turns.SaveTurn(ctx, t); err != nil {
		return nil, TurnFinished, fmt.Errorf("saving turn for game %s: %w", g.ID, err)
	}

	progress := TurnFinished
	if complete {
		progress = RoundComplete
	}
	s.logger.Info("participant finished turn",
		zap.String("game_id", g.ID),
		zap.String("participant", uid),
		zap.Stringer("progress", progress),
		zap.Int("round", t.CurrentRound),
		zap.Int("finished", len(t.FinishedPlayers)),
		zap.Int("required", g.RequiredFinishers()),
	)
	return t, progress, nil
}

// load fetches the turn, then the game.
func (s *Service) load(ctx context.Context, gameID string) (*Turn, *session.Game, error) {
	t, err := s.turns.GetTurn(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	return t, g, nil
}
