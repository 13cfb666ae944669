package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
)

const turnColumns = `game_id, current_round, finished_players, created_at, updated_at`

// TurnRepository provides turn tracker persistence operations.
type TurnRepository struct {
	db *pgxpool.Pool
}

// NewTurnRepository creates a TurnRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTurnRepository(db *pgxpool.Pool) *TurnRepository {
	return &TurnRepository{db: db}
}

// GetTurn retrieves the turn for gameID or returns turn.ErrTurnNotFound.
func (r *TurnRepository) GetTurn(ctx context.Context, gameID string) (*turn.Turn, error) {
	t, err := scanTurn(r.db.QueryRow(ctx, `SELECT `+turnColumns+` FROM turns WHERE game_id = $1`, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, turn.ErrTurnNotFound
		}
		return nil, fmt.Errorf("querying turn: %w", err)
	}
	return t, nil
}

// CreateTurnIfAbsent inserts t unless a turn for t.GameID already exists.
//
// Postcondition: Returns the stored turn and true if it was inserted, or the
// existing turn and false. Returns session.ErrGameNotFound if the game row is missing.
func (r *TurnRepository) CreateTurnIfAbsent(ctx context.Context, t *turn.Turn) (*turn.Turn, bool, error) {
	created, err := scanTurn(r.db.QueryRow(ctx,
		`INSERT INTO turns (game_id, current_round, finished_players)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (game_id) DO NOTHING
		 RETURNING `+turnColumns,
		t.GameID, t.CurrentRound, players(t.FinishedPlayers),
	))
	switch {
	case err == nil:
		return created, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := r.GetTurn(ctx, t.GameID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case hasSQLState(err, sqlStateForeignKeyViolation):
		return nil, false, session.ErrGameNotFound
	default:
		return nil, false, fmt.Errorf("inserting turn: %w", err)
	}
}

// SaveTurn overwrites the stored turn with t.
//
// Postcondition: t.UpdatedAt is refreshed, or turn.ErrTurnNotFound is returned.
func (r *TurnRepository) SaveTurn(ctx context.Context, t *turn.Turn) error {
	err := r.db.QueryRow(ctx,
		`UPDATE turns
		 SET current_round = $2, finished_players = $3, updated_at = NOW()
		 WHERE game_id = $1
		 RETURNING updated_at`,
		t.GameID, t.CurrentRound, players(t.FinishedPlayers),
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return turn.ErrTurnNotFound
		}
		return fmt.Errorf("updating turn: %w", err)
	}
	return nil
}

func scanTurn(row pgx.Row) (*turn.Turn, error) {
	var t turn.Turn
	if err := row.Scan(&t.GameID, &t.CurrentRound, &t.FinishedPlayers, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if t.FinishedPlayers == nil {
		t.FinishedPlayers = []string{}
	}
	return &t, nil
}
