package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/session"
)

const gameColumns = `id, name, game_master, players, status, game_state,
	discord_channel_id, created_at, updated_at`

// GameRepository provides game session persistence operations.
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository creates a GameRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// CreateGame inserts g, assigning an ID when g.ID is empty.
//
// Postcondition: Returns the stored game with ID, CreatedAt and UpdatedAt set.
func (r *GameRepository) CreateGame(ctx context.Context, g *session.Game) (*session.Game, error) {
	id := g.ID
	if id == "" {
		id = uuid.NewString()
	}
	out, err := scanGame(r.db.QueryRow(ctx,
		`INSERT INTO games (id, name, game_master, players, status, game_state, discord_channel_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+gameColumns,
		id, g.Name, g.GameMaster, players(g.Players), string(g.Status), nullableJSON(g.GameState), g.DiscordChannelID,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting game: %w", err)
	}
	return out, nil
}

// GetGame retrieves a game by ID or returns session.ErrGameNotFound.
func (r *GameRepository) GetGame(ctx context.Context, id string) (*session.Game, error) {
	g, err := scanGame(r.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrGameNotFound
		}
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return g, nil
}

// SaveGame overwrites the stored game with g.
//
// Postcondition: g.UpdatedAt is refreshed, or session.ErrGameNotFound is returned.
func (r *GameRepository) SaveGame(ctx context.Context, g *session.Game) error {
	err := r.db.QueryRow(ctx,
		`UPDATE games
		 SET name = $2, game_master = $3, players = $4, status = $5, game_state = $6,
		     discord_channel_id = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		g.ID, g.Name, g.GameMaster, players(g.Players), string(g.Status), nullableJSON(g.GameState), g.DiscordChannelID,
	).Scan(&g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.ErrGameNotFound
		}
		return fmt.Errorf("updating game: %w", err)
	}
	return nil
}

func scanGame(row pgx.Row) (*session.Game, error) {
	var (
		g      session.Game
		status string
		state  []byte
	)
	if err := row.Scan(&g.ID, &g.Name, &g.GameMaster, &g.Players, &status, &state,
		&g.DiscordChannelID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Status = session.Status(status)
	g.GameState = state
	if g.Players == nil {
		g.Players = []string{}
	}
	return &g, nil
}

// players maps nil to an empty array so the NOT NULL column is satisfied.
func players(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// nullableJSON stores an empty payload as SQL NULL.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
