package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/interaction"
)

const participantColumns = `id, kind, owner_id, name, health, abilities, effects, created_at, updated_at`

// ParticipantRepository provides character and enemy persistence operations.
type ParticipantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository creates a ParticipantRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// CreateParticipant inserts p under a fresh ID.
//
// Precondition: p.Kind must be valid.
// Postcondition: Returns the stored participant with ID and timestamps set.
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, p *interaction.Participant) (*interaction.Participant, error) {
	abilities, effects, err := encodeTraits(p)
	if err != nil {
		return nil, err
	}
	out, err := scanParticipant(r.db.QueryRow(ctx,
		`INSERT INTO participants (id, kind, owner_id, name, health, abilities, effects)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+participantColumns,
		uuid.NewString(), string(p.Kind), p.OwnerID, p.Name, p.Health, abilities, effects,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting participant: %w", err)
	}
	return out, nil
}

// GetParticipant retrieves a participant by kind and ID or returns interaction.ErrParticipantNotFound.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, kind interaction.Kind, id string) (*interaction.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1 AND kind = $2`, id, string(kind)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interaction.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("querying participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns every participant of kind, oldest first.
func (r *ParticipantRepository) ListParticipants(ctx context.Context, kind interaction.Kind) ([]*interaction.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE kind = $1 ORDER BY created_at, id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	out := make([]*interaction.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating participants: %w", err)
	}
	return out, nil
}

// SaveParticipant overwrites the stored participant with p.
//
// Postcondition: p.UpdatedAt is refreshed, or interaction.ErrParticipantNotFound is returned.
func (r *ParticipantRepository) SaveParticipant(ctx context.Context, p *interaction.Participant) error {
	abilities, effects, err := encodeTraits(p)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx,
		`UPDATE participants
		 SET owner_id = $3, name = $4, health = $5, abilities = $6, effects = $7, updated_at = NOW()
		 WHERE id = $1 AND kind = $2
		 RETURNING updated_at`,
		p.ID, string(p.Kind), p.OwnerID, p.Name, p.Health, abilities, effects,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interaction.ErrParticipantNotFound
		}
		return fmt.Errorf("updating participant: %w", err)
	}
	return nil
}

// DeleteParticipant removes the participant or returns interaction.ErrParticipantNotFound.
func (r *ParticipantRepository) DeleteParticipant(ctx context.Context, kind interaction.Kind, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM participants WHERE id = $1 AND kind = $2`, id, string(kind))
	if err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return interaction.ErrParticipantNotFound
	}
	return nil
}

func encodeTraits(p *interaction.Participant) (abilities, effects []byte, err error) {
	a := p.Abilities
	if a == nil {
		a = []interaction.Ability{}
	}
	e := p.Effects
	if e == nil {
		e = []interaction.Effect{}
	}
	if abilities, err = json.Marshal(a); err != nil {
		return nil, nil, fmt.Errorf("encoding abilities: %w", err)
	}
	if effects, err = json.Marshal(e); err != nil {
		return nil, nil, fmt.Errorf("encoding effects: %w", err)
	}
	return abilities, effects, nil
}

func scanParticipant(row pgx.Row) (*interaction.Participant, error) {
	var (
		p                  interaction.Participant
		kind               string
		abilities, effects []byte
	)
	if err := row.Scan(&p.ID, &kind, &p.OwnerID, &p.Name, &p.Health, &abilities, &effects,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Kind = interaction.Kind(kind)
	if err := json.Unmarshal(abilities, &p.Abilities); err != nil {
		return nil, fmt.Errorf("decoding abilities: %w", err)
	}
	if err := json.Unmarshal(effects, &p.Effects); err != nil {
		return nil, fmt.Errorf("decoding effects: %w", err)
	}
	return &p, nil
}
