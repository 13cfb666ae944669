// Package memory provides in-process stores for development and tests. Every
// record is copied on the way in and out so callers never share state with the store.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/game/interaction"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
)

// Store holds users, games, turns and participants in maps.
// All methods are safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*account.User            // id → user
	googleIDs    map[string]string                   // google id → user id
	games        map[string]*session.Game            // id → game
	turns        map[string]*turn.Turn               // game id → turn
	participants map[string]*interaction.Participant // id → participant
	now          func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[string]*account.User),
		googleIDs:    make(map[string]string),
		games:        make(map[string]*session.Game),
		turns:        make(map[string]*turn.Turn),
		participants: make(map[string]*interaction.Participant),
		now:          time.Now,
	}
}

// CreateUser stores a copy of u under a fresh ID.
func (s *Store) CreateUser(_ context.Context, u *account.User) (*account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.GoogleID != "" {
		if _, taken := s.googleIDs[u.GoogleID]; taken {
			return nil, account.ErrUserExists
		}
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, account.ErrUserExists
		}
	}

	out := *u
	out.ID = uuid.NewString()
	out.CreatedAt = s.now()
	s.users[out.ID] = &out
	if out.GoogleID != "" {
		s.googleIDs[out.GoogleID] = out.ID
	}
	cp := out
	return &cp, nil
}

// GetUser returns a copy of the user with id.
func (s *Store) GetUser(_ context.Context, id string) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByGoogleID returns a copy of the user linked to googleID.
func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*account.User, error) {
	s.mu.RLock()
	id, ok := s.googleIDs[googleID]
	s.mu.RUnlock()
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes the user with id.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return account.ErrUserNotFound
	}
	delete(s.googleIDs, u.GoogleID)
	delete(s.users, id)
	return nil
}

// CreateGame stores a copy of g, assigning an ID when g.ID is empty.
func (s *Store) CreateGame(_ context.Context, g *session.Game) (*session.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := cloneGame(g)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := s.now()
	out.CreatedAt, out.UpdatedAt = now, now
	s.games[out.ID] = out
	return cloneGame(out), nil
}

// GetGame returns a copy of the game with id.
func (s *Store) GetGame(_ context.Context, id string) (*session.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, session.ErrGameNotFound
	}
	return cloneGame(g), nil
}

// SaveGame overwrites the stored game with a copy of g.
func (s *Store) SaveGame(_ context.Context, g *session.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.games[g.ID]
	if !ok {
		return session.ErrGameNotFound
	}
	out := cloneGame(g)
	out.CreatedAt = existing.CreatedAt
	out.UpdatedAt = s.now()
	g.UpdatedAt = out.UpdatedAt
	s.games[g.ID] = out
	return nil
}

// GetTurn returns a copy of the turn for gameID.
func (s *Store) GetTurn(_ context.Context, gameID string) (*turn.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.turns[gameID]
	if !ok {
		return nil, turn.ErrTurnNotFound
	}
	return cloneTurn(t), nil
}

// CreateTurnIfAbsent stores t unless a turn for t.GameID exists.
func (s *Store) CreateTurnIfAbsent(_ context.Context, t *turn.Turn) (*turn.Turn, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.turns[t.GameID]; ok {
		return cloneTurn(existing), false, nil
	}
	out := cloneTurn(t)
	now := s.now()
	out.CreatedAt, out.UpdatedAt = now, now
	s.turns[t.GameID] = out
	return cloneTurn(out), true, nil
}

// SaveTurn overwrites the stored turn for t.GameID.
func (s *Store) SaveTurn(_ context.Context, t *turn.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.turns[t.GameID]
	if !ok {
		return turn.ErrTurnNotFound
	}
	out := cloneTurn(t)
	out.CreatedAt = existing.CreatedAt
	out.UpdatedAt = s.now()
	t.UpdatedAt = out.UpdatedAt
	s.turns[t.GameID] = out
	return nil
}

// CreateParticipant stores a copy of p under a fresh ID.
func (s *Store) CreateParticipant(_ context.Context, p *interaction.Participant) (*interaction.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := cloneParticipant(p)
	out.ID = uuid.NewString()
	now := s.now()
	out.CreatedAt, out.UpdatedAt = now, now
	s.participants[out.ID] = out
	return cloneParticipant(out), nil
}

// GetParticipant returns a copy of the participant with id and kind.
func (s *Store) GetParticipant(_ context.Context, kind interaction.Kind, id string) (*interaction.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok || p.Kind != kind {
		return nil, interaction.ErrParticipantNotFound
	}
	return cloneParticipant(p), nil
}

// ListParticipants returns copies of every participant of kind, oldest first.
func (s *Store) ListParticipants(_ context.Context, kind interaction.Kind) ([]*interaction.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*interaction.Participant, 0)
	for _, p := range s.participants {
		if p.Kind == kind {
			out = append(out, cloneParticipant(p))
		}
	}
	slices.SortFunc(out, func(a, b *interaction.Participant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// SaveParticipant overwrites the stored participant with a copy of p.
func (s *Store) SaveParticipant(_ context.Context, p *interaction.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.participants[p.ID]
	if !ok || existing.Kind != p.Kind {
		return interaction.ErrParticipantNotFound
	}
	out := cloneParticipant(p)
	out.CreatedAt = existing.CreatedAt
	out.UpdatedAt = s.now()
	p.UpdatedAt = out.UpdatedAt
	s.participants[p.ID] = out
	return nil
}

// DeleteParticipant removes the participant with id and kind.
func (s *Store) DeleteParticipant(_ context.Context, kind interaction.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok || p.Kind != kind {
		return interaction.ErrParticipantNotFound
	}
	delete(s.participants, id)
	return nil
}

func cloneGame(g *session.Game) *session.Game {
	out := *g
	out.Players = slices.Clone(g.Players)
	if out.Players == nil {
		out.Players = []string{}
	}
	out.GameState = slices.Clone(g.GameState)
	return &out
}

func cloneTurn(t *turn.Turn) *turn.Turn {
	out := *t
	out.FinishedPlayers = slices.Clone(t.FinishedPlayers)
	if out.FinishedPlayers == nil {
		out.FinishedPlayers = []string{}
	}
	return &out
}

func cloneParticipant(p *interaction.Participant) *interaction.Participant {
	out := *p
	out.Abilities = slices.Clone(p.Abilities)
	out.Effects = slices.Clone(p.Effects)
	if out.Abilities == nil {
		out.Abilities = []interaction.Ability{}
	}
	if out.Effects == nil {
		out.Effects = []interaction.Effect{}
	}
	return &out
}
