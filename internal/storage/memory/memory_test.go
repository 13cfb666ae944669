package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/game/interaction"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
)

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, &account.User{DisplayName: "Master", Email: "master@example.com", GoogleID: "g-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, &account.User{DisplayName: "Dup", Email: "master@example.com"})
	assert.ErrorIs(t, err, account.ErrUserExists)
	_, err = s.CreateUser(ctx, &account.User{DisplayName: "Dup", Email: "other@example.com", GoogleID: "g-1"})
	assert.ErrorIs(t, err, account.ErrUserExists)

	byGoogle, err := s.GetUserByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byGoogle.ID)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	_, err = s.GetUserByGoogleID(ctx, "g-1")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), account.ErrUserNotFound)
}

func TestStore_GamesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	g, err := s.CreateGame(ctx, session.NewGame("", "Crypt", "gm"))
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	g.AddPlayer("p1")
	stored, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Players, "mutating a returned game must not touch the store")

	require.NoError(t, s.SaveGame(ctx, g))
	stored, err = s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, stored.Players)

	assert.ErrorIs(t, s.SaveGame(ctx, &session.Game{ID: "missing"}), session.ErrGameNotFound)
	_, err = s.GetGame(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrGameNotFound)
}

func TestStore_CreateTurnIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, created, err := s.CreateTurnIfAbsent(ctx, turn.New("g1"))
	require.NoError(t, err)
	assert.True(t, created)

	first.Advance()
	require.NoError(t, s.SaveTurn(ctx, first))

	again, created, err := s.CreateTurnIfAbsent(ctx, turn.New("g1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, again.CurrentRound)

	assert.ErrorIs(t, s.SaveTurn(ctx, turn.New("nope")), turn.ErrTurnNotFound)
}

func TestStore_Participants(t *testing.T) {
	ctx := context.Background()
	s := New()

	c, err := s.CreateParticipant(ctx, &interaction.Participant{Kind: interaction.KindCharacter, Name: "Aria", Health: 30})
	require.NoError(t, err)
	e, err := s.CreateParticipant(ctx, &interaction.Participant{Kind: interaction.KindEnemy, Name: "Ghoul", Health: 20})
	require.NoError(t, err)

	_, err = s.GetParticipant(ctx, interaction.KindEnemy, c.ID)
	assert.ErrorIs(t, err, interaction.ErrParticipantNotFound, "kind must match")

	chars, err := s.ListParticipants(ctx, interaction.KindCharacter)
	require.NoError(t, err)
	require.Len(t, chars, 1)
	assert.Equal(t, "Aria", chars[0].Name)
	assert.NotNil(t, chars[0].Abilities)

	e.Health = -4
	require.NoError(t, s.SaveParticipant(ctx, e))
	got, err := s.GetParticipant(ctx, interaction.KindEnemy, e.ID)
	require.NoError(t, err)
	assert.Equal(t, -4, got.Health)

	require.NoError(t, s.DeleteParticipant(ctx, interaction.KindEnemy, e.ID))
	assert.ErrorIs(t, s.DeleteParticipant(ctx, interaction.KindEnemy, e.ID), interaction.ErrParticipantNotFound)
}

// Property: a saved turn reads back unchanged.
func TestStore_TurnRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		s := New()
		_, _, err := s.CreateTurnIfAbsent(ctx, turn.New("g"))
		require.NoError(rt, err)

		tr := turn.New("g")
		tr.CurrentRound = rapid.IntRange(1, 1000).Draw(rt, "round")
		tr.FinishedPlayers = rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,8}`), func(s string) string { return s }).Draw(rt, "finished")
		require.NoError(rt, s.SaveTurn(ctx, tr))

		got, err := s.GetTurn(ctx, "g")
		require.NoError(rt, err)
		assert.Equal(rt, tr.CurrentRound, got.CurrentRound)
		assert.ElementsMatch(rt, tr.FinishedPlayers, got.FinishedPlayers)
	})
}
