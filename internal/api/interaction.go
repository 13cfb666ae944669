package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/game/interaction"
)

type interactionRequest struct {
	Character       *interaction.Participant `json:"character"`
	Enemy           *interaction.Participant `json:"enemy"`
	SelectedStat    string                   `json:"selectedStat"`
	DiceType        int                      `json:"diceType"`
	OverrideOutcome *float64                 `json:"overrideOutcome"`
}

type storedInteractionRequest struct {
	CharacterID     string   `json:"characterId"`
	EnemyID         string   `json:"enemyId"`
	SelectedStat    string   `json:"selectedStat"`
	DiceType        int      `json:"diceType"`
	OverrideOutcome *float64 `json:"overrideOutcome"`
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, "interaction", err)
		return
	}
	if req.Character == nil || req.Enemy == nil {
		writeError(w, s.Logger, "interaction", fmt.Errorf("%w: character and enemy are required", errBadRequest))
		return
	}

	res, err := s.Resolver.Resolve(interaction.Request{
		Character:       req.Character,
		Enemy:           req.Enemy,
		SelectedStat:    req.SelectedStat,
		DiceType:        req.DiceType,
		OverrideOutcome: req.OverrideOutcome,
	})
	if err != nil {
		writeError(w, s.Logger, "interaction", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleStoredInteraction resolves between stored participants and persists
// both health changes.
func (s *Server) handleStoredInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "interaction"
	var req storedInteractionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("characterId", req.CharacterID, "enemyId", req.EnemyID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}

	ctx := r.Context()
	char, err := s.Participants.GetParticipant(ctx, interaction.KindCharacter, req.CharacterID)
	if err != nil {
		writeError(w, s.Logger, op, fmt.Errorf("character %s: %w", req.CharacterID, err))
		return
	}
	enemy, err := s.Participants.GetParticipant(ctx, interaction.KindEnemy, req.EnemyID)
	if err != nil {
		writeError(w, s.Logger, op, fmt.Errorf("enemy %s: %w", req.EnemyID, err))
		return
	}

	res, err := s.Resolver.Resolve(interaction.Request{
		Character:       char,
		Enemy:           enemy,
		SelectedStat:    req.SelectedStat,
		DiceType:        req.DiceType,
		OverrideOutcome: req.OverrideOutcome,
	})
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	for _, p := range []*interaction.Participant{char, enemy} {
		if err := s.Participants.SaveParticipant(ctx, p); err != nil {
			writeError(w, s.Logger, op, fmt.Errorf("saving %s %s: %w", p.Kind, p.ID, err))
			return
		}
	}
	s.Logger.Debug("stored interaction persisted",
		zap.String("character_id", char.ID),
		zap.String("enemy_id", enemy.ID),
		zap.Int("character_health", char.Health),
		zap.Int("enemy_health", enemy.Health),
	)
	writeJSON(w, http.StatusOK, res)
}
