package api

import (
	"net/http"

	"github.com/cory-johannsen/tabletop/internal/game/turn"
)

type gameIDRequest struct {
	GameID string `json:"gameId"`
}

type gamePlayerRequest struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type turnResponse struct {
	Message string     `json:"message"`
	Turn    *turn.Turn `json:"turn"`
}

func (s *Server) handleInitializeTurn(w http.ResponseWriter, r *http.Request) {
	const op = "initialize turn order"
	var req gameIDRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("gameId", req.GameID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	t, created, err := s.Turns.Initialize(r.Context(), req.GameID)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	msg := "turn order initialized"
	if !created {
		msg = "turn order already initialized"
	}
	writeJSON(w, http.StatusOK, turnResponse{Message: msg, Turn: t})
}

func (s *Server) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	t, err := s.Turns.Advance(r.Context(), r.PathValue("gameId"))
	if err != nil {
		writeError(w, s.Logger, "advance turn", err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Message: "turn advanced", Turn: t})
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	const op = "end turn"
	var req gamePlayerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("gameId", req.GameID, "playerId", req.PlayerID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	t, progress, err := s.Turns.Finish(r.Context(), req.GameID, req.PlayerID)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Message: progress.String(), Turn: t})
}
