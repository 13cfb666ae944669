package api

import (
	"encoding/json"
	"net/http"

	"github.com/cory-johannsen/tabletop/internal/auth"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
)

type createGameRequest struct {
	GameName   string `json:"gameName"`
	GameMaster string `json:"gameMaster"`
}

type createGameResponse struct {
	GameID           string `json:"gameId"`
	GameName         string `json:"gameName"`
	GameMaster       string `json:"gameMaster"`
	DiscordChannelID string `json:"discordChannelId"`
}

type joinGameResponse struct {
	Game           *session.Game `json:"game"`
	InvitationLink string        `json:"invitationLink"`
}

type saveStateRequest struct {
	GameID    string          `json:"gameId"`
	GameState json.RawMessage `json:"gameState"`
}

type gameResponse struct {
	Message string        `json:"message,omitempty"`
	Game    *session.Game `json:"game"`
	Turn    *turn.Turn    `json:"turn,omitempty"`
}

// handleCreateGame creates a game. gameMaster defaults to the caller.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	const op = "create game"
	var req createGameRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if req.GameMaster == "" {
		if p, ok := auth.FromContext(r.Context()); ok {
			req.GameMaster = p.UserID
		}
	}
	if err := required("gameName", req.GameName, "gameMaster", req.GameMaster); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}

	g, err := s.Sessions.Create(r.Context(), req.GameName, req.GameMaster)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{
		GameID:           g.ID,
		GameName:         g.Name,
		GameMaster:       g.GameMaster,
		DiscordChannelID: g.DiscordChannelID,
	})
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	const op = "join game"
	var req gamePlayerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("gameId", req.GameID, "playerId", req.PlayerID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	g, invite, err := s.Sessions.Join(r.Context(), req.GameID, req.PlayerID)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, joinGameResponse{Game: g, InvitationLink: invite.URL})
}

func (s *Server) handleFinishTurn(w http.ResponseWriter, r *http.Request) {
	const op = "finish turn"
	var req gamePlayerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("gameId", req.GameID, "playerId", req.PlayerID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	g, t, progress, err := s.Sessions.FinishTurn(r.Context(), req.GameID, req.PlayerID)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Message: progress.String(), Game: g, Turn: t})
}

func (s *Server) handleSaveGameState(w http.ResponseWriter, r *http.Request) {
	const op = "save game state"
	var req saveStateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("gameId", req.GameID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	g, err := s.Sessions.SaveState(r.Context(), req.GameID, req.GameState)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Message: "game state saved", Game: g})
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	const op = "end game"
	var req gameIDRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	if err := required("gameId", req.GameID); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	g, err := s.Sessions.End(r.Context(), req.GameID)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Message: "game ended", Game: g})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, t, err := s.Sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.Logger, "get game", err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Game: g, Turn: t})
}
