// Package api exposes the session, turn, interaction, participant and account
// operations as a JSON HTTP API.
package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/auth"
	"github.com/cory-johannsen/tabletop/internal/game/interaction"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
	"github.com/cory-johannsen/tabletop/internal/gameserver"
	"github.com/cory-johannsen/tabletop/internal/observability"
)

// ParticipantStore persists characters and enemies.
type ParticipantStore interface {
	CreateParticipant(ctx context.Context, p *interaction.Participant) (*interaction.Participant, error)
	GetParticipant(ctx context.Context, kind interaction.Kind, id string) (*interaction.Participant, error)
	ListParticipants(ctx context.Context, kind interaction.Kind) ([]*interaction.Participant, error)
	SaveParticipant(ctx context.Context, p *interaction.Participant) error
	DeleteParticipant(ctx context.Context, kind interaction.Kind, id string) error
}

// Deps are the collaborators the API serves.
type Deps struct {
	Sessions     *gameserver.SessionHandler
	Turns        *turn.Service
	Resolver     *interaction.Resolver
	Participants ParticipantStore
	Users        account.Store
	// Auth guards the game and turn routes.
	Auth auth.Strategy
	// Tokens issues session tokens after Google login; nil disables token issuance.
	Tokens *auth.JWT
	// Google enables the /api/auth/google routes when non-nil.
	Google *auth.GoogleLogin
	Logger *zap.Logger
}

// Server routes API requests to the domain services.
type Server struct {
	Deps
	mux *http.ServeMux
}

// New creates a Server with every route registered.
//
// Precondition: every Deps field except Tokens and Google must be non-nil.
func New(d Deps) *Server {
	s := &Server{Deps: d, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the router wrapped in panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	return observability.AccessLog(s.Logger)(observability.Recover(s.Logger)(s.mux))
}

func (s *Server) routes() {
	guard := auth.Require(s.Auth)
	guarded := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, guard(h))
	}

	s.mux.HandleFunc("POST /api/interaction", s.handleInteraction)
	s.mux.HandleFunc("POST /api/interaction/stored", s.handleStoredInteraction)

	guarded("POST /api/turns/initialize", s.handleInitializeTurn)
	guarded("POST /api/turns/next/{gameId}", s.handleNextTurn)
	guarded("POST /api/turns/end", s.handleEndTurn)

	guarded("POST /api/games/create", s.handleCreateGame)
	guarded("POST /api/games/join", s.handleJoinGame)
	guarded("POST /api/games/finishTurn", s.handleFinishTurn)
	guarded("POST /api/games/saveGameStateAtTurnEnd", s.handleSaveGameState)
	guarded("POST /api/games/endGame", s.handleEndGame)
	guarded("GET /api/games/{id}", s.handleGetGame)

	for prefix, kind := range map[string]interaction.Kind{
		"/api/characters": interaction.KindCharacter,
		"/api/enemies":    interaction.KindEnemy,
	} {
		h := participantHandler{store: s.Participants, kind: kind, logger: s.Logger}
		s.mux.HandleFunc("POST "+prefix, h.create)
		s.mux.HandleFunc("GET "+prefix, h.list)
		s.mux.HandleFunc("GET "+prefix+"/{id}", h.get)
		s.mux.HandleFunc("PUT "+prefix+"/{id}", h.update)
		s.mux.HandleFunc("DELETE "+prefix+"/{id}", h.remove)
	}

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("DELETE /api/auth/delete/{id}", s.handleDeleteUser)
	s.mux.HandleFunc("GET /api/auth/google", s.handleGoogleLogin)
	s.mux.HandleFunc("GET /api/auth/google/callback", s.handleGoogleCallback)
	guarded("GET /api/auth/success", s.handleAuthSuccess)
	s.mux.HandleFunc("GET /api/auth/failure", s.handleAuthFailure)
}
