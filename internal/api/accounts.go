package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/auth"
)

const (
	stateCookie    = "tabletop_oauth_state"
	stateCookieTTL = 10 * time.Minute
	successPath    = "/api/auth/success"
	failurePath    = "/api/auth/failure"
)

type registerRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type userResponse struct {
	Message string        `json:"message"`
	User    *account.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "register user"
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	u := &account.User{DisplayName: req.DisplayName, Email: req.Email}
	if err := u.Validate(); err != nil {
		writeError(w, s.Logger, op, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	created, err := s.Users.CreateUser(r.Context(), u)
	if err != nil {
		writeError(w, s.Logger, op, err)
		return
	}
	s.Logger.Info("user registered", zap.String("user_id", created.ID))
	writeJSON(w, http.StatusCreated, userResponse{Message: "user registered", User: created})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Users.DeleteUser(r.Context(), id); err != nil {
		writeError(w, s.Logger, "delete user", err)
		return
	}
	s.Logger.Info("user deleted", zap.String("user_id", id))
	writeJSON(w, http.StatusOK, messageBody{Message: "user deleted"})
}

// handleGoogleLogin redirects to the Google consent page with a fresh state cookie.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil || s.Tokens == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "google login is not configured"})
		return
	}
	state, err := auth.NewState()
	if err != nil {
		writeError(w, s.Logger, "google login", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.Google.AuthCodeURL(state), http.StatusFound)
}

// handleGoogleCallback finishes the code flow, links or registers the user and
// sets the session cookie.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil || s.Tokens == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "google login is not configured"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth/google", MaxAge: -1})

	u, err := s.completeGoogleLogin(r)
	if err != nil {
		s.Logger.Warn("google login failed", zap.Error(err))
		http.Redirect(w, r, failurePath, http.StatusFound)
		return
	}
	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		s.Logger.Error("issuing session token", zap.Error(err))
		http.Redirect(w, r, failurePath, http.StatusFound)
		return
	}
	s.Tokens.SetCookie(w, r, token, exp)
	s.Logger.Info("google login", zap.String("user_id", u.ID))
	http.Redirect(w, r, successPath, http.StatusFound)
}

func (s *Server) completeGoogleLogin(r *http.Request) (*account.User, error) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		return nil, errors.New("oauth state mismatch")
	}
	if e := r.URL.Query().Get("error"); e != "" {
		return nil, fmt.Errorf("consent denied: %s", e)
	}
	profile, err := s.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return nil, err
	}
	return account.FindOrCreateGoogleUser(r.Context(), s.Users, profile)
}

func (s *Server) handleAuthSuccess(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	u, err := s.Users.GetUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, s.Logger, "load user", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "login successful", User: u})
}

func (s *Server) handleAuthFailure(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication failed"})
}
