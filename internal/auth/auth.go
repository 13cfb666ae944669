// Package auth authenticates API callers. The strategy is chosen by configuration:
// signed JWT session tokens, or a fixed user for local development.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cory-johannsen/tabletop/internal/config"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal identifies the authenticated caller.
type Principal struct {
	UserID string `json:"userId"`
}

// Strategy extracts a Principal from a request.
type Strategy interface {
	// Authenticate returns the caller or an error wrapping ErrUnauthenticated.
	Authenticate(r *http.Request) (Principal, error)
}

// Static authenticates every request as UserID.
type Static struct {
	UserID string
}

// Authenticate returns the configured user.
func (s Static) Authenticate(*http.Request) (Principal, error) {
	return Principal{UserID: s.UserID}, nil
}

// New builds the Strategy named by cfg.Strategy. The *JWT is also returned when
// that strategy is selected so login handlers can issue tokens; it is nil otherwise.
//
// Precondition: cfg must have passed config validation.
func New(cfg config.AuthConfig) (Strategy, *JWT, error) {
	switch cfg.Strategy {
	case config.StrategyJWT:
		j := NewJWT([]byte(cfg.JWTSecret), cfg.Issuer, cfg.TokenTTL, cfg.CookieName)
		return j, j, nil
	case config.StrategyStatic:
		return Static{UserID: cfg.StaticUserID}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown auth strategy %q", cfg.Strategy)
	}
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the Principal stored by Require.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Require rejects unauthenticated requests with 401 and stores the Principal
// in the request context for the wrapped handler.
func Require(s Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := s.Authenticate(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time
