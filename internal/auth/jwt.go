package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT issues and verifies HS256 session tokens. Tokens are read from an
// "Authorization: Bearer" header or from the session cookie.
type JWT struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	cookieName string
	now        Clock
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewJWT creates a JWT strategy.
//
// Precondition: secret must be non-empty; ttl must be positive.
func NewJWT(secret []byte, issuer string, ttl time.Duration, cookieName string) *JWT {
	return &JWT{
		secret:     secret,
		issuer:     issuer,
		ttl:        ttl,
		cookieName: cookieName,
		now:        time.Now,
	}
}

// Issue signs a token for userID.
//
// Postcondition: Returns the token and its expiry.
func (j *JWT) Issue(userID string) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return token, exp, nil
}

// Verify checks the signature, issuer and lifetime of token.
//
// Postcondition: Returns the subject as a Principal or an error wrapping ErrUnauthenticated.
func (j *JWT) Verify(token string) (Principal, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("%w: session expired", ErrUnauthenticated)
		}
		return Principal{}, fmt.Errorf("%w: invalid session token", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: session token has no subject", ErrUnauthenticated)
	}
	return Principal{UserID: claims.Subject}, nil
}

// Authenticate verifies the bearer token, falling back to the session cookie.
func (j *JWT) Authenticate(r *http.Request) (Principal, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return Principal{}, fmt.Errorf("%w: unsupported authorization scheme", ErrUnauthenticated)
		}
		return j.Verify(strings.TrimSpace(token))
	}
	if c, err := r.Cookie(j.cookieName); err == nil && c.Value != "" {
		return j.Verify(c.Value)
	}
	return Principal{}, fmt.Errorf("%w: no session token", ErrUnauthenticated)
}

// SetCookie writes token as an HttpOnly session cookie expiring at exp.
func (j *JWT) SetCookie(w http.ResponseWriter, r *http.Request, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     j.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
