// Package account defines the user model shared by authentication and sessions.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// ErrUserNotFound is returned when a user lookup yields no results.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when registering an email or Google ID already in use.
var ErrUserExists = errors.New("user already exists")

// User is a registered person who can run or join games.
type User struct {
	ID          string    `json:"_id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	GoogleID    string    `json:"googleId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Validate checks the fields required to register a user.
//
// Postcondition: Returns nil iff DisplayName is non-blank and Email parses as an address.
func (u *User) Validate() error {
	if strings.TrimSpace(u.DisplayName) == "" {
		return errors.New("displayName must not be empty")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("email %q is not a valid address", u.Email)
	}
	return nil
}

// Store persists users.
type Store interface {
	// CreateUser inserts u, assigning ID and CreatedAt; ErrUserExists on duplicate email or Google ID.
	CreateUser(ctx context.Context, u *User) (*User, error)
	// GetUser returns the user or ErrUserNotFound.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByGoogleID returns the user linked to googleID or ErrUserNotFound.
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	// DeleteUser removes the user or returns ErrUserNotFound.
	DeleteUser(ctx context.Context, id string) error
}

// FindOrCreateGoogleUser returns the user linked to profile.Subject, registering
// one on first login.
//
// Precondition: profile.Subject must be non-empty.
func FindOrCreateGoogleUser(ctx context.Context, store Store, profile GoogleProfile) (*User, error) {
	u, err := store.GetUserByGoogleID(ctx, profile.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("looking up google user: %w", err)
	}
	name := profile.Name
	if name == "" {
		name = profile.Email
	}
	return store.CreateUser(ctx, &User{
		DisplayName: name,
		Email:       profile.Email,
		GoogleID:    profile.Subject,
	})
}

// GoogleProfile is the subset of the Google userinfo response used to link accounts.
type GoogleProfile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}
