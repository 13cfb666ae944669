package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/config"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleLogin runs the OAuth 2.0 authorization code flow against Google.
type GoogleLogin struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewGoogleLogin creates a GoogleLogin requesting the profile and email scopes.
//
// Precondition: cfg.Enabled() must be true.
func NewGoogleLogin(cfg config.GoogleConfig) *GoogleLogin {
	return &GoogleLogin{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (g *GoogleLogin) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the caller's Google profile.
//
// Postcondition: Returns a profile with a non-empty Subject, or an error.
func (g *GoogleLogin) Exchange(ctx context.Context, code string) (account.GoogleProfile, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return account.GoogleProfile{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return account.GoogleProfile{}, fmt.Errorf("building userinfo request: %w", err)
	}
	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return account.GoogleProfile{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return account.GoogleProfile{}, fmt.Errorf("fetching userinfo: status %d", resp.StatusCode)
	}

	var profile account.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return account.GoogleProfile{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if profile.Subject == "" {
		return account.GoogleProfile{}, fmt.Errorf("userinfo response has no subject")
	}
	return profile, nil
}

// NewState returns a random URL-safe value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
