// Package oauth implements the provider side of the OAuth login flow.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig holds the OAuth client registration for Google.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type googleExchanger struct {
	cfg *oauth2.Config
}

// NewGoogleExchanger returns an OAuthExchanger for Google sign-in. The email
// and profile scopes are enough to identify the user; mailbox access is
// granted separately when the user connects Gmail sync.
func NewGoogleExchanger(cfg GoogleConfig) domain.OAuthExchanger {
	return &googleExchanger{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (g *googleExchanger) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleExchanger) Exchange(ctx context.Context, code string) (*domain.OAuthIdentity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	client := g.cfg.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status: %d", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}
	if !info.VerifiedEmail {
		return nil, fmt.Errorf("google account email is not verified")
	}
	return &domain.OAuthIdentity{Email: info.Email, Name: info.Name}, nil
}
