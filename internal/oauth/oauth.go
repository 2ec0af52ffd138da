// Package oauth signs existing accounts in through Google or GitHub.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"golang.org/x/oauth2"
)

type UserInfo struct {
	ID       string
	Email    string
	Name     string
	Verified bool
	Provider string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// Providers returns every provider that has a client id configured,
// keyed by name.
func Providers(cfg *config.Config) map[string]Provider {
	providers := make(map[string]Provider)
	if cfg.Google.ClientID != "" {
		providers["google"] = NewGoogleProvider(cfg.Google)
	}
	if cfg.GitHub.ClientID != "" {
		providers["github"] = NewGitHubProvider(cfg.GitHub)
	}
	return providers
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func newConfig(cfg config.OAuthConfig, endpoint oauth2.Endpoint, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}
}

// exchange trades code for a token and returns a client that carries it.
func exchange(ctx context.Context, cfg *oauth2.Config, code string) (*http.Client, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return cfg.Client(ctx, token), nil
}

func getJSON(client *http.Client, url, provider string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s api returned status %d", provider, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", provider, err)
	}
	return nil
}
