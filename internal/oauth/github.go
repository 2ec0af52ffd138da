package oauth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

var ErrNoVerifiedEmail = errors.New("github account has no verified email")

type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

func NewGitHubProvider(cfg config.OAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		config:  newConfig(cfg, github.Endpoint, "user:email", "read:user"),
		apiBase: githubAPIBase,
	}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	client, err := exchange(ctx, p.config, code)
	if err != nil {
		return nil, err
	}

	var ghUser struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := getJSON(client, p.apiBase+"/user", "github", &ghUser); err != nil {
		return nil, err
	}

	// the public profile email is not guaranteed to be verified
	email, err := p.verifiedEmail(client)
	if err != nil {
		return nil, err
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	return &UserInfo{
		ID:       strconv.FormatInt(ghUser.ID, 10),
		Email:    email,
		Name:     name,
		Verified: true,
		Provider: p.Name(),
	}, nil
}

func (p *GitHubProvider) verifiedEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(client, p.apiBase+"/user/emails", "github", &emails); err != nil {
		return "", err
	}

	fallback := ""
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email, nil
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	if fallback == "" {
		return "", ErrNoVerifiedEmail
	}
	return fallback, nil
}
