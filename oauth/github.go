package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/use-agent/cfscrape/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubExchanger trades a GitHub OAuth authorization code for an access
// token. It performs a single request: no retry, no validation of the
// returned token, no storage.
type GitHubExchanger struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

// NewGitHubExchanger creates an exchanger for the configured OAuth app.
// Pass a nil httpClient to use a client with oauth2's defaults.
func NewGitHubExchanger(cfg config.OAuthConfig, httpClient *http.Client) *GitHubExchanger {
	endpoint := github.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	// GitHub accepts client credentials in the POST body.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &GitHubExchanger{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}
}

// Exchange returns the access token for code.
func (g *GitHubExchanger) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("oauth: empty authorization code")
	}
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}

	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth: exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("oauth: token endpoint returned no access_token")
	}
	return tok.AccessToken, nil
}
