package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubProvider runs the OAuth authorization code flow that links a GitHub
// account to the dashboard as an alternative to pasting a personal access
// token.
//
//  1. /auth/github/login redirects to GitHub with a random state (also set
//     in a short-lived cookie)
//  2. GitHub redirects back to the callback URL with a code and the state
//  3. the server checks the state against the cookie and exchanges the code
//     for an access token using the client secret
//
// The access token is then stored exactly like a PAT would be. It never
// reaches the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider builds the provider. callbackURL must match the OAuth
// app's registered callback exactly.
//
// "repo" is needed to read commits of private repositories.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"repo", "read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL is where to send the browser to start the flow.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a GitHub access token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("auth: GitHub returned an empty access token")
	}
	return tok.AccessToken, nil
}

// SetEndpoint points the provider at another authorization server. Tests use
// it with an httptest server.
func (p *GitHubProvider) SetEndpoint(ep oauth2.Endpoint) {
	p.config.Endpoint = ep
}
