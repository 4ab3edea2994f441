// Package github calls the GitHub REST API directly with the user's
// personal access token.
package github

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/rest"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

const acceptV3 = "application/vnd.github.v3+json"

// Client is a GitHub REST client. It is stateless; every call takes the
// token to authenticate with.
type Client struct {
	rest *rest.Client
}

// New returns a Client. An empty baseURL means DefaultBaseURL.
func New(baseURL string, timeout time.Duration, opts ...rest.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append([]rest.Option{rest.WithHeader("Accept", acceptV3)}, opts...)
	return &Client{rest: rest.New(baseURL, timeout, opts...)}
}

// User returns the profile the token belongs to.
func (c *Client) User(ctx context.Context, token string) (model.GitHubProfile, error) {
	var p model.GitHubProfile
	if err := c.get(ctx, "get github user", "/user", token, &p); err != nil {
		return model.GitHubProfile{}, err
	}
	return p, nil
}

// ListRepositories returns the repositories the token's user can access,
// most recently updated first.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]model.GitHubRepo, error) {
	var repos []model.GitHubRepo
	if err := c.get(ctx, "list github repositories", "/user/repos?sort=updated&per_page=100", token, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListCommits returns the raw commit list in the order GitHub sent it.
func (c *Client) ListCommits(ctx context.Context, token, owner, repo string) ([]commitview.RawCommit, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))
	var commits []commitview.RawCommit
	if err := c.get(ctx, "list commits", path, token, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// GetCommit returns one raw commit including its files.
func (c *Client) GetCommit(ctx context.Context, token, owner, repo, sha string) (commitview.RawCommit, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(sha))
	var commit commitview.RawCommit
	if err := c.get(ctx, "get commit", path, token, &commit); err != nil {
		return commitview.RawCommit{}, err
	}
	return commit, nil
}

func (c *Client) get(ctx context.Context, op, path, token string, out any) error {
	if token == "" {
		return apperror.Unauthenticated()
	}
	return c.rest.Get(ctx, op, path, rest.PAT(token), out)
}
