// Package backend is the client for the dashboard's own REST backend: account
// signup and login, the saved-repository list, and the GitHub proxy endpoints
// that use the GitHub account linked on the server side.
//
// Every call except Signup and Login is authenticated with the session's
// server token as a Bearer token.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/rest"
)

// Client is stateless; tokens are passed per call.
type Client struct {
	rest *rest.Client
}

func New(baseURL string, timeout time.Duration, opts ...rest.Option) *Client {
	return &Client{rest: rest.New(baseURL, timeout, opts...)}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account. A 400 or 409 from the backend means the email
// is taken (or otherwise rejected) and is reported as a validation error on
// the email field.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	err := c.rest.Do(ctx, "signup", rest.Request{
		Method: http.MethodPost,
		Path:   "/auth/signup",
		Body:   credentials{Email: email, Password: password},
	}, nil)
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrAPI) &&
		(appErr.Status == http.StatusConflict || appErr.Status == http.StatusBadRequest) {
		msg := serverMessage(appErr, "signup")
		if msg == "" {
			msg = "email is already registered"
		}
		return apperror.ValidationFailed("email", msg)
	}
	return err
}

// loginResponse accepts the token under the names the backend has used.
type loginResponse struct {
	ServerToken string     `json:"serverToken"`
	Token       string     `json:"token"`
	AccessToken string     `json:"accessToken"`
	GitHubToken string     `json:"githubToken"`
	User        model.User `json:"user"`
	Email       string     `json:"email"`
}

// Login exchanges credentials for a server token, an optional GitHub token
// and the profile seed. Any non-2xx answer is a credential error carrying
// the backend's message.
func (c *Client) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	var resp loginResponse
	err := c.rest.Do(ctx, "login", rest.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		if errors.Is(err, apperror.ErrAPI) {
			var appErr *apperror.AppError
			errors.As(err, &appErr)
			return model.LoginResult{}, apperror.Credential(serverMessage(appErr, "login"))
		}
		return model.LoginResult{}, err
	}

	token := resp.ServerToken
	if token == "" {
		token = resp.Token
	}
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return model.LoginResult{}, apperror.Credential("login response did not include a token")
	}

	profile := resp.User
	if profile.Email == "" {
		profile.Email = resp.Email
	}
	if profile.Email == "" {
		profile.Email = email
	}
	return model.LoginResult{ServerToken: token, GitHubToken: resp.GitHubToken, Profile: profile}, nil
}

// GitHubUser returns the GitHub profile linked to the account.
func (c *Client) GitHubUser(ctx context.Context, serverToken string) (model.GitHubProfile, error) {
	var p model.GitHubProfile
	if err := c.get(ctx, "get github user", "/github/user", serverToken, &p); err != nil {
		return model.GitHubProfile{}, err
	}
	return p, nil
}

// ListRepositories returns the linked account's GitHub repositories.
func (c *Client) ListRepositories(ctx context.Context, serverToken string) ([]model.GitHubRepo, error) {
	var repos []model.GitHubRepo
	if err := c.get(ctx, "list github repositories", "/github/repositories", serverToken, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListSaved returns the saved repositories.
func (c *Client) ListSaved(ctx context.Context, serverToken string) ([]model.SavedRepository, error) {
	var repos []model.SavedRepository
	if err := c.get(ctx, "list saved repositories", "/saved-repositories", serverToken, &repos); err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []model.SavedRepository{}
	}
	return repos, nil
}

// Save persists repo and returns the record the backend created.
func (c *Client) Save(ctx context.Context, serverToken string, repo model.SavedRepository) (model.SavedRepository, error) {
	if serverToken == "" {
		return model.SavedRepository{}, apperror.Unauthenticated()
	}
	var created model.SavedRepository
	err := c.rest.Do(ctx, "save repository", rest.Request{
		Method: http.MethodPost,
		Path:   "/saved-repositories",
		Token:  rest.Bearer(serverToken),
		Body:   repo,
	}, &created)
	if err != nil {
		return model.SavedRepository{}, err
	}
	return created, nil
}

// DeleteSaved removes a saved repository by its backend id.
func (c *Client) DeleteSaved(ctx context.Context, serverToken, id string) error {
	if serverToken == "" {
		return apperror.Unauthenticated()
	}
	return c.rest.Do(ctx, "delete saved repository", rest.Request{
		Method: http.MethodDelete,
		Path:   "/saved-repositories/" + url.PathEscape(id),
		Token:  rest.Bearer(serverToken),
	}, nil)
}

// ListCommits proxies GitHub's commit list.
func (c *Client) ListCommits(ctx context.Context, serverToken, owner, repo string) ([]commitview.RawCommit, error) {
	path := fmt.Sprintf("/github/repositories/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))
	var commits []commitview.RawCommit
	if err := c.get(ctx, "list commits", path, serverToken, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// GetCommit proxies GitHub's single-commit endpoint.
func (c *Client) GetCommit(ctx context.Context, serverToken, owner, repo, sha string) (commitview.RawCommit, error) {
	path := fmt.Sprintf("/github/repositories/%s/%s/commits/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(sha))
	var commit commitview.RawCommit
	if err := c.get(ctx, "get commit", path, serverToken, &commit); err != nil {
		return commitview.RawCommit{}, err
	}
	return commit, nil
}

func (c *Client) get(ctx context.Context, op, path, serverToken string, out any) error {
	if serverToken == "" {
		return apperror.Unauthenticated()
	}
	return c.rest.Get(ctx, op, path, rest.Bearer(serverToken), out)
}

// serverMessage returns the message the backend put in its error body, or ""
// when the error only carries the generic status text.
func serverMessage(appErr *apperror.AppError, op string) string {
	if appErr.Message == fmt.Sprintf("%s failed with status %d", op, appErr.Status) {
		return ""
	}
	return appErr.Message
}
