// Package service contains the dashboard's orchestration logic.
//
//	Handler / CLI (presentation) → Service (rules, fallbacks, ordering) → API clients
//	                                                                   ↘ session.Store
//
// Services never touch HTTP requests or terminals, so the server and the CLI
// drive exactly the same code. Their collaborators are the small interfaces
// below, declared here where they are consumed; tests replace them with
// hand-written fakes.
//
// Per-device state (tokens, the user record, projects, the selected
// repository) is always passed in as a *session.Store. Services themselves
// hold no per-user state, except CommentService's in-memory preview sessions.
package service

import (
	"context"

	"github.com/sakif/commit-dashboard/internal/backend"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/github"
	"github.com/sakif/commit-dashboard/internal/model"
)

// AuthAPI creates accounts and exchanges credentials for tokens.
// Implemented by backend.Client and localauth.Accounts.
type AuthAPI interface {
	Signup(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (model.LoginResult, error)
}

// SavedRepoAPI is the system of record for saved repositories.
// Implemented by backend.Client and localauth.SavedRepos.
type SavedRepoAPI interface {
	ListSaved(ctx context.Context, serverToken string) ([]model.SavedRepository, error)
	Save(ctx context.Context, serverToken string, repo model.SavedRepository) (model.SavedRepository, error)
	DeleteSaved(ctx context.Context, serverToken, id string) error
}

// GitHubAPI reads GitHub on behalf of a session: the profile, repositories
// and commits. See DirectGitHub and ProxiedGitHub.
type GitHubAPI interface {
	Profile(ctx context.Context, sess *model.Session) (model.GitHubProfile, error)
	ListRepositories(ctx context.Context, sess *model.Session) ([]model.GitHubRepo, error)
	ListCommits(ctx context.Context, sess *model.Session, owner, repo string) ([]commitview.RawCommit, error)
	GetCommit(ctx context.Context, sess *model.Session, owner, repo, sha string) (commitview.RawCommit, error)
}

// CommentAPI is the AI comment pipeline. Implemented by commentsim.Simulator.
type CommentAPI interface {
	Generate(ctx context.Context, owner, repo, sha, branch string) (model.CommentSession, error)
	UpdateComment(ctx context.Context, sessionID string, c model.Comment) error
	Apply(ctx context.Context, sessionID, owner, repo, sha, branch string) (model.ApplyResult, error)
}

// DirectGitHub calls api.github.com with the session's GitHub token.
type DirectGitHub struct {
	Client *github.Client
}

func (d DirectGitHub) Profile(ctx context.Context, sess *model.Session) (model.GitHubProfile, error) {
	return d.Client.User(ctx, sess.GitHubToken)
}

func (d DirectGitHub) ListRepositories(ctx context.Context, sess *model.Session) ([]model.GitHubRepo, error) {
	return d.Client.ListRepositories(ctx, sess.GitHubToken)
}

func (d DirectGitHub) ListCommits(ctx context.Context, sess *model.Session, owner, repo string) ([]commitview.RawCommit, error) {
	return d.Client.ListCommits(ctx, sess.GitHubToken, owner, repo)
}

func (d DirectGitHub) GetCommit(ctx context.Context, sess *model.Session, owner, repo, sha string) (commitview.RawCommit, error) {
	return d.Client.GetCommit(ctx, sess.GitHubToken, owner, repo, sha)
}

// ProxiedGitHub goes through the backend's /github endpoints with the
// session's server token; the backend uses the account it has linked.
type ProxiedGitHub struct {
	Client *backend.Client
}

func (p ProxiedGitHub) Profile(ctx context.Context, sess *model.Session) (model.GitHubProfile, error) {
	return p.Client.GitHubUser(ctx, sess.ServerToken)
}

func (p ProxiedGitHub) ListRepositories(ctx context.Context, sess *model.Session) ([]model.GitHubRepo, error) {
	return p.Client.ListRepositories(ctx, sess.ServerToken)
}

func (p ProxiedGitHub) ListCommits(ctx context.Context, sess *model.Session, owner, repo string) ([]commitview.RawCommit, error) {
	return p.Client.ListCommits(ctx, sess.ServerToken, owner, repo)
}

func (p ProxiedGitHub) GetCommit(ctx context.Context, sess *model.Session, owner, repo, sha string) (commitview.RawCommit, error) {
	return p.Client.GetCommit(ctx, sess.ServerToken, owner, repo, sha)
}
