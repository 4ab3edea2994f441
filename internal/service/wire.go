package service

import (
	"fmt"
	"log/slog"

	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/backend"
	"github.com/sakif/commit-dashboard/internal/commentsim"
	"github.com/sakif/commit-dashboard/internal/config"
	"github.com/sakif/commit-dashboard/internal/github"
	"github.com/sakif/commit-dashboard/internal/localauth"
	"github.com/sakif/commit-dashboard/internal/repository"
)

// Services is every service the server and the CLI drive.
type Services struct {
	Auth     *AuthService
	Boot     *Bootstrapper
	Catalog  *CatalogService
	Commits  *CommitService
	Comments *CommentService
	Projects *ProjectService
}

// NewServices wires the services for cfg's modes.
//
// In local auth mode accounts and saved repositories live in shared, and
// server tokens are signed with tokens. In backend mode both are unused and
// may be nil.
func NewServices(cfg *config.Config, shared repository.KVStore, tokens *auth.TokenService, logger *slog.Logger) (*Services, error) {
	backendClient := backend.New(cfg.BackendURL, cfg.HTTPTimeout)

	var gh GitHubAPI
	switch cfg.CommitSource {
	case config.CommitSourceBackend:
		gh = ProxiedGitHub{Client: backendClient}
	default:
		gh = DirectGitHub{Client: github.New(cfg.GitHubAPIURL, cfg.HTTPTimeout)}
	}

	var (
		authAPI AuthAPI
		saved   SavedRepoAPI
	)
	switch cfg.AuthMode {
	case config.AuthModeLocal:
		if shared == nil || tokens == nil {
			return nil, fmt.Errorf("service: local auth mode needs a store and a token service")
		}
		accounts := localauth.NewAccounts(shared, tokens, auth.NewPasswordService())
		authAPI = accounts
		saved = localauth.NewSavedRepos(accounts, shared)
	default:
		authAPI = backendClient
		saved = backendClient
	}

	comments := commentsim.New(commentsim.Latency(cfg.CommentLatency))
	catalog := NewCatalogService(gh, saved, logger)

	logger.Debug("services wired",
		slog.String("auth_mode", cfg.AuthMode),
		slog.String("commit_source", cfg.CommitSource),
	)
	return &Services{
		Auth:     NewAuthService(authAPI, gh, catalog, logger),
		Boot:     NewBootstrapper(gh, catalog, logger, cfg.BootstrapTimeout),
		Catalog:  catalog,
		Commits:  NewCommitService(gh, logger),
		Comments: NewCommentService(comments, catalog, logger),
		Projects: NewProjectService(catalog, logger),
	}, nil
}
