package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/session"
)

// CatalogService lists the user's GitHub repositories and manages the
// backend-persisted list of saved ones.
type CatalogService struct {
	github GitHubAPI
	saved  SavedRepoAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewCatalogService(github GitHubAPI, saved SavedRepoAPI, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		github: github,
		saved:  saved,
		logger: logger,
		now:    time.Now,
	}
}

// SampleRepositories is the fixed list shown when GitHub cannot be reached,
// so the selection screen still has something to render.
func SampleRepositories(now time.Time) []model.GitHubRepo {
	return []model.GitHubRepo{
		{
			ID:            1,
			Name:          "my-react-app",
			Description:   "A web application built with React",
			DefaultBranch: model.DefaultBranch,
			Language:      "JavaScript",
			UpdatedAt:     now,
		},
		{
			ID:            2,
			Name:          "api-service",
			Description:   "Node.js API server",
			DefaultBranch: model.DefaultBranch,
			Language:      "TypeScript",
			UpdatedAt:     now,
		},
		{
			ID:            3,
			Name:          "portfolio-website",
			Description:   "Personal portfolio website",
			DefaultBranch: model.DefaultBranch,
			Language:      "HTML",
			UpdatedAt:     now,
		},
	}
}

// ListGitHubRepositories returns the repositories GitHub reports for the
// session. Any failure is logged and answered with SampleRepositories; the
// second result reports that the fallback was used.
func (s *CatalogService) ListGitHubRepositories(ctx context.Context, sess *model.Session) ([]model.GitHubRepo, bool) {
	if sess == nil {
		return SampleRepositories(s.now()), true
	}
	repos, err := s.github.ListRepositories(ctx, sess)
	if err != nil {
		s.logger.Warn("listing github repositories failed, using sample repositories",
			slog.String("user_id", sess.UserID()),
			slog.String("error", err.Error()),
		)
		return SampleRepositories(s.now()), true
	}
	if repos == nil {
		repos = []model.GitHubRepo{}
	}
	return repos, false
}

// ListSavedRepositories returns the backend's list. Errors propagate.
func (s *CatalogService) ListSavedRepositories(ctx context.Context, sess *model.Session) ([]model.SavedRepository, error) {
	if sess == nil {
		return nil, apperror.Unauthenticated()
	}
	repos, err := s.saved.ListSaved(ctx, sess.ServerToken)
	if err != nil {
		s.logger.Error("listing saved repositories failed",
			slog.String("user_id", sess.UserID()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return repos, nil
}

// SavedRepository looks one saved repository up by its backend id.
func (s *CatalogService) SavedRepository(ctx context.Context, sess *model.Session, id string) (model.SavedRepository, error) {
	repos, err := s.ListSavedRepositories(ctx, sess)
	if err != nil {
		return model.SavedRepository{}, err
	}
	for _, r := range repos {
		if r.ID.String() == id {
			return r, nil
		}
	}
	return model.SavedRepository{}, apperror.NotFound("saved repository", id)
}

// SaveRepository maps repo to the backend shape and persists it. The owner
// of the full name is the session's GitHub login. The caller refetches the
// list afterwards; the returned value is only what the backend echoed.
func (s *CatalogService) SaveRepository(ctx context.Context, sess *model.Session, repo model.GitHubRepo) (model.SavedRepository, error) {
	if sess == nil {
		return model.SavedRepository{}, apperror.Unauthenticated()
	}
	saved := model.ToSavedRepository(repo, sess.GitHubLogin(), s.now())
	created, err := s.saved.Save(ctx, sess.ServerToken, saved)
	if err != nil {
		s.logger.Error("saving repository failed",
			slog.String("user_id", sess.UserID()),
			slog.String("repository", saved.RepositoryFullName),
			slog.String("error", err.Error()),
		)
		return model.SavedRepository{}, err
	}
	return created, nil
}

// SaveRepositoryByID saves the GitHub repository with the given id, taken
// from the same list ListGitHubRepositories shows.
func (s *CatalogService) SaveRepositoryByID(ctx context.Context, sess *model.Session, githubID int64) (model.SavedRepository, error) {
	repos, _ := s.ListGitHubRepositories(ctx, sess)
	for _, r := range repos {
		if r.ID == githubID {
			return s.SaveRepository(ctx, sess, r)
		}
	}
	return model.SavedRepository{}, apperror.NotFound("github repository", strconv.FormatInt(githubID, 10))
}

// DeleteSavedRepository removes a saved repository by backend id.
func (s *CatalogService) DeleteSavedRepository(ctx context.Context, sess *model.Session, id string) error {
	if sess == nil {
		return apperror.Unauthenticated()
	}
	if err := s.saved.DeleteSaved(ctx, sess.ServerToken, id); err != nil {
		s.logger.Error("deleting saved repository failed",
			slog.String("user_id", sess.UserID()),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// CountSavedRepositories is used to pick the landing route.
func (s *CatalogService) CountSavedRepositories(ctx context.Context, sess *model.Session) (int, error) {
	repos, err := s.ListSavedRepositories(ctx, sess)
	if err != nil {
		return 0, err
	}
	return len(repos), nil
}

// LandingRoute decides where an authenticated user starts: the repository
// list when anything is saved, otherwise the selection screen. A failed
// count also lands on the selection screen.
func (s *CatalogService) LandingRoute(ctx context.Context, sess *model.Session) string {
	if sess == nil || sess.ServerToken == "" {
		return model.RouteCreateRepository
	}
	n, err := s.CountSavedRepositories(ctx, sess)
	if err != nil || n == 0 {
		return model.RouteCreateRepository
	}
	return model.RouteRepository
}

// SelectRepository remembers repo as the one the commit screens work on.
func (s *CatalogService) SelectRepository(ctx context.Context, store *session.Store, repo model.SavedRepository) error {
	if _, _, err := repo.OwnerAndName(); err != nil {
		return err
	}
	if err := store.SetJSON(ctx, session.KeySelectedRepository, repo); err != nil {
		return fmt.Errorf("service: selecting repository: %w", err)
	}
	return nil
}

// SelectedRepository returns the remembered repository, or nil when none is
// selected or the stored value cannot be read.
func (s *CatalogService) SelectedRepository(ctx context.Context, store *session.Store) *model.SavedRepository {
	var repo model.SavedRepository
	ok, err := store.GetJSON(ctx, session.KeySelectedRepository, &repo)
	if err != nil {
		s.logger.Warn("reading selected repository failed", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	return &repo
}
