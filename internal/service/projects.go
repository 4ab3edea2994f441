package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/session"
)

// ProjectService manages projects: locally registered views over a saved
// repository with their own watch settings. Projects live only in the
// device's store.
type ProjectService struct {
	catalog *CatalogService
	logger  *slog.Logger
	now     func() time.Time
}

func NewProjectService(catalog *CatalogService, logger *slog.Logger) *ProjectService {
	return &ProjectService{catalog: catalog, logger: logger, now: time.Now}
}

// ProjectInput is the registration form.
type ProjectInput struct {
	Name        string
	Description string
	Repository  model.SavedRepository
	Settings    model.ProjectSettings
}

func (s *ProjectService) List(ctx context.Context, store *session.Store) ([]model.Project, error) {
	projects := []model.Project{}
	if _, err := store.GetJSON(ctx, session.KeyProjects, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

// Register validates in and stores a new project.
func (s *ProjectService) Register(ctx context.Context, store *session.Store, in ProjectInput) (model.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Project{}, apperror.ValidationFailed("name", "project name is required")
	}
	owner, repoName, err := in.Repository.OwnerAndName()
	if err != nil {
		return model.Project{}, err
	}

	settings := in.Settings
	if settings.Branch == "" {
		settings.Branch = in.Repository.Branch()
	}
	settings.WatchPaths = cleanPaths(settings.WatchPaths)

	p := model.Project{
		ID:          xid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Repository: model.ProjectRepository{
			FullName: in.Repository.RepositoryFullName,
			URL:      in.Repository.RepositoryURL,
			Owner:    owner,
			Name:     repoName,
		},
		Settings:  settings,
		CreatedAt: s.now().UTC(),
	}

	projects, err := s.List(ctx, store)
	if err != nil {
		return model.Project{}, err
	}
	projects = append(projects, p)
	if err := store.SetJSON(ctx, session.KeyProjects, projects); err != nil {
		return model.Project{}, err
	}
	s.logger.Info("project registered",
		slog.String("project_id", p.ID),
		slog.String("repository", p.Repository.FullName),
	)
	return p, nil
}

// Get looks id up among the registered projects first, then among the
// saved repositories, which are presented as projects with default
// settings.
func (s *ProjectService) Get(ctx context.Context, store *session.Store, sess *model.Session, id string) (model.Project, error) {
	projects, err := s.List(ctx, store)
	if err != nil {
		return model.Project{}, err
	}
	for _, p := range projects {
		if p.ID == id {
			return p, nil
		}
	}

	if sess != nil {
		repo, err := s.catalog.SavedRepository(ctx, sess, id)
		if err == nil {
			return model.ProjectFromSaved(repo), nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return model.Project{}, err
		}
	}
	return model.Project{}, apperror.NotFound("project", id)
}

func (s *ProjectService) Delete(ctx context.Context, store *session.Store, id string) error {
	projects, err := s.List(ctx, store)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(projects, func(p model.Project) bool { return p.ID == id })
	if idx < 0 {
		return apperror.NotFound("project", id)
	}
	projects = slices.Delete(projects, idx, idx+1)
	return store.SetJSON(ctx, session.KeyProjects, projects)
}

// cleanPaths trims entries and drops empty ones.
func cleanPaths(paths []string) []string {
	out := []string{}
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
