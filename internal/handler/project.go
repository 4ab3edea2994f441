package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

// ProjectHandler serves the project API.
type ProjectHandler struct {
	projects *service.ProjectService
	catalog  *service.CatalogService
	sessions *Sessions
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, catalog *service.CatalogService, sessions *Sessions, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, catalog: catalog, sessions: sessions, logger: logger}
}

type registerProjectRequest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	RepositoryID string                `json:"repositoryId"`
	Settings     model.ProjectSettings `json:"settings"`
}

// HandleList handles GET /api/projects.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	projects, err := h.projects.List(r.Context(), store)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleRegister handles POST /api/projects. The repository is one of the
// user's saved repositories, addressed by its id.
func (h *ProjectHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	store, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req registerProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	repo, err := h.catalog.SavedRepository(r.Context(), sess, req.RepositoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.projects.Register(r.Context(), store, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Repository:  repo,
		Settings:    req.Settings,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGet handles GET /api/projects/{id}.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	store, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.projects.Get(r.Context(), store, sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /api/projects/{id}.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.projects.Delete(r.Context(), store, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
