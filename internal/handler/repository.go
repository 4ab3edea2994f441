package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

// RepositoryHandler serves the repository catalog API.
type RepositoryHandler struct {
	catalog  *service.CatalogService
	sessions *Sessions
	logger   *slog.Logger
}

func NewRepositoryHandler(catalog *service.CatalogService, sessions *Sessions, logger *slog.Logger) *RepositoryHandler {
	return &RepositoryHandler{catalog: catalog, sessions: sessions, logger: logger}
}

// GitHubReposResponse flags when the list is the sample fallback.
type GitHubReposResponse struct {
	Repositories []model.GitHubRepo `json:"repositories"`
	Fallback     bool               `json:"fallback"`
}

type saveRequest struct {
	GitHubID   int64             `json:"githubId"`
	Repository *model.GitHubRepo `json:"repository"`
}

type selectRequest struct {
	ID string `json:"id"`
}

// HandleListGitHub handles GET /api/repositories/github.
func (h *RepositoryHandler) HandleListGitHub(w http.ResponseWriter, r *http.Request) {
	_, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	repos, fallback := h.catalog.ListGitHubRepositories(r.Context(), sess)
	writeJSON(w, http.StatusOK, GitHubReposResponse{Repositories: repos, Fallback: fallback})
}

// HandleListSaved handles GET /api/repositories/saved.
func (h *RepositoryHandler) HandleListSaved(w http.ResponseWriter, r *http.Request) {
	_, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	repos, err := h.catalog.ListSavedRepositories(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// HandleSave handles POST /api/repositories/saved. The body names either a
// GitHub repository id from the listing or a full repository object.
func (h *RepositoryHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	_, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var saved model.SavedRepository
	switch {
	case req.Repository != nil:
		saved, err = h.catalog.SaveRepository(r.Context(), sess, *req.Repository)
	case req.GitHubID != 0:
		saved, err = h.catalog.SaveRepositoryByID(r.Context(), sess, req.GitHubID)
	default:
		err = apperror.ValidationFailed("githubId", "githubId or repository is required")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleDeleteSaved handles DELETE /api/repositories/saved/{id}.
func (h *RepositoryHandler) HandleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	_, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalog.DeleteSavedRepository(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSelected handles GET /api/repositories/selected.
func (h *RepositoryHandler) HandleGetSelected(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	repo := h.catalog.SelectedRepository(r.Context(), store)
	if repo == nil {
		writeError(w, apperror.NotFound("selected repository", "none"))
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

// HandleSelect handles PUT /api/repositories/selected with a saved
// repository id.
func (h *RepositoryHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	store, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	repo, err := h.catalog.SavedRepository(r.Context(), sess, req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalog.SelectRepository(r.Context(), store, repo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}
