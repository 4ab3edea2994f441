package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

// CommitHandler serves commits and the AI comment workflow for a commit.
type CommitHandler struct {
	commits  *service.CommitService
	comments *service.CommentService
	sessions *Sessions
	logger   *slog.Logger
}

func NewCommitHandler(commits *service.CommitService, comments *service.CommentService, sessions *Sessions, logger *slog.Logger) *CommitHandler {
	return &CommitHandler{commits: commits, comments: comments, sessions: sessions, logger: logger}
}

// CommitDetailResponse adds display fields to a commit detail.
type CommitDetailResponse struct {
	model.CommitDetail
	RelativeTime string                 `json:"relativeTime"`
	Indicators   []commitview.Indicator `json:"indicators"`
}

// IllustrativeResponse is never mixed with real commits.
type IllustrativeResponse struct {
	Label   string                `json:"label"`
	Commits []model.CommitSummary `json:"commits"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

// HandleList handles GET /api/repos/{owner}/{repo}/commits.
func (h *CommitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	commits, err := h.commits.ListCommits(r.Context(), sess, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commits)
}

// HandleGet handles GET /api/repos/{owner}/{repo}/commits/{sha}.
func (h *CommitHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	_, sess, err := h.sessions.Current(r)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.commits.GetCommitDetail(r.Context(), sess,
		chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), chi.URLParam(r, "sha"))
	if err != nil {
		writeError(w, err)
		return
	}

	indicators := make([]commitview.Indicator, 0, len(detail.Files))
	for _, f := range detail.Files {
		indicators = append(indicators, commitview.StatusIndicator(f.Status))
	}
	writeJSON(w, http.StatusOK, CommitDetailResponse{
		CommitDetail: detail,
		RelativeTime: commitview.RelativeTime(detail.AuthorDate, time.Now()),
		Indicators:   indicators,
	})
}

// HandleIllustrative handles GET /api/commits/illustrative.
func (h *CommitHandler) HandleIllustrative(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IllustrativeResponse{
		Label:   commitview.IllustrativeLabel,
		Commits: commitview.IllustrativeCommits(time.Now()),
	})
}

// workflow resolves the comment workflow of the addressed commit.
func (h *CommitHandler) workflow(r *http.Request) (*service.CommentWorkflow, string, error) {
	store, _, err := h.sessions.Current(r)
	if err != nil {
		return nil, "", err
	}
	deviceID, _ := auth.DeviceIDFromContext(r.Context())
	w := h.comments.Workflow(deviceID, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), chi.URLParam(r, "sha"))
	return w, h.comments.Branch(r.Context(), store), nil
}

// HandleComments handles GET .../commits/{sha}/comments.
func (h *CommitHandler) HandleComments(w http.ResponseWriter, r *http.Request) {
	wf, _, err := h.workflow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

// HandleGenerate handles POST .../commits/{sha}/comments/generate.
func (h *CommitHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	wf, branch, err := h.workflow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := wf.Generate(r.Context(), branch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleEditComment handles PUT .../commits/{sha}/comments/{commentId}.
func (h *CommitHandler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	wf, _, err := h.workflow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req editCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := wf.EditComment(r.Context(), chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleApply handles POST .../commits/{sha}/comments/apply.
func (h *CommitHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	wf, branch, err := h.workflow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := wf.Apply(r.Context(), branch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
