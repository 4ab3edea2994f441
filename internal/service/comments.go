package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/session"
)

// CommentState is where a CommentWorkflow is in its lifecycle.
type CommentState string

const (
	StateIdle       CommentState = "IDLE"
	StateGenerating CommentState = "GENERATING"
	StatePreview    CommentState = "PREVIEW"
	StateApplying   CommentState = "APPLYING"
)

// WorkflowSnapshot is a copy of a workflow's visible state.
type WorkflowSnapshot struct {
	State     CommentState       `json:"state"`
	SessionID string             `json:"sessionId,omitempty"`
	Comments  []model.Comment    `json:"comments"`
	Notice    *model.ApplyResult `json:"notice,omitempty"`
}

// CommentWorkflow drives the AI comment cycle for one commit:
//
//	IDLE → GENERATING → PREVIEW → APPLYING → IDLE
//
// Every Generate bumps the generation; a response for an older generation
// is dropped. A failed Apply keeps the preview so the user can retry.
type CommentWorkflow struct {
	api    CommentAPI
	logger *slog.Logger

	owner, repo, sha string

	mu         sync.Mutex
	state      CommentState
	generation uint64
	session    *model.CommentSession
	notice     *model.ApplyResult
}

func NewCommentWorkflow(api CommentAPI, logger *slog.Logger, owner, repo, sha string) *CommentWorkflow {
	return &CommentWorkflow{
		api:    api,
		logger: logger,
		owner:  owner,
		repo:   repo,
		sha:    sha,
		state:  StateIdle,
	}
}

// Snapshot returns the current state.
func (w *CommentWorkflow) Snapshot() WorkflowSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *CommentWorkflow) snapshotLocked() WorkflowSnapshot {
	snap := WorkflowSnapshot{State: w.state, Comments: []model.Comment{}}
	if w.session != nil {
		snap.SessionID = w.session.SessionID
		snap.Comments = append(snap.Comments, w.session.Comments...)
	}
	if w.notice != nil {
		n := *w.notice
		snap.Notice = &n
	}
	return snap
}

// Generate asks for a new set of comments. It replaces any preview, and a
// later Generate replaces this one even if this one finishes last.
func (w *CommentWorkflow) Generate(ctx context.Context, branch string) (WorkflowSnapshot, error) {
	w.mu.Lock()
	if w.state == StateApplying {
		w.mu.Unlock()
		return w.Snapshot(), apperror.Conflict("comment session", "apply in progress")
	}
	w.generation++
	gen := w.generation
	w.state = StateGenerating
	w.notice = nil
	w.mu.Unlock()

	sess, err := w.api.Generate(ctx, w.owner, w.repo, w.sha, branch)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.logger.Debug("discarding superseded comment generation",
			slog.String("sha", w.sha),
			slog.Uint64("generation", gen),
		)
		return w.snapshotLocked(), apperror.Conflict("comment generation", w.sha)
	}
	if err != nil {
		w.logger.Error("generating comments failed",
			slog.String("owner", w.owner),
			slog.String("repo", w.repo),
			slog.String("sha", w.sha),
			slog.String("error", err.Error()),
		)
		w.state = StateIdle
		w.session = nil
		return w.snapshotLocked(), err
	}
	w.state = StatePreview
	w.session = &sess
	return w.snapshotLocked(), nil
}

// EditComment changes one previewed comment. The server is updated first;
// the local copy only changes when that succeeds.
func (w *CommentWorkflow) EditComment(ctx context.Context, commentID, content string) (WorkflowSnapshot, error) {
	if strings.TrimSpace(content) == "" {
		return w.Snapshot(), apperror.ValidationFailed("content", "comment must not be empty")
	}

	w.mu.Lock()
	if w.state != StatePreview || w.session == nil {
		w.mu.Unlock()
		return w.Snapshot(), apperror.ValidationFailed("state", "there is no comment preview to edit")
	}
	idx := indexOfComment(w.session.Comments, commentID)
	if idx < 0 {
		w.mu.Unlock()
		return w.Snapshot(), apperror.NotFound("comment", commentID)
	}
	updated := w.session.Comments[idx]
	updated.Content = content
	sessionID := w.session.SessionID
	gen := w.generation
	w.mu.Unlock()

	if err := w.api.UpdateComment(ctx, sessionID, updated); err != nil {
		w.logger.Error("updating comment failed",
			slog.String("session_id", sessionID),
			slog.String("comment_id", commentID),
			slog.String("error", err.Error()),
		)
		return w.Snapshot(), err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation || w.session == nil || w.session.SessionID != sessionID {
		return w.snapshotLocked(), apperror.Conflict("comment session", sessionID)
	}
	if i := indexOfComment(w.session.Comments, commentID); i >= 0 {
		w.session.Comments[i].Content = content
	}
	return w.snapshotLocked(), nil
}

// Apply pushes the previewed comments. On success the session is dropped
// and the notice is kept for display.
func (w *CommentWorkflow) Apply(ctx context.Context, branch string) (WorkflowSnapshot, error) {
	w.mu.Lock()
	if w.state != StatePreview || w.session == nil {
		w.mu.Unlock()
		return w.Snapshot(), apperror.ValidationFailed("state", "there are no comments to apply")
	}
	w.state = StateApplying
	sessionID := w.session.SessionID
	w.mu.Unlock()

	res, err := w.api.Apply(ctx, sessionID, w.owner, w.repo, w.sha, branch)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.logger.Error("applying comments failed",
			slog.String("session_id", sessionID),
			slog.String("sha", w.sha),
			slog.String("error", err.Error()),
		)
		w.state = StatePreview
		return w.snapshotLocked(), err
	}
	w.state = StateIdle
	w.session = nil
	w.generation++
	w.notice = &res
	w.logger.Info("comments applied",
		slog.String("owner", w.owner),
		slog.String("repo", w.repo),
		slog.String("sha", w.sha),
	)
	return w.snapshotLocked(), nil
}

func indexOfComment(comments []model.Comment, id string) int {
	for i, c := range comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// maxIdleWorkflows is how many workflows CommentService keeps before it
// starts dropping idle ones.
const maxIdleWorkflows = 256

// CommentService keeps one CommentWorkflow per device and commit.
type CommentService struct {
	api     CommentAPI
	catalog *CatalogService
	logger  *slog.Logger

	mu        sync.Mutex
	workflows map[string]*CommentWorkflow
}

func NewCommentService(api CommentAPI, catalog *CatalogService, logger *slog.Logger) *CommentService {
	return &CommentService{
		api:       api,
		catalog:   catalog,
		logger:    logger,
		workflows: make(map[string]*CommentWorkflow),
	}
}

// Workflow returns the workflow for (device, owner/repo@sha), creating it
// on first use.
func (s *CommentService) Workflow(deviceID, owner, repo, sha string) *CommentWorkflow {
	key := deviceID + "|" + owner + "/" + repo + "@" + sha

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workflows[key]; ok {
		return w
	}
	if len(s.workflows) >= maxIdleWorkflows {
		s.pruneLocked()
	}
	w := NewCommentWorkflow(s.api, s.logger, owner, repo, sha)
	s.workflows[key] = w
	return w
}

func (s *CommentService) pruneLocked() {
	for key, w := range s.workflows {
		if w.Snapshot().State == StateIdle {
			delete(s.workflows, key)
		}
	}
}

// Branch is the branch comments are applied to: the selected repository's
// default branch, or "main".
func (s *CommentService) Branch(ctx context.Context, store *session.Store) string {
	if repo := s.catalog.SelectedRepository(ctx, store); repo != nil {
		return repo.Branch()
	}
	return model.DefaultBranch
}
