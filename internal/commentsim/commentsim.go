// Package commentsim simulates the AI comment pipeline: generating a
// preview of code comments for a commit, editing one comment of a preview,
// and applying the comments back to GitHub.
//
// No backend for this exists yet. The simulator waits a fixed latency per
// call and returns canned data, so the workflow around it can be exercised
// end to end.
package commentsim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
)

// Latency is how long each simulated call takes.
type Latency struct {
	Generate time.Duration
	Update   time.Duration
	Apply    time.Duration
}

// DefaultLatency matches what the pipeline is expected to feel like.
var DefaultLatency = Latency{
	Generate: 2 * time.Second,
	Update:   500 * time.Millisecond,
	Apply:    3 * time.Second,
}

// Simulator is safe for concurrent use.
type Simulator struct {
	latency Latency

	mu       sync.Mutex
	sessions map[string][]model.Comment
}

func New(latency Latency) *Simulator {
	return &Simulator{
		latency:  latency,
		sessions: make(map[string][]model.Comment),
	}
}

func cannedComments() []model.Comment {
	return []model.Comment{
		{
			ID:         "comment-1",
			FileName:   "src/main/java/com/example/Service.java",
			LineNumber: 15,
			Content:    "Handles user authentication: validates the JWT and returns the user it belongs to.",
		},
		{
			ID:         "comment-2",
			FileName:   "src/main/java/com/example/Controller.java",
			LineNumber: 25,
			Content:    "REST endpoint: takes the client request and calls the matching service method.",
		},
		{
			ID:         "comment-3",
			FileName:   "src/main/java/com/example/Repository.java",
			LineNumber: 8,
			Content:    "Repository interface for database access, backed by Spring Data JPA.",
		},
	}
}

// Generate returns a fresh preview session for the commit.
func (s *Simulator) Generate(ctx context.Context, owner, repo, sha, branch string) (model.CommentSession, error) {
	if err := sleep(ctx, s.latency.Generate); err != nil {
		return model.CommentSession{}, err
	}

	comments := cannedComments()
	id := "session-" + uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = comments
	s.mu.Unlock()

	out := make([]model.Comment, len(comments))
	copy(out, comments)
	return model.CommentSession{SessionID: id, Comments: out}, nil
}

// UpdateComment replaces the content of one comment in a session.
func (s *Simulator) UpdateComment(ctx context.Context, sessionID string, c model.Comment) error {
	if err := sleep(ctx, s.latency.Update); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comments, ok := s.sessions[sessionID]
	if !ok {
		return apperror.NotFound("comment session", sessionID)
	}
	for i := range comments {
		if comments[i].ID == c.ID {
			comments[i].Content = c.Content
			return nil
		}
	}
	return apperror.NotFound("comment", c.ID)
}

// Apply pushes the session's comments and forgets the session.
func (s *Simulator) Apply(ctx context.Context, sessionID, owner, repo, sha, branch string) (model.ApplyResult, error) {
	if err := sleep(ctx, s.latency.Apply); err != nil {
		return model.ApplyResult{}, err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return model.ApplyResult{
		Message:   fmt.Sprintf("Comments applied and pushed to %s.", branch),
		CommitURL: fmt.Sprintf("https://github.com/%s/%s/commit/%s", owner, repo, sha),
	}, nil
}

// Comments returns the server-side copy of a session, for checking that the
// client mirror has not diverged.
func (s *Simulator) Comments(sessionID string) ([]model.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comments, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]model.Comment, len(comments))
	copy(out, comments)
	return out, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
