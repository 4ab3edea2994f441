package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
)

// CommitService fetches commits and turns them into view models.
// Errors are never papered over with made-up commits.
type CommitService struct {
	github GitHubAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewCommitService(github GitHubAPI, logger *slog.Logger) *CommitService {
	return &CommitService{github: github, logger: logger, now: time.Now}
}

// ListCommits returns the repository's commits in the order GitHub
// returned them.
func (s *CommitService) ListCommits(ctx context.Context, sess *model.Session, owner, repo string) ([]model.CommitSummary, error) {
	if sess == nil {
		return nil, apperror.Unauthenticated()
	}
	if owner == "" || repo == "" {
		return nil, apperror.ValidationFailed("repository", "owner and repository name are required")
	}
	raws, err := s.github.ListCommits(ctx, sess, owner, repo)
	if err != nil {
		s.logger.Error("listing commits failed",
			slog.String("owner", owner),
			slog.String("repo", repo),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return commitview.NormalizeAll(raws, owner, repo, s.now()), nil
}

// ListCommitsForSaved lists the commits of a saved repository.
func (s *CommitService) ListCommitsForSaved(ctx context.Context, sess *model.Session, repo model.SavedRepository) ([]model.CommitSummary, error) {
	owner, name, err := repo.OwnerAndName()
	if err != nil {
		return nil, err
	}
	return s.ListCommits(ctx, sess, owner, name)
}

// GetCommitDetail returns one commit with its files and diff totals.
func (s *CommitService) GetCommitDetail(ctx context.Context, sess *model.Session, owner, repo, sha string) (model.CommitDetail, error) {
	if sess == nil {
		return model.CommitDetail{}, apperror.Unauthenticated()
	}
	sha = strings.TrimSpace(sha)
	if sha == "" {
		return model.CommitDetail{}, apperror.ValidationFailed("sha", "commit sha is required")
	}
	raw, err := s.github.GetCommit(ctx, sess, owner, repo, sha)
	if err != nil {
		s.logger.Error("fetching commit failed",
			slog.String("owner", owner),
			slog.String("repo", repo),
			slog.String("sha", sha),
			slog.String("error", err.Error()),
		)
		return model.CommitDetail{}, err
	}
	return commitview.NormalizeDetail(raw, owner, repo, s.now()), nil
}
