package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
)

// DefaultBranch is used whenever GitHub or the backend did not supply one.
const DefaultBranch = "main"

// GitHubRepo is a repository as returned by GitHub's /user/repos (or the
// backend's /github/repositories proxy, which forwards the same objects).
type GitHubRepo struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name,omitempty"`
	Description     string    `json:"description,omitempty"`
	HTMLURL         string    `json:"html_url,omitempty"`
	DefaultBranch   string    `json:"default_branch,omitempty"`
	Private         bool      `json:"private"`
	Language        string    `json:"language,omitempty"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// SavedRepository is a repository the backend has persisted for the user.
// The backend is the system of record: ID is only ever assigned by it.
//
// Timestamps stay strings because they are passed through from the backend
// unchanged and may be empty.
type SavedRepository struct {
	ID                    ID     `json:"id,omitempty"`
	RepositoryID          int64  `json:"repositoryId"`
	RepositoryName        string `json:"repositoryName"`
	RepositoryFullName    string `json:"repositoryFullName"`
	RepositoryDescription string `json:"repositoryDescription"`
	RepositoryURL         string `json:"repositoryUrl"`
	DefaultBranch         string `json:"defaultBranch"`
	IsPrivate             bool   `json:"isPrivate"`
	RepositoryCreatedAt   string `json:"repositoryCreatedAt"`
	RepositoryUpdatedAt   string `json:"repositoryUpdatedAt"`
}

// SplitFullName splits "owner/name" on the FIRST slash only. Anything after
// the first slash belongs to the name; both halves must be non-empty.
func SplitFullName(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", apperror.ValidationFailed("repositoryFullName",
			fmt.Sprintf("repository name %q is not of the form owner/name", fullName))
	}
	return owner, name, nil
}

// OwnerAndName recovers the GitHub owner and repository name.
func (r SavedRepository) OwnerAndName() (string, string, error) {
	return SplitFullName(r.RepositoryFullName)
}

// Branch returns the default branch, falling back to DefaultBranch.
func (r SavedRepository) Branch() string {
	if r.DefaultBranch == "" {
		return DefaultBranch
	}
	return r.DefaultBranch
}

// ToSavedRepository maps a raw GitHub repository to the shape the backend
// stores. The owner comes from the session's GitHub login (not from the
// repository), matching how the selection screen builds the full name.
func ToSavedRepository(repo GitHubRepo, githubLogin string, now time.Time) SavedRepository {
	owner := githubLogin
	if owner == "" {
		owner = "unknown"
	}

	url := repo.HTMLURL
	if url == "" {
		url = fmt.Sprintf("https://github.com/%s/%s", owner, repo.Name)
	}

	branch := repo.DefaultBranch
	if branch == "" {
		branch = DefaultBranch
	}

	created := now
	if !repo.CreatedAt.IsZero() {
		created = repo.CreatedAt
	}
	updated := now
	if !repo.UpdatedAt.IsZero() {
		updated = repo.UpdatedAt
	}

	return SavedRepository{
		RepositoryID:          repo.ID,
		RepositoryName:        repo.Name,
		RepositoryFullName:    owner + "/" + repo.Name,
		RepositoryDescription: repo.Description,
		RepositoryURL:         url,
		DefaultBranch:         branch,
		IsPrivate:             repo.Private,
		RepositoryCreatedAt:   created.UTC().Format(time.RFC3339),
		RepositoryUpdatedAt:   updated.UTC().Format(time.RFC3339),
	}
}
