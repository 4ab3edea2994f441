package model

import "time"

// Project is a locally registered view over a repository, stored in the
// "projects" key. Projects are never sent to the backend.
type Project struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Repository  ProjectRepository `json:"repository"`
	Settings    ProjectSettings   `json:"settings"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type ProjectRepository struct {
	FullName string `json:"fullName"`
	URL      string `json:"url"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
}

type ProjectSettings struct {
	Branch         string   `json:"branch"`
	WatchPaths     []string `json:"watchPaths"`
	WebhookEnabled bool     `json:"webhookEnabled"`
	AutoComment    bool     `json:"autoComment"`
}

// ProjectFromSaved presents a saved repository as a project, used when a
// project id is not registered locally but matches a saved repository.
func ProjectFromSaved(r SavedRepository) Project {
	owner, name, err := r.OwnerAndName()
	if err != nil {
		owner, name = "", r.RepositoryName
	}
	description := r.RepositoryDescription
	if description == "" {
		description = "No description"
	}
	created, err := time.Parse(time.RFC3339, r.RepositoryUpdatedAt)
	if err != nil {
		created = time.Time{}
	}
	return Project{
		ID:          r.ID.String(),
		Name:        r.RepositoryName,
		Description: description,
		Repository: ProjectRepository{
			FullName: r.RepositoryFullName,
			URL:      r.RepositoryURL,
			Owner:    owner,
			Name:     name,
		},
		Settings: ProjectSettings{
			Branch:     r.Branch(),
			WatchPaths: []string{},
		},
		CreatedAt: created,
	}
}
