package model

import "time"

// CommitSummary is the canonical shape of one entry in a commit list,
// whatever shape GitHub or the backend proxy delivered it in.
type CommitSummary struct {
	SHA             string    `json:"sha"`
	ShortSHA        string    `json:"shortSha"`
	Message         string    `json:"message"`
	AuthorName      string    `json:"authorName"`
	AuthorLogin     string    `json:"authorLogin"`
	AuthorEmail     string    `json:"authorEmail"`
	AuthorAvatarURL string    `json:"authorAvatarUrl"`
	AuthorDate      time.Time `json:"authorDate"`
	HTMLURL         string    `json:"htmlUrl"`
}

// FileStatus is GitHub's per-file change status. Values outside the known
// set are kept as-is.
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileRemoved  FileStatus = "removed"
	FileRenamed  FileStatus = "renamed"
)

// Known reports whether s is one of the four statuses the UI has a colour for.
func (s FileStatus) Known() bool {
	switch s {
	case FileAdded, FileModified, FileRemoved, FileRenamed:
		return true
	}
	return false
}

// FileChange is one file in a commit's diff.
type FileChange struct {
	Filename  string     `json:"filename"`
	Status    FileStatus `json:"status"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Changes   int        `json:"changes"`
	Patch     string     `json:"patch"`
}

// CommitStats are the totals shown in the detail header.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// CommitDetail is a single commit with its file diffs.
type CommitDetail struct {
	CommitSummary
	Files      []FileChange `json:"files"`
	ParentSHAs []string     `json:"parentShas"`
	Stats      CommitStats  `json:"stats"`
}
