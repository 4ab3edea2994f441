// Package commitview turns the commit payloads GitHub (or the backend proxy)
// returns into the dashboard's canonical commit shapes, and computes the
// derived display fields: relative time, truncated messages, diff totals and
// file status indicators.
//
// Everything here is pure. The clock is always passed in.
package commitview

import (
	"bytes"
	"encoding/json"
)

// RawCommit accepts every commit shape the dashboard has been fed:
//
//   - GitHub's REST shape, with data nested under "commit" and the GitHub
//     account under "author"
//   - a flattened shape with top-level "message", "authorName" and "date"
//   - a flattened shape where "author" is the author's name as a string
//
// Fields absent from a payload are left zero and resolved by Normalize.
type RawCommit struct {
	SHA        string      `json:"sha"`
	HTMLURL    string      `json:"html_url"`
	Message    string      `json:"message"`
	AuthorName string      `json:"authorName"`
	Date       string      `json:"date"`
	Author     RawAuthor   `json:"author"`
	Commit     *RawGitData `json:"commit"`
	Parents    []RawParent `json:"parents"`
	Files      []RawFile   `json:"files"`
	Stats      *RawStats   `json:"stats"`
}

// RawGitData is the git-level part of a GitHub commit.
type RawGitData struct {
	Message string        `json:"message"`
	Author  *RawGitAuthor `json:"author"`
}

type RawGitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

type RawParent struct {
	SHA string `json:"sha"`
}

type RawFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch"`
}

type RawStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// RawAuthor is the "author" field, which GitHub sends as an account object
// (or null for commits by unknown emails) and flattened payloads send as a
// plain name string.
type RawAuthor struct {
	Name      string // set only when "author" was a string
	Login     string
	AvatarURL string
}

func (a *RawAuthor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = RawAuthor{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = RawAuthor{Name: name}
		return nil
	}

	var account struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return err
	}
	*a = RawAuthor{Login: account.Login, AvatarURL: account.AvatarURL}
	return nil
}
