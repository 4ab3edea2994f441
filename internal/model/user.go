// Package model defines the data structures used throughout the application.
package model

import "encoding/json"

// User is the profile record persisted under the "user" key.
//
// The JSON names follow the GitHub profile payload (login, avatar_url,
// html_url) because the record starts as the backend's profile seed and is
// then merged with GitHub's /user response field by field.
type User struct {
	ID        ID     `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Login     string `json:"login,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	HTMLURL   string `json:"html_url,omitempty"`
}

// GitHubProfile is the part of GitHub's /user response we read.
type GitHubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// MergeProfile overlays a GitHub profile onto u. A field is only replaced
// when GitHub supplied a non-empty value; Name falls back to the login before
// falling back to the previous name.
func (u User) MergeProfile(p GitHubProfile) User {
	merged := u
	if p.AvatarURL != "" {
		merged.AvatarURL = p.AvatarURL
	}
	switch {
	case p.Name != "":
		merged.Name = p.Name
	case p.Login != "":
		merged.Name = p.Login
	}
	if p.Login != "" {
		merged.Login = p.Login
	}
	if p.HTMLURL != "" {
		merged.HTMLURL = p.HTMLURL
	}
	if p.Email != "" && merged.Email == "" {
		merged.Email = p.Email
	}
	return merged
}

// ID is an identifier the backend may encode either as a JSON number or a
// JSON string. It is always carried as its decimal/string form.
type ID string

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }
