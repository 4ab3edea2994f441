package model

// Session is the in-memory view of the authenticated user and both tokens.
//
// ServerToken authenticates against the backend (Bearer); GitHubToken is a
// personal access token (or OAuth access token) sent to GitHub directly.
type Session struct {
	User        User   `json:"user"`
	ServerToken string `json:"-"`
	GitHubToken string `json:"-"`
}

// UserID returns the backend id of the session owner.
func (s *Session) UserID() string { return s.User.ID.String() }

// GitHubLogin returns the GitHub login, or "" when the profile has none yet.
func (s *Session) GitHubLogin() string { return s.User.Login }

// LoginResult is what an AuthAPI returns for a successful login.
// GitHubToken may be empty when the account has no linked GitHub token.
type LoginResult struct {
	ServerToken string `json:"serverToken"`
	GitHubToken string `json:"githubToken,omitempty"`
	Profile     User   `json:"user"`
}

// Landing routes chosen by the session bootstrap.
const (
	RouteLogin            = "/login"
	RouteRepository       = "/repository"
	RouteCreateRepository = "/create-repository"
)
