package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/commit-dashboard/internal/config"
)

const sha = "9f8e7d6c5b4a39281706f5e4d3c2b1a098765432"

func fakeGitHub(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":9,"login":"mo","name":"Mo Reyes"}`))
	})
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":77,"name":"atlas","description":"Map tiles","default_branch":"develop","language":"Go"}]`))
	})
	mux.HandleFunc("GET /repos/mo/atlas/commits", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"sha":"` + sha + `","commit":{"message":"Render coastlines","author":{"name":"Mo","date":"2024-04-01T00:00:00Z"}}}]`))
	})
	mux.HandleFunc("GET /repos/mo/atlas/commits/"+sha, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"` + sha + `","commit":{"message":"Render coastlines\n\nUses the new shader.","author":{"name":"Mo","email":"mo@example.com","date":"2024-04-01T00:00:00Z"}},` +
			`"files":[{"filename":"shader.go","status":"added","additions":40},{"filename":"old.go","status":"removed","deletions":12}]}`))
	})
	mux.HandleFunc("GET /repos/mo/broken/commits", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

type harness struct {
	t   *testing.T
	cfg *config.Config
}

func newHarness(t *testing.T) *harness {
	cfg := config.Default()
	cfg.AuthMode = config.AuthModeLocal
	cfg.StorePath = filepath.Join(t.TempDir(), "storage.json")
	cfg.GitHubAPIURL = fakeGitHub(t)
	cfg.CommentLatency = config.CommentLatency{}
	return &harness{t: t, cfg: cfg}
}

// run executes one command in a fresh process-like command tree; state
// carries over only through the store file.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd(Options{
		Config: h.cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) loggedIn() {
	h.t.Helper()
	h.mustRun("", "signup", "--email", "mo@example.com", "--password", "atlas-pass")
	h.mustRun("", "login", "--email", "mo@example.com", "--password", "atlas-pass", "--github-token", "ghp_cli")
}

func TestCLI_LoginNeedsToken(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "signup", "--email", "mo@example.com", "--password", "atlas-pass")

	out := h.mustRun("atlas-pass\n", "login", "--email", "mo@example.com")
	assert.Contains(t, out, "link-token")

	out = h.mustRun("", "status")
	assert.Contains(t, out, "State: UNAUTHENTICATED")

	out = h.mustRun("", "link-token", "ghp_cli")
	assert.Contains(t, out, "Mo Reyes (@mo)")
	assert.Contains(t, out, "commitdash repos")

	out = h.mustRun("", "status")
	assert.Contains(t, out, "State: AUTHENTICATED")
	assert.Contains(t, out, "/create-repository")
}

func TestCLI_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.mustRun("", "signup", "--email", "mo@example.com", "--password", "atlas-pass")

	_, err := h.run("", "login", "--email", "mo@example.com", "--password", "nope-nope")
	assert.Error(t, err)
}

func TestCLI_RequiresLogin(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"repos"}, {"saved"}, {"commits"}, {"projects"}} {
		_, err := h.run("", args...)
		assert.ErrorIs(t, err, errNotLoggedIn, args)
	}
}

func TestCLI_RepositoriesAndCommits(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out := h.mustRun("", "repos")
	assert.Contains(t, out, "atlas")
	assert.Contains(t, out, "Map tiles")
	assert.NotContains(t, out, "sample repositories")

	out = h.mustRun("", "save", "77")
	id := regexp.MustCompile(`Saved mo/atlas as (\S+)\.`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	_, err := h.run("", "commits")
	assert.Error(t, err, "nothing selected yet")

	h.mustRun("", "select", id[1])
	out = h.mustRun("", "saved")
	assert.Contains(t, out, "* "+id[1])
	assert.Contains(t, out, "(develop)")

	out = h.mustRun("", "commits")
	assert.Contains(t, out, "9f8e7d6")
	assert.Contains(t, out, "Render coastlines")

	out = h.mustRun("", "show", sha)
	assert.Contains(t, out, "Uses the new shader.")
	assert.Contains(t, out, "+40 -12 in 2 files")
	assert.Contains(t, out, "shader.go")

	out = h.mustRun("", "status")
	assert.Contains(t, out, "/repository")

	h.mustRun("", "unsave", id[1])
	out = h.mustRun("", "saved")
	assert.Contains(t, out, "Nothing saved")
}

func TestCLI_CommitFailureIsNotReplaced(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	_, err := h.run("", "commits", "--repo", "mo/broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--illustrative")

	out := h.mustRun("", "commits", "--repo", "mo/broken", "--illustrative")
	assert.Contains(t, out, "Example data")
}

func TestCLI_Comments(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()

	out := h.mustRun("", "comments", sha, "--repo", "mo/atlas")
	assert.Contains(t, out, "comment-1")
	assert.Contains(t, out, "--apply")

	out = h.mustRun("", "comments", sha, "--repo", "mo/atlas", "--edit", "comment-2=Routes requests.", "--apply")
	assert.Contains(t, out, "Routes requests.")
	assert.Contains(t, out, "Comments applied and pushed to main.")
	assert.Contains(t, out, "https://github.com/mo/atlas/commit/"+sha)

	_, err := h.run("", "comments", sha, "--repo", "mo/atlas", "--edit", "no-equals-sign")
	assert.Error(t, err)

	_, err = h.run("", "comments", sha, "--repo", "mo/atlas", "--edit", "comment-9=x")
	assert.Error(t, err)
}

func TestCLI_Projects(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()
	out := h.mustRun("", "save", "77")
	id := regexp.MustCompile(`Saved mo/atlas as (\S+)\.`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	out = h.mustRun("", "projects", "register", "--name", "Atlas", "--repo", id[1], "--watch", "tiles/,shaders/")
	pid := regexp.MustCompile(`Registered Atlas as (\S+)\.`).FindStringSubmatch(out)
	require.Len(t, pid, 2, out)

	out = h.mustRun("", "projects")
	assert.Contains(t, out, "Atlas")

	out = h.mustRun("", "projects", "show", pid[1])
	assert.Contains(t, out, "mo/atlas on develop")
	assert.Contains(t, out, "[tiles/ shaders/]")
	assert.Contains(t, out, "Render coastlines")

	h.mustRun("", "projects", "delete", pid[1])
	_, err := h.run("", "projects", "show", pid[1]+"x")
	assert.Error(t, err)
}

func TestCLI_LogoutKeepsProjects(t *testing.T) {
	h := newHarness(t)
	h.loggedIn()
	h.mustRun("", "logout")

	out := h.mustRun("", "status")
	assert.Contains(t, out, "UNAUTHENTICATED")
	assert.Contains(t, out, "/login")

	// Signing back in needs no new token secret: it persisted in the store.
	h.mustRun("", "login", "--email", "mo@example.com", "--password", "atlas-pass", "--github-token", "ghp_cli")
}

func TestParseEdits(t *testing.T) {
	edits, err := parseEdits([]string{"comment-1=a=b", " comment-2 =x"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"comment-1", "a=b"}, {"comment-2", "x"}}, edits)

	_, err = parseEdits([]string{"=x"})
	assert.Error(t, err)
}
