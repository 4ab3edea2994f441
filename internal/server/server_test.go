package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/commit-dashboard/internal/config"
	"github.com/sakif/commit-dashboard/internal/server"
)

// fakeGitHubAPI answers the few api.github.com endpoints the dashboard reads.
func fakeGitHubAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token ghp_server_test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"login":"lin","name":"Lin Chen"}`))
	})
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":55,"name":"kiln","full_name":"lin/kiln","default_branch":"main"}]`))
	})
	mux.HandleFunc("GET /repos/lin/kiln/commits", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"sha":"abcdef1234567","commit":{"message":"Fire the kiln","author":{"name":"Lin","date":"2024-04-01T00:00:00Z"}}}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.AuthMode = config.AuthModeLocal
	cfg.DeviceSecret = "server-test-secret-0123456789"
	cfg.GitHubAPIURL = fakeGitHubAPI(t).URL
	cfg.CommentLatency = config.CommentLatency{}

	s, err := server.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// newBrowser keeps cookies and does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, c *http.Client, u, body string) *http.Response {
	t.Helper()
	resp, err := c.Post(u, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_RootRedirectsNewDeviceToLogin(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp, err := c.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	u, _ := url.Parse(ts.URL)
	require.Len(t, c.Jar.Cookies(u), 1, "device cookie issued")
}

func TestServer_APIFlow(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp := postJSON(t, c, ts.URL+"/api/auth/signup", `{"email":"lin@example.com","password":"kiln-pass"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, c, ts.URL+"/api/auth/login", `{"email":"lin@example.com","password":"kiln-pass"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, c, ts.URL+"/api/auth/github-token", `{"token":"ghp_server_test"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		State string `json:"state"`
		Route string `json:"route"`
		User  struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Equal(t, "AUTHENTICATED", session.State)
	assert.Equal(t, "/create-repository", session.Route)
	assert.Equal(t, "lin", session.User.Login)

	resp = postJSON(t, c, ts.URL+"/api/repositories/saved", `{"githubId":55}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got, err := c.Get(ts.URL + "/api/repos/lin/kiln/commits")
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	var commits []struct {
		ShortSHA string `json:"shortSha"`
		Message  string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(got.Body).Decode(&commits))
	require.Len(t, commits, 1)
	assert.Equal(t, "abcdef1", commits[0].ShortSHA)
	assert.Equal(t, "Fire the kiln", commits[0].Message)

	got, err = c.Get(ts.URL + "/api/auth/session")
	require.NoError(t, err)
	defer got.Body.Close()
	require.NoError(t, json.NewDecoder(got.Body).Decode(&session))
	assert.Equal(t, "/repository", session.Route)

	// A second browser is a different device with no session.
	other := newBrowser(t)
	got, err = other.Get(ts.URL + "/api/projects")
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, got.StatusCode)
}

func TestServer_OAuthRoutesOnlyWhenConfigured(t *testing.T) {
	ts := newTestServer(t)
	resp, err := newBrowser(t).Get(ts.URL + "/auth/github/link")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.DeviceSecret = "short"
	_, err := server.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
