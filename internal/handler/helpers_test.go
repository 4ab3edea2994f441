package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/commentsim"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/handler"
	"github.com/sakif/commit-dashboard/internal/localauth"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository/sqlite"
	"github.com/sakif/commit-dashboard/internal/service"
	"github.com/sakif/commit-dashboard/internal/session"
)

const (
	testDevice   = "device-a"
	testEmail    = "ada@example.com"
	testPassword = "secret-pass"
	testToken    = "ghp_handler_test"
	testSHA      = "0123456789abcdef0123456789abcdef01234567"
)

// fakeGitHub serves a fixed profile, repository list and commit.
type fakeGitHub struct {
	mu         sync.Mutex
	profileErr error
	reposErr   error
	commitsErr error
	tokens     []string
}

func (f *fakeGitHub) record(sess *model.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, sess.GitHubToken)
}

func (f *fakeGitHub) Profile(_ context.Context, sess *model.Session) (model.GitHubProfile, error) {
	f.record(sess)
	if f.profileErr != nil {
		return model.GitHubProfile{}, f.profileErr
	}
	return model.GitHubProfile{ID: 42, Login: "ada", Name: "Ada Lovelace", AvatarURL: "https://avatars.example/ada"}, nil
}

func (f *fakeGitHub) ListRepositories(_ context.Context, sess *model.Session) ([]model.GitHubRepo, error) {
	f.record(sess)
	if f.reposErr != nil {
		return nil, f.reposErr
	}
	return []model.GitHubRepo{
		{ID: 101, Name: "engine", FullName: "ada/engine", Description: "Analytical engine", DefaultBranch: "trunk", Language: "Go"},
		{ID: 102, Name: "notes", FullName: "ada/notes"},
	}, nil
}

func (f *fakeGitHub) ListCommits(_ context.Context, sess *model.Session, _, _ string) ([]commitview.RawCommit, error) {
	f.record(sess)
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	return []commitview.RawCommit{rawCommit()}, nil
}

func (f *fakeGitHub) GetCommit(_ context.Context, sess *model.Session, _, _, _ string) (commitview.RawCommit, error) {
	f.record(sess)
	if f.commitsErr != nil {
		return commitview.RawCommit{}, f.commitsErr
	}
	c := rawCommit()
	c.Files = []commitview.RawFile{
		{Filename: "engine.go", Status: "modified", Additions: 10, Deletions: 2, Patch: "@@ -1 +1 @@"},
		{Filename: "README.md", Status: "added", Additions: 3},
	}
	return c, nil
}

func rawCommit() commitview.RawCommit {
	return commitview.RawCommit{
		SHA:     testSHA,
		HTMLURL: "https://github.com/ada/engine/commit/" + testSHA,
		Commit: &commitview.RawGitData{
			Message: "Add difference engine\n\nLonger body.",
			Author:  &commitview.RawGitAuthor{Name: "Ada", Email: "ada@example.com", Date: "2024-05-01T10:00:00Z"},
		},
	}
}

// testEnv wires the real services over an in-memory database in local auth
// mode, with GitHub faked and the comment simulator running without latency.
type testEnv struct {
	t        *testing.T
	db       *sqlite.DB
	gh       *fakeGitHub
	auth     *service.AuthService
	boot     *service.Bootstrapper
	catalog  *service.CatalogService
	commits  *service.CommitService
	comments *service.CommentService
	projects *service.ProjectService
	sessions *handler.Sessions
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shared := db.Namespace("local")
	accounts := localauth.NewAccounts(shared, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost))
	saved := localauth.NewSavedRepos(accounts, shared)
	gh := &fakeGitHub{}

	catalog := service.NewCatalogService(gh, saved, logger)
	authService := service.NewAuthService(accounts, gh, catalog, logger)
	return &testEnv{
		t:        t,
		db:       db,
		gh:       gh,
		auth:     authService,
		boot:     service.NewBootstrapper(gh, catalog, logger, time.Second),
		catalog:  catalog,
		commits:  service.NewCommitService(gh, logger),
		comments: service.NewCommentService(commentsim.New(commentsim.Latency{}), catalog, logger),
		projects: service.NewProjectService(catalog, logger),
		sessions: handler.NewSessions(db, authService, logger),
		logger:   logger,
	}
}

func (e *testEnv) store(deviceID string) *session.Store {
	return session.New(e.db.Namespace("device:" + deviceID))
}

// login signs up, logs in and links a GitHub token for testDevice.
func (e *testEnv) login() *model.Session {
	e.t.Helper()
	ctx := context.Background()
	require.NoError(e.t, e.auth.Signup(ctx, testEmail, testPassword))
	out, err := e.auth.Login(ctx, e.store(testDevice), testEmail, testPassword)
	require.NoError(e.t, err)
	require.True(e.t, out.NeedsGitHub)
	out, err = e.auth.LinkGitHubToken(ctx, e.store(testDevice), testToken)
	require.NoError(e.t, err)
	return out.Session
}

// saveRepo saves ada/engine and returns the saved record.
func (e *testEnv) saveRepo(sess *model.Session) model.SavedRepository {
	e.t.Helper()
	repo, err := e.catalog.SaveRepositoryByID(context.Background(), sess, 101)
	require.NoError(e.t, err)
	return repo
}

// request builds a request as it looks after the Device middleware and chi
// routing ran. An empty deviceID leaves the device out of the context.
func request(method, target, body, deviceID string, params map[string]string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	ctx := req.Context()
	if deviceID != "" {
		ctx = auth.WithDeviceID(ctx, deviceID)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}
