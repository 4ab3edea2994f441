package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository"
	"github.com/sakif/commit-dashboard/internal/session"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memKV is an in-memory repository.KVStore.
type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", repository.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func newTestStore() (*session.Store, *memKV) {
	kv := newMemKV()
	return session.New(kv), kv
}

// seedSession persists a complete session into store.
func seedSession(t *testing.T, store *session.Store, sess model.Session) {
	t.Helper()
	if err := store.Save(context.Background(), &sess); err != nil {
		t.Fatalf("seeding session: %v", err)
	}
}

func testSession() *model.Session {
	return &model.Session{
		User:        model.User{ID: "7", Email: "dev@example.com"},
		ServerToken: "srv-1",
		GitHubToken: "ghp_test",
	}
}

// fakeAuthAPI records calls and returns canned results.
type fakeAuthAPI struct {
	signupErr error
	loginRes  model.LoginResult
	loginErr  error
	signups   []string
}

func (f *fakeAuthAPI) Signup(_ context.Context, email, _ string) error {
	f.signups = append(f.signups, email)
	return f.signupErr
}

func (f *fakeAuthAPI) Login(_ context.Context, _, _ string) (model.LoginResult, error) {
	return f.loginRes, f.loginErr
}

// fakeSavedAPI keeps saved repositories in memory, keyed by server token.
type fakeSavedAPI struct {
	mu      sync.Mutex
	repos   []model.SavedRepository
	nextID  int
	listErr error
	saveErr error
	tokens  []string
}

func (f *fakeSavedAPI) ListSaved(_ context.Context, serverToken string) ([]model.SavedRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, serverToken)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.SavedRepository{}, f.repos...), nil
}

func (f *fakeSavedAPI) Save(_ context.Context, _ string, repo model.SavedRepository) (model.SavedRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return model.SavedRepository{}, f.saveErr
	}
	f.nextID++
	repo.ID = model.ID(strconv.Itoa(f.nextID))
	f.repos = append(f.repos, repo)
	return repo, nil
}

func (f *fakeSavedAPI) DeleteSaved(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.repos {
		if r.ID.String() == id {
			f.repos = append(f.repos[:i], f.repos[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("saved repository", id)
}

// fakeGitHub serves a fixed profile, repository list and commits.
type fakeGitHub struct {
	mu         sync.Mutex
	profile    model.GitHubProfile
	profileErr error
	repos      []model.GitHubRepo
	reposErr   error
	commits    []commitview.RawCommit
	commit     commitview.RawCommit
	commitsErr error

	// profileGate, when set, blocks Profile until it is closed.
	profileGate chan struct{}
	profileHits int
}

func (f *fakeGitHub) Profile(ctx context.Context, _ *model.Session) (model.GitHubProfile, error) {
	if f.profileGate != nil {
		select {
		case <-f.profileGate:
		case <-ctx.Done():
			return model.GitHubProfile{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileHits++
	return f.profile, f.profileErr
}

func (f *fakeGitHub) ListRepositories(context.Context, *model.Session) ([]model.GitHubRepo, error) {
	return f.repos, f.reposErr
}

func (f *fakeGitHub) ListCommits(context.Context, *model.Session, string, string) ([]commitview.RawCommit, error) {
	return f.commits, f.commitsErr
}

func (f *fakeGitHub) GetCommit(context.Context, *model.Session, string, string, string) (commitview.RawCommit, error) {
	return f.commit, f.commitsErr
}

func newTestCatalog(gh *fakeGitHub, saved *fakeSavedAPI) *CatalogService {
	c := NewCatalogService(gh, saved, discardLogger())
	c.now = func() time.Time { return testNow }
	return c
}
