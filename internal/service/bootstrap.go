package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/session"
)

// DefaultBootstrapTimeout bounds the background checks started by Run.
const DefaultBootstrapTimeout = 15 * time.Second

// AuthState is the outcome of restoring a session.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

func (a AuthState) String() string {
	if a == Authenticated {
		return "AUTHENTICATED"
	}
	return "UNAUTHENTICATED"
}

// Bootstrapper restores the session when a screen loads.
type Bootstrapper struct {
	github  GitHubAPI
	catalog *CatalogService
	logger  *slog.Logger
	timeout time.Duration
}

func NewBootstrapper(github GitHubAPI, catalog *CatalogService, logger *slog.Logger, timeout time.Duration) *Bootstrapper {
	if timeout <= 0 {
		timeout = DefaultBootstrapTimeout
	}
	return &Bootstrapper{github: github, catalog: catalog, logger: logger, timeout: timeout}
}

// BootstrapState is the result of Run. The auth state and session are
// final when Run returns; the profile merge and the landing route arrive
// later.
type BootstrapState struct {
	state AuthState

	mu      sync.Mutex
	session *model.Session

	routeOnce sync.Once
	routeSet  chan struct{}
	route     string

	wg sync.WaitGroup
}

func newBootstrapState() *BootstrapState {
	return &BootstrapState{routeSet: make(chan struct{})}
}

// State reports whether a session was restored.
func (b *BootstrapState) State() AuthState { return b.state }

func (b *BootstrapState) Authenticated() bool { return b.state == Authenticated }

// Session returns a copy of the current session, or nil.
func (b *BootstrapState) Session() *model.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	cp := *b.session
	return &cp
}

// Route waits for the landing route. Only the first decision is kept.
func (b *BootstrapState) Route(ctx context.Context) (string, error) {
	select {
	case <-b.routeSet:
		return b.route, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Wait blocks until both background checks have finished.
func (b *BootstrapState) Wait() { b.wg.Wait() }

func (b *BootstrapState) setRoute(route string) {
	b.routeOnce.Do(func() {
		b.route = route
		close(b.routeSet)
	})
}

// Run restores the session from store.
//
// All three of githubToken, serverToken and user must be present for the
// state to be Authenticated. A user record that cannot be parsed clears the
// session. Once authenticated, the GitHub profile refresh and the landing
// route decision run concurrently on a context detached from ctx, so they
// finish even when the request that triggered them does not wait.
func (b *Bootstrapper) Run(ctx context.Context, store *session.Store) *BootstrapState {
	st := newBootstrapState()

	sess, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrCorruptUser) {
			b.logger.Warn("persisted user is malformed, clearing session", slog.String("error", err.Error()))
			if err := store.Clear(ctx); err != nil {
				b.logger.Error("clearing session failed", slog.String("error", err.Error()))
			}
		} else {
			b.logger.Error("restoring session failed", slog.String("error", err.Error()))
		}
		st.setRoute(model.RouteLogin)
		return st
	}
	if sess == nil {
		st.setRoute(model.RouteLogin)
		return st
	}

	st.state = Authenticated
	st.session = sess
	snapshot := *sess

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	st.wg.Add(2)
	go func() {
		defer st.wg.Done()
		b.refreshProfile(bg, store, st, snapshot)
	}()
	go func() {
		defer st.wg.Done()
		st.setRoute(b.catalog.LandingRoute(bg, &snapshot))
	}()
	go func() {
		st.wg.Wait()
		cancel()
	}()
	return st
}

// refreshProfile merges the GitHub profile into the restored user. The
// merge is only written back while the persisted server token still
// belongs to the session being refreshed, so a logout in between wins.
func (b *Bootstrapper) refreshProfile(ctx context.Context, store *session.Store, st *BootstrapState, sess model.Session) {
	profile, err := b.github.Profile(ctx, &sess)
	if err != nil {
		b.logger.Warn("refreshing github profile failed",
			slog.String("user_id", sess.UserID()),
			slog.String("error", err.Error()),
		)
		return
	}

	st.mu.Lock()
	merged := st.session.User.MergeProfile(profile)
	st.session.User = merged
	st.mu.Unlock()

	current, err := store.Partial(ctx)
	if err != nil {
		b.logger.Warn("re-reading session failed", slog.String("error", err.Error()))
		return
	}
	if current.ServerToken != sess.ServerToken {
		b.logger.Debug("session changed during profile refresh, discarding",
			slog.String("user_id", sess.UserID()),
		)
		return
	}
	if err := store.SaveUser(ctx, merged); err != nil {
		b.logger.Error("saving refreshed profile failed",
			slog.String("user_id", sess.UserID()),
			slog.String("error", err.Error()),
		)
	}
}
