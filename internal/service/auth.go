package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/session"
)

// AuthService handles signup, login, logout and linking a GitHub token to
// an existing session.
//
//	AuthHandler / CLI → AuthService → AuthAPI (backend or localauth)
//	                                ↘ GitHubAPI (profile merge)
//	                                ↘ CatalogService (landing route)
type AuthService struct {
	api     AuthAPI
	github  GitHubAPI
	catalog *CatalogService
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthService(api AuthAPI, github GitHubAPI, catalog *CatalogService, logger *slog.Logger) *AuthService {
	return &AuthService{
		api:     api,
		github:  github,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// LoginOutcome is what the presentation layer needs after a login: the new
// session and where to send the user.
//
// NeedsGitHub is set when the account has no GitHub token yet. The partial
// session is persisted, but it does not count as logged in until
// LinkGitHubToken completes it.
type LoginOutcome struct {
	Session     *model.Session
	Route       string
	NeedsGitHub bool
}

// currentUser is the record kept under session.KeyCurrentUser.
type currentUser struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	LoginTime time.Time `json:"loginTime"`
}

// Signup validates the form fields locally and registers the account.
func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := auth.ValidateCredentials(email, password); err != nil {
		return err
	}
	if err := s.api.Signup(ctx, email, password); err != nil {
		s.logger.Warn("signup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.logger.Info("account created", slog.String("email", email))
	return nil
}

// Login exchanges credentials for tokens and persists the session.
//
// The backend's profile is the seed; the GitHub profile is merged on top
// when it can be fetched, otherwise the seed is kept as is.
func (s *AuthService) Login(ctx context.Context, store *session.Store, email, password string) (*LoginOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	seed := res.Profile
	if seed.Email == "" {
		seed.Email = email
	}
	sess := &model.Session{
		User:        seed,
		ServerToken: res.ServerToken,
		GitHubToken: res.GitHubToken,
	}
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := store.SetJSON(ctx, session.KeyCurrentUser, currentUser{
		UserID:    sess.UserID(),
		Email:     sess.User.Email,
		LoginTime: s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	if sess.GitHubToken == "" {
		s.logger.Info("login without linked github token", slog.String("user_id", sess.UserID()))
		return &LoginOutcome{Session: sess, Route: model.RouteLogin, NeedsGitHub: true}, nil
	}

	if err := s.refreshProfile(ctx, store, sess); err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", slog.String("user_id", sess.UserID()))
	return &LoginOutcome{Session: sess, Route: s.catalog.LandingRoute(ctx, sess)}, nil
}

// LinkGitHubToken stores token as the session's GitHub token. In direct
// mode the token is checked against GitHub first and rejected if GitHub
// refuses it.
func (s *AuthService) LinkGitHubToken(ctx context.Context, store *session.Store, token string) (*LoginOutcome, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.ValidationFailed("githubToken", "a GitHub token is required")
	}
	partial, err := store.Partial(ctx)
	if err != nil {
		return nil, err
	}
	if partial.ServerToken == "" {
		return nil, apperror.Unauthenticated()
	}
	sess := &partial
	sess.GitHubToken = token

	profile, err := s.github.Profile(ctx, sess)
	if err != nil {
		s.logger.Warn("linking github token failed",
			slog.String("user_id", sess.UserID()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	sess.User = sess.User.MergeProfile(profile)

	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("github token linked",
		slog.String("user_id", sess.UserID()),
		slog.String("login", sess.GitHubLogin()),
	)
	return &LoginOutcome{Session: sess, Route: s.catalog.LandingRoute(ctx, sess)}, nil
}

// Logout forgets the session on this device. It never calls the backend.
func (s *AuthService) Logout(ctx context.Context, store *session.Store) error {
	if err := store.Clear(ctx); err != nil {
		s.logger.Error("clearing session failed", slog.String("error", err.Error()))
		return err
	}
	if err := store.Delete(ctx, session.KeyCurrentUser); err != nil {
		s.logger.Warn("clearing current user failed", slog.String("error", err.Error()))
	}
	return nil
}

// CurrentUser returns the persisted session, or nil when there is none or
// it cannot be read.
func (s *AuthService) CurrentUser(ctx context.Context, store *session.Store) *model.Session {
	sess, err := store.Load(ctx)
	if err != nil {
		s.logger.Warn("reading session failed", slog.String("error", err.Error()))
		return nil
	}
	return sess
}

// refreshProfile merges the GitHub profile into sess.User and persists the
// result. A failed fetch keeps the seed.
func (s *AuthService) refreshProfile(ctx context.Context, store *session.Store, sess *model.Session) error {
	profile, err := s.github.Profile(ctx, sess)
	if err != nil {
		s.logger.Warn("fetching github profile failed, keeping backend profile",
			slog.String("user_id", sess.UserID()),
			slog.String("error", err.Error()),
		)
	} else {
		sess.User = sess.User.MergeProfile(profile)
	}
	return store.SaveUser(ctx, sess.User)
}
