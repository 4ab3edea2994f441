// Package server is the composition root of the web dashboard: it opens the
// database, wires services and handlers, declares the routes, and runs the
// HTTP server until a shutdown signal arrives.
//
// Route map:
//
//	GET  /                         landing route of the restored session
//	GET  /login, POST /login       login and signup forms, GitHub link form
//	POST /signup, /link-github, /logout
//	GET  /dashboard, /repository, /create-repository, /register-project
//	GET  /project/{projectId}, /commit/{commitId} (+ form POSTs)
//	GET  /auth/github/link, /auth/github/callback   only with OAuth configured
//	     /api/...                  the same operations as JSON
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/config"
	"github.com/sakif/commit-dashboard/internal/handler"
	"github.com/sakif/commit-dashboard/internal/middleware"
	sqliteRepo "github.com/sakif/commit-dashboard/internal/repository/sqlite"
	"github.com/sakif/commit-dashboard/internal/service"
)

// localNamespace holds the accounts and saved repositories of local auth
// mode. Device namespaces are "device:<id>" and never collide with it.
const localNamespace = "local"

// Server owns the database and the router.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New opens the database and wires every route. cfg.DeviceSecret must be
// set; the caller decides what to do when it is not.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.DeviceSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler is the fully wired router.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database.
func (s *Server) Close() error { return s.db.Close() }

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Device(s.tokens, s.config.SecureCookies, s.logger))

	svc, err := service.NewServices(s.config, s.db.Namespace(localNamespace), s.tokens, s.logger)
	if err != nil {
		return err
	}
	sessions := handler.NewSessions(s.db, svc.Auth, s.logger)

	var provider *auth.GitHubProvider
	if oauth := s.config.GitHubOAuth; oauth.Enabled() {
		callback := oauth.CallbackURL
		if callback == "" {
			callback = fmt.Sprintf("http://localhost:%d/auth/github/callback", s.config.Port)
		}
		provider = auth.NewGitHubProvider(oauth.ClientID, oauth.ClientSecret, callback)
	} else {
		s.logger.Info("GitHub OAuth not configured, users paste a personal access token")
	}

	authHandler := handler.NewAuthHandler(svc.Auth, svc.Boot, sessions, provider, s.logger)
	repoHandler := handler.NewRepositoryHandler(svc.Catalog, sessions, s.logger)
	commitHandler := handler.NewCommitHandler(svc.Commits, svc.Comments, sessions, s.logger)
	projectHandler := handler.NewProjectHandler(svc.Projects, svc.Catalog, sessions, s.logger)

	pages, err := handler.NewPageHandler(handler.PageDeps{
		Auth:         svc.Auth,
		Boot:         svc.Boot,
		Catalog:      svc.Catalog,
		Commits:      svc.Commits,
		Comments:     svc.Comments,
		Projects:     svc.Projects,
		Sessions:     sessions,
		OAuthEnabled: provider != nil,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// === Screens ===
	s.router.Get("/", pages.HandleRoot)
	s.router.Get("/login", pages.HandleLogin)
	s.router.Post("/login", pages.HandleLoginSubmit)
	s.router.Post("/signup", pages.HandleSignupSubmit)
	s.router.Post("/link-github", pages.HandleLinkSubmit)
	s.router.Post("/logout", pages.HandleLogout)
	s.router.Get("/dashboard", pages.HandleDashboard)
	s.router.Get("/repository", pages.HandleRepository)
	s.router.Post("/repository/{id}/delete", pages.HandleDeleteSaved)
	s.router.Get("/create-repository", pages.HandleCreateRepository)
	s.router.Post("/create-repository", pages.HandleCreateRepositorySubmit)
	s.router.Get("/register-project", pages.HandleRegisterProject)
	s.router.Post("/register-project", pages.HandleRegisterProjectSubmit)
	s.router.Get("/project/{projectId}", pages.HandleProject)
	s.router.Post("/project/{projectId}/delete", pages.HandleDeleteProject)
	s.router.Route("/commit/{commitId}", func(r chi.Router) {
		r.Get("/", pages.HandleCommit)
		r.Post("/comments/generate", pages.HandleGenerateComments)
		r.Post("/comments/apply", pages.HandleApplyComments)
		r.Post("/comments/{commentId}", pages.HandleEditComment)
	})

	if provider != nil {
		s.router.Get("/auth/github/link", authHandler.HandleGitHubLink)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/session", authHandler.HandleSession)
			r.Post("/github-token", authHandler.HandleLinkToken)
		})

		r.Route("/repositories", func(r chi.Router) {
			r.Get("/github", repoHandler.HandleListGitHub)
			r.Get("/saved", repoHandler.HandleListSaved)
			r.Post("/saved", repoHandler.HandleSave)
			r.Delete("/saved/{id}", repoHandler.HandleDeleteSaved)
			r.Get("/selected", repoHandler.HandleGetSelected)
			r.Put("/selected", repoHandler.HandleSelect)
		})

		r.Get("/commits/illustrative", commitHandler.HandleIllustrative)
		r.Route("/repos/{owner}/{repo}/commits", func(r chi.Router) {
			r.Get("/", commitHandler.HandleList)
			r.Route("/{sha}", func(r chi.Router) {
				r.Get("/", commitHandler.HandleGet)
				r.Get("/comments", commitHandler.HandleComments)
				r.Post("/comments/generate", commitHandler.HandleGenerate)
				r.Post("/comments/apply", commitHandler.HandleApply)
				r.Put("/comments/{commentId}", commitHandler.HandleEditComment)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.HandleList)
			r.Post("/", projectHandler.HandleRegister)
			r.Get("/{id}", projectHandler.HandleGet)
			r.Delete("/{id}", projectHandler.HandleDelete)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	// Comment generation and apply are slow by nature; the write timeout
	// leaves room for them.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("auth_mode", s.config.AuthMode),
			slog.String("commit_source", s.config.CommitSource),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
