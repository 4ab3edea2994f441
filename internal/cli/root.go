// Package cli is the terminal front end of the dashboard. It drives the
// same services as the web server; the device's state lives in a JSON file
// instead of a browser.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/config"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository"
	"github.com/sakif/commit-dashboard/internal/repository/filekv"
	"github.com/sakif/commit-dashboard/internal/service"
	"github.com/sakif/commit-dashboard/internal/session"
)

// keyLocalSecret holds the per-install secret that signs local-mode server
// tokens when no DEVICE_SECRET is configured.
const keyLocalSecret = "localSecret"

// Options lets callers and tests supply what is otherwise loaded from the
// environment.
type Options struct {
	// Config is loaded from --config and the environment when nil.
	Config *config.Config
	Logger *slog.Logger
}

type app struct {
	opts   Options
	cfg    *config.Config
	store  *session.Store
	svc    *service.Services
	logger *slog.Logger
}

// NewRootCmd builds the commitdash command tree.
func NewRootCmd(opts Options) *cobra.Command {
	a := &app{opts: opts}
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "commitdash",
		Short:         "Browse GitHub commits and preview AI code comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), configPath, verbose)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("COMMITDASH_CONFIG"), "YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.linkTokenCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.reposCmd(),
		a.savedCmd(),
		a.saveCmd(),
		a.unsaveCmd(),
		a.selectCmd(),
		a.commitsCmd(),
		a.showCmd(),
		a.commentsCmd(),
		a.projectsCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	root := NewRootCmd(Options{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		warn(os.Stderr, "error: %s", err)
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context, configPath string, verbose bool) error {
	cfg := a.opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.logger = a.opts.Logger
	if a.logger == nil {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	path := cfg.StorePath
	if path == "" {
		var err error
		if path, err = filekv.DefaultPath(); err != nil {
			return fmt.Errorf("locating state file: %w", err)
		}
	}
	kv, err := filekv.New(path)
	if err != nil {
		return err
	}
	a.store = session.New(kv)

	var tokens *auth.TokenService
	if cfg.AuthMode == config.AuthModeLocal {
		secret := cfg.DeviceSecret
		if secret == "" {
			if secret, err = localSecret(ctx, kv); err != nil {
				return err
			}
		}
		if tokens, err = auth.NewTokenService(secret); err != nil {
			return err
		}
	}

	a.svc, err = service.NewServices(cfg, kv, tokens, a.logger)
	return err
}

// localSecret returns the install's signing secret, creating it on first use.
func localSecret(ctx context.Context, kv repository.KVStore) (string, error) {
	secret, err := kv.Get(ctx, keyLocalSecret)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, repository.ErrKeyNotFound) {
		return "", err
	}
	secret = uuid.NewString() + uuid.NewString()
	if err := kv.Set(ctx, keyLocalSecret, secret); err != nil {
		return "", fmt.Errorf("storing local secret: %w", err)
	}
	return secret, nil
}

// current returns the logged-in session.
func (a *app) current(ctx context.Context) (*model.Session, error) {
	sess := a.svc.Auth.CurrentUser(ctx, a.store)
	if sess == nil {
		return nil, errNotLoggedIn
	}
	return sess, nil
}

var errNotLoggedIn = errors.New("not logged in, run `commitdash login` first")

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
