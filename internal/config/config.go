// Package config loads settings shared by the server and the CLI.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Where commits, repositories and the GitHub profile are read from.
const (
	CommitSourceGitHub  = "github"
	CommitSourceBackend = "backend"
)

// Who handles signup, login and saved repositories.
const (
	AuthModeBackend = "backend"
	AuthModeLocal   = "local"
)

// Config is the full configuration.
type Config struct {
	Port         int    `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	StorePath    string `yaml:"store_path"`
	BackendURL   string `yaml:"backend_url"`
	GitHubAPIURL string `yaml:"github_api_url"`
	CommitSource string `yaml:"commit_source"`
	AuthMode     string `yaml:"auth_mode"`

	// DeviceSecret signs the device cookie and, in local mode, server tokens.
	DeviceSecret  string `yaml:"device_secret"`
	SecureCookies bool   `yaml:"secure_cookies"`

	GitHubOAuth GitHubOAuth `yaml:"github_oauth"`

	CommentLatency   CommentLatency `yaml:"comment_latency"`
	HTTPTimeout      time.Duration  `yaml:"http_timeout"`
	BootstrapTimeout time.Duration  `yaml:"bootstrap_timeout"`

	LogLevel string `yaml:"log_level"`
}

// GitHubOAuth enables the "link GitHub" button. Without a client id the
// user pastes a personal access token instead.
type GitHubOAuth struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

func (g GitHubOAuth) Enabled() bool { return g.ClientID != "" && g.ClientSecret != "" }

type CommentLatency struct {
	Generate time.Duration `yaml:"generate"`
	Update   time.Duration `yaml:"update"`
	Apply    time.Duration `yaml:"apply"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:         8080,
		DBPath:       "data/dashboard.db",
		BackendURL:   "http://localhost:8000/api",
		GitHubAPIURL: "https://api.github.com",
		CommitSource: CommitSourceGitHub,
		AuthMode:     AuthModeBackend,
		CommentLatency: CommentLatency{
			Generate: 2 * time.Second,
			Update:   500 * time.Millisecond,
			Apply:    3 * time.Second,
		},
		HTTPTimeout:      30 * time.Second,
		BootstrapTimeout: 15 * time.Second,
		LogLevel:         "info",
	}
}

// Load reads path (if not empty) and the process environment.
func Load(path string) (*Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an explicit environment lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("DB_PATH", &c.DBPath)
	str("COMMITDASH_STORE", &c.StorePath)
	str("BACKEND_URL", &c.BackendURL)
	str("GITHUB_API_URL", &c.GitHubAPIURL)
	str("COMMIT_SOURCE", &c.CommitSource)
	str("AUTH_MODE", &c.AuthMode)
	str("DEVICE_SECRET", &c.DeviceSecret)
	str("GITHUB_CLIENT_ID", &c.GitHubOAuth.ClientID)
	str("GITHUB_CLIENT_SECRET", &c.GitHubOAuth.ClientSecret)
	str("GITHUB_CALLBACK_URL", &c.GitHubOAuth.CallbackURL)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q is not a number", ErrInvalidConfig, v)
		}
		c.Port = port
	}
	if v, ok := lookup("SECURE_COOKIES"); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: SECURE_COOKIES %q is not a boolean", ErrInvalidConfig, v)
		}
		c.SecureCookies = secure
	}

	durations := []struct {
		name string
		dst  []*time.Duration
	}{
		{"HTTP_TIMEOUT", []*time.Duration{&c.HTTPTimeout}},
		{"BOOTSTRAP_TIMEOUT", []*time.Duration{&c.BootstrapTimeout}},
		{"COMMENT_LATENCY", []*time.Duration{&c.CommentLatency.Generate, &c.CommentLatency.Update, &c.CommentLatency.Apply}},
	}
	for _, d := range durations {
		v, ok := lookup(d.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidConfig, d.name, v, err)
		}
		for _, dst := range d.dst {
			*dst = parsed
		}
	}
	return nil
}

// Validate checks the combination of modes and the numeric ranges.
func (c *Config) Validate() error {
	c.CommitSource = strings.ToLower(strings.TrimSpace(c.CommitSource))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))

	switch c.CommitSource {
	case CommitSourceGitHub, CommitSourceBackend:
	default:
		return fmt.Errorf("%w: commit_source must be %q or %q, got %q",
			ErrInvalidConfig, CommitSourceGitHub, CommitSourceBackend, c.CommitSource)
	}
	switch c.AuthMode {
	case AuthModeBackend, AuthModeLocal:
	default:
		return fmt.Errorf("%w: auth_mode must be %q or %q, got %q",
			ErrInvalidConfig, AuthModeBackend, AuthModeLocal, c.AuthMode)
	}
	if c.AuthMode == AuthModeLocal && c.CommitSource == CommitSourceBackend {
		return fmt.Errorf("%w: commit_source %q needs auth_mode %q", ErrInvalidConfig, CommitSourceBackend, AuthModeBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.DeviceSecret != "" && len(c.DeviceSecret) < 16 {
		return fmt.Errorf("%w: device_secret must be at least 16 characters", ErrInvalidConfig)
	}
	if c.HTTPTimeout < 0 || c.BootstrapTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}
