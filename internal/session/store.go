// Package session persists the authenticated session and the small amount
// of per-device state the dashboard keeps (projects, selected repository,
// prototype-mode users) on top of a repository.KVStore.
//
// Every value is JSON-encoded. A key that was never set, or that holds the
// literal strings "null" or "undefined", is treated as absent.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository"
)

// Persisted keys.
const (
	KeyGitHubToken        = "githubToken"
	KeyServerToken        = "serverToken"
	KeyUser               = "user"
	KeyUsers              = "users"
	KeyCurrentUser        = "currentUser"
	KeyProjects           = "projects"
	KeySelectedRepository = "selectedRepository"
)

// sessionKeys are the three keys that together make up a session.
var sessionKeys = []string{KeyGitHubToken, KeyServerToken, KeyUser}

// ErrCorruptUser is returned by Load when the persisted user record is
// present but is not a JSON object.
var ErrCorruptUser = errors.New("session: persisted user is malformed")

// IsAbsent reports whether a raw persisted value counts as "not set".
func IsAbsent(raw string) bool {
	return raw == "" || raw == "null" || raw == "undefined"
}

// Store reads and writes session state. It holds no state of its own.
type Store struct {
	kv repository.KVStore
}

func New(kv repository.KVStore) *Store {
	return &Store{kv: kv}
}

// Load restores the session.
//
// It returns (nil, nil) when any of githubToken, serverToken or user is
// absent, and an error wrapping ErrCorruptUser when user cannot be parsed.
func (s *Store) Load(ctx context.Context) (*model.Session, error) {
	githubToken, err := s.token(ctx, KeyGitHubToken)
	if err != nil || githubToken == "" {
		return nil, err
	}
	serverToken, err := s.token(ctx, KeyServerToken)
	if err != nil || serverToken == "" {
		return nil, err
	}

	raw, err := s.raw(ctx, KeyUser)
	if err != nil || IsAbsent(raw) {
		return nil, err
	}
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptUser, err)
	}

	return &model.Session{
		User:        user,
		ServerToken: serverToken,
		GitHubToken: githubToken,
	}, nil
}

// Save persists both tokens and the user record. Empty tokens are skipped
// so a login without a linked GitHub account does not write "".
func (s *Store) Save(ctx context.Context, sess *model.Session) error {
	if sess.GitHubToken != "" {
		if err := s.SetJSON(ctx, KeyGitHubToken, sess.GitHubToken); err != nil {
			return err
		}
	}
	if sess.ServerToken != "" {
		if err := s.SetJSON(ctx, KeyServerToken, sess.ServerToken); err != nil {
			return err
		}
	}
	return s.SaveUser(ctx, sess.User)
}

// SaveUser replaces only the user record.
func (s *Store) SaveUser(ctx context.Context, u model.User) error {
	return s.SetJSON(ctx, KeyUser, u)
}

// SaveGitHubToken replaces only the GitHub token.
func (s *Store) SaveGitHubToken(ctx context.Context, token string) error {
	return s.SetJSON(ctx, KeyGitHubToken, token)
}

// Clear removes the three session keys. Other per-device state survives.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("session: clearing: %w", err)
	}
	return nil
}

// Partial reads whatever session fields are present without requiring all
// three. It is used to pick up a server token before GitHub is linked.
func (s *Store) Partial(ctx context.Context) (model.Session, error) {
	var sess model.Session
	var err error
	if sess.GitHubToken, err = s.token(ctx, KeyGitHubToken); err != nil {
		return sess, err
	}
	if sess.ServerToken, err = s.token(ctx, KeyServerToken); err != nil {
		return sess, err
	}
	if _, err := s.GetJSON(ctx, KeyUser, &sess.User); err != nil && !errors.Is(err, ErrCorruptUser) {
		return sess, err
	}
	return sess, nil
}

// GetJSON decodes key into v. It reports false when the key is absent.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.raw(ctx, key)
	if err != nil {
		return false, err
	}
	if IsAbsent(raw) {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		if key == KeyUser {
			return false, fmt.Errorf("%w: %v", ErrCorruptUser, err)
		}
		return false, fmt.Errorf("session: decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encoding %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("session: writing %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("session: deleting: %w", err)
	}
	return nil
}

func (s *Store) raw(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("session: reading %s: %w", key, err)
	}
	return raw, nil
}

// token reads a token key. Tokens written by older clients were stored
// unquoted, so a value that is not a JSON string is used verbatim.
func (s *Store) token(ctx context.Context, key string) (string, error) {
	raw, err := s.raw(ctx, key)
	if err != nil || IsAbsent(raw) {
		return "", err
	}
	var tok string
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return raw, nil
	}
	if IsAbsent(tok) {
		return "", nil
	}
	return tok, nil
}
