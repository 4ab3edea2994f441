// Package filekv is a repository.KVStore kept in a single JSON file.
//
// The CLI uses it in place of browser local storage. The whole map is
// rewritten on every Set/Delete through a temp file + os.Rename so a crash
// never leaves a half-written file.
package filekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sakif/commit-dashboard/internal/repository"
)

var _ repository.KVStore = (*Store)(nil)

// Store is a file-backed KVStore. It is safe for concurrent use within one process.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a Store writing to path. The parent directory is created.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("filekv: creating directory: %w", err)
	}
	return &Store{path: path}, nil
}

// DefaultPath returns $XDG_DATA_HOME/commitdash/storage.json, falling back
// to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "commitdash", "storage.json"), nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok {
		return "", repository.ErrKeyNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	m[key] = value
	return s.write(m)
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	return s.write(m)
}

// read loads the whole map. A missing file is an empty store.
func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("filekv: reading %s: %w", s.path, err)
	}
	m := map[string]string{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("filekv: parsing %s: %w", s.path, err)
	}
	return m, nil
}

// write marshals m and replaces the file atomically.
func (s *Store) write(m map[string]string) (err error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("filekv: encoding: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "storage-*.json.tmp")
	if err != nil {
		return fmt.Errorf("filekv: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("filekv: writing temp file: %w", err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("filekv: chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("filekv: closing temp file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("filekv: replacing %s: %w", s.path, err)
	}
	return nil
}
