package localauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository"
)

// SavedRepos keeps each account's saved repositories under
// "savedRepositories:<userID>".
type SavedRepos struct {
	accounts *Accounts
	kv       repository.KVStore
	mu       sync.Mutex
}

func NewSavedRepos(accounts *Accounts, kv repository.KVStore) *SavedRepos {
	return &SavedRepos{accounts: accounts, kv: kv}
}

func (s *SavedRepos) ListSaved(ctx context.Context, serverToken string) ([]model.SavedRepository, error) {
	userID, err := s.accounts.userID(serverToken)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

// Save assigns the id and stores repo. Saving the same full name twice is a
// conflict, as it is on the backend.
func (s *SavedRepos) Save(ctx context.Context, serverToken string, repo model.SavedRepository) (model.SavedRepository, error) {
	userID, err := s.accounts.userID(serverToken)
	if err != nil {
		return model.SavedRepository{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	repos, err := s.load(ctx, userID)
	if err != nil {
		return model.SavedRepository{}, err
	}
	for _, r := range repos {
		if r.RepositoryFullName == repo.RepositoryFullName {
			return model.SavedRepository{}, apperror.Conflict("saved repository", repo.RepositoryFullName)
		}
	}
	repo.ID = model.ID(xid.New().String())
	repos = append(repos, repo)
	if err := s.save(ctx, userID, repos); err != nil {
		return model.SavedRepository{}, err
	}
	return repo, nil
}

func (s *SavedRepos) DeleteSaved(ctx context.Context, serverToken, id string) error {
	userID, err := s.accounts.userID(serverToken)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	repos, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for i, r := range repos {
		if r.ID.String() == id {
			repos = append(repos[:i], repos[i+1:]...)
			return s.save(ctx, userID, repos)
		}
	}
	return apperror.NotFound("saved repository", id)
}

func savedKey(userID string) string { return "savedRepositories:" + userID }

func (s *SavedRepos) load(ctx context.Context, userID string) ([]model.SavedRepository, error) {
	repos := []model.SavedRepository{}
	raw, err := s.kv.Get(ctx, savedKey(userID))
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return repos, nil
		}
		return nil, fmt.Errorf("localauth: reading saved repositories: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &repos); err != nil {
		return nil, fmt.Errorf("localauth: decoding saved repositories: %w", err)
	}
	if repos == nil {
		repos = []model.SavedRepository{}
	}
	return repos, nil
}

func (s *SavedRepos) save(ctx context.Context, userID string, repos []model.SavedRepository) error {
	data, err := json.Marshal(repos)
	if err != nil {
		return fmt.Errorf("localauth: encoding saved repositories: %w", err)
	}
	if err := s.kv.Set(ctx, savedKey(userID), string(data)); err != nil {
		return fmt.Errorf("localauth: writing saved repositories: %w", err)
	}
	return nil
}
