// Package localauth is the prototype mode backend: accounts and saved
// repositories kept in a key/value store instead of the REST backend.
//
// It answers the same calls as backend.Client for signup, login and the
// saved-repository list, so the dashboard can run without a backend at all.
// GitHub itself is then always called directly with the user's token.
//
// Passwords are stored as bcrypt hashes, never in plaintext.
package localauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository"
)

// keyUsers holds the account list.
const keyUsers = "users"

type account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Accounts implements signup and login over a KVStore.
type Accounts struct {
	kv        repository.KVStore
	tokens    *auth.TokenService
	passwords *auth.PasswordService

	// mu serializes read-modify-write of the users key.
	mu sync.Mutex
}

func NewAccounts(kv repository.KVStore, tokens *auth.TokenService, passwords *auth.PasswordService) *Accounts {
	return &Accounts{kv: kv, tokens: tokens, passwords: passwords}
}

// Signup registers email. Emails compare case-insensitively.
func (a *Accounts) Signup(ctx context.Context, email, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return apperror.ValidationFailed("email", "email is already registered")
		}
	}

	hash, err := a.passwords.Hash(password)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}
	users = append(users, account{
		ID:           xid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	return a.save(ctx, users)
}

// Login checks the password and issues a server token for the account.
// Unknown email and wrong password produce the same error.
func (a *Accounts) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	a.mu.Lock()
	users, err := a.load(ctx)
	a.mu.Unlock()
	if err != nil {
		return model.LoginResult{}, err
	}

	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if err := a.passwords.Verify(u.PasswordHash, password); err != nil {
			break
		}
		token, err := a.tokens.Generate(auth.KindServer, u.ID)
		if err != nil {
			return model.LoginResult{}, err
		}
		return model.LoginResult{
			ServerToken: token,
			Profile:     model.User{ID: model.ID(u.ID), Email: u.Email},
		}, nil
	}
	return model.LoginResult{}, apperror.Credential("")
}

// userID resolves a server token to the account it was issued for.
func (a *Accounts) userID(serverToken string) (string, error) {
	if serverToken == "" {
		return "", apperror.Unauthenticated()
	}
	id, err := a.tokens.Validate(auth.KindServer, serverToken)
	if err != nil {
		return "", apperror.API("authenticate", http.StatusUnauthorized, "session expired, log in again", "")
	}
	return id, nil
}

func (a *Accounts) load(ctx context.Context) ([]account, error) {
	raw, err := a.kv.Get(ctx, keyUsers)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("localauth: reading users: %w", err)
	}
	if raw == "" || raw == "null" || raw == "undefined" {
		return nil, nil
	}
	var users []account
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("localauth: decoding users: %w", err)
	}
	return users, nil
}

func (a *Accounts) save(ctx context.Context, users []account) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("localauth: encoding users: %w", err)
	}
	if err := a.kv.Set(ctx, keyUsers, string(data)); err != nil {
		return fmt.Errorf("localauth: writing users: %w", err)
	}
	return nil
}
