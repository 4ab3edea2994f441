package localauth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/localauth"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository/sqlite"
)

func newTestBackend(t *testing.T) (*localauth.Accounts, *localauth.SavedRepos) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	kv := db.Namespace("local")
	accounts := localauth.NewAccounts(kv, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost))
	return accounts, localauth.NewSavedRepos(accounts, kv)
}

func TestAccounts_SignupLogin(t *testing.T) {
	accounts, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, accounts.Signup(ctx, "dev@example.com", "secret1"))

	res, err := accounts.Login(ctx, "DEV@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ServerToken)
	assert.Equal(t, "dev@example.com", res.Profile.Email)
	assert.NotEmpty(t, res.Profile.ID)
}

func TestAccounts_DuplicateSignup(t *testing.T) {
	accounts, _ := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, accounts.Signup(ctx, "dev@example.com", "secret1"))

	err := accounts.Signup(ctx, "dev@example.com", "another")

	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestAccounts_BadLogin(t *testing.T) {
	accounts, _ := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, accounts.Signup(ctx, "dev@example.com", "secret1"))

	_, err := accounts.Login(ctx, "dev@example.com", "wrong!")
	assert.True(t, errors.Is(err, apperror.ErrCredential))

	_, err = accounts.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.Is(err, apperror.ErrCredential))
}

func TestSavedRepos(t *testing.T) {
	accounts, saved := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, accounts.Signup(ctx, "dev@example.com", "secret1"))
	res, err := accounts.Login(ctx, "dev@example.com", "secret1")
	require.NoError(t, err)
	token := res.ServerToken

	list, err := saved.ListSaved(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, list)

	repo := model.ToSavedRepository(model.GitHubRepo{ID: 9, Name: "hello"}, "octo", time.Now())
	created, err := saved.Save(ctx, token, repo)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = saved.Save(ctx, token, repo)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	list, err = saved.ListSaved(ctx, token)
	require.NoError(t, err)
	require.Len(t, list, 1)
	owner, name, err := list[0].OwnerAndName()
	require.NoError(t, err)
	assert.Equal(t, "octo", owner)
	assert.Equal(t, "hello", name)

	require.NoError(t, saved.DeleteSaved(ctx, token, created.ID.String()))
	list, err = saved.ListSaved(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = saved.DeleteSaved(ctx, token, created.ID.String())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSavedRepos_RejectsForeignToken(t *testing.T) {
	_, saved := newTestBackend(t)

	_, err := saved.ListSaved(context.Background(), "not-a-token")
	assert.True(t, errors.Is(err, apperror.ErrAPI))
	assert.True(t, strings.Contains(err.Error(), "log in"))

	_, err = saved.ListSaved(context.Background(), "")
	assert.True(t, errors.Is(err, apperror.ErrUnauthenticated))
}
