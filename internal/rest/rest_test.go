package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/rest"
)

func TestDo_SendsTokenAndDecodes(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"login":"octo"}`))
	}))
	defer srv.Close()

	c := rest.New(srv.URL, time.Second, rest.WithHeader("Accept", "application/vnd.github.v3+json"))

	var out struct{ Login string }
	err := c.Get(context.Background(), "get user", "/user", rest.PAT("ghp_abc"), &out)

	require.NoError(t, err)
	assert.Equal(t, "octo", out.Login)
	assert.Equal(t, "token ghp_abc", gotAuth)
	assert.Equal(t, "application/vnd.github.v3+json", gotAccept)
}

func TestDo_BearerAndBody(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := rest.New(srv.URL, time.Second)
	err := c.Do(context.Background(), "save", rest.Request{
		Method: http.MethodPost,
		Path:   "/saved-repositories",
		Token:  rest.Bearer("srv"),
		Body:   map[string]string{"a": "b"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Bearer srv", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestDo_NonSuccessIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found","documentation_url":"x"}`))
	}))
	defer srv.Close()

	err := rest.New(srv.URL, time.Second).Get(context.Background(), "get commit", "/c", nil, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrAPI))
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
	assert.Equal(t, "Not Found", err.Error())

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Body, "documentation_url")
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := rest.New(srv.URL, time.Second).Get(context.Background(), "list", "/", nil, nil)

	assert.True(t, errors.Is(err, apperror.ErrAPI))
	assert.Equal(t, "list failed with status 500", err.Error())
}

func TestDo_TransportFailureIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := rest.New(url, time.Second).Get(context.Background(), "login", "/auth/login", nil, nil)

	assert.True(t, errors.Is(err, apperror.ErrConnection))
	assert.False(t, errors.Is(err, apperror.ErrAPI))
}

func TestDo_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var out []string
	err := rest.New(srv.URL, time.Second).Get(context.Background(), "list", "/", nil, &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}
