package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/repository"
	"github.com/sakif/commit-dashboard/internal/service"
	"github.com/sakif/commit-dashboard/internal/session"
)

// Sessions finds the persisted state of the device a request came from.
// Each device gets its own namespace, named after the id the Device
// middleware put in the context.
type Sessions struct {
	namespaces repository.Namespaces
	auth       *service.AuthService
	logger     *slog.Logger
}

func NewSessions(namespaces repository.Namespaces, authService *service.AuthService, logger *slog.Logger) *Sessions {
	return &Sessions{namespaces: namespaces, auth: authService, logger: logger}
}

// Store returns the device's store and id.
func (s *Sessions) Store(r *http.Request) (*session.Store, string, error) {
	deviceID, ok := auth.DeviceIDFromContext(r.Context())
	if !ok {
		s.logger.Error("request without device id", slog.String("path", r.URL.Path))
		return nil, "", apperror.Unauthenticated()
	}
	return session.New(s.namespaces.Namespace("device:" + deviceID)), deviceID, nil
}

// Current returns the device's store and the logged-in session. A missing
// or incomplete session is ErrUnauthenticated.
func (s *Sessions) Current(r *http.Request) (*session.Store, *model.Session, error) {
	store, _, err := s.Store(r)
	if err != nil {
		return nil, nil, err
	}
	sess := s.auth.CurrentUser(r.Context(), store)
	if sess == nil {
		return store, nil, apperror.Unauthenticated()
	}
	return store, sess, nil
}
