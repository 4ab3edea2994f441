package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

// oauthStateCookie carries the CSRF state of the GitHub link flow.
const oauthStateCookie = "oauth_state"

// AuthHandler serves the JSON auth API and the optional GitHub OAuth link
// flow.
type AuthHandler struct {
	auth     *service.AuthService
	boot     *service.Bootstrapper
	sessions *Sessions
	github   *auth.GitHubProvider // nil when OAuth linking is not configured
	logger   *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	boot *service.Bootstrapper,
	sessions *Sessions,
	github *auth.GitHubProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		boot:     boot,
		sessions: sessions,
		github:   github,
		logger:   logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

// SessionResponse describes the device's auth state.
type SessionResponse struct {
	State       string      `json:"state"`
	User        *model.User `json:"user,omitempty"`
	Route       string      `json:"route"`
	NeedsGitHub bool        `json:"needsGitHub,omitempty"`
}

func outcomeResponse(out *service.LoginOutcome) SessionResponse {
	resp := SessionResponse{
		State:       service.Authenticated.String(),
		User:        &out.Session.User,
		Route:       out.Route,
		NeedsGitHub: out.NeedsGitHub,
	}
	if out.NeedsGitHub {
		resp.State = service.Unauthenticated.String()
	}
	return resp
}

// HandleSignup handles POST /api/auth/signup.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.auth.Signup(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "account created, please log in"})
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	store, _, err := h.sessions.Store(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.auth.Login(r.Context(), store, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse(out))
}

// HandleLogout handles POST /api/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.sessions.Store(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.auth.Logout(r.Context(), store); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleSession handles GET /api/auth/session. It restores the session and
// waits for the landing route.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.sessions.Store(r)
	if err != nil {
		writeError(w, err)
		return
	}
	st := h.boot.Run(r.Context(), store)
	route, err := st.Route(r.Context())
	if err != nil {
		return
	}

	resp := SessionResponse{State: st.State().String(), Route: route}
	if sess := st.Session(); sess != nil {
		resp.User = &sess.User
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLinkToken handles POST /api/auth/github-token with a personal
// access token.
func (h *AuthHandler) HandleLinkToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	store, _, err := h.sessions.Store(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.auth.LinkGitHubToken(r.Context(), store, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse(out))
}

// HandleGitHubLink handles GET /auth/github/link: it redirects to GitHub's
// consent page with a random state remembered in a short-lived cookie.
func (h *AuthHandler) HandleGitHubLink(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback handles GET /auth/github/callback. The access token
// GitHub issues is linked to the device's session like a pasted token.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("github callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch",
			slog.String("expected", stateCookie.Value),
			slog.String("got", r.URL.Query().Get("state")),
		)
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, model.RouteLogin+"?github=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	token, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, model.RouteLogin+"?github=failed", http.StatusSeeOther)
		return
	}

	store, _, err := h.sessions.Store(r)
	if err != nil {
		http.Redirect(w, r, model.RouteLogin, http.StatusSeeOther)
		return
	}
	out, err := h.auth.LinkGitHubToken(r.Context(), store, token)
	if err != nil {
		http.Redirect(w, r, model.RouteLogin+"?github=failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, out.Route, http.StatusSeeOther)
}
