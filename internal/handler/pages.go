package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/auth"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
	"github.com/sakif/commit-dashboard/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login",
	"dashboard",
	"repository",
	"create_repository",
	"register_project",
	"project",
	"commit",
}

var templateFuncs = template.FuncMap{
	"relTime": func(t time.Time) string { return commitview.RelativeTime(t, time.Now()) },
	"truncate": func(s string) string {
		return commitview.TruncateMessage(commitview.FirstLine(s), commitview.DefaultMaxMessage)
	},
	"shortSHA":  commitview.ShortSHA,
	"indicator": commitview.StatusIndicator,
}

// PageDeps are the services the screens use.
type PageDeps struct {
	Auth         *service.AuthService
	Boot         *service.Bootstrapper
	Catalog      *service.CatalogService
	Commits      *service.CommitService
	Comments     *service.CommentService
	Projects     *service.ProjectService
	Sessions     *Sessions
	OAuthEnabled bool
}

// PageHandler renders the HTML screens. Every screen except /login needs a
// session; requests without one are redirected to /login.
type PageHandler struct {
	PageDeps
	pages  map[string]*template.Template
	logger *slog.Logger
}

func NewPageHandler(deps PageDeps, logger *slog.Logger) (*PageHandler, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &PageHandler{PageDeps: deps, pages: pages, logger: logger}, nil
}

// pageData is what every template receives.
type pageData struct {
	Title  string
	User   *model.User
	Error  string
	Notice string
	Data   any
}

func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[name].ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
	}
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("page failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// authenticated resolves the logged-in session or redirects to /login.
func (h *PageHandler) authenticated(w http.ResponseWriter, r *http.Request) (*session.Store, *model.Session, bool) {
	store, sess, err := h.Sessions.Current(r)
	if err != nil {
		http.Redirect(w, r, model.RouteLogin, http.StatusSeeOther)
		return nil, nil, false
	}
	return store, sess, true
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// =========================================================================
// LANDING AND AUTH SCREENS
// =========================================================================

// HandleRoot handles GET /: it restores the session and sends the user to
// their landing route.
func (h *PageHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.Sessions.Store(r)
	if err != nil {
		redirect(w, r, model.RouteLogin)
		return
	}
	st := h.Boot.Run(r.Context(), store)
	route, err := st.Route(r.Context())
	if err != nil {
		return
	}
	redirect(w, r, route)
}

type loginView struct {
	Email        string
	NeedsGitHub  bool
	OAuthEnabled bool
	SignupError  string
}

func (h *PageHandler) loginView(r *http.Request, store *session.Store) loginView {
	v := loginView{OAuthEnabled: h.OAuthEnabled}
	if partial, err := store.Partial(r.Context()); err == nil && partial.ServerToken != "" && partial.GitHubToken == "" {
		v.NeedsGitHub = true
		v.Email = partial.User.Email
	}
	return v
}

// HandleLogin handles GET /login.
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.Sessions.Store(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Auth.CurrentUser(r.Context(), store) != nil {
		redirect(w, r, "/")
		return
	}

	data := pageData{Title: "Log in", Data: h.loginView(r, store)}
	switch {
	case r.URL.Query().Get("signup") == "ok":
		data.Notice = "Account created. Please log in."
	case r.URL.Query().Get("github") == "denied":
		data.Error = "GitHub access was not granted."
	case r.URL.Query().Get("github") == "failed":
		data.Error = "Linking GitHub failed. Please try again."
	}
	h.render(w, http.StatusOK, "login", data)
}

// HandleLoginSubmit handles POST /login.
func (h *PageHandler) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.Sessions.Store(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	email := r.PostFormValue("email")
	out, err := h.Auth.Login(r.Context(), store, email, r.PostFormValue("password"))
	if err != nil {
		status, _ := classify(err)
		view := h.loginView(r, store)
		view.Email = email
		h.render(w, status, "login", pageData{Title: "Log in", Error: errorMessage(err), Data: view})
		return
	}
	redirect(w, r, out.Route)
}

// HandleSignupSubmit handles POST /signup.
func (h *PageHandler) HandleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Signup(r.Context(), r.PostFormValue("email"), r.PostFormValue("password")); err != nil {
		store, _, serr := h.Sessions.Store(r)
		if serr != nil {
			h.fail(w, r, serr)
			return
		}
		status, _ := classify(err)
		view := h.loginView(r, store)
		view.SignupError = errorMessage(err)
		h.render(w, status, "login", pageData{Title: "Log in", Data: view})
		return
	}
	redirect(w, r, model.RouteLogin+"?signup=ok")
}

// HandleLinkSubmit handles POST /link-github with a pasted token.
func (h *PageHandler) HandleLinkSubmit(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.Sessions.Store(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.Auth.LinkGitHubToken(r.Context(), store, r.PostFormValue("token"))
	if err != nil {
		status, _ := classify(err)
		h.render(w, status, "login", pageData{Title: "Log in", Error: errorMessage(err), Data: h.loginView(r, store)})
		return
	}
	redirect(w, r, out.Route)
}

// HandleLogout handles POST /logout.
func (h *PageHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	store, _, err := h.Sessions.Store(r)
	if err == nil {
		if err := h.Auth.Logout(r.Context(), store); err != nil {
			h.logger.Warn("logout failed", slog.String("error", err.Error()))
		}
	}
	redirect(w, r, model.RouteLogin)
}

// =========================================================================
// DASHBOARD AND REPOSITORY SCREENS
// =========================================================================

type dashboardView struct {
	Projects []model.Project
	Saved    []model.SavedRepository
	SavedErr string
}

// HandleDashboard handles GET /dashboard.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	projects, err := h.Projects.List(r.Context(), store)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view := dashboardView{Projects: projects}
	if view.Saved, err = h.Catalog.ListSavedRepositories(r.Context(), sess); err != nil {
		view.SavedErr = errorMessage(err)
	}
	h.render(w, http.StatusOK, "dashboard", pageData{Title: "Dashboard", User: &sess.User, Data: view})
}

type repositoryView struct {
	Saved        []model.SavedRepository
	Selected     *model.SavedRepository
	Commits      []model.CommitSummary
	CommitsErr   string
	Illustrative bool
	Label        string
}

// HandleRepository handles GET /repository. ?selected=<id> selects a saved
// repository; the selected repository's commits are listed. After a failed
// fetch, ?illustrative=1 shows labelled example commits instead.
func (h *PageHandler) HandleRepository(w http.ResponseWriter, r *http.Request) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	data := pageData{Title: "Repositories", User: &sess.User}

	saved, err := h.Catalog.ListSavedRepositories(ctx, sess)
	if err != nil {
		data.Error = errorMessage(err)
		saved = nil
	}
	view := repositoryView{Saved: saved}

	if id := r.URL.Query().Get("selected"); id != "" {
		for _, repo := range saved {
			if repo.ID.String() == id {
				if err := h.Catalog.SelectRepository(ctx, store, repo); err != nil {
					data.Error = errorMessage(err)
				}
				break
			}
		}
	}
	view.Selected = h.Catalog.SelectedRepository(ctx, store)

	if view.Selected != nil {
		commits, err := h.Commits.ListCommitsForSaved(ctx, sess, *view.Selected)
		switch {
		case err == nil:
			view.Commits = commits
		case r.URL.Query().Get("illustrative") == "1":
			view.Commits = commitview.IllustrativeCommits(time.Now())
			view.Illustrative = true
			view.Label = commitview.IllustrativeLabel
		default:
			view.CommitsErr = errorMessage(err)
		}
	}

	data.Data = view
	h.render(w, http.StatusOK, "repository", data)
}

// HandleDeleteSaved handles POST /repository/{id}/delete.
func (h *PageHandler) HandleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Catalog.DeleteSavedRepository(r.Context(), sess, id); err != nil {
		h.render(w, http.StatusOK, "repository", pageData{
			Title: "Repositories", User: &sess.User, Error: errorMessage(err),
			Data: repositoryView{Selected: h.Catalog.SelectedRepository(r.Context(), store)},
		})
		return
	}
	if sel := h.Catalog.SelectedRepository(r.Context(), store); sel != nil && sel.ID.String() == id {
		if err := store.Delete(r.Context(), session.KeySelectedRepository); err != nil {
			h.logger.Warn("clearing selected repository failed", slog.String("error", err.Error()))
		}
	}
	redirect(w, r, model.RouteRepository)
}

type createRepositoryView struct {
	Repositories []model.GitHubRepo
	Fallback     bool
}

// HandleCreateRepository handles GET /create-repository.
func (h *PageHandler) HandleCreateRepository(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	repos, fallback := h.Catalog.ListGitHubRepositories(r.Context(), sess)
	data := pageData{
		Title: "Add a repository",
		User:  &sess.User,
		Data:  createRepositoryView{Repositories: repos, Fallback: fallback},
	}
	if fallback {
		data.Notice = "GitHub could not be reached. Showing sample repositories."
	}
	h.render(w, http.StatusOK, "create_repository", data)
}

// HandleCreateRepositorySubmit handles POST /create-repository.
func (h *PageHandler) HandleCreateRepositorySubmit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PostFormValue("githubId"), 10, 64)
	if err == nil {
		_, err = h.Catalog.SaveRepositoryByID(r.Context(), sess, id)
	} else {
		err = apperror.ValidationFailed("githubId", "select a repository")
	}
	if err != nil {
		repos, fallback := h.Catalog.ListGitHubRepositories(r.Context(), sess)
		status, _ := classify(err)
		h.render(w, status, "create_repository", pageData{
			Title: "Add a repository", User: &sess.User, Error: errorMessage(err),
			Data: createRepositoryView{Repositories: repos, Fallback: fallback},
		})
		return
	}
	redirect(w, r, model.RouteRepository)
}

// =========================================================================
// PROJECT SCREENS
// =========================================================================

type registerProjectView struct {
	Saved []model.SavedRepository
}

// HandleRegisterProject handles GET /register-project.
func (h *PageHandler) HandleRegisterProject(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	data := pageData{Title: "Register a project", User: &sess.User}
	saved, err := h.Catalog.ListSavedRepositories(r.Context(), sess)
	if err != nil {
		data.Error = errorMessage(err)
	}
	data.Data = registerProjectView{Saved: saved}
	h.render(w, http.StatusOK, "register_project", data)
}

// HandleRegisterProjectSubmit handles POST /register-project.
func (h *PageHandler) HandleRegisterProjectSubmit(w http.ResponseWriter, r *http.Request) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	repo, err := h.Catalog.SavedRepository(ctx, sess, r.PostFormValue("repositoryId"))
	var p model.Project
	if err == nil {
		p, err = h.Projects.Register(ctx, store, service.ProjectInput{
			Name:        r.PostFormValue("name"),
			Description: r.PostFormValue("description"),
			Repository:  repo,
			Settings: model.ProjectSettings{
				Branch:         r.PostFormValue("branch"),
				WatchPaths:     strings.Split(r.PostFormValue("watchPaths"), ","),
				WebhookEnabled: r.PostFormValue("webhookEnabled") == "on",
				AutoComment:    r.PostFormValue("autoComment") == "on",
			},
		})
	}
	if err != nil {
		saved, _ := h.Catalog.ListSavedRepositories(ctx, sess)
		status, _ := classify(err)
		h.render(w, status, "register_project", pageData{
			Title: "Register a project", User: &sess.User, Error: errorMessage(err),
			Data: registerProjectView{Saved: saved},
		})
		return
	}
	redirect(w, r, "/project/"+url.PathEscape(p.ID))
}

type projectView struct {
	Project    model.Project
	Commits    []model.CommitSummary
	CommitsErr string
}

// HandleProject handles GET /project/{projectId}.
func (h *PageHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := h.Projects.Get(ctx, store, sess, chi.URLParam(r, "projectId"))
	if err != nil {
		status, _ := classify(err)
		h.render(w, status, "project", pageData{Title: "Project", User: &sess.User, Error: errorMessage(err)})
		return
	}

	view := projectView{Project: p}
	commits, err := h.Commits.ListCommits(ctx, sess, p.Repository.Owner, p.Repository.Name)
	if err != nil {
		view.CommitsErr = errorMessage(err)
	} else {
		view.Commits = commits
	}
	h.render(w, http.StatusOK, "project", pageData{Title: p.Name, User: &sess.User, Data: view})
}

// HandleDeleteProject handles POST /project/{projectId}/delete.
func (h *PageHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	if err := h.Projects.Delete(r.Context(), store, chi.URLParam(r, "projectId")); err != nil {
		status, _ := classify(err)
		h.render(w, status, "project", pageData{Title: "Project", User: &sess.User, Error: errorMessage(err)})
		return
	}
	redirect(w, r, model.RouteRepository)
}

// =========================================================================
// COMMIT SCREEN
// =========================================================================

type commitView struct {
	Repository model.SavedRepository
	Detail     *model.CommitDetail
	Comments   service.WorkflowSnapshot
}

// commitContext resolves the selected repository and the commit workflow
// the commit screen operates on.
func (h *PageHandler) commitContext(w http.ResponseWriter, r *http.Request) (*session.Store, *model.Session, *model.SavedRepository, *service.CommentWorkflow, bool) {
	store, sess, ok := h.authenticated(w, r)
	if !ok {
		return nil, nil, nil, nil, false
	}
	repo := h.Catalog.SelectedRepository(r.Context(), store)
	if repo == nil {
		redirect(w, r, model.RouteRepository)
		return nil, nil, nil, nil, false
	}
	owner, name, err := repo.OwnerAndName()
	if err != nil {
		redirect(w, r, model.RouteRepository)
		return nil, nil, nil, nil, false
	}
	deviceID, _ := auth.DeviceIDFromContext(r.Context())
	wf := h.Comments.Workflow(deviceID, owner, name, chi.URLParam(r, "commitId"))
	return store, sess, repo, wf, true
}

func (h *PageHandler) renderCommit(w http.ResponseWriter, r *http.Request, sess *model.Session, repo *model.SavedRepository, wf *service.CommentWorkflow, actionErr error) {
	owner, name, _ := repo.OwnerAndName()
	data := pageData{Title: "Commit", User: &sess.User}
	view := commitView{Repository: *repo, Comments: wf.Snapshot()}

	detail, err := h.Commits.GetCommitDetail(r.Context(), sess, owner, name, chi.URLParam(r, "commitId"))
	if err != nil {
		data.Error = errorMessage(err)
	} else {
		view.Detail = &detail
	}
	if actionErr != nil && !errors.Is(actionErr, apperror.ErrConflict) {
		data.Error = errorMessage(actionErr)
	}
	if view.Comments.Notice != nil {
		data.Notice = view.Comments.Notice.Message
	}
	data.Data = view
	h.render(w, http.StatusOK, "commit", data)
}

// HandleCommit handles GET /commit/{commitId}.
func (h *PageHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	_, sess, repo, wf, ok := h.commitContext(w, r)
	if !ok {
		return
	}
	h.renderCommit(w, r, sess, repo, wf, nil)
}

// HandleGenerateComments handles POST /commit/{commitId}/comments/generate.
func (h *PageHandler) HandleGenerateComments(w http.ResponseWriter, r *http.Request) {
	store, sess, repo, wf, ok := h.commitContext(w, r)
	if !ok {
		return
	}
	_, err := wf.Generate(r.Context(), h.Comments.Branch(r.Context(), store))
	h.renderCommit(w, r, sess, repo, wf, err)
}

// HandleEditComment handles POST /commit/{commitId}/comments/{commentId}.
func (h *PageHandler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	_, sess, repo, wf, ok := h.commitContext(w, r)
	if !ok {
		return
	}
	_, err := wf.EditComment(r.Context(), chi.URLParam(r, "commentId"), r.PostFormValue("content"))
	h.renderCommit(w, r, sess, repo, wf, err)
}

// HandleApplyComments handles POST /commit/{commitId}/comments/apply.
func (h *PageHandler) HandleApplyComments(w http.ResponseWriter, r *http.Request) {
	store, sess, repo, wf, ok := h.commitContext(w, r)
	if !ok {
		return
	}
	_, err := wf.Apply(r.Context(), h.Comments.Branch(r.Context(), store))
	h.renderCommit(w, r, sess, repo, wf, err)
}
