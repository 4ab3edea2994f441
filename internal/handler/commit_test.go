package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/handler"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

func commitParams(extra ...string) map[string]string {
	p := map[string]string{"owner": "ada", "repo": "engine", "sha": testSHA}
	for i := 0; i+1 < len(extra); i += 2 {
		p[extra[i]] = extra[i+1]
	}
	return p
}

func TestCommitHandler_List(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	h := handler.NewCommitHandler(e.commits, e.comments, e.sessions, e.logger)

	rr := serve(h.HandleList, request(http.MethodGet, "/api/repos/ada/engine/commits", "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code)
	commits := decode[[]model.CommitSummary](t, rr)
	require.Len(t, commits, 1)
	assert.Equal(t, "0123456", commits[0].ShortSHA)
	assert.Equal(t, "Ada", commits[0].AuthorName)
	assert.Equal(t, testToken, e.gh.tokens[len(e.gh.tokens)-1])
}

func TestCommitHandler_ListUpstreamFailure(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.gh.commitsErr = apperror.API("listing commits", http.StatusNotFound, "Not Found", "")
	h := handler.NewCommitHandler(e.commits, e.comments, e.sessions, e.logger)

	rr := serve(h.HandleList, request(http.MethodGet, "/api/repos/ada/engine/commits", "", testDevice, commitParams()))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decode[handler.ErrorResponse](t, rr)
	assert.Equal(t, "upstream_error", resp.Error)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestCommitHandler_Get(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	h := handler.NewCommitHandler(e.commits, e.comments, e.sessions, e.logger)

	rr := serve(h.HandleGet, request(http.MethodGet, "/api/repos/ada/engine/commits/"+testSHA, "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	detail := decode[handler.CommitDetailResponse](t, rr)
	assert.Equal(t, 13, detail.Stats.Additions)
	assert.Equal(t, 2, detail.Stats.Deletions)
	require.Len(t, detail.Indicators, 2)
	assert.Equal(t, "M", detail.Indicators[0].Badge)
	assert.Equal(t, "A", detail.Indicators[1].Badge)
	assert.NotEmpty(t, detail.RelativeTime)
}

func TestCommitHandler_Illustrative(t *testing.T) {
	e := newTestEnv(t)
	h := handler.NewCommitHandler(e.commits, e.comments, e.sessions, e.logger)

	rr := serve(h.HandleIllustrative, request(http.MethodGet, "/api/commits/illustrative", "", testDevice, nil))
	resp := decode[handler.IllustrativeResponse](t, rr)
	assert.NotEmpty(t, resp.Label)
	assert.NotEmpty(t, resp.Commits)
}

func TestCommitHandler_CommentWorkflow(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	h := handler.NewCommitHandler(e.commits, e.comments, e.sessions, e.logger)
	base := "/api/repos/ada/engine/commits/" + testSHA + "/comments"

	rr := serve(h.HandleComments, request(http.MethodGet, base, "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.StateIdle, decode[service.WorkflowSnapshot](t, rr).State)

	rr = serve(h.HandleEditComment, request(http.MethodPut, base+"/comment-1", `{"content":"early"}`,
		testDevice, commitParams("commentId", "comment-1")))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "editing before generating")

	rr = serve(h.HandleGenerate, request(http.MethodPost, base+"/generate", "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap := decode[service.WorkflowSnapshot](t, rr)
	assert.Equal(t, service.StatePreview, snap.State)
	require.Len(t, snap.Comments, 3)

	rr = serve(h.HandleEditComment, request(http.MethodPut, base+"/comment-2", `{"content":"Routes the request."}`,
		testDevice, commitParams("commentId", "comment-2")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decode[service.WorkflowSnapshot](t, rr)
	assert.Equal(t, "Routes the request.", snap.Comments[1].Content)

	rr = serve(h.HandleEditComment, request(http.MethodPut, base+"/comment-2", `{"content":"  "}`,
		testDevice, commitParams("commentId", "comment-2")))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "blank content")

	// A device without a session cannot reach the workflow.
	rr = serve(h.HandleComments, request(http.MethodGet, base, "", "device-b", commitParams()))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h.HandleApply, request(http.MethodPost, base+"/apply", "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decode[service.WorkflowSnapshot](t, rr)
	assert.Equal(t, service.StateIdle, snap.State)
	require.NotNil(t, snap.Notice)
	assert.Contains(t, snap.Notice.Message, "main")
	assert.Contains(t, snap.Notice.CommitURL, testSHA)
}

func TestCommitHandler_ApplyUsesSelectedBranch(t *testing.T) {
	e := newTestEnv(t)
	sess := e.login()
	repo := e.saveRepo(sess)
	require.NoError(t, e.catalog.SelectRepository(t.Context(), e.store(testDevice), repo))
	h := handler.NewCommitHandler(e.commits, e.comments, e.sessions, e.logger)
	base := "/api/repos/ada/engine/commits/" + testSHA + "/comments"

	rr := serve(h.HandleGenerate, request(http.MethodPost, base+"/generate", "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h.HandleApply, request(http.MethodPost, base+"/apply", "", testDevice, commitParams()))
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[service.WorkflowSnapshot](t, rr)
	require.NotNil(t, snap.Notice)
	assert.Contains(t, snap.Notice.Message, "trunk")
}
