package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The full pipeline over the API: build a project, re-run its tests, and
// read the requirement coverage rollup. The router serves its own preview
// pages, so the regression runner fetches through the same server.
func TestCreateProjectAndRunTests(t *testing.T) {
	fx := newAPI(t)
	srv := httptest.NewServer(fx.router)
	t.Cleanup(srv.Close)
	fx.cfg.PreviewBase = srv.URL

	tokens := register(t, fx.router, "ada", "ada@example.com", "Sup3rSecret")

	w, resp := doJSON(t, fx.router, http.MethodPost, "/api/v1/projects", tokens.AccessToken, gin.H{
		"description": "Build me a portfolio website with a contact button",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	result, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	project, ok := result["project"].(map[string]interface{})
	require.True(t, ok)
	slug, _ := project["slug"].(string)
	require.NotEmpty(t, slug)
	assert.Equal(t, "ready", project["status"])

	assert.EqualValues(t, 1, fx.analytics.Snapshot().Events["project_create_requested"])

	w, resp = doJSON(t, fx.router, http.MethodPost, "/api/v1/projects/"+slug+"/tests/run", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, data, "report")
	require.Contains(t, data, "coverage")

	report, ok := data["report"].(map[string]interface{})
	require.True(t, ok)
	summary, ok := report["summary"].(map[string]interface{})
	require.True(t, ok)
	passRate, _ := summary["pass_rate"].(float64)
	assert.GreaterOrEqual(t, passRate, 80.0)

	coverage, ok := data["coverage"].(map[string]interface{})
	require.True(t, ok)
	require.NotEmpty(t, coverage)
	for id := range coverage {
		assert.True(t, strings.HasPrefix(id, "req_"), "coverage key %q", id)
	}
}

func TestDeployTracksRequestEvents(t *testing.T) {
	fx := newAPI(t)
	srv := httptest.NewServer(fx.router)
	t.Cleanup(srv.Close)
	fx.cfg.PreviewBase = srv.URL

	tokens := register(t, fx.router, "ada", "ada@example.com", "Sup3rSecret")

	w, resp := doJSON(t, fx.router, http.MethodPost, "/api/v1/projects", tokens.AccessToken, gin.H{
		"description": "Build me a portfolio website with a contact button",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := resp.Data.(map[string]interface{})
	slug := result["project"].(map[string]interface{})["slug"].(string)

	// An unknown platform is rejected, but the request is still counted.
	w, _ = doJSON(t, fx.router, http.MethodPost, "/api/v1/projects/"+slug+"/deploy", tokens.AccessToken, gin.H{
		"platform": "geocities",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.EqualValues(t, 1, fx.analytics.Snapshot().Events["deploy_requested"])
}
