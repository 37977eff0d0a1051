package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webforge/internal/auth"
	"webforge/internal/builder"
	"webforge/internal/cache"
	"webforge/internal/config"
	"webforge/internal/db"
	"webforge/internal/deploy"
	"webforge/internal/engines"
	"webforge/internal/preview"
	"webforge/internal/websocket"
)

type apiFixture struct {
	router    *gin.Engine
	cfg       *config.Config
	analytics *engines.Analytics
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		Environment:      "test",
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Hour,
		WorkspaceDir:     t.TempDir(),
		PreviewBase:      "http://localhost:0",
		MaxBuildAttempts: 1,
		PassRateTarget:   80,
		PassRateFloor:    50,
	}

	gdb, err := db.Open("", filepath.Join(t.TempDir(), "api.db"), false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	ws, err := builder.NewWorkspace(cfg.WorkspaceDir)
	require.NoError(t, err)

	hub := websocket.NewHub()
	analytics := engines.NewAnalytics(engines.DefaultThresholds)
	b := builder.New(cfg, gdb, ws, nil, analytics, hub)
	jwt := auth.NewJWTService(cfg.JWTSecret, "webforge", cfg.AccessTokenTTL)

	h := New(cfg, gdb, jwt, b, deploy.NewDeployer(gdb), analytics, hub, cache.New(nil, "test"))
	return &apiFixture{
		router:    SetupRouter(h, preview.NewServer(cfg.WorkspaceDir)),
		cfg:       cfg,
		analytics: analytics,
	}
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newAPI(t).router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, StandardResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp StandardResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func register(t *testing.T, router *gin.Engine, username, email, password string) tokenResponse {
	t.Helper()

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, resp.Success)

	var tokens tokenResponse
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &tokens))
	return tokens
}

func TestRegisterLoginAndMe(t *testing.T) {
	router := testRouter(t)

	tokens := register(t, router, "ada", "ada@example.com", "Sup3rSecret")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "ada", tokens.User.Username)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = doJSON(t, router, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada", user["username"])
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	router := testRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "WEAK_PASSWORD", resp.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	router := testRouter(t)
	register(t, router, "ada", "ada@example.com", "Sup3rSecret")

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "ada2", "email": "ada@example.com", "password": "Sup3rSecret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USER_EXISTS", resp.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router := testRouter(t)
	register(t, router, "ada", "ada@example.com", "Sup3rSecret")

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "WrongPass1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Code)
}

func TestRefreshTokenIssuesNewAccessToken(t *testing.T) {
	router := testRouter(t)
	tokens := register(t, router, "ada", "ada@example.com", "Sup3rSecret")

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
		"refresh_token": tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["access_token"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/api/v1/auth/me", "/api/v1/projects", "/api/v1/dashboard"} {
		w, _ := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
