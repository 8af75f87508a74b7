package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	"github.com/geocoder89/storefront/internal/domain/catalog"
	"github.com/geocoder89/storefront/internal/domain/user"
	apphttp "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/repo/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testConfig() config.Config {
	return config.Config{
		Env:             "test",
		DBDriver:        "sqlite",
		SQLitePath:      ":memory:",
		JWTSecret:       testSecret,
		AdminUsername:   "admin",
		AdminEmail:      "admin@example.com",
		AdminPassword:   "admin-pass",
		BasePath:        "/api",
		MaxBodyBytes:    1 << 20,
		OTELServiceName: "storefront-test",
	}
}

type testApp struct {
	router http.Handler
	tokens *auth.Manager
}

func setupApp(t *testing.T) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()

	gdb, err := sqlite.Open(cfg.SQLitePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(gdb) })

	users := sqlite.NewUsersRepo(gdb)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	created, err := db.EnsureAdminUser(context.Background(), users, cfg, logger)
	require.NoError(t, err)
	require.True(t, created)

	reg := prometheus.NewRegistry()
	tokens := auth.NewManager(cfg.JWTSecret)

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Users:      users,
		Categories: sqlite.NewCategoriesRepo(gdb),
		Products:   sqlite.NewProductsRepo(gdb),
		Tokens:     tokens,
		Ping:       sqlite.Pinger(gdb),
		Prom:       observability.NewProm(reg),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, cfg)

	return testApp{router: router, tokens: tokens}
}

// helpers

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    user.Summary `json:"user"`
}

type errorResponse struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func login(t *testing.T, router http.Handler, username, password string) loginResponse {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	w := doRequest(router, http.MethodPost, "/api/login", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp loginResponse
	mustReadJSON(t, w, &resp)
	return resp
}

func registerAndLogin(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"secret-pass"}`, username, username)
	w := doRequest(router, http.MethodPost, "/api/register", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return login(t, router, username, "secret-pass").Token
}

func TestRegisterThenLogin_IssuesUserToken(t *testing.T) {
	app := setupApp(t)

	w := doRequest(app.router, http.MethodPost, "/api/register",
		`{"username":"sam","email":"sam@example.com","password":"secret-pass"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var msg map[string]string
	mustReadJSON(t, w, &msg)
	assert.Equal(t, "User registered successfully", msg["message"])

	resp := login(t, app.router, "sam", "secret-pass")
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, user.RoleUser, resp.User.Role)
	assert.Equal(t, "sam@example.com", resp.User.Email)
	assert.NotZero(t, resp.User.ID)

	claims, err := app.tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "sam", claims.Username)
	assert.Equal(t, user.RoleUser, claims.Role)
	assert.WithinDuration(t, claims.IssuedAt.Add(24*time.Hour), claims.ExpiresAt.Time, time.Second)

	// email works as the login identifier too
	byEmail := login(t, app.router, "sam@example.com", "secret-pass")
	assert.Equal(t, "sam", byEmail.User.Username)

	// the password hash never leaks
	w = doRequest(app.router, http.MethodPost, "/api/login", `{"username":"sam","password":"secret-pass"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestRegister_DuplicateUsernameOrEmailConflicts(t *testing.T) {
	app := setupApp(t)
	registerAndLogin(t, app.router, "sam")

	for _, body := range []string{
		`{"username":"sam","email":"other@example.com","password":"x"}`,
		`{"username":"other","email":"sam@example.com","password":"x"}`,
	} {
		w := doRequest(app.router, http.MethodPost, "/api/register", body, "")
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		var resp errorResponse
		mustReadJSON(t, w, &resp)
		assert.Equal(t, "user_exists", resp.Error.Code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	app := setupApp(t)
	registerAndLogin(t, app.router, "sam")

	for _, body := range []string{
		`{"username":"sam","password":"wrong"}`,
		`{"username":"nobody","password":"secret-pass"}`,
	} {
		w := doRequest(app.router, http.MethodPost, "/api/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
	}
}

var protectedRoutes = []struct {
	method string
	path   string
	body   string
	admin  bool
}{
	{method: http.MethodGet, path: "/api/products"},
	{method: http.MethodGet, path: "/api/products/1"},
	{method: http.MethodPost, path: "/api/admin/products", body: `{"name":"x","price":1,"category_id":1,"quantity":1}`, admin: true},
	{method: http.MethodPut, path: "/api/admin/products/1", body: `{"name":"x","price":1,"category_id":1,"quantity":1}`, admin: true},
	{method: http.MethodDelete, path: "/api/admin/products/1", admin: true},
	{method: http.MethodGet, path: "/api/admin/categories", admin: true},
	{method: http.MethodPost, path: "/api/admin/categories", body: `{"name":"x"}`, admin: true},
	{method: http.MethodDelete, path: "/api/admin/categories/1", admin: true},
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	app := setupApp(t)

	for _, rt := range protectedRoutes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := doRequest(app.router, rt.method, rt.path, rt.body, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = doRequest(app.router, rt.method, rt.path, rt.body, "not-a-jwt")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAdminRoutes_ForbiddenForUserRole(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app.router, "sam")

	for _, rt := range protectedRoutes {
		if !rt.admin {
			continue
		}
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := doRequest(app.router, rt.method, rt.path, rt.body, token)
			require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

			var resp errorResponse
			mustReadJSON(t, w, &resp)
			assert.Equal(t, "forbidden", resp.Error.Code)
		})
	}

	// nothing was written by the rejected calls
	admin := login(t, app.router, "admin", "admin-pass").Token
	w := doRequest(app.router, http.MethodGet, "/api/admin/categories", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExpiredToken_Unauthorized(t *testing.T) {
	app := setupApp(t)

	past := app.tokens.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })
	stale, err := past.IssueToken("admin", user.RoleAdmin)
	require.NoError(t, err)

	w := doRequest(app.router, http.MethodGet, "/api/products", "", stale)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(app.router, http.MethodGet, "/api/admin/categories", "", stale)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenForUnknownUser_Unauthorized(t *testing.T) {
	app := setupApp(t)

	token, err := app.tokens.IssueToken("ghost", user.RoleAdmin)
	require.NoError(t, err)

	w := doRequest(app.router, http.MethodGet, "/api/admin/categories", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogLifecycle(t *testing.T) {
	app := setupApp(t)
	admin := login(t, app.router, "admin", "admin-pass")
	require.Equal(t, user.RoleAdmin, admin.User.Role)
	shopper := registerAndLogin(t, app.router, "sam")

	// categories
	w := doRequest(app.router, http.MethodPost, "/api/admin/categories", `{"name":"Games","description":"board games"}`, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var games catalog.Category
	mustReadJSON(t, w, &games)
	assert.NotZero(t, games.ID)

	w = doRequest(app.router, http.MethodGet, "/api/admin/categories", "", admin.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var categories []catalog.Category
	mustReadJSON(t, w, &categories)
	require.Len(t, categories, 1)
	assert.Equal(t, "Games", categories[0].Name)

	// products
	body := fmt.Sprintf(`{"name":"Chess","description":"wooden","price":19.99,"category_id":%d,"quantity":3}`, games.ID)
	w = doRequest(app.router, http.MethodPost, "/api/admin/products", body, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var chess catalog.Product
	mustReadJSON(t, w, &chess)
	require.NotNil(t, chess.CategoryName)
	assert.Equal(t, "Games", *chess.CategoryName)

	productPath := fmt.Sprintf("/api/products/%d", chess.ID)
	adminProductPath := fmt.Sprintf("/api/admin/products/%d", chess.ID)

	w = doRequest(app.router, http.MethodGet, productPath, "", shopper)
	require.Equal(t, http.StatusOK, w.Code)

	var got catalog.Product
	mustReadJSON(t, w, &got)
	assert.Equal(t, "Chess", got.Name)
	assert.InDelta(t, 19.99, got.Price, 0.001)
	assert.Equal(t, 3, got.Quantity)

	// list with ETag
	w = doRequest(app.router, http.MethodGet, "/api/products", "", shopper)
	require.Equal(t, http.StatusOK, w.Code)

	var list []catalog.Product
	mustReadJSON(t, w, &list)
	require.Len(t, list, 1)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+shopper)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	app.router.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	// update
	body = fmt.Sprintf(`{"name":"Chess Deluxe","price":25,"category_id":%d,"quantity":0}`, games.ID)
	w = doRequest(app.router, http.MethodPut, adminProductPath, body, admin.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated catalog.Product
	mustReadJSON(t, w, &updated)
	assert.Equal(t, "Chess Deluxe", updated.Name)
	assert.Equal(t, 0, updated.Quantity)
	assert.Nil(t, updated.Description)

	w = doRequest(app.router, http.MethodPut, "/api/admin/products/9999", body, admin.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// delete
	w = doRequest(app.router, http.MethodDelete, adminProductPath, "", admin.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(app.router, http.MethodGet, productPath, "", shopper)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(app.router, http.MethodDelete, adminProductPath, "", admin.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// ids must be numeric
	w = doRequest(app.router, http.MethodGet, "/api/products/abc", "", shopper)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductWithDeletedCategory_IsAccepted(t *testing.T) {
	app := setupApp(t)
	admin := login(t, app.router, "admin", "admin-pass").Token

	w := doRequest(app.router, http.MethodPost, "/api/admin/categories", `{"name":"Gone"}`, admin)
	require.Equal(t, http.StatusCreated, w.Code)

	var gone catalog.Category
	mustReadJSON(t, w, &gone)

	w = doRequest(app.router, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", gone.ID), "", admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(app.router, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", gone.ID), "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := fmt.Sprintf(`{"name":"Orphan","price":2.5,"category_id":%d,"quantity":1}`, gone.ID)
	w = doRequest(app.router, http.MethodPost, "/api/admin/products", body, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p catalog.Product
	mustReadJSON(t, w, &p)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, gone.ID, *p.CategoryID)
	assert.Nil(t, p.CategoryName)
}

func TestOperationalRoutes(t *testing.T) {
	app := setupApp(t)

	w := doRequest(app.router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(app.router, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// generate one request so the HTTP counters exist
	doRequest(app.router, http.MethodPost, "/api/login", `{"username":"admin","password":"admin-pass"}`, "")

	w = doRequest(app.router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
	assert.Contains(t, w.Body.String(), "storefront_auth_events_total")
}
