package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

var alice = auth.User{ID: "u-1", Name: "Alice", Email: "alice@example.com"}

func setupRouter(t *testing.T) (chi.Router, *auth.Manager) {
	t.Helper()

	log := logger.NewNop()
	manager := auth.NewManager(secret, time.Hour)
	sessions := auth.NewSessions(manager, "session", "http://login.example.com/login", time.Hour, log)
	handler := auth.NewHandler(sessions, log)

	router := chi.NewRouter()
	handler.RegisterPublicRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		handler.RegisterRoutes(r)
		r.Get("/projects", func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			require.True(t, ok)
			w.Write([]byte(user.ID))
		})
	})
	return router, manager
}

func TestManager_RoundTrip(t *testing.T) {
	m := auth.NewManager(secret, time.Hour)

	token, err := m.IssueToken(alice)
	require.NoError(t, err)

	user, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, alice, *user)
}

func TestManager_Rejects(t *testing.T) {
	expired, err := auth.NewManager(secret, -time.Minute).IssueToken(alice)
	require.NoError(t, err)

	foreign, err := auth.NewManager("other-secret", time.Hour).IssueToken(alice)
	require.NoError(t, err)

	m := auth.NewManager(secret, time.Hour)
	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"garbage":      "not-a-token",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestMiddleware_RedirectsWithoutSession(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/projects?type=student", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "login.example.com", loc.Host)
	assert.Equal(t, "/projects?type=student", loc.Query().Get("returnTo"))
}

func TestMiddleware_InvalidCookieIsCleared(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tampered"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestMiddleware_AcceptsValidSession(t *testing.T) {
	router, manager := setupRouter(t)
	token, err := manager.IssueToken(alice)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())
}

func TestCurrentUser(t *testing.T) {
	router, manager := setupRouter(t)
	token, err := manager.IssueToken(alice)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got auth.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, alice, got)
}

func TestCallback_SetsCookieAndRedirects(t *testing.T) {
	router, manager := setupRouter(t)
	token, err := manager.IssueToken(alice)
	require.NoError(t, err)

	q := url.Values{"token": {token}, "returnTo": {"/projects/3"}}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/projects/3", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCallback_RejectsOffsiteReturnTo(t *testing.T) {
	router, manager := setupRouter(t)
	token, err := manager.IssueToken(alice)
	require.NoError(t, err)

	q := url.Values{"token": {token}, "returnTo": {"//evil.example.com"}}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestCallback_InvalidToken(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?token=bad", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestAnonymous(t *testing.T) {
	h := auth.Anonymous(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, auth.LocalUser, user)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects", nil))
}
