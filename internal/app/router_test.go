package app_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"taskboard/internal/app"
	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/logger"
	"taskboard/internal/metrics"
	"taskboard/internal/schema"
	"taskboard/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(authEnabled bool) *config.Config {
	return &config.Config{
		Env: "test",
		Server: config.ServerConfig{
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Auth: config.AuthConfig{
			Enabled:       authEnabled,
			CookieName:    "session",
			Secret:        "router-test-secret",
			LoginURL:      "/login",
			SessionTTLMin: 60,
		},
	}
}

func request(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// downPublisher reports an unhealthy broker connection.
type downPublisher struct{ events.Noop }

func (downPublisher) HealthCheck() error { return errors.New("nats: connection closed") }

func TestRouter_Shared(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t)

	open := app.NewRouter(app.Deps{
		DB:        pgContainer.DB,
		Config:    testConfig(false),
		Logger:    logger.NewNop(),
		Metrics:   metrics.NewMock(),
		Publisher: events.Noop{},
	})

	t.Run("Health", func(t *testing.T) {
		w := request(t, open, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = request(t, open, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ReadyChecksEventsPublisher", func(t *testing.T) {
		router := app.NewRouter(app.Deps{
			DB:        pgContainer.DB,
			Config:    testConfig(false),
			Logger:    logger.NewNop(),
			Metrics:   metrics.NewMock(),
			Publisher: downPublisher{},
		})

		w := request(t, router, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		w = request(t, router, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Metrics", func(t *testing.T) {
		request(t, open, http.MethodGet, "/health", "")

		w := request(t, open, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "taskboard_http_request_duration_seconds")
	})

	t.Run("RoutesServedAtRootAndUnderAPI", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "tickets", "projects")

		w := request(t, open, http.MethodPost, "/api/projects", `{"name":"Thesis","type":"student"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var p schema.Project
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

		w = request(t, open, http.MethodPost, "/tickets", `{"title":"Outline","projectId":`+strconv.Itoa(p.ID)+`}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		for _, path := range []string{"/projects/" + strconv.Itoa(p.ID) + "/tickets", "/api/projects/" + strconv.Itoa(p.ID) + "/tickets"} {
			w = request(t, open, http.MethodGet, path, "")
			require.Equal(t, http.StatusOK, w.Code)
			var tickets []schema.Ticket
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tickets))
			assert.Len(t, tickets, 1, path)
		}
	})

	t.Run("DisabledAuthUsesLocalUser", func(t *testing.T) {
		w := request(t, open, http.MethodGet, "/auth/user", "")
		require.Equal(t, http.StatusOK, w.Code)

		var user auth.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, auth.LocalUser, user)
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		w := request(t, open, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Not found"}`, w.Body.String())
	})

	t.Run("SessionRequiredWhenAuthEnabled", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "tickets", "projects")

		cfg := testConfig(true)
		guarded := app.NewRouter(app.Deps{
			DB:        pgContainer.DB,
			Config:    cfg,
			Logger:    logger.NewNop(),
			Metrics:   metrics.NewMock(),
			Publisher: events.Noop{},
		})

		w := request(t, guarded, http.MethodGet, "/api/projects", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/login?returnTo=")

		w = request(t, guarded, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		token, err := auth.NewManager(cfg.Auth.Secret, time.Hour).IssueToken(auth.User{ID: "u-1", Name: "Alice"})
		require.NoError(t, err)

		w = request(t, guarded, http.MethodGet, "/api/projects", "", &http.Cookie{Name: "session", Value: token})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}
