package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/events"
	"taskboard/internal/logger"
	"taskboard/internal/schema"
	"taskboard/testing/testnats"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// stubAPI serves canned responses and records the last write body.
type stubAPI struct {
	lastBody    map[string]any
	ticketLists atomic.Int32
}

func (s *stubAPI) router() http.Handler {
	projects := []schema.Project{
		{ID: 1, Name: "Final Year Thesis", Description: strPtr("Research on AI agents"), Type: schema.ProjectTypeStudent, Status: schema.ProjectStatusActive},
		{ID: 2, Name: "Home Renovation", Type: schema.ProjectTypePersonal, Status: schema.ProjectStatusArchived},
	}
	tickets := []schema.Ticket{
		{ID: 10, Title: "Literature review", Status: schema.TicketStatusDone, Priority: schema.TicketPriorityHigh, ProjectID: 1},
		{ID: 11, Title: "Draft outline", Status: schema.TicketStatusTodo, Priority: schema.TicketPriorityLow, ProjectID: 1, AssigneeName: strPtr("Alice")},
		{ID: 12, Title: "Pick a topic", Status: schema.TicketStatusTodo, Priority: schema.TicketPriorityHigh, ProjectID: 1},
	}

	record := func(r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.lastBody = map[string]any{}
		json.Unmarshal(body, &s.lastBody)
	}

	r := chi.NewRouter()
	r.Get("/projects", func(w http.ResponseWriter, r *http.Request) { respond(w, http.StatusOK, projects) })
	r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "1" {
			respond(w, http.StatusNotFound, map[string]string{"message": "Project not found"})
			return
		}
		respond(w, http.StatusOK, projects[0])
	})
	r.Get("/projects/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		s.ticketLists.Add(1)
		respond(w, http.StatusOK, tickets)
	})
	r.Post("/projects", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		respond(w, http.StatusCreated, schema.Project{ID: 3, Name: s.lastBody["name"].(string), Type: schema.ProjectTypePersonal})
	})
	r.Patch("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		p := projects[0]
		p.Status = schema.ProjectStatus(s.lastBody["status"].(string))
		respond(w, http.StatusOK, p)
	})
	r.Post("/tickets", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		respond(w, http.StatusBadRequest, map[string]string{"message": "Project not found", "field": "projectId"})
	})
	r.Patch("/tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		t := tickets[1]
		t.Status = schema.TicketStatus(s.lastBody["status"].(string))
		respond(w, http.StatusOK, t)
	})
	r.Delete("/tickets/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/auth/user", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil || c.Value != "good-token" {
			http.Redirect(w, r, "/login?returnTo=/auth/user", http.StatusFound)
			return
		}
		respond(w, http.StatusOK, map[string]string{"id": "u-1", "name": "Alice", "email": "alice@example.com"})
	})
	return r
}

func run(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"taskctl", "--server", server.URL}, args...))
	return out.String(), err
}

func TestTaskctl(t *testing.T) {
	api := &stubAPI{}
	server := httptest.NewServer(api.router())
	defer server.Close()

	t.Run("ProjectsListFilters", func(t *testing.T) {
		out, err := run(t, server, "projects", "list", "--type", "student")
		require.NoError(t, err)
		assert.Contains(t, out, "Final Year Thesis")
		assert.NotContains(t, out, "Home Renovation")

		out, err = run(t, server, "projects", "list", "-q", "renovation")
		require.NoError(t, err)
		assert.Contains(t, out, "Home Renovation")
		assert.NotContains(t, out, "Thesis")
	})

	t.Run("ProjectsShow", func(t *testing.T) {
		out, err := run(t, server, "projects", "show", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Research on AI agents")
		assert.Contains(t, out, "Student")
		assert.Regexp(t, `Tickets:\s+3`, out)
	})

	t.Run("ProjectsShowNotFound", func(t *testing.T) {
		_, err := run(t, server, "projects", "show", "99")
		require.Error(t, err)
		assert.Equal(t, "Project not found", err.Error())
	})

	t.Run("ProjectsShowBadID", func(t *testing.T) {
		_, err := run(t, server, "projects", "show", "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid projectID")
	})

	t.Run("ProjectsCreate", func(t *testing.T) {
		out, err := run(t, server, "projects", "create", "--name", "Garden")
		require.NoError(t, err)
		assert.Contains(t, out, "Created project 3: Garden")
		assert.Equal(t, "personal", api.lastBody["type"])
		assert.NotContains(t, api.lastBody, "description")
	})

	t.Run("ProjectsArchive", func(t *testing.T) {
		out, err := run(t, server, "projects", "archive", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Project 1 is now archived")
		assert.Equal(t, map[string]any{"status": "archived"}, api.lastBody)
	})

	t.Run("TicketsCreateFieldError", func(t *testing.T) {
		_, err := run(t, server, "tickets", "create", "--project", "42", "--title", "Orphan", "--due", "2026-03-01")
		require.Error(t, err)
		assert.Equal(t, "projectId: Project not found", err.Error())
		assert.Equal(t, "2026-03-01T00:00:00Z", api.lastBody["dueDate"])
	})

	t.Run("TicketsMove", func(t *testing.T) {
		out, err := run(t, server, "tickets", "move", "11", "in_progress")
		require.NoError(t, err)
		assert.Contains(t, out, "Moved ticket 11 to In Progress")
		assert.Equal(t, map[string]any{"status": "in_progress"}, api.lastBody)
	})

	t.Run("TicketsMoveInvalidStatus", func(t *testing.T) {
		_, err := run(t, server, "tickets", "move", "11", "blocked")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid status "blocked"`)
	})

	t.Run("TicketsDelete", func(t *testing.T) {
		out, err := run(t, server, "tickets", "delete", "--project", "1", "11")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted ticket 11")
	})

	t.Run("Board", func(t *testing.T) {
		out, err := run(t, server, "board", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "To Do (2)")
		assert.Contains(t, out, "In Progress (0)")
		assert.Contains(t, out, "Done (1)")
		assert.Less(t, bytes.Index([]byte(out), []byte("Pick a topic")), bytes.Index([]byte(out), []byte("Draft outline")))
	})

	t.Run("Whoami", func(t *testing.T) {
		out, err := run(t, server, "--token", "good-token", "whoami")
		require.NoError(t, err)
		assert.Equal(t, "Alice <alice@example.com> (u-1)\n", out)
	})

	t.Run("WhoamiWithoutSession", func(t *testing.T) {
		_, err := run(t, server, "whoami")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not signed in")
	})

	t.Run("Dashboard", func(t *testing.T) {
		out, err := run(t, server, "dashboard")
		require.NoError(t, err)
		assert.Regexp(t, `Total projects:\s+2`, out)
		assert.Regexp(t, `Archived:\s+1`, out)
		assert.Less(t, bytes.Index([]byte(out), []byte("Home Renovation")), bytes.Index([]byte(out), []byte("Final Year Thesis")))
	})
}

// syncBuffer lets the test read output while the watch loop writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBoardWatch_Shared(t *testing.T) {
	natsContainer := testnats.SetupSharedNATS(t)
	defer natsContainer.Cleanup(t)

	api := &stubAPI{}
	server := httptest.NewServer(api.router())
	defer server.Close()

	subject := "taskctl.watch.invalidations"
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- newApp(out).RunContext(ctx, []string{
			"taskctl", "--server", server.URL,
			"board", "--watch", "--nats-url", natsContainer.URL, "--nats-subject", subject, "1",
		})
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "To Do (2)") },
		5*time.Second, 20*time.Millisecond)
	assert.EqualValues(t, 1, api.ticketLists.Load())

	pub, err := events.NewNATSPublisher(natsContainer.URL, subject, logger.NewNop())
	require.NoError(t, err)
	defer pub.Close()

	// Publish until the subscriber is attached and the board redraws.
	moved := events.Invalidation{Kind: events.KindTicket, Action: events.ActionUpdated, ID: 11, ProjectID: 1}
	require.Eventually(t, func() bool {
		require.NoError(t, pub.Publish(ctx, moved))
		return strings.Contains(out.String(), "--- updated")
	}, 5*time.Second, 100*time.Millisecond)

	// The cached ticket list was dropped, so the redraw refetched it.
	assert.GreaterOrEqual(t, api.ticketLists.Load(), int32(2))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
