package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"taskboard/internal/httputil"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *bun.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker is a dependency that can report its own health, such as the
// NATS events publisher.
type Checker interface {
	HealthCheck() error
}

type dependency struct {
	name    string
	checker Checker
}

type Handler struct {
	db     Pinger
	deps   []dependency
	logger *slog.Logger
}

func NewHandler(db Pinger, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// WithCheck adds a dependency that /ready must also see healthy.
func (h *Handler) WithCheck(name string, c Checker) *Handler {
	h.deps = append(h.deps, dependency{name: name, checker: c})
	return h
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type Response struct {
	Status string `json:"status"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, Response{Status: "ok"})
}

// Ready reports whether the database answers within two seconds and every
// registered dependency is healthy.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.unavailable(w, r, "database", err)
		return
	}
	for _, dep := range h.deps {
		if err := dep.checker.HealthCheck(); err != nil {
			h.unavailable(w, r, dep.name, err)
			return
		}
	}
	httputil.RespondWithJSON(w, http.StatusOK, Response{Status: "ready"})
}

func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request, dependency string, err error) {
	h.logger.WarnContext(r.Context(), "readiness check failed", "dependency", dependency, "error", err)
	httputil.RespondWithJSON(w, http.StatusServiceUnavailable, Response{Status: "unavailable"})
}
