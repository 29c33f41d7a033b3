package app

import (
	"log/slog"
	"net/http"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/health"
	"taskboard/internal/httputil"
	"taskboard/internal/metrics"
	"taskboard/internal/middleware"
	"taskboard/internal/project"
	"taskboard/internal/schema"
	"taskboard/internal/ticket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

type Deps struct {
	DB        *bun.DB
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Publisher events.Publisher
}

// NewRouter builds the HTTP API. Every resource route is served both at the
// root and under /api.
func NewRouter(d Deps) chi.Router {
	notifier := events.NewNotifier(d.Publisher, d.Logger).WithMetrics(d.Metrics.Events())
	validate := schema.NewValidator()

	projectRepo := project.NewRepository(d.DB, d.Metrics.DB())
	ticketRepo := ticket.NewRepository(d.DB, d.Metrics.DB())
	projectHandler := project.NewHandler(project.NewService(projectRepo, notifier, d.Metrics), validate, d.Logger)
	ticketHandler := ticket.NewHandler(ticket.NewService(ticketRepo, notifier, d.Metrics), validate, d.Logger)

	requireSession := auth.Anonymous
	var sessions *auth.Sessions
	if d.Config.Auth.Enabled {
		ttl := time.Duration(d.Config.Auth.SessionTTLMin) * time.Minute
		manager := auth.NewManager(d.Config.Auth.Secret, ttl)
		sessions = auth.NewSessions(manager, d.Config.Auth.CookieName, d.Config.Auth.LoginURL, ttl, d.Logger)
		requireSession = sessions.Middleware
	} else {
		d.Logger.Warn("authentication disabled, all requests run as the local user")
	}
	authHandler := auth.NewHandler(sessions, d.Logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS(d.Config.Server.CORSOrigins))

	healthHandler := health.NewHandler(d.DB, d.Logger)
	if checker, ok := d.Publisher.(health.Checker); ok {
		healthHandler.WithCheck("events", checker)
	}
	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	mount := func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			authHandler.RegisterRoutes(r)
			projectHandler.RegisterRoutes(r)
			ticketHandler.RegisterRoutes(r)
		})
	}
	mount(router)
	router.Route("/api", mount)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondWithError(w, http.StatusNotFound, "Not found")
	})

	return router
}
