package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/events"
	"taskboard/internal/logger"
	"taskboard/internal/project"
	"taskboard/internal/seed"
	"taskboard/internal/telemetry"
	"taskboard/internal/ticket"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config    *config.Config
	server    *http.Server
	db        *bun.DB
	publisher events.Publisher
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
}

func New(ctx context.Context) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "git_commit", GitCommit, "build_time", BuildTime)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := tel.Metrics.DB().RegisterDB(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, database); err != nil {
		database.Close()
		return nil, err
	}

	if cfg.Seed.Enabled {
		projects := project.NewRepository(database, tel.Metrics.DB())
		tickets := ticket.NewRepository(database, tel.Metrics.DB())
		if _, err := seed.Run(ctx, projects, tickets, slogLogger); err != nil {
			database.Close()
			return nil, err
		}
	}

	publisher, err := events.NewPublisher(cfg.Events, slogLogger)
	if err != nil {
		// Invalidations are advisory; the API works without them.
		slogLogger.Warn("failed to initialize events publisher", "driver", cfg.Events.Driver, "error", err)
		publisher = events.Noop{}
	}

	router := NewRouter(Deps{
		DB:        database,
		Config:    cfg,
		Logger:    slogLogger,
		Metrics:   tel.Metrics,
		Publisher: publisher,
	})

	app := &App{
		config: cfg,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		},
		db:        database,
		publisher: publisher,
		telemetry: tel,
		logger:    slogLogger,
	}

	slogLogger.Info("application initialized successfully")
	return app, nil
}

// Run blocks until the server stops. A graceful Shutdown is not an error.
func (a *App) Run() error {
	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events publisher: %w", err))
	}
	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	return errors.Join(errs...)
}
