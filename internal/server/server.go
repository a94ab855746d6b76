// Package server wires the application together: it builds the store, the
// gate for the configured identity model, the services and handlers, mounts
// the routes, and owns startup and graceful shutdown.
//
// The gate is chosen here, once, at startup. Handlers and the task service
// are identical under every identity model; only the middleware in front of
// them changes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabbir/taskboard/internal/auth"
	"github.com/sabbir/taskboard/internal/config"
	"github.com/sabbir/taskboard/internal/handler"
	"github.com/sabbir/taskboard/internal/metrics"
	"github.com/sabbir/taskboard/internal/middleware"
	sqliteRepo "github.com/sabbir/taskboard/internal/repository/sqlite"
	"github.com/sabbir/taskboard/internal/service"
)

// Server is the HTTP server and the dependencies it owns. The database
// connection is closed during shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain for the configured identity model.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(collector))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", metrics.Handler(registry))

	taskService := service.NewTaskService(s.db, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)

	var (
		gate     auth.Gate
		tokens   *auth.TokenService
		sessions *auth.SessionService
	)

	switch s.cfg.AuthMode {
	case config.ModeOpen:
		gate = auth.OpenGate{}

	case config.ModeBearer:
		var err error
		tokens, err = auth.NewTokenService(s.cfg.TokenSecret, s.cfg.TokenTTL)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		gate = auth.NewBearerGate(tokens, s.db, s.logger)

	case config.ModeSession:
		sessions = auth.NewSessionService(s.db, s.db, s.cfg.SessionTTL, s.logger)
		gate = auth.NewSessionGate(sessions, s.logger)

	default:
		return fmt.Errorf("unknown auth mode %q", s.cfg.AuthMode)
	}

	// Auth routes exist only when there is an identity to establish.
	if s.cfg.AuthMode != config.ModeOpen {
		authService := service.NewAuthService(s.db, s.logger)
		provider := auth.NewGitHubProvider(
			s.cfg.GitHubClientID,
			s.cfg.GitHubClientSecret,
			s.cfg.GitHubCallbackURL,
		)
		authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
			Mode:           s.cfg.AuthMode,
			Provider:       provider,
			Users:          authService,
			Tokens:         tokens,
			Sessions:       sessions,
			FrontendOrigin: s.cfg.FrontendOrigin,
			CookieSecure:   s.cfg.CookieSecure,
			Metrics:        collector,
			Logger:         s.logger,
		})

		s.router.Get("/auth/login", authHandler.HandleLogin)
		s.router.Get("/auth/callback", authHandler.HandleCallback)
		s.router.Group(func(r chi.Router) {
			r.Use(gate.Middleware)
			r.Get("/auth/me", authHandler.HandleMe)
		})
		if s.cfg.AuthMode == config.ModeSession {
			s.router.Get("/auth/logout", authHandler.HandleLogout)
		}
	}

	s.router.Group(func(r chi.Router) {
		r.Use(gate.Middleware)
		r.Get("/tasks", taskHandler.HandleList)
		r.Post("/tasks", taskHandler.HandleCreate)
		r.Put("/tasks/{id}", taskHandler.HandleUpdate)
		r.Delete("/tasks/{id}", taskHandler.HandleDelete)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("authMode", s.cfg.AuthMode),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
