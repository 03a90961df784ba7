// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes,
// and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and builds the logger, then:
//
//	Server.New() creates:
//	  sqlite.DB ─────────────┬─→ AuthService ─────→ AuthHandler
//	  TokenService ──────────┤
//	  GitHubProvider ────────┘
//	  sqlite.DB ─────────────┬─→ AnalysisService ─→ AnalysisHandler
//	  remote.Client ─────────┘
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
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

	"github.com/sakif/video-guides/internal/auth"
	"github.com/sakif/video-guides/internal/config"
	"github.com/sakif/video-guides/internal/handler"
	"github.com/sakif/video-guides/internal/middleware"
	"github.com/sakif/video-guides/internal/processor/remote"
	sqliteRepo "github.com/sakif/video-guides/internal/repository/sqlite"
	"github.com/sakif/video-guides/internal/service"
)

// writeSlack is added to the processor timeout to get the HTTP write
// timeout, leaving room to save the result and write the response.
const writeSlack = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). Start closes it during
// graceful shutdown; callers that never Start must call Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New creates a Server from validated configuration.
//
// WIRING ORDER:
//  1. Database (sqlite.New runs migrations)
//  2. Session tokens and the GitHub identity provider
//  3. Processor client
//  4. Services, then handlers, then routes
//
// Each layer only receives what it needs: services get repository interfaces
// (the same *sqlite.DB satisfies both), handlers get services.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /api/validate-url          → inline URL check (public, session optional)
// GET    /auth/github/login         → redirect to GitHub
// GET    /auth/github/callback      → finish OAuth, set session cookie
// POST   /auth/logout               → clear session cookie
// POST   /api/analyses              → analyse a video        (auth)
// GET    /api/analyses              → caller's history        (auth)
// GET    /api/analyses/{id}         → one stored analysis     (auth)
// GET    /api/me                    → profile + entitlement   (auth)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (the logger reads it)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Processor ===
	proc, err := remote.New(remote.Config{
		Endpoint:     s.config.ProcessorURL,
		APIKey:       s.config.ProcessorAPIKey,
		Timeout:      s.config.ProcessorTimeout,
		MaxBodyBytes: remote.DefaultConfig().MaxBodyBytes,
	}, nil, s.logger)
	if err != nil {
		return fmt.Errorf("creating processor client: %w", err)
	}

	// === Services ===
	// s.db implements UserRepository and AnalysisRepository, so it is passed twice.
	authService := service.NewAuthService(s.db, s.tokens, s.config.DefaultCredits, s.logger)
	analysisService := service.NewAnalysisService(s.db, s.db, proc, s.logger)

	// === Handlers ===
	github := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	authHandler := handler.NewAuthHandler(github, authService, s.logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, s.logger)

	// === Auth Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.With(auth.OptionalAuth(s.tokens)).Get("/validate-url", analysisHandler.HandleValidateURL)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/analyses", analysisHandler.HandleGenerate)
			r.Get("/analyses", analysisHandler.HandleList)
			r.Get("/analyses/{id}", analysisHandler.HandleGetByID)
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start does this itself on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish
// 3. Close the database connection (flushes WAL, releases file lock)
//
// An analysis can be waiting on the processor for up to PROCESSOR_TIMEOUT,
// so both the write timeout and the shutdown grace period are derived from it.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.ProcessorTimeout + writeSlack,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("processor", s.config.ProcessorURL),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ProcessorTimeout+writeSlack)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
