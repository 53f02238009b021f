// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled in one place:
//
//	sqlite.DB → AccountService → AccountHandler → routes
//	          ↘ TokenService (JWT)
//	          ↘ PasswordService (bcrypt)
//
// The handler never touches the database directly; the service never touches
// HTTP. main.go stays minimal — it loads config and calls New/Start.
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

	"github.com/sakif/account-service/internal/auth"
	"github.com/sakif/account-service/internal/config"
	"github.com/sakif/account-service/internal/handler"
	"github.com/sakif/account-service/internal/middleware"
	sqliteRepo "github.com/sakif/account-service/internal/repository/sqlite"
	"github.com/sakif/account-service/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection: when it shuts down, the
// connection is closed to flush pending writes and release the file lock.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// Construction fails if the database can't be opened or the signing secret
// is unusable — both are startup problems the process must not run past.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
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
//
//	POST   /api/signup          → create account, returns account + token
//	POST   /api/login           → authenticate, returns token
//	GET    /api/accounts        → list accounts
//	GET    /api/accounts/{id}   → get one account
//	PATCH  /api/accounts/{id}   → partial update
//	DELETE /api/accounts/{id}   → delete, returns removed account
//	GET    /api/me              → the authenticated account (bearer token)
//
// MIDDLEWARE ORDER MATTERS — RequestID and RealIP run first so the logger
// sees them; Recoverer catches panics before they kill the connection.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	accountService := service.NewAccountService(s.db, tokens, passwords, s.logger)
	accountHandler := handler.NewAccountHandler(accountService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/signup", accountHandler.HandleSignup)
		r.Post("/login", accountHandler.HandleLogin)
		r.Get("/accounts", accountHandler.HandleList)
		r.Get("/accounts/{id}", accountHandler.HandleGet)
		r.Patch("/accounts/{id}", accountHandler.HandleUpdate)
		r.Delete("/accounts/{id}", accountHandler.HandleDelete)
		r.With(auth.RequireAuth(tokens)).Get("/me", accountHandler.HandleMe)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown:
//
//  1. Stop accepting new connections on SIGINT/SIGTERM
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
