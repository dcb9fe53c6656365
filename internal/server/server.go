// Package server wires the stub content service: router, middleware and
// the handler → service → repository chain.
//
// It is the composition root. Handlers only see service interfaces,
// services only see repository interfaces, and this file is the one place
// that knows the concrete types.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/postgen/internal/auth"
	"github.com/sakif/postgen/internal/composer/template"
	"github.com/sakif/postgen/internal/handler"
	"github.com/sakif/postgen/internal/middleware"
	sqliteRepo "github.com/sakif/postgen/internal/repository/sqlite"
	"github.com/sakif/postgen/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port   int
	DBPath string
	// CORSOrigin is a comma-separated list of allowed origins, or "*".
	CORSOrigin string
	Composer   template.Config
	// BcryptCost overrides the password hashing cost; zero keeps the
	// default. Tests set it to the minimum.
	BcryptCost int
}

// Server is the stub service and the resources it owns.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and builds the router.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
// POST   /api/auth/signup            → create account
// POST   /api/auth/login             → check credentials
// POST   /api/generate               → compose and store a post   [X-User-ID]
// GET    /api/posts                  → list own posts             [X-User-ID]
// GET    /api/posts/{id}             → get one post               [X-User-ID]
// DELETE /api/posts/{id}             → delete one post            [X-User-ID]
// GET    /user/{id}                  → profile                    [X-User-ID]
// PUT    /user/{id}                  → partial profile update     [X-User-ID]
// DELETE /user/{id}                  → delete account and posts   [X-User-ID]
// POST   /user/{id}/verify-password  → check current password     [X-User-ID]
//
// [X-User-ID] routes answer 401 when the header names no account.
//
// Middleware runs in the order it is added. CORS comes first so preflight
// requests are answered before anything else looks at them.
func (s *Server) setupRoutes() {
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(s.config.CORSOrigin),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.HeaderUserID, chimiddleware.RequestIDHeader},
		ExposedHeaders: []string{chimiddleware.RequestIDHeader},
		MaxAge:         300,
	}))
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswords()
	if s.config.BcryptCost > 0 {
		passwords = auth.NewPasswordsWithCost(s.config.BcryptCost)
	}

	accounts := service.NewAccountService(s.db, passwords, s.logger)
	posts := service.NewPostService(s.db, template.New(s.config.Composer, s.logger), s.logger)

	authHandler := handler.NewAuthHandler(accounts, s.logger)
	postHandler := handler.NewPostHandler(posts, s.logger)
	userHandler := handler.NewUserHandler(accounts, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireKnownUser(accounts))
			r.Post("/generate", postHandler.HandleGenerate)
			r.Get("/posts", postHandler.HandleList)
			r.Get("/posts/{id}", postHandler.HandleGetByID)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
		})
	})

	s.router.Route("/user/{id}", func(r chi.Router) {
		r.Use(auth.RequireKnownUser(accounts))
		r.Get("/", userHandler.HandleGet)
		r.Put("/", userHandler.HandleUpdate)
		r.Delete("/", userHandler.HandleDelete)
		r.Post("/verify-password", userHandler.HandleVerifyPassword)
	})
}

func corsOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Start serves until SIGINT or SIGTERM, then gives in-flight requests 30
// seconds to finish and closes the database.
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
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
