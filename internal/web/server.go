// Package web wires the HTTP server for the attendance API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/patrikzak/attendo/internal/attendance"
	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/recognizer"
	"github.com/patrikzak/attendo/internal/web/middleware"
)

// Server represents the web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	store      database.Store
	recognizer *recognizer.Recognizer
	attendance *attendance.Service
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, store database.Store, rec *recognizer.Recognizer) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		router:     r,
		store:      store,
		recognizer: rec,
		attendance: attendance.NewService(store),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
