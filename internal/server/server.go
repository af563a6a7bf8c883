// Package server wires the englishhub HTTP API: middleware, routes and a
// signal-aware listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/englishhub/englishhub/internal/content"
	"github.com/englishhub/englishhub/internal/handler"
	"github.com/englishhub/englishhub/internal/metrics"
	"github.com/englishhub/englishhub/internal/server/middleware"
	"github.com/englishhub/englishhub/internal/service"
	"github.com/englishhub/englishhub/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	Version         string

	// LoginRateLimit is login attempts per client IP per minute; zero
	// disables the limit.
	LoginRateLimit int

	// TrustProxyHeaders takes the client IP from X-Forwarded-For,
	// X-Real-IP or True-Client-IP. Enable it only behind a proxy that
	// overwrites those headers, otherwise clients choose their own IP.
	TrustProxyHeaders bool
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRateLimit:  10,
		Version:         "dev",
	}
}

// Deps are the components the routes are served from. Metrics may be nil.
type Deps struct {
	Backend  store.Backend
	Content  *content.Repository
	Sessions *service.SessionService
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server is the englishhub HTTP server.
type Server struct {
	cfg    Config
	deps   Deps
	router chi.Router
	logger *slog.Logger
}

// New creates a Server with every route mounted. Call ListenAndServe to
// start accepting connections.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, deps: deps, logger: deps.Logger}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger, s.deps.Metrics))
	r.Use(chimw.Recoverer)
	if s.cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Location"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	sys := handler.NewSystemHandler(s.deps.Backend, s.cfg.Version, s.logger)
	contents := handler.NewContentHandler(s.deps.Content, s.deps.Metrics, s.logger)
	sessions := handler.NewSessionHandler(s.deps.Sessions, s.logger)

	r.Get("/healthz", sys.Healthz)
	r.Get("/readyz", sys.Readyz)
	r.Get("/openapi.json", sys.OpenAPI)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog reads are public.
		r.Get("/content", contents.List)
		r.Get("/content/{id}", contents.Get)
		r.Get("/categories/{category}/content", contents.ListByCategory)

		r.With(middleware.LoginRateLimit(s.cfg.LoginRateLimit)).
			Post("/admin/session", sessions.Login)
		r.Get("/admin/session", sessions.Status)
		r.Delete("/admin/session", sessions.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(s.deps.Sessions))

			r.Put("/admin/password", sessions.ChangePassword)
			r.Post("/content", contents.Create)
			r.Delete("/content", contents.DeleteAll)
			r.Delete("/content/{id}", contents.Delete)
		})
	})

	s.router = r
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// ListenAndServe listens on the configured address and serves until ctx is
// done or SIGINT/SIGTERM arrives, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener, which it closes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown requested, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
