// Package admin implements an optional HTTP endpoint for operators, which
// reports the health and size of a running store.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"go.hackfix.me/kvdb/store"
)

// Server is a wrapper around http.Server serving the admin API.
type Server struct {
	*http.Server
	logger *slog.Logger
}

// New returns a new Server instance.
func New(st store.Store, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		Server: &http.Server{
			Handler:           Router(st, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// Listen binds to the TCP address addr.
func (s *Server) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed binding admin server to address '%s': %w", addr, err)
	}

	s.Addr = ln.Addr().String()
	s.logger.Info("started admin server", "address", s.Addr)

	return ln, nil
}

// Serve serves HTTP requests on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("failed shutting down admin server", "error", err)
		}
	})
	defer stop()

	err := s.Server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

type statsResponse struct {
	Keys int `json:"keys"`
}

// Router returns the admin API router.
func Router(st store.Store, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.Recoverer)

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, &statsResponse{Keys: st.Len()})
	})

	return r
}
