package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.hackfix.me/kvdb/store"
)

// maxAcceptDelay caps the wait between retries of a failed accept.
const maxAcceptDelay = time.Second

// Server accepts connections and serves get and set requests against a store.
// Connections are handled one at a time, in the order they are accepted.
type Server struct {
	store       store.Store
	pages       *Pages
	logger      *slog.Logger
	readTimeout time.Duration
}

// Option is a function that allows configuring the server.
type Option func(*Server)

// WithReadTimeout sets the maximum time to wait for a client to send its
// request. A zero value waits forever.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = d
	}
}

// New returns a new Server instance.
func New(st store.Store, pages *Pages, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{store: st, pages: pages, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Listen binds to the TCP address addr. The bound address is logged, which
// is needed to know it when starting the server with port 0.
func (s *Server) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed binding to address '%s': %w", addr, err)
	}

	s.logger.Info("started server", "address", ln.Addr().String())

	return ln, nil
}

// Serve accepts connections on ln and handles them sequentially until ctx is
// done, in which case it returns nil. Cancelling ctx also aborts the connection
// being handled. Errors handling a single connection are logged, and don't stop
// the server. Temporary accept errors, such as running out of file descriptors,
// are retried with an increasing delay.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("stopped server")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() { //nolint:staticcheck
				tempDelay = min(max(2*tempDelay, 5*time.Millisecond), maxAcceptDelay)
				s.logger.Warn("failed accepting connection, retrying",
					"error", err, "delay", tempDelay)
				select {
				case <-time.After(tempDelay):
				case <-ctx.Done():
				}
				continue
			}
			return fmt.Errorf("failed accepting connection: %w", err)
		}
		tempDelay = 0

		if err = s.handleConn(ctx, conn); err != nil {
			s.logger.Error("failed handling connection",
				"remote_addr", conn.RemoteAddr().String(), "error", err)
		}
	}
}
