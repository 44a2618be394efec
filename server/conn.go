package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.hackfix.me/kvdb/protocol"
	"go.hackfix.me/kvdb/store"
)

// Apply runs cmd against st and returns its outcome.
func Apply(st store.Store, cmd protocol.Command) protocol.Outcome {
	switch cmd.Op {
	case protocol.OpGet:
		if val, ok := st.Get(cmd.Key); ok {
			return protocol.Outcome{Kind: protocol.Found, Value: val}
		}
	case protocol.OpSet:
		st.Set(cmd.Key, cmd.Value)
		return protocol.Outcome{Kind: protocol.Stored}
	}

	return protocol.Outcome{Kind: protocol.NotFound}
}

// handleConn reads a single request from conn, applies it to the store and
// writes the response. Unrecognized requests are dropped without a response.
// Requests that are empty or malformed get a not found response.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger := s.logger.With("remote_addr", conn.RemoteAddr().String())

	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return fmt.Errorf("failed setting read deadline: %w", err)
		}
	}

	buf := make([]byte, protocol.BufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed reading request: %w", err)
	}

	var out protocol.Outcome
	cmd, err := protocol.Parse(buf[:n])
	switch {
	case errors.Is(err, protocol.ErrUnrecognized):
		logger.Debug("dropping unrecognized request")
		return nil
	case err != nil:
		logger.Warn("rejecting request", "error", err)
		out = protocol.Outcome{Kind: protocol.NotFound}
	default:
		out = Apply(s.store, cmd)
		logger.Info(cmd.Op.String(), "key", cmd.Key, "outcome", out.Kind.String())
	}

	return s.respond(conn, out)
}

func (s *Server) respond(w io.Writer, out protocol.Outcome) error {
	body, err := s.pages.Body(out.Kind)
	if err != nil {
		return err
	}

	resp := out.Status() + body
	if out.Kind == protocol.Found {
		resp += out.Value
	}

	if _, err = io.WriteString(w, resp); err != nil {
		return fmt.Errorf("failed writing response: %w", err)
	}

	return nil
}
