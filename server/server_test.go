package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/kvdb/protocol"
	"go.hackfix.me/kvdb/store/memory"
)

const (
	getPage      = "<p>found</p>"
	setPage      = "<p>stored</p>"
	notFoundPage = "<p>not found</p>"
)

func TestServer(t *testing.T) {
	t.Parallel()

	st := memory.New(nil)
	addr, _ := startTestServer(t, st, newTestPages(t))

	t.Run("ok/set_get", func(t *testing.T) {
		resp := sendRequest(t, addr, "GET /set?color=red HTTP/1.1\r\n\r\n")
		assert.Equal(t, protocol.StatusOK+setPage, resp)

		resp = sendRequest(t, addr, "GET /get?key=color HTTP/1.1\r\n\r\n")
		assert.Equal(t, protocol.StatusOK+getPage+"red", resp)
	})

	t.Run("ok/overwrite", func(t *testing.T) {
		sendRequest(t, addr, protocol.FormatSet("shape", "circle"))
		sendRequest(t, addr, protocol.FormatSet("shape", "square"))

		resp := sendRequest(t, addr, protocol.FormatGet("shape"))
		assert.Equal(t, protocol.StatusOK+getPage+"square", resp)
	})

	t.Run("ok/empty_value", func(t *testing.T) {
		resp := sendRequest(t, addr, "GET /set?empty= HTTP/1.1\r\n\r\n")
		assert.Equal(t, protocol.StatusOK+setPage, resp)

		resp = sendRequest(t, addr, protocol.FormatGet("empty"))
		assert.Equal(t, protocol.StatusOK+getPage, resp)
	})

	t.Run("ok/missing", func(t *testing.T) {
		resp := sendRequest(t, addr, protocol.FormatGet("missing"))
		assert.Equal(t, protocol.StatusNotFound+notFoundPage, resp)
	})

	t.Run("err/unrecognized", func(t *testing.T) {
		resp := sendRequest(t, addr, "GET /other HTTP/1.1\r\n\r\n")
		assert.Equal(t, "", resp)
	})

	t.Run("err/malformed", func(t *testing.T) {
		resp := sendRequest(t, addr, "GET /get?key= HTTP/1.1\r\n\r\n")
		assert.Equal(t, protocol.StatusNotFound+notFoundPage, resp)

		resp = sendRequest(t, addr, "GET /set?ab HTTP/1.1\r\n\r\n")
		assert.Equal(t, protocol.StatusNotFound+notFoundPage, resp)
	})

	t.Run("err/no_request", func(t *testing.T) {
		resp := sendRequest(t, addr, "")
		assert.Equal(t, protocol.StatusNotFound+notFoundPage, resp)
	})

	// The server must keep serving after all of the above.
	t.Run("ok/still_serving", func(t *testing.T) {
		resp := sendRequest(t, addr, protocol.FormatGet("color"))
		assert.Equal(t, protocol.StatusOK+getPage+"red", resp)
	})

	assert.Equal(t, map[string]string{"color": "red", "shape": "square", "empty": ""},
		st.Snapshot())
}

func TestServerMissingPages(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	pages := NewPages(fs, "/pages")
	addr, _ := startTestServer(t, memory.New(nil), pages)

	// The set is applied, but there's no response to send.
	resp := sendRequest(t, addr, protocol.FormatSet("a", "b"))
	assert.Equal(t, "", resp)

	_, err := pages.WriteDefaults(false)
	require.NoError(t, err)

	resp = sendRequest(t, addr, protocol.FormatGet("a"))
	assert.Regexp(t, `^HTTP/1.1 200 OK\r\n\r\n<!DOCTYPE html>(?s:.*)</html>\nb$`, resp)
}

func TestServerStopWithIdleClient(t *testing.T) {
	t.Parallel()

	addr, stop := startTestServer(t, memory.New(nil), newTestPages(t))

	// A client that connects and never sends anything blocks the server...
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// ... until it's stopped.
	err = stop()
	assert.NoError(t, err)
}

func TestServerReadTimeout(t *testing.T) {
	t.Parallel()

	logger := slog.New(tint.NewHandler(io.Discard, nil))
	srv := New(memory.New(nil), newTestPages(t), logger, WithReadTimeout(50*time.Millisecond))
	addr, _ := serveTestServer(t, srv)

	idle, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer idle.Close()

	// Served once the idle client times out.
	resp := sendRequest(t, addr, protocol.FormatSet("a", "b"))
	assert.Equal(t, protocol.StatusOK+setPage, resp)
}

func TestServerAcceptRetry(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fln := &flakyListener{Listener: ln, failures: 3}

	logger := slog.New(tint.NewHandler(io.Discard, nil))
	srv := New(memory.New(nil), newTestPages(t), logger)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, fln)
	}()

	resp := sendRequest(t, ln.Addr().String(), protocol.FormatSet("a", "b"))
	assert.Equal(t, protocol.StatusOK+setPage, resp)

	cancel()
	select {
	case err = <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server to stop")
	}
}

func TestServerAcceptError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln.Close()

	logger := slog.New(tint.NewHandler(io.Discard, nil))
	srv := New(memory.New(nil), newTestPages(t), logger)

	err = srv.Serve(context.Background(), ln)
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestApply(t *testing.T) {
	t.Parallel()

	st := memory.New(nil)

	out := Apply(st, protocol.NewGetCommand("k"))
	assert.Equal(t, protocol.Outcome{Kind: protocol.NotFound}, out)

	out = Apply(st, protocol.NewSetCommand("k", "v1"))
	assert.Equal(t, protocol.Outcome{Kind: protocol.Stored}, out)

	out = Apply(st, protocol.NewSetCommand("k", "v2"))
	assert.Equal(t, protocol.Outcome{Kind: protocol.Stored}, out)

	out = Apply(st, protocol.NewGetCommand("k"))
	assert.Equal(t, protocol.Outcome{Kind: protocol.Found, Value: "v2"}, out)
}

func TestPagesWriteDefaults(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	pages := NewPages(fs, "/data/pages")

	err := fs.MkdirAll("/data/pages", 0o755)
	require.NoError(t, err)
	err = vfs.WriteFile(fs, "/data/pages/404.html", []byte("custom"), 0o644)
	require.NoError(t, err)

	written, err := pages.WriteDefaults(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/pages/get_success.html", "/data/pages/set_success.html"}, written)

	body, err := pages.Body(protocol.NotFound)
	require.NoError(t, err)
	assert.Equal(t, "custom", body)

	written, err = pages.WriteDefaults(true)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	body, err = pages.Body(protocol.NotFound)
	require.NoError(t, err)
	assert.Contains(t, body, "<h1>Not Found</h1>")
}

func TestPagesMissing(t *testing.T) {
	t.Parallel()

	_, err := NewPages(memoryfs.New(), "/nope").Body(protocol.Found)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func newTestPages(t *testing.T) *Pages {
	t.Helper()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll("/pages", 0o755))
	for name, body := range map[string]string{
		PageGetSuccess: getPage,
		PageSetSuccess: setPage,
		PageNotFound:   notFoundPage,
	} {
		require.NoError(t, vfs.WriteFile(fs, "/pages/"+name, []byte(body), 0o644))
	}

	return NewPages(fs, "/pages")
}

func startTestServer(t *testing.T, st *memory.Memory, pages *Pages) (string, func() error) {
	t.Helper()

	logger := slog.New(tint.NewHandler(io.Discard, nil))
	return serveTestServer(t, New(st, pages, logger))
}

// serveTestServer starts srv on a random port, and returns its address and a
// function that stops it and returns the result of Serve.
func serveTestServer(t *testing.T, srv *Server) (string, func() error) {
	t.Helper()

	ln, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, ln)
	}()

	var (
		stopped bool
		result  error
	)
	stop := func() error {
		if stopped {
			return result
		}
		stopped = true
		cancel()
		select {
		case result = <-errCh:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for server to stop")
		}
		return result
	}
	t.Cleanup(func() { _ = stop() })

	return ln.Addr().String(), stop
}

// sendRequest writes req to the server and returns everything it replies.
func sendRequest(t *testing.T, addr, req string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	if req != "" {
		_, err = io.WriteString(conn, req)
		require.NoError(t, err)
	}
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)

	return string(resp)
}

type tempError struct{}

func (tempError) Error() string   { return "too many open files" }
func (tempError) Timeout() bool   { return false }
func (tempError) Temporary() bool { return true }

// flakyListener fails the first accepts with a temporary error.
type flakyListener struct {
	net.Listener
	failures int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	if l.failures > 0 {
		l.failures--
		return nil, tempError{}
	}
	return l.Listener.Accept()
}
