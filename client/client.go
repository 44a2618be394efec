package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.hackfix.me/kvdb/protocol"
)

// ErrNoResponse is returned when the server closes the connection without
// replying, which it does for requests it doesn't recognize.
var ErrNoResponse = errors.New("server sent no response")

// Client sends requests to a kvdb server.
type Client struct {
	address string
	timeout time.Duration
}

// Response is a reply from the server.
type Response struct {
	StatusCode int
	Status     string
	Body       string
}

// New returns a new Client for the server at address. Each request must
// complete within timeout; a zero value disables the timeout.
func New(address string, timeout time.Duration) *Client {
	return &Client{address: address, timeout: timeout}
}

// Get requests the value of key.
func (c *Client) Get(ctx context.Context, key string) (*Response, error) {
	if err := validate("key", key); err != nil {
		return nil, err
	}
	return c.do(ctx, protocol.FormatGet(key))
}

// Set requests storing value under key.
func (c *Client) Set(ctx context.Context, key, value string) (*Response, error) {
	if err := validate("key", key); err != nil {
		return nil, err
	}
	if err := validate("value", value); err != nil {
		return nil, err
	}
	if strings.Contains(key, "=") || strings.Contains(value, "=") {
		return nil, errors.New("key and value must not contain '='")
	}
	return c.do(ctx, protocol.FormatSet(key, value))
}

func (c *Client) do(ctx context.Context, req string) (*Response, error) {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return nil, fmt.Errorf("failed connecting to '%s': %w", c.address, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if c.timeout > 0 {
		if err = conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("failed setting deadline: %w", err)
		}
	}

	if len(req) > protocol.BufferSize {
		return nil, fmt.Errorf("request exceeds %d bytes", protocol.BufferSize)
	}

	if _, err = io.WriteString(conn, req); err != nil {
		return nil, fmt.Errorf("failed sending request: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err = tc.CloseWrite(); err != nil {
			return nil, fmt.Errorf("failed closing write side: %w", err)
		}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %w", err)
	}

	return ParseResponse(data)
}

// ParseResponse parses a raw server reply.
func ParseResponse(data []byte) (*Response, error) {
	if len(data) == 0 {
		return nil, ErrNoResponse
	}

	head, body, ok := strings.Cut(string(data), "\r\n\r\n")
	if !ok {
		return nil, fmt.Errorf("malformed response: missing status line terminator")
	}

	proto, status, ok := strings.Cut(head, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("malformed response status line '%s'", head)
	}

	codeStr, _, _ := strings.Cut(status, " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, fmt.Errorf("malformed response status code '%s'", codeStr)
	}

	return &Response{StatusCode: code, Status: status, Body: body}, nil
}

func validate(name, s string) error {
	if name == "key" && s == "" {
		return errors.New("key must not be empty")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%s must not contain whitespace", name)
	}
	return nil
}
