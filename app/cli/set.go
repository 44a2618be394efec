package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	actx "go.hackfix.me/kvdb/app/context"
	aerrors "go.hackfix.me/kvdb/app/errors"
	"go.hackfix.me/kvdb/client"
)

// The Set command stores the value of a key.
type Set struct {
	Key   string `arg:"" help:"The unique key that identifies the value."`
	Value string `arg:"" help:"The value. If '-', it's read from stdin (pass it after '--')."`

	Address string        `default:"127.0.0.1:4000" help:"[host]:port of the server."`
	Timeout time.Duration `default:"10s" help:"Maximum time to wait for the server."`
}

// Run the set command.
func (c *Set) Run(appCtx *actx.Context) error {
	value := c.Value
	if value == "-" {
		data, err := io.ReadAll(appCtx.Stdin)
		if err != nil {
			return aerrors.NewRuntimeError("failed reading value from stdin", err, "")
		}
		value = strings.TrimRight(string(data), "\r\n")
	}

	resp, err := client.New(c.Address, c.Timeout).Set(appCtx.Ctx, c.Key, value)
	if err != nil {
		return aerrors.NewRuntimeError("failed sending set request", err,
			"Is the server running?")
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server rejected the request with status '%s'", resp.Status)
	}

	return nil
}
