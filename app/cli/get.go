package cli

import (
	"fmt"
	"net/http"
	"time"

	actx "go.hackfix.me/kvdb/app/context"
	aerrors "go.hackfix.me/kvdb/app/errors"
	"go.hackfix.me/kvdb/client"
)

// The Get command retrieves and prints the value of a key.
type Get struct {
	Key string `arg:"" help:"The unique key associated with the value."`

	Address string        `default:"127.0.0.1:4000" help:"[host]:port of the server."`
	Timeout time.Duration `default:"10s" help:"Maximum time to wait for the server."`
}

// Run the get command.
func (c *Get) Run(appCtx *actx.Context) error {
	resp, err := client.New(c.Address, c.Timeout).Get(appCtx.Ctx, c.Key)
	if err != nil {
		return aerrors.NewRuntimeError("failed sending get request", err,
			"Is the server running?")
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("key '%s' doesn't exist", c.Key)
	}

	fmt.Fprint(appCtx.Stdout, resp.Body)

	return nil
}
