package cli

import (
	"fmt"

	actx "go.hackfix.me/kvdb/app/context"
	aerrors "go.hackfix.me/kvdb/app/errors"
	"go.hackfix.me/kvdb/server"
)

// The Init command writes the default response pages served by the server.
type Init struct {
	PagesDir string `default:"${pages_dir}" help:"Directory to write the response pages to."`
	Force    bool   `help:"Overwrite existing pages."`
}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context) error {
	written, err := server.NewPages(appCtx.FS, c.PagesDir).WriteDefaults(c.Force)
	if err != nil {
		return aerrors.NewRuntimeError("failed writing response pages", err, "")
	}

	for _, path := range written {
		appCtx.Logger.Debug("wrote response page", "path", path)
		fmt.Fprintln(appCtx.Stdout, path)
	}

	return nil
}
