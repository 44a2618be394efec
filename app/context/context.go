package context

import (
	"context"
	"io"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx      context.Context
	Version  string
	FS       vfs.FileSystem
	DataDir  string // default location of the snapshot and pages
	Logger   *slog.Logger
	LogLevel *slog.LevelVar

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}
