package cli

import (
	"log/slog"
	"path/filepath"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/kvdb/app/context"
)

// CLI is the command line interface of kvdb.
type CLI struct {
	Serve Serve `kong:"cmd,help='Start the key-value server.'"`
	Get   Get   `kong:"cmd,help='Get the value of a key from a running server.'"`
	Set   Set   `kong:"cmd,help='Set the value of a key on a running server.'"`
	Dump  Dump  `kong:"cmd,help='Print the contents of a snapshot file.'"`
	Init  Init  `kong:"cmd,help='Write the default response pages.'"`

	LogLevel slog.Level       `default:"INFO" help:"Set the app logging level."`
	Version  kong.VersionFlag `help:"Output version and exit."`
}

// Setup the command-line interface.
func (c *CLI) Setup(appCtx *actx.Context, exitFn func(int)) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("kvdb"),
		kong.Description("A minimal persistent key-value store."),
		kong.UsageOnError(),
		kong.DefaultEnvars("KVDB"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Exit(exitFn),
		kong.Writers(appCtx.Stdout, appCtx.Stderr),
		kong.Vars{
			"version":       appCtx.Version,
			"snapshot_path": filepath.Join(appCtx.DataDir, "persist.json"),
			"pages_dir":     filepath.Join(appCtx.DataDir, "pages"),
		},
	)
}
