package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/kvdb/app"
)

func main() {
	isStderrTTY := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	var stderr io.Writer = os.Stderr
	if isStderrTTY {
		stderr = colorable.NewColorable(os.Stderr)
	}

	a := app.New(
		app.WithFS(osfs.New()),
		app.WithDataDir(filepath.Join(xdg.DataHome, "kvdb")),
		app.WithFDs(os.Stdin, os.Stdout, stderr),
		app.WithLogger(isStderrTTY),
		app.WithExit(os.Exit),
	)
	a.FatalIfErrorf(a.Run(os.Args[1:]))
}
