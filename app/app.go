package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.hackfix.me/kvdb/app/cli"
	actx "go.hackfix.me/kvdb/app/context"
	aerrors "go.hackfix.me/kvdb/app/errors"
)

// App is the application.
type App struct {
	ctx *actx.Context
	cli *cli.CLI

	Exit func(int)
}

// New initializes a new application. A filesystem must be set with WithFS.
func New(opts ...Option) *App {
	defaultCtx := &actx.Context{
		Ctx:      context.Background(),
		Version:  actx.GetVersion().String(),
		DataDir:  "/kvdb",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		LogLevel: &slog.LevelVar{},
		Stdin:    eofReader{},
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	app := &App{ctx: defaultCtx, Exit: func(int) {}}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// Run parses the command-line arguments and runs the selected command.
func (app *App) Run(args []string) error {
	if app.ctx.FS == nil {
		return errors.New("no filesystem configured")
	}

	app.cli = &cli.CLI{}
	parser, err := app.cli.Setup(app.ctx, app.Exit)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	app.ctx.LogLevel.Set(app.cli.LogLevel)

	return kctx.Run(app.ctx)
}

// FatalIfErrorf terminates the application with an error message if err != nil.
func (app *App) FatalIfErrorf(err error, args ...any) {
	if err == nil {
		return
	}

	var errCause aerrors.WithCause
	if errors.As(err, &errCause) && errCause.Cause() != nil {
		args = append(args, "cause", errCause.Cause())
	}
	var errHint aerrors.WithHint
	if errors.As(err, &errHint) && errHint.Hint() != "" {
		args = append(args, "hint", errHint.Hint())
	}

	app.ctx.Logger.Error(err.Error(), args...)
	app.Exit(1)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
