package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	actx "go.hackfix.me/kvdb/app/context"
	aerrors "go.hackfix.me/kvdb/app/errors"
	"go.hackfix.me/kvdb/server"
	"go.hackfix.me/kvdb/server/admin"
	"go.hackfix.me/kvdb/snapshot"
	"go.hackfix.me/kvdb/store/memory"
)

// Serve loads the snapshot, serves requests until the process is interrupted,
// and writes the snapshot back.
type Serve struct {
	Address               string        `default:"127.0.0.1:4000" help:"[host]:port to listen on."`
	Snapshot              string        `default:"${snapshot_path}" help:"Path to the snapshot file."`
	PagesDir              string        `default:"${pages_dir}" help:"Directory containing the response pages."`
	ReadTimeout           time.Duration `default:"0s" help:"Maximum time to wait for a client request. 0 waits forever."`
	AdminAddress          string        `help:"[host]:port of the admin HTTP endpoint. Disabled if not set."`
	IgnoreCorruptSnapshot bool          `help:"Start with an empty store if the snapshot can't be decoded."`
}

// Run the serve command.
func (s *Serve) Run(appCtx *actx.Context) error {
	ctx, stop := signal.NotifyContext(appCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := appCtx.Logger
	snap := snapshot.New(appCtx.FS, s.Snapshot)

	data, err := snap.Load()
	if err != nil {
		if !errors.Is(err, snapshot.ErrCorrupt) {
			return aerrors.NewRuntimeError("failed loading snapshot", err, "")
		}
		if !s.IgnoreCorruptSnapshot {
			return aerrors.NewRuntimeError("failed loading snapshot", err,
				"Restore the file from a backup, or run with --ignore-corrupt-snapshot to start with an empty store.")
		}
		logger.Warn("ignoring corrupt snapshot", "path", snap.Path(), "error", err)
	}

	st := memory.New(data)
	logger.Info("loaded snapshot", "path", snap.Path(), "keys", st.Len())

	srv := server.New(st, server.NewPages(appCtx.FS, s.PagesDir), logger,
		server.WithReadTimeout(s.ReadTimeout))
	ln, err := srv.Listen(s.Address)
	if err != nil {
		return aerrors.NewRuntimeError("failed starting server", err, "")
	}

	adminErrCh := make(chan error, 1)
	if s.AdminAddress != "" {
		adm := admin.New(st, logger)
		aln, err := adm.Listen(s.AdminAddress)
		if err != nil {
			ln.Close()
			return aerrors.NewRuntimeError("failed starting admin server", err, "")
		}
		go func() {
			adminErrCh <- adm.Serve(ctx, aln)
		}()
	} else {
		adminErrCh <- nil
	}

	serveErr := srv.Serve(ctx, ln)
	stop()
	adminErr := <-adminErrCh

	if err = flush(appCtx, snap, st); err != nil {
		return err
	}

	if serveErr != nil {
		return aerrors.NewRuntimeError("server stopped unexpectedly", serveErr, "")
	}
	if adminErr != nil {
		return aerrors.NewRuntimeError("admin server stopped unexpectedly", adminErr, "")
	}

	return nil
}

// flush writes the store contents to the snapshot. It must be called once,
// after the server stops accepting requests.
func flush(appCtx *actx.Context, snap *snapshot.File, st *memory.Memory) error {
	kv := st.Snapshot()
	if err := snap.Save(kv); err != nil {
		appCtx.Logger.Error("failed flushing store to snapshot, in-memory data is lost",
			"path", snap.Path(), "keys", len(kv), "error", err)
		return aerrors.NewRuntimeError("failed saving snapshot", err, "")
	}

	appCtx.Logger.Info("flushed store to snapshot", "path", snap.Path(), "keys", len(kv))

	return nil
}
