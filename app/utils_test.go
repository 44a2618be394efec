package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

type testApp struct {
	*App
	stdout, stderr *hookWriter
}

func newTestApp(ctx context.Context, options ...Option) *testApp {
	stdoutW, stderrW := newHookWriter(ctx), newHookWriter(ctx)

	opts := []Option{
		WithContext(ctx),
		WithFDs(eofReader{}, stdoutW, stderrW),
		WithFS(memoryfs.New()),
		WithDataDir("/data"),
		WithLogger(false),
	}
	opts = append(opts, options...)

	return &testApp{App: New(opts...), stdout: stdoutW, stderr: stderrW}
}

// Run runs the app with the given arguments. Output written during the run is
// available in the stdout and stderr buffers afterwards.
func (ta *testApp) Run(args ...string) error {
	err := ta.App.Run(args)
	ta.flushOutputs()
	return err
}

func (ta *testApp) flushOutputs() {
	ta.stdout.flush()
	ta.stderr.flush()
}

// hookWriter is an io.Writer implementation that listens for writes and
// notifies subscribers when specific text is written.
type hookWriter struct {
	*bytes.Buffer               // main buffer read by tests
	tmp           *bytes.Buffer // temp buffer written to during each command
	ctx           context.Context
	w             chan []byte
	mx            sync.RWMutex
	subs          []chan []byte
}

func newHookWriter(ctx context.Context) *hookWriter {
	hw := &hookWriter{
		Buffer: &bytes.Buffer{},
		tmp:    &bytes.Buffer{},
		ctx:    ctx,
		w:      make(chan []byte, 10),
		subs:   make([]chan []byte, 0),
	}

	go func() {
		for {
			select {
			case d := <-hw.w:
				hw.mx.RLock()
				for _, s := range hw.subs {
					// Subscribers that are done or slow miss writes rather
					// than blocking the writer.
					select {
					case s <- d:
					default:
					}
				}
				hw.mx.RUnlock()
			case <-hw.ctx.Done():
				return
			}
		}
	}()

	return hw
}

// waitFor starts a goroutine that listens to written data and writes to wCh
// if there's a match of the provided regex pattern.
// If matchIdx > 0, it writes the matched element at that index. This is useful
// for returning substrings.
func (hw *hookWriter) waitFor(rxPat string, matchIdx int, wCh chan string) {
	rx := regexp.MustCompile(rxPat)

	ch := make(chan []byte, 100)
	hw.mx.Lock()
	hw.subs = append(hw.subs, ch)
	hw.mx.Unlock()

	go func() {
		for {
			select {
			case d := <-ch:
				match := rx.FindStringSubmatch(string(d))
				if len(match) > matchIdx {
					wCh <- match[matchIdx]
					return
				}
			case <-hw.ctx.Done():
				return
			}
		}
	}()
}

func (hw *hookWriter) Write(p []byte) (n int, err error) {
	hw.mx.Lock()
	n, err = hw.tmp.Write(p)
	hw.mx.Unlock()
	if err != nil {
		return
	}

	d := make([]byte, len(p))
	copy(d, p)
	select {
	case hw.w <- d:
	case <-hw.ctx.Done():
	}
	return
}

// flush replaces the main buffer contents with what was written since the last
// flush.
func (hw *hookWriter) flush() {
	hw.mx.Lock()
	defer hw.mx.Unlock()
	hw.Buffer.Reset()
	_, _ = hw.Buffer.ReadFrom(hw.tmp)
	hw.tmp.Reset()
}

// newTestContext returns a context that times out after timeout, and an
// assertion handling function that cancels the context prematurely and fails
// the test if the assertion fails. This is done to avoid waiting for the
// context timeout to be reached.
func newTestContext(t *testing.T, timeout time.Duration) (
	ctx context.Context, cancelCtx func(), assertHandler func(bool),
) {
	ctx, cancelCtx = context.WithTimeout(context.Background(), timeout)
	assertHandler = func(success bool) {
		if !success {
			cancelCtx()
			t.FailNow()
		}
	}

	return
}

var errReadOnly = errors.New("read-only filesystem")

// readOnlyFS rejects opening files for writing.
type readOnlyFS struct {
	vfs.FileSystem
}

func (r readOnlyFS) OpenFile(name string, flags int, perm os.FileMode) (vfs.File, error) {
	if flags&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: errReadOnly}
	}
	return r.FileSystem.OpenFile(name, flags, perm)
}
