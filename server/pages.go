package server

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/kvdb/protocol"
)

//go:embed pages/*.html
var defaultPagesFS embed.FS

// Page file names.
const (
	PageGetSuccess = "get_success.html"
	PageSetSuccess = "set_success.html"
	PageNotFound   = "404.html"
)

// ErrNoResponse is returned when the page for a response can't be read.
var ErrNoResponse = errors.New("no response available")

// Pages reads the bodies sent in responses from a directory.
// Files are read on every response, so they can be edited while the server is
// running.
type Pages struct {
	fs  vfs.FileSystem
	dir string
}

// NewPages returns a new Pages instance that reads files from dir.
func NewPages(fs vfs.FileSystem, dir string) *Pages {
	return &Pages{fs: fs, dir: dir}
}

// Dir returns the directory pages are read from.
func (p *Pages) Dir() string {
	return p.dir
}

// Body returns the page for the given outcome kind.
func (p *Pages) Body(kind protocol.OutcomeKind) (string, error) {
	path := filepath.Join(p.dir, pageName(kind))
	data, err := vfs.ReadFile(p.fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: failed reading '%s': %w", ErrNoResponse, path, err)
	}

	return string(data), nil
}

// WriteDefaults writes the built-in pages to the pages directory, and returns
// the paths of the written files. Existing files are only replaced if force is
// true.
func (p *Pages) WriteDefaults(force bool) ([]string, error) {
	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating pages directory '%s': %w", p.dir, err)
	}

	written := []string{}
	for _, name := range []string{PageGetSuccess, PageSetSuccess, PageNotFound} {
		path := filepath.Join(p.dir, name)
		if !force {
			_, err := p.fs.Stat(path)
			if err == nil {
				continue
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return written, fmt.Errorf("failed checking '%s': %w", path, err)
			}
		}

		data, err := defaultPagesFS.ReadFile("pages/" + name)
		if err != nil {
			return written, err
		}
		if err = vfs.WriteFile(p.fs, path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed writing '%s': %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}

func pageName(kind protocol.OutcomeKind) string {
	switch kind {
	case protocol.Found:
		return PageGetSuccess
	case protocol.Stored:
		return PageSetSuccess
	default:
		return PageNotFound
	}
}
