// Package snapshot persists the contents of a key-value store to a single file.
//
// The file holds a flat JSON object mapping keys to values. It is read once at
// startup and rewritten in full at shutdown, by writing a temporary file next
// to it and renaming it over the original. The replacement is only atomic on
// filesystems whose rename overwrites the target, such as osfs. On others the
// original is removed before the rename.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// ErrCorrupt is returned by Load when the snapshot file exists but its contents
// can't be decoded.
var ErrCorrupt = errors.New("corrupt snapshot")

// File is a snapshot stored at a path on a filesystem.
type File struct {
	fs   vfs.FileSystem
	path string
}

// New returns a new File for the snapshot at path.
func New(fs vfs.FileSystem, path string) *File {
	return &File{fs: fs, path: path}
}

// Path returns the location of the snapshot file.
func (f *File) Path() string {
	return f.path
}

// Load reads the snapshot. A missing or empty file results in an empty map
// and no error, since that is the state of a first run.
func (f *File) Load() (map[string]string, error) {
	data, err := vfs.ReadFile(f.fs, f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed reading snapshot '%s': %w", f.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	var kv map[string]string
	if err = json.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrCorrupt, f.path, err)
	}
	if kv == nil {
		// The file contained a JSON null.
		kv = map[string]string{}
	}

	return kv, nil
}

// Save replaces the snapshot with the contents of kv.
func (f *File) Save(kv map[string]string) error {
	if kv == nil {
		kv = map[string]string{}
	}
	data, err := json.Marshal(kv)
	if err != nil {
		return fmt.Errorf("failed encoding snapshot: %w", err)
	}

	if err = f.fs.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed creating snapshot directory: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err = f.writeFile(tmpPath, data); err != nil {
		_ = f.fs.Remove(tmpPath)
		return err
	}

	if err = f.replace(tmpPath); err != nil {
		_ = f.fs.Remove(tmpPath)
		return fmt.Errorf("failed replacing snapshot '%s': %w", f.path, err)
	}

	return nil
}

// replace renames tmpPath to the snapshot path.
func (f *File) replace(tmpPath string) error {
	err := f.fs.Rename(tmpPath, f.path)
	if err == nil || !errors.Is(err, fs.ErrExist) {
		return err
	}

	if err = f.fs.Remove(f.path); err != nil {
		return err
	}

	return f.fs.Rename(tmpPath, f.path)
}

func (f *File) writeFile(path string, data []byte) error {
	file, err := f.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed opening '%s': %w", path, err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed writing '%s': %w", path, err)
	}

	if err = file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed syncing '%s': %w", path, err)
	}

	return file.Close()
}
