// Package manifest reads and writes project manifests as line sequences.
//
// A document is split on "\n" only, so joining the lines reproduces the
// input byte for byte: a trailing newline becomes a final empty line and
// "\r" stays attached to its line.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IOError reports a failed read or write of a manifest.
type IOError struct {
	Op   string // "read" | "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError returns true if err is or wraps an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// Document is a manifest loaded into memory.
type Document struct {
	Path  string
	Raw   []byte
	Lines []string
	Mode  fs.FileMode
}

// Read loads the manifest at path.
func Read(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &IOError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	return &Document{
		Path:  path,
		Raw:   raw,
		Lines: Split(raw),
		Mode:  info.Mode().Perm(),
	}, nil
}

// Split breaks content into lines on "\n".
func Split(content []byte) []string {
	return strings.Split(string(content), "\n")
}

// Join is the inverse of Split.
func Join(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// Write replaces the file at path with content.
//
// The content goes to a temporary file in the same directory which is then
// renamed over path, so readers see either the old or the new manifest and
// a failed write leaves the original untouched. The file keeps perm.
func Write(path string, content []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		tmp.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// WriteLines writes the document's path with lines, keeping its mode.
func (d *Document) WriteLines(lines []string) error {
	perm := d.Mode
	if perm == 0 {
		perm = 0o644
	}
	return Write(d.Path, Join(lines), perm)
}
