package resource

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source reads the content addressed by a location.
type Source interface {
	ReadFile(location string) ([]byte, error)
}

// Dir reads locations as file paths. Relative paths are resolved
// against the directory.
type Dir string

// ReadFile reads the whole file at the location.
func (d Dir) ReadFile(location string) ([]byte, error) {
	if !filepath.IsAbs(location) {
		location = filepath.Join(string(d), location)
	}
	return os.ReadFile(location)
}

// FS reads locations from a file system, e.g. an embedded bundle.
type FS struct{ fs.FS }

// ReadFile reads the whole file at the location.
// A leading slash is ignored, as fs.FS paths are always relative.
func (f FS) ReadFile(location string) ([]byte, error) {
	return fs.ReadFile(f.FS, strings.TrimPrefix(location, "/"))
}
