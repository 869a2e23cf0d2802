// Package osfilesystem implements ports.FileSystem on an afero filesystem,
// the OS filesystem by default.
package osfilesystem

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/user/videostream/pkg/ports"
)

// FileSystem implements ports.FileSystem.
type FileSystem struct {
	fs afero.Fs
}

// New creates a FileSystem on the OS filesystem.
func New() *FileSystem {
	return NewWithFs(afero.NewOsFs())
}

// NewWithFs creates a FileSystem on fs.
func NewWithFs(fs afero.Fs) *FileSystem {
	return &FileSystem{fs: fs}
}

// Fs returns the backing afero filesystem.
func (f *FileSystem) Fs() afero.Fs {
	return f.fs
}

// ReadFile reads the whole file.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// WriteFile writes data, creating parent directories as needed.
func (f *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := f.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return afero.WriteFile(f.fs, path, data, 0644)
}

// MkdirAll creates path and its parents.
func (f *FileSystem) MkdirAll(path string) error {
	return f.fs.MkdirAll(path, 0755)
}

var _ ports.FileSystem = (*FileSystem)(nil)
