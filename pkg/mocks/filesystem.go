package mocks

import (
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/user/videostream/pkg/ports"
)

// FileSystem keeps files in an afero memory filesystem and records the paths
// written through it.
type FileSystem struct {
	Fs afero.Fs

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error

	mu     sync.Mutex
	Writes []string
}

// NewFileSystem returns a FileSystem with an empty memory filesystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{Fs: afero.NewMemMapFs()}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	return afero.ReadFile(m.Fs, path)
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	m.Writes = append(m.Writes, path)
	m.mu.Unlock()

	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	if err := m.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(m.Fs, path, data, 0644)
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	return m.Fs.MkdirAll(path, 0755)
}

// File returns the contents stored at path.
func (m *FileSystem) File(path string) ([]byte, bool) {
	data, err := afero.ReadFile(m.Fs, path)
	return data, err == nil
}

// Files returns the stored contents of every path written so far.
func (m *FileSystem) Files() map[string][]byte {
	m.mu.Lock()
	paths := append([]string(nil), m.Writes...)
	m.mu.Unlock()

	files := make(map[string][]byte)
	for _, path := range paths {
		if data, ok := m.File(path); ok {
			files[path] = data
		}
	}
	return files
}

// WriteCount returns how many WriteFile calls were made.
func (m *FileSystem) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes)
}

var _ ports.FileSystem = (*FileSystem)(nil)
