// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/videostream/pkg/ports"
)

// Sink saves descriptors and surface snapshots under a base directory.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	format   ports.ImageFormat
}

// New creates a Sink writing PNG snapshots.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		format:   ports.FormatPNG,
	}
}

// WithFormat returns a copy of the sink encoding snapshots in format.
func (s *Sink) WithFormat(format ports.ImageFormat) *Sink {
	c := *s
	c.format = format
	return &c
}

// Enabled always reports true.
func (s *Sink) Enabled() bool {
	return true
}

// SaveDescriptorJSON writes descriptor.json.
func (s *Sink) SaveDescriptorJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "descriptor.json")
	return s.fs.WriteFile(path, data)
}

// SaveSnapshot writes snapshots/frame-NNNN.png (or .jpg).
func (s *Sink) SaveSnapshot(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "snapshots")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, s.format, 90)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.%s", index, s.format.Extension()))
	return s.fs.WriteFile(path, data)
}

var _ ports.DebugSink = (*Sink)(nil)
