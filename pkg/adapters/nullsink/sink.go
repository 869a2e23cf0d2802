// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/videostream/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a sink that discards everything.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveDescriptorJSON(data []byte) error {
	return nil
}

func (s *Sink) SaveSnapshot(index int, img image.Image) error {
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
