package ports

import (
	"image"
)

// DebugSink abstracts debug output for playback results.
// It allows saving rendered surfaces and metadata for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveDescriptorJSON saves the video descriptor as JSON.
	SaveDescriptorJSON(data []byte) error

	// SaveSnapshot saves a rendered surface snapshot.
	SaveSnapshot(index int, img image.Image) error
}
