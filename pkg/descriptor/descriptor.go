// Package descriptor bundles the metadata of an opened video for downstream steps.
package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/videostream/pkg/ports"
)

// ErrMissingInput is returned when a required descriptor input is absent.
var ErrMissingInput = errors.New("descriptor: missing input")

// Params contains the inputs of a descriptor.
type Params struct {
	Context    ports.SceneContext
	FileName   string
	FPS        int
	FrameCount int
	Size       ports.Dimension
}

// Descriptor describes an opened video. It is immutable after Build.
type Descriptor struct {
	context    ports.SceneContext
	surface    ports.Surface
	fps        int
	frameCount int
	fileName   string
	size       ports.Dimension
}

// Build creates a descriptor with a shareable surface bound to p.Context.
func Build(p Params) (*Descriptor, error) {
	if p.Context == nil {
		return nil, fmt.Errorf("%w: rendering context", ErrMissingInput)
	}
	if p.FileName == "" {
		return nil, fmt.Errorf("%w: file name", ErrMissingInput)
	}

	surface, err := p.Context.NewSurface()
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}

	return &Descriptor{
		context:    p.Context,
		surface:    surface,
		fps:        p.FPS,
		frameCount: p.FrameCount,
		fileName:   p.FileName,
		size:       p.Size,
	}, nil
}

// Context returns the rendering context the video is textured into.
func (d *Descriptor) Context() ports.SceneContext { return d.context }

// Surface returns the shareable surface that displays the video.
func (d *Descriptor) Surface() ports.Surface { return d.surface }

// FPS returns the playback frame rate.
func (d *Descriptor) FPS() int { return d.fps }

// FrameCount returns the frame count reported by the container.
func (d *Descriptor) FrameCount() int { return d.frameCount }

// FileName returns the path of the video file.
func (d *Descriptor) FileName() string { return d.fileName }

// ImageDimensions returns the frame size in pixels.
func (d *Descriptor) ImageDimensions() ports.Dimension { return d.size }

type descriptorJSON struct {
	FileName        string          `json:"file_name"`
	FPS             int             `json:"fps"`
	FrameCount      int             `json:"frame_count"`
	ImageDimensions ports.Dimension `json:"image_dimensions"`
	SurfaceID       string          `json:"surface_id"`
}

// MarshalJSON encodes the metadata. The rendering context is not serialized.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorJSON{
		FileName:        d.fileName,
		FPS:             d.fps,
		FrameCount:      d.frameCount,
		ImageDimensions: d.size,
		SurfaceID:       d.surface.ID(),
	})
}
