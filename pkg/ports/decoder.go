// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// PixelFormat describes the channel layout of a raw frame buffer.
type PixelFormat int

const (
	// PixelFormatBGR is 3 channels in reversed order, as produced by the decoders.
	PixelFormatBGR PixelFormat = iota
	// PixelFormatRGB is 3 channels in natural order.
	PixelFormatRGB
	// PixelFormatRGBA is 4 channels with alpha last.
	PixelFormatRGBA
)

// BytesPerPixel returns the number of bytes one pixel occupies.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA:
		return 4
	default:
		return 3
	}
}

// String returns the ffmpeg-style name of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGR:
		return "bgr24"
	case PixelFormatRGB:
		return "rgb24"
	case PixelFormatRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// Dimension represents width and height in pixels.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BufferSize returns the byte length of a frame of this size in the given format.
func (d Dimension) BufferSize(format PixelFormat) int {
	return d.Width * d.Height * format.BytesPerPixel()
}

// VideoInfo contains container-level metadata of a video file.
type VideoInfo struct {
	FileName   string    `json:"fileName"`
	Codec      string    `json:"codec"`
	FPS        int       `json:"fps"`
	FrameCount int       `json:"frameCount"`
	Size       Dimension `json:"size"`
}

// Frame is a single decoded frame.
type Frame struct {
	Data   []byte
	Size   Dimension
	Format PixelFormat
}

// FrameDecoder abstracts sequential frame access to a video file.
type FrameDecoder interface {
	// Open opens the file and returns its metadata.
	Open(ctx context.Context, path string) (VideoInfo, error)

	// ReadFrame decodes the next frame. It returns io.EOF at end of stream.
	ReadFrame() (Frame, error)

	// Rewind moves the decoder back to frame 0.
	Rewind() error

	// Close releases decoder resources. It is safe to call more than once.
	Close() error
}

// Prober reads video metadata without decoding frames.
type Prober interface {
	// Probe returns the metadata of the file at path.
	Probe(ctx context.Context, path string) (VideoInfo, error)
}
