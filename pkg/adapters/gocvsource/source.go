//go:build gocv

// Package gocvsource decodes video files with OpenCV's VideoCapture.
// Build with -tags gocv; requires OpenCV 4 on the host.
package gocvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/user/videostream/pkg/ports"
)

var (
	// ErrNotOpen is returned when frames are read before Open or after Close.
	ErrNotOpen = errors.New("gocvsource: capture not open")

	// ErrUnsupportedFormat is returned for pixel formats the capture cannot produce.
	ErrUnsupportedFormat = errors.New("gocvsource: unsupported pixel format")
)

// Decoder implements ports.FrameDecoder on a gocv.VideoCapture.
type Decoder struct {
	format ports.PixelFormat
	logger ports.Logger

	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	conv    gocv.Mat
	info    ports.VideoInfo
}

// New creates a Decoder producing frames in format.
func New(logger ports.Logger, format ports.PixelFormat) *Decoder {
	return &Decoder{
		format: format,
		logger: logger.WithComponent("gocv"),
	}
}

// Open opens path with VideoCapture and reads its properties. The frame rate
// is truncated to whole frames per second.
func (d *Decoder) Open(ctx context.Context, path string) (ports.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return ports.VideoInfo{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.format {
	case ports.PixelFormatBGR, ports.PixelFormatRGB, ports.PixelFormatRGBA:
	default:
		return ports.VideoInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, d.format)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return ports.VideoInfo{}, fmt.Errorf("open capture: %s not opened", path)
	}

	d.capture = capture
	d.mat = gocv.NewMat()
	d.conv = gocv.NewMat()
	d.info = ports.VideoInfo{
		FileName:   path,
		Codec:      capture.CodecString(),
		FPS:        int(capture.Get(gocv.VideoCaptureFPS)),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		Size: ports.Dimension{
			Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		},
	}
	return d.info, nil
}

// ReadFrame returns the next frame, or io.EOF when VideoCapture has no more.
func (d *Decoder) ReadFrame() (ports.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return ports.Frame{}, ErrNotOpen
	}
	if ok := d.capture.Read(&d.mat); !ok || d.mat.Empty() {
		return ports.Frame{}, io.EOF
	}

	src := d.mat
	switch d.format {
	case ports.PixelFormatRGB:
		gocv.CvtColor(d.mat, &d.conv, gocv.ColorBGRToRGB)
		src = d.conv
	case ports.PixelFormatRGBA:
		gocv.CvtColor(d.mat, &d.conv, gocv.ColorBGRToRGBA)
		src = d.conv
	}

	return ports.Frame{
		Data:   src.ToBytes(),
		Size:   ports.Dimension{Width: src.Cols(), Height: src.Rows()},
		Format: d.format,
	}, nil
}

// Rewind seeks back to frame 0.
func (d *Decoder) Rewind() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return ErrNotOpen
	}
	d.capture.Set(gocv.VideoCapturePosFrames, 0)
	return nil
}

// Close releases the capture and its buffers.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	d.mat.Close()
	d.conv.Close()
	err := d.capture.Close()
	d.capture = nil
	return err
}

var _ ports.FrameDecoder = (*Decoder)(nil)
