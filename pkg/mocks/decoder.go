package mocks

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/user/videostream/pkg/ports"
)

// FrameDecoder is a mock implementation of ports.FrameDecoder that produces
// synthetic frames whose bytes depend only on the frame position.
type FrameDecoder struct {
	mu sync.Mutex

	Info ports.VideoInfo

	OpenFunc   func(ctx context.Context, path string) (ports.VideoInfo, error)
	RewindFunc func() error

	// PersistentEOF makes every read after the end of stream fail, even after a rewind.
	PersistentEOF bool

	position int
	opened   bool
	ended    bool

	// Recorded calls for verification
	OpenCalls   []string
	ReadCalls   int
	RewindCalls int
	CloseCalls  int
}

// NewFrameDecoder creates a mock decoder for a video with the given metadata.
func NewFrameDecoder(fps, frameCount, width, height int) *FrameDecoder {
	return &FrameDecoder{
		Info: ports.VideoInfo{
			Codec:      "h264",
			FPS:        fps,
			FrameCount: frameCount,
			Size:       ports.Dimension{Width: width, Height: height},
		},
	}
}

func (m *FrameDecoder) Open(ctx context.Context, path string) (ports.VideoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenCalls = append(m.OpenCalls, path)
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, path)
	}
	m.opened = true
	m.position = 0
	info := m.Info
	info.FileName = path
	return info, nil
}

func (m *FrameDecoder) ReadFrame() (ports.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++
	if !m.opened {
		return ports.Frame{}, errors.New("mock decoder: not open")
	}
	if m.position >= m.Info.FrameCount || (m.PersistentEOF && m.ended) {
		m.ended = true
		return ports.Frame{}, io.EOF
	}
	frame := ports.Frame{
		Data:   SyntheticFrame(m.position, m.Info.Size, ports.PixelFormatBGR),
		Size:   m.Info.Size,
		Format: ports.PixelFormatBGR,
	}
	m.position++
	return frame, nil
}

func (m *FrameDecoder) Rewind() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RewindCalls++
	if m.RewindFunc != nil {
		return m.RewindFunc()
	}
	m.position = 0
	return nil
}

func (m *FrameDecoder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	m.opened = false
	return nil
}

// Position returns the index of the next frame to be read.
func (m *FrameDecoder) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

var _ ports.FrameDecoder = (*FrameDecoder)(nil)

// SyntheticFrame returns a deterministic buffer for frame index.
func SyntheticFrame(index int, size ports.Dimension, format ports.PixelFormat) []byte {
	data := make([]byte, size.BufferSize(format))
	for i := range data {
		data[i] = byte((i + index*7) % 251)
	}
	return data
}
