package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/videostream/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	return &Canvas{width: width, height: height}
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas that records drawn images.
type Canvas struct {
	mu     sync.Mutex
	width  int
	height int

	Drawn []image.Image
}

func (m *Canvas) record(img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Drawn = append(m.Drawn, img)
}

func (m *Canvas) DrawImage(img image.Image, x, y int) { m.record(img) }

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) { m.record(img) }

func (m *Canvas) DrawImageFit(img image.Image) image.Rectangle {
	m.record(img)
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {}

func (m *Canvas) DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64) {}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}

var _ ports.Canvas = (*Canvas)(nil)
