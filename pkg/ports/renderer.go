package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts the 2-D raster operations used to draw surfaces.
type Renderer interface {
	// CreateCanvas creates a canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes an image to the specified format. Quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides drawing operations for compositing a surface.
type Canvas interface {
	DrawImage(img image.Image, x, y int)

	// DrawImageScaled draws an image stretched to the given rectangle.
	DrawImageScaled(img image.Image, x, y, width, height int)

	// DrawImageFit draws an image as large as fits the canvas, centred,
	// keeping its aspect ratio. It returns the rectangle covered.
	DrawImageFit(img image.Image) image.Rectangle

	DrawRect(x, y, w, h int, c color.Color)
	DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64)

	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// Extension returns the file extension without the dot.
func (f ImageFormat) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}
