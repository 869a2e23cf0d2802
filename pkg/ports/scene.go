package ports

import (
	"image"
)

// SceneContext abstracts the 3-D scene/rendering context frames are textured into.
type SceneContext interface {
	// CreateImageField creates an image-backed field of fixed size and pixel format.
	CreateImageField(size Dimension, format PixelFormat) (ImageField, error)

	// CreateMaterial creates a named material in the context's material module.
	CreateMaterial(name string) (Material, error)

	// RemoveMaterial deletes a material and with it the texture bindings it holds.
	// Unknown names are ignored.
	RemoveMaterial(name string) error

	// NewSurface returns a shareable render surface bound to this context.
	NewSurface() (Surface, error)
}

// ImageField is an image-backed texture field.
type ImageField interface {
	// SetBuffer replaces the backing pixel buffer.
	SetBuffer(data []byte) error

	// Size returns the field dimensions in pixels.
	Size() Dimension

	// PixelFormat returns the layout of the backing buffer.
	PixelFormat() PixelFormat

	// Image returns the current buffer as an image.
	Image() image.Image
}

// Material binds texture fields to texture units.
type Material interface {
	// Name returns the material name.
	Name() string

	// SetTextureField binds field to the given texture unit.
	SetTextureField(unit int, field ImageField) error

	// TextureField returns the field bound to unit, or nil.
	TextureField(unit int) ImageField
}

// Surface is a render surface that displays the materials of its context.
type Surface interface {
	// ID uniquely identifies the surface.
	ID() string

	// Context returns the scene context the surface is bound to.
	Context() SceneContext

	// Render draws the current scene into an image of the given size.
	Render(width, height int) (image.Image, error)
}
