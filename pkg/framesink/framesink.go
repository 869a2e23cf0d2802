// Package framesink uploads raw frame buffers into an image-backed texture
// field of a scene context.
package framesink

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/user/videostream/pkg/ports"
)

// TextureUnit is the material texture unit the image field is bound to.
const TextureUnit = 1

// MaterialPrefix starts the name of every material created for a video texture.
// The rest of the name is a UUID, so several adapters can share a scene context.
const MaterialPrefix = "videostream"

var (
	// ErrNoRenderTarget is returned when a frame is pushed before the render target exists.
	ErrNoRenderTarget = errors.New("framesink: render target not created")

	// ErrSizeMismatch is returned when the render target is requested with new dimensions.
	ErrSizeMismatch = errors.New("framesink: render target size mismatch")

	// ErrBufferSize is returned when a buffer does not match the field size.
	ErrBufferSize = errors.New("framesink: buffer size does not match render target")
)

// Adapter owns the image field and material of one video in a scene context.
type Adapter struct {
	scene  ports.SceneContext
	format ports.PixelFormat
	logger ports.Logger

	mu       sync.Mutex
	field    ports.ImageField
	material ports.Material
	created  int
}

// New creates an adapter that lazily creates its render target in scene.
func New(scene ports.SceneContext, format ports.PixelFormat, logger ports.Logger) *Adapter {
	return &Adapter{
		scene:  scene,
		format: format,
		logger: logger.WithComponent("framesink"),
	}
}

// EnsureRenderTarget creates the image field and material on the first call and
// pushes firstFrame into the field. Later calls only push the bytes.
func (a *Adapter) EnsureRenderTarget(width, height int, firstFrame []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := ports.Dimension{Width: width, Height: height}

	if a.field == nil {
		field, err := a.scene.CreateImageField(size, a.format)
		if err != nil {
			return fmt.Errorf("create image field: %w", err)
		}
		if err := a.setBuffer(field, firstFrame); err != nil {
			return err
		}

		material, err := a.scene.CreateMaterial(MaterialPrefix + "-" + uuid.NewString())
		if err != nil {
			return fmt.Errorf("create material: %w", err)
		}
		if err := material.SetTextureField(TextureUnit, field); err != nil {
			return fmt.Errorf("bind texture field: %w", err)
		}

		a.field = field
		a.material = material
		a.created++
		a.logger.Debug("Created render target %dx%d (%s)", width, height, a.format)
		return nil
	}

	if a.field.Size() != size {
		return fmt.Errorf("%w: have %dx%d, got %dx%d", ErrSizeMismatch,
			a.field.Size().Width, a.field.Size().Height, width, height)
	}
	return a.setBuffer(a.field, firstFrame)
}

// PushFrame replaces the backing buffer of the image field.
func (a *Adapter) PushFrame(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.field == nil {
		return ErrNoRenderTarget
	}
	return a.setBuffer(a.field, data)
}

func (a *Adapter) setBuffer(field ports.ImageField, data []byte) error {
	want := field.Size().BufferSize(field.PixelFormat())
	if len(data) != want {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrBufferSize, want, len(data))
	}
	if err := field.SetBuffer(data); err != nil {
		return fmt.Errorf("set buffer: %w", err)
	}
	return nil
}

// Release removes the material from the scene context and forgets the render
// target. A later EnsureRenderTarget creates a new one.
func (a *Adapter) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.material == nil {
		return nil
	}
	name := a.material.Name()
	a.field = nil
	a.material = nil
	if err := a.scene.RemoveMaterial(name); err != nil {
		return fmt.Errorf("remove material %s: %w", name, err)
	}
	a.logger.Debug("Released render target %s", name)
	return nil
}

// Field returns the image field, or nil before the first frame.
func (a *Adapter) Field() ports.ImageField {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.field
}

// Material returns the material, or nil before the first frame.
func (a *Adapter) Material() ports.Material {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.material
}

// Created returns how many times the render target has been created.
func (a *Adapter) Created() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created
}
