// Package softscene is an in-memory scene context. Image fields hold raw
// pixel buffers; surfaces draw the textures bound to their context's materials
// with a ports.Renderer.
package softscene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/google/uuid"

	"github.com/user/videostream/pkg/ports"
)

// DefaultTextureUnit is the texture unit surfaces sample by default.
const DefaultTextureUnit = 1

var (
	// ErrBufferSize is returned when a buffer does not match the field size.
	ErrBufferSize = errors.New("softscene: buffer size mismatch")

	// ErrInvalidSize is returned for fields or surfaces without area.
	ErrInvalidSize = errors.New("softscene: invalid size")

	// ErrDuplicateMaterial is returned when a material name is already taken.
	ErrDuplicateMaterial = errors.New("softscene: material already exists")
)

// Options configures a Context.
type Options struct {
	Background  color.Color
	TextureUnit int
}

// DefaultOptions returns a black background sampling texture unit 1.
func DefaultOptions() Options {
	return Options{Background: color.Black, TextureUnit: DefaultTextureUnit}
}

// Context implements ports.SceneContext in memory.
type Context struct {
	renderer ports.Renderer
	opts     Options

	mu        sync.Mutex
	fields    []*ImageField
	materials []*Material
	surfaces  map[string]*Surface
}

// New creates an empty scene context.
func New(renderer ports.Renderer, opts Options) *Context {
	if opts.Background == nil {
		opts.Background = color.Black
	}
	return &Context{
		renderer: renderer,
		opts:     opts,
		surfaces: make(map[string]*Surface),
	}
}

// CreateImageField creates an empty field of the given size and format.
func (c *Context) CreateImageField(size ports.Dimension, format ports.PixelFormat) (ports.ImageField, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	f := &ImageField{size: size, format: format}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = append(c.fields, f)
	return f, nil
}

// CreateMaterial creates a material. Names must be unique within the context.
func (c *Context) CreateMaterial(name string) (ports.Material, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.materials {
		if m.name == name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMaterial, name)
		}
	}
	m := &Material{name: name, textures: make(map[int]ports.ImageField)}
	c.materials = append(c.materials, m)
	return m, nil
}

// RemoveMaterial deletes the named material so surfaces stop drawing its textures.
func (c *Context) RemoveMaterial(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, m := range c.materials {
		if m.name == name {
			c.materials = append(c.materials[:i], c.materials[i+1:]...)
			return nil
		}
	}
	return nil
}

// NewSurface returns a surface with a random UUID.
func (c *Context) NewSurface() (ports.Surface, error) {
	s := &Surface{id: uuid.NewString(), ctx: c}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaces[s.id] = s
	return s, nil
}

// Surface looks up a surface by ID.
func (c *Context) Surface(id string) (*Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.surfaces[id]
	return s, ok
}

// Material looks up a material by name.
func (c *Context) Material(name string) (*Material, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.materials {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

// MaterialNames returns the names of the materials in creation order.
func (c *Context) MaterialNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.materials))
	for _, m := range c.materials {
		names = append(names, m.name)
	}
	return names
}

func (c *Context) textures() []ports.ImageField {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []ports.ImageField
	for _, m := range c.materials {
		if f := m.TextureField(c.opts.TextureUnit); f != nil {
			out = append(out, f)
		}
	}
	return out
}

var _ ports.SceneContext = (*Context)(nil)

// ImageField holds a raw pixel buffer.
type ImageField struct {
	size   ports.Dimension
	format ports.PixelFormat

	mu      sync.RWMutex
	buffer  []byte
	updates int
}

// SetBuffer copies data into the field.
func (f *ImageField) SetBuffer(data []byte) error {
	if want := f.size.BufferSize(f.format); len(data) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(data), want)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = append(f.buffer[:0], data...)
	f.updates++
	return nil
}

// Size returns the field dimensions.
func (f *ImageField) Size() ports.Dimension { return f.size }

// PixelFormat returns the layout of the buffer.
func (f *ImageField) PixelFormat() ports.PixelFormat { return f.format }

// Updates returns how many buffers have been set.
func (f *ImageField) Updates() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updates
}

// Image converts the buffer to RGBA. An empty field yields a transparent image.
func (f *ImageField) Image() image.Image {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ToRGBA(f.buffer, f.size, f.format)
}

var _ ports.ImageField = (*ImageField)(nil)

// ToRGBA converts a packed buffer to an *image.RGBA. Buffers of the wrong
// length produce a transparent image of the right size.
func ToRGBA(buf []byte, size ports.Dimension, format ports.PixelFormat) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	if len(buf) != size.BufferSize(format) {
		return img
	}

	pixels := size.Width * size.Height
	switch format {
	case ports.PixelFormatRGBA:
		copy(img.Pix, buf)
	case ports.PixelFormatRGB:
		for i := 0; i < pixels; i++ {
			img.Pix[i*4] = buf[i*3]
			img.Pix[i*4+1] = buf[i*3+1]
			img.Pix[i*4+2] = buf[i*3+2]
			img.Pix[i*4+3] = 0xff
		}
	default:
		for i := 0; i < pixels; i++ {
			img.Pix[i*4] = buf[i*3+2]
			img.Pix[i*4+1] = buf[i*3+1]
			img.Pix[i*4+2] = buf[i*3]
			img.Pix[i*4+3] = 0xff
		}
	}
	return img
}

// Material binds image fields to texture units.
type Material struct {
	name string

	mu       sync.RWMutex
	textures map[int]ports.ImageField
}

// Name returns the material name.
func (m *Material) Name() string { return m.name }

// SetTextureField binds field to unit. A nil field unbinds the unit.
func (m *Material) SetTextureField(unit int, field ports.ImageField) error {
	if unit < 0 {
		return fmt.Errorf("softscene: invalid texture unit %d", unit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if field == nil {
		delete(m.textures, unit)
		return nil
	}
	m.textures[unit] = field
	return nil
}

// TextureField returns the field bound to unit, or nil.
func (m *Material) TextureField(unit int) ports.ImageField {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.textures[unit]
}

var _ ports.Material = (*Material)(nil)

// Surface renders the textures of its context.
type Surface struct {
	id  string
	ctx *Context
}

// ID returns the surface UUID.
func (s *Surface) ID() string { return s.id }

// Context returns the scene context the surface draws.
func (s *Surface) Context() ports.SceneContext { return s.ctx }

// Render draws every material's texture, in creation order, fitted into a
// width x height image over the background.
func (s *Surface) Render(width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	canvas := s.ctx.renderer.CreateCanvas(width, height, s.ctx.opts.Background)
	for _, field := range s.ctx.textures() {
		canvas.DrawImageFit(field.Image())
	}
	return canvas.ToImage(), nil
}

var _ ports.Surface = (*Surface)(nil)
