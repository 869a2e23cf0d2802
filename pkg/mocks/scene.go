package mocks

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/videostream/pkg/ports"
)

// SceneContext is a mock implementation of ports.SceneContext.
type SceneContext struct {
	mu sync.Mutex

	CreateImageFieldFunc func(size ports.Dimension, format ports.PixelFormat) (ports.ImageField, error)
	CreateMaterialFunc   func(name string) (ports.Material, error)
	RemoveMaterialFunc   func(name string) error
	NewSurfaceFunc       func() (ports.Surface, error)

	// Recorded objects for verification
	Fields    []*ImageField
	Materials []*Material
	Surfaces  []*Surface
	Removed   []string
}

// NewSceneContext creates a new mock SceneContext.
func NewSceneContext() *SceneContext {
	return &SceneContext{}
}

func (m *SceneContext) CreateImageField(size ports.Dimension, format ports.PixelFormat) (ports.ImageField, error) {
	if m.CreateImageFieldFunc != nil {
		return m.CreateImageFieldFunc(size, format)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &ImageField{size: size, format: format}
	m.Fields = append(m.Fields, f)
	return f, nil
}

func (m *SceneContext) CreateMaterial(name string) (ports.Material, error) {
	if m.CreateMaterialFunc != nil {
		return m.CreateMaterialFunc(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mat := &Material{name: name, textures: make(map[int]ports.ImageField)}
	m.Materials = append(m.Materials, mat)
	return mat, nil
}

func (m *SceneContext) RemoveMaterial(name string) error {
	if m.RemoveMaterialFunc != nil {
		return m.RemoveMaterialFunc(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = append(m.Removed, name)
	return nil
}

func (m *SceneContext) NewSurface() (ports.Surface, error) {
	if m.NewSurfaceFunc != nil {
		return m.NewSurfaceFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Surface{id: fmt.Sprintf("surface-%d", len(m.Surfaces)+1), ctx: m}
	m.Surfaces = append(m.Surfaces, s)
	return s, nil
}

// FieldCount returns the number of image fields created.
func (m *SceneContext) FieldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Fields)
}

// MaterialCount returns the number of materials created.
func (m *SceneContext) MaterialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Materials)
}

// RemovedCount returns the number of materials removed.
func (m *SceneContext) RemovedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Removed)
}

var _ ports.SceneContext = (*SceneContext)(nil)

// ImageField is a mock implementation of ports.ImageField.
type ImageField struct {
	mu     sync.Mutex
	size   ports.Dimension
	format ports.PixelFormat
	buffer []byte

	SetBufferCalls int
	SetBufferErr   error
}

func (f *ImageField) SetBuffer(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetBufferCalls++
	if f.SetBufferErr != nil {
		return f.SetBufferErr
	}
	f.buffer = append([]byte(nil), data...)
	return nil
}

func (f *ImageField) Size() ports.Dimension { return f.size }

func (f *ImageField) PixelFormat() ports.PixelFormat { return f.format }

func (f *ImageField) Image() image.Image {
	return image.NewRGBA(image.Rect(0, 0, f.size.Width, f.size.Height))
}

// Buffer returns a copy of the last buffer set on the field.
func (f *ImageField) Buffer() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.buffer...)
}

var _ ports.ImageField = (*ImageField)(nil)

// Material is a mock implementation of ports.Material.
type Material struct {
	name     string
	textures map[int]ports.ImageField
}

func (m *Material) Name() string { return m.name }

func (m *Material) SetTextureField(unit int, field ports.ImageField) error {
	m.textures[unit] = field
	return nil
}

func (m *Material) TextureField(unit int) ports.ImageField {
	return m.textures[unit]
}

var _ ports.Material = (*Material)(nil)

// Surface is a mock implementation of ports.Surface.
type Surface struct {
	id  string
	ctx ports.SceneContext
}

func (s *Surface) ID() string { return s.id }

func (s *Surface) Context() ports.SceneContext { return s.ctx }

func (s *Surface) Render(width, height int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

var _ ports.Surface = (*Surface)(nil)
