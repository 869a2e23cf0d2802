package mocks

import (
	"image"
	"sync"

	"github.com/user/videostream/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	DescriptorJSON [][]byte
	Snapshots      map[int]image.Image

	SaveSnapshotErr error
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		Snapshots: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveDescriptorJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DescriptorJSON = append(m.DescriptorJSON, data)
	return nil
}

func (m *DebugSink) SaveSnapshot(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveSnapshotErr != nil {
		return m.SaveSnapshotErr
	}
	m.Snapshots[index] = img
	return nil
}

// DescriptorCount returns the number of descriptors saved.
func (m *DebugSink) DescriptorCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.DescriptorJSON)
}

// LastDescriptor returns the most recently saved descriptor JSON.
func (m *DebugSink) LastDescriptor() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.DescriptorJSON) == 0 {
		return nil
	}
	return m.DescriptorJSON[len(m.DescriptorJSON)-1]
}

// SnapshotCount returns the number of snapshots saved.
func (m *DebugSink) SnapshotCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Snapshots)
}

var _ ports.DebugSink = (*DebugSink)(nil)
