package display

import (
	"sync"

	"photoview/internal/sequence"
)

// RotationStore keeps the user's clockwise rotation for each item.
type RotationStore interface {
	Rotation(id sequence.ItemID) int
	SetRotation(id sequence.ItemID, angle int) error
}

// MemoryRotations is a RotationStore that forgets everything on exit.
type MemoryRotations struct {
	mu     sync.RWMutex
	angles map[sequence.ItemID]int
}

// NewMemoryRotations returns an empty MemoryRotations.
func NewMemoryRotations() *MemoryRotations {
	return &MemoryRotations{angles: make(map[sequence.ItemID]int)}
}

// Rotation implements RotationStore.
func (m *MemoryRotations) Rotation(id sequence.ItemID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.angles[id]
}

// SetRotation implements RotationStore.
func (m *MemoryRotations) SetRotation(id sequence.ItemID, angle int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if angle == 0 {
		delete(m.angles, id)
	} else {
		m.angles[id] = angle
	}
	return nil
}
