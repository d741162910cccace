package history

import (
	"errors"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// DefaultCapacity is the number of snapshots retained.
const DefaultCapacity = 50

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Manager is a bounded linear history of snapshots.
type Manager struct {
	entries  []document.Snapshot
	cursor   int
	capacity int
}

// NewManager creates a history holding at most capacity snapshots.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity}
}

// Capture appends snap after truncating any redo tail.
func (m *Manager) Capture(snap document.Snapshot) {
	if len(m.entries) > 0 {
		m.entries = m.entries[:m.cursor+1]
	}
	m.entries = append(m.entries, snap)

	if excess := len(m.entries) - m.capacity; excess > 0 {
		m.entries = append(m.entries[:0:0], m.entries[excess:]...)
	}
	m.cursor = len(m.entries) - 1
}

// Undo steps the cursor back and returns the snapshot to apply. The returned
// snapshot is shared with the buffer and must not be mutated.
func (m *Manager) Undo() (document.Snapshot, error) {
	if m.cursor == 0 || len(m.entries) == 0 {
		return document.Snapshot{}, ErrNothingToUndo
	}
	m.cursor--
	return m.entries[m.cursor], nil
}

// Redo steps the cursor forward and returns the snapshot to apply.
func (m *Manager) Redo() (document.Snapshot, error) {
	if m.cursor >= len(m.entries)-1 {
		return document.Snapshot{}, ErrNothingToRedo
	}
	m.cursor++
	return m.entries[m.cursor], nil
}

// Current returns the snapshot at the cursor.
func (m *Manager) Current() (document.Snapshot, bool) {
	if len(m.entries) == 0 {
		return document.Snapshot{}, false
	}
	return m.entries[m.cursor], true
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	return m.cursor > 0
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	return m.cursor < len(m.entries)-1
}

// Len returns the number of retained snapshots.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Cursor returns the index of the current snapshot.
func (m *Manager) Cursor() int {
	return m.cursor
}

// Capacity returns the maximum number of retained snapshots.
func (m *Manager) Capacity() int {
	return m.capacity
}

// Reset drops every snapshot.
func (m *Manager) Reset() {
	m.entries = nil
	m.cursor = 0
}
