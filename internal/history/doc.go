// Package history keeps a bounded linear undo/redo buffer of whole-state
// snapshots and a trailing-edge debouncer for coalescing rapid edits.
//
// A Manager holds at most Capacity snapshots. The cursor points at the
// snapshot that matches the live state. Capturing from a point before the end
// discards the redo tail; capturing beyond capacity evicts the oldest entry.
package history
