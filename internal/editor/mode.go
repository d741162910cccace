package editor

import "github.com/inamate/inamate/layout-go/internal/engine"

// Mode is the interaction state. Exactly one is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeRotating
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeRotating:
		return "rotating"
	default:
		return "unknown"
	}
}

// TargetKind is what the pointer went down on.
type TargetKind string

const (
	TargetBody   TargetKind = "body"
	TargetHandle TargetKind = "handle"
	TargetRotate TargetKind = "rotate"
)

// Target describes a pointer-down hit. Handle is only used with TargetHandle.
type Target struct {
	Kind   TargetKind    `json:"kind"`
	Handle engine.Handle `json:"handle,omitempty"`
}

// Body targets whatever object is under the pointer.
func Body() Target { return Target{Kind: TargetBody} }

// ResizeHandle targets a resize grip of the selected object.
func ResizeHandle(h engine.Handle) Target { return Target{Kind: TargetHandle, Handle: h} }

// RotateHandle targets the rotation grip of the selected object.
func RotateHandle() Target { return Target{Kind: TargetRotate} }

func (t Target) mode() Mode {
	switch t.Kind {
	case TargetHandle:
		return ModeResizing
	case TargetRotate:
		return ModeRotating
	default:
		return ModeDragging
	}
}
