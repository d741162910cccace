package engine

import (
	"math"
	"strings"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// Handle names a resize grip on the selection outline.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Valid reports whether h is one of the eight handles.
func (h Handle) Valid() bool {
	switch h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

func (h Handle) has(side string) bool {
	return strings.Contains(string(h), side)
}

// Gesture is an in-progress pointer transform on one object.
type Gesture interface {
	// Update applies the pointer position for one frame and returns the guides
	// to display for that frame.
	Update(px, py float64) []SnapGuide
	// Target is the object the gesture started on.
	Target() string
	// Changed reports whether any frame altered the object.
	Changed() bool
}

// TransformEngine applies move, resize and rotate gestures.
type TransformEngine struct {
	scene    *Scene
	index    *SpatialIndex
	snap     *SnapEngine
	settings *Settings
}

// NewTransformEngine wires a transform engine to its collaborators.
func NewTransformEngine(scene *Scene, index *SpatialIndex, snap *SnapEngine, settings *Settings) *TransformEngine {
	return &TransformEngine{scene: scene, index: index, snap: snap, settings: settings}
}

// BeginMove starts dragging id from pointer (px, py). When id belongs to a
// group the whole group moves.
func (t *TransformEngine) BeginMove(id string, px, py float64) (Gesture, error) {
	obj, ok := t.scene.Object(id)
	if !ok {
		return nil, ErrNotFound
	}

	g := &moveGesture{engine: t, target: id}
	if grp, ok := t.scene.Group(obj.GroupID); ok {
		g.groupID = grp.ID
		g.start = grp.Bounds
		g.exclude = grp.MemberIDs
	} else {
		g.start, _ = t.scene.Absolute(id)
		g.exclude = []string{id}
	}
	g.offsetX = px - g.start.X
	g.offsetY = py - g.start.Y
	return g, nil
}

type moveGesture struct {
	engine           *TransformEngine
	target           string
	groupID          string
	start            document.Rect
	offsetX, offsetY float64
	exclude          []string
	changed          bool
}

func (g *moveGesture) Target() string { return g.target }
func (g *moveGesture) Changed() bool  { return g.changed }

func (g *moveGesture) Update(px, py float64) []SnapGuide {
	t := g.engine
	candidate := document.Rect{
		X:      px - g.offsetX,
		Y:      py - g.offsetY,
		Width:  g.start.Width,
		Height: g.start.Height,
	}
	res := t.snap.Snap(candidate, t.index.Others(g.exclude...))

	if g.groupID != "" {
		t.scene.moveGroupTo(g.groupID, res.X, res.Y)
	} else {
		next := candidate
		next.X, next.Y = res.X, res.Y
		t.scene.SetAbsolute(g.target, next)
	}
	g.changed = res.X != g.start.X || res.Y != g.start.Y
	return res.Guides
}

// BeginResize starts resizing id by handle from pointer (px, py).
func (t *TransformEngine) BeginResize(id string, handle Handle, px, py float64) (Gesture, error) {
	if !handle.Valid() {
		return nil, ErrUnknownOp
	}
	start, ok := t.scene.Absolute(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &resizeGesture{engine: t, target: id, handle: handle, start: start, originX: px, originY: py}, nil
}

type resizeGesture struct {
	engine           *TransformEngine
	target           string
	handle           Handle
	start            document.Rect
	originX, originY float64
	changed          bool
}

func (g *resizeGesture) Target() string { return g.target }
func (g *resizeGesture) Changed() bool  { return g.changed }

func (g *resizeGesture) Update(px, py float64) []SnapGuide {
	next := g.engine.Resize(g.start, g.handle, px-g.originX, py-g.originY)
	g.engine.scene.SetAbsolute(g.target, next)
	g.changed = next != g.start
	return nil
}

// Resize computes new bounds for dragging handle by (dx, dy) from start. The
// edge opposite the handle stays fixed. With grid snapping on, width and
// height are each rounded to the grid; both are then clamped to the minimum
// size.
func (t *TransformEngine) Resize(start document.Rect, handle Handle, dx, dy float64) document.Rect {
	w, h := start.Width, start.Height

	switch {
	case handle.has("e"):
		w += dx
	case handle.has("w"):
		w -= dx
	}
	switch {
	case handle.has("s"):
		h += dy
	case handle.has("n"):
		h -= dy
	}

	if t.settings.SnapToGrid {
		w = roundTo(w, t.settings.GridSize)
		h = roundTo(h, t.settings.GridSize)
	}
	w = max(w, t.settings.MinSize)
	h = max(h, t.settings.MinSize)

	next := document.Rect{X: start.X, Y: start.Y, Width: w, Height: h}
	if handle.has("w") {
		next.X = start.Right() - w
	}
	if handle.has("n") {
		next.Y = start.Bottom() - h
	}
	return next
}

// BeginRotate starts rotating id about its current center.
func (t *TransformEngine) BeginRotate(id string, px, py float64) (Gesture, error) {
	obj, ok := t.scene.Object(id)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := t.scene.Absolute(id)
	cx, cy := b.Center()
	return &rotateGesture{
		engine:        t,
		target:        id,
		cx:            cx,
		cy:            cy,
		startRotation: obj.Rotation,
		startAngle:    pointerAngle(cx, cy, px, py) - obj.Rotation,
	}, nil
}

type rotateGesture struct {
	engine        *TransformEngine
	target        string
	cx, cy        float64
	startRotation float64
	startAngle    float64
	changed       bool
}

func (g *rotateGesture) Target() string { return g.target }
func (g *rotateGesture) Changed() bool  { return g.changed }

func (g *rotateGesture) Update(px, py float64) []SnapGuide {
	t := g.engine
	r := pointerAngle(g.cx, g.cy, px, py) - g.startAngle
	if t.settings.SnapToGrid {
		r = roundTo(r, t.settings.RotationStep)
	}
	r = NormalizeDegrees(r)
	t.scene.SetRotation(g.target, r)
	g.changed = r != NormalizeDegrees(g.startRotation)
	return nil
}

// RotateBy adds deg to an object's rotation.
func (t *TransformEngine) RotateBy(id string, deg float64) error {
	obj, ok := t.scene.Object(id)
	if !ok {
		return ErrNotFound
	}
	// Wrapping the delta first keeps whole turns exact.
	t.scene.SetRotation(id, obj.Rotation+NormalizeDegrees(deg))
	return nil
}

// pointerAngle is the angle in degrees of (px, py) around (cx, cy).
func pointerAngle(cx, cy, px, py float64) float64 {
	return math.Atan2(py-cy, px-cx) * 180 / math.Pi
}
