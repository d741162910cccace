package engine

import (
	"slices"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// BoundsChangedFunc is called after an object's absolute bounds change.
type BoundsChangedFunc func(id string)

// RemovedFunc is called after an object leaves the arena. groupID is the group
// it belonged to at removal time, or empty.
type RemovedFunc func(id, groupID string)

// Scene is the arena of visual object records indexed by id, plus the group
// table and the auxiliary wiring. It is the only place records are mutated.
type Scene struct {
	objects map[string]*document.VisualObject
	order   []string

	groups     map[string]*document.Group
	groupOrder []string

	connections []document.Connection

	onBoundsChanged []BoundsChangedFunc
	onRemoved       []RemovedFunc
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{
		objects: make(map[string]*document.VisualObject),
		groups:  make(map[string]*document.Group),
	}
}

// OnBoundsChanged registers a listener for bounds mutations.
func (s *Scene) OnBoundsChanged(fn BoundsChangedFunc) {
	s.onBoundsChanged = append(s.onBoundsChanged, fn)
}

// OnRemoved registers a listener for object removal.
func (s *Scene) OnRemoved(fn RemovedFunc) {
	s.onRemoved = append(s.onRemoved, fn)
}

// Load replaces the whole state. No events are emitted.
func (s *Scene) Load(objects []document.VisualObject, groups []document.Group, connections []document.Connection) {
	s.objects = make(map[string]*document.VisualObject, len(objects))
	s.order = s.order[:0]
	for _, o := range objects {
		if _, dup := s.objects[o.ID]; dup || o.ID == "" {
			continue
		}
		obj := o.Clone()
		s.objects[obj.ID] = &obj
		s.order = append(s.order, obj.ID)
	}

	s.groups = make(map[string]*document.Group, len(groups))
	s.groupOrder = s.groupOrder[:0]
	for _, g := range groups {
		group := g.Clone()
		s.groups[group.ID] = &group
		s.groupOrder = append(s.groupOrder, group.ID)
	}

	s.connections = make([]document.Connection, len(connections))
	for i, c := range connections {
		s.connections[i] = c.Clone()
	}
}

// Snapshot deep-copies the current state.
func (s *Scene) Snapshot() document.Snapshot {
	return document.NewSnapshot(s.Objects(), s.Groups(), s.connections)
}

// Restore replaces the state with a snapshot's content.
func (s *Scene) Restore(snap document.Snapshot) {
	s.Load(snap.Objects, snap.Groups, snap.Connections)
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.order)
}

// Has reports whether an object exists.
func (s *Scene) Has(id string) bool {
	_, ok := s.objects[id]
	return ok
}

// Object returns a copy of the record for id.
func (s *Scene) Object(id string) (document.VisualObject, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return document.VisualObject{}, false
	}
	return obj.Clone(), true
}

// Objects returns copies of all records in arena order. Grouped objects keep
// group-relative positions.
func (s *Scene) Objects() []document.VisualObject {
	out := make([]document.VisualObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id].Clone())
	}
	return out
}

// Resolved returns copies of all records with absolute bounds, for
// presentation and export.
func (s *Scene) Resolved() []document.VisualObject {
	out := s.Objects()
	for i := range out {
		out[i].Bounds, _ = s.Absolute(out[i].ID)
	}
	return out
}

// Connections returns a copy of the auxiliary wiring.
func (s *Scene) Connections() []document.Connection {
	out := make([]document.Connection, len(s.connections))
	for i, c := range s.connections {
		out[i] = c.Clone()
	}
	return out
}

// Group returns a copy of the group record.
func (s *Scene) Group(id string) (document.Group, bool) {
	g, ok := s.groups[id]
	if !ok {
		return document.Group{}, false
	}
	return g.Clone(), true
}

// Groups returns copies of all groups in creation order.
func (s *Scene) Groups() []document.Group {
	out := make([]document.Group, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		out = append(out, s.groups[id].Clone())
	}
	return out
}

// Absolute returns an object's bounds in canvas space.
func (s *Scene) Absolute(id string) (document.Rect, bool) {
	obj, ok := s.objects[id]
	if !ok {
		return document.Rect{}, false
	}
	b := obj.Bounds
	if g, ok := s.groups[obj.GroupID]; ok {
		b = b.Translate(g.Bounds.X, g.Bounds.Y)
	}
	return b, true
}

// SetAbsolute sets an object's bounds from canvas-space coordinates and
// notifies bounds listeners.
func (s *Scene) SetAbsolute(id string, r document.Rect) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	if g, ok := s.groups[obj.GroupID]; ok {
		r = r.Translate(-g.Bounds.X, -g.Bounds.Y)
	}
	if obj.Bounds == r {
		return true
	}
	obj.Bounds = r
	for _, fn := range s.onBoundsChanged {
		fn(id)
	}
	return true
}

// SetRotation stores a normalized rotation.
func (s *Scene) SetRotation(id string, deg float64) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	obj.Rotation = NormalizeDegrees(deg)
	return true
}

// SetZIndex stores a stacking index.
func (s *Scene) SetZIndex(id string, z int) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	obj.ZIndex = z
	return true
}

// SetLocked stores the lock flag.
func (s *Scene) SetLocked(id string, locked bool) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	obj.Locked = locked
	return true
}

// SetStyle stores one style property. An empty value removes it.
func (s *Scene) SetStyle(id, property, value string) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	if value == "" {
		delete(obj.Style, property)
		return true
	}
	if obj.Style == nil {
		obj.Style = make(map[string]string)
	}
	obj.Style[property] = value
	return true
}

// Add appends a new ungrouped object with absolute bounds.
func (s *Scene) Add(obj document.VisualObject) bool {
	if obj.ID == "" || s.Has(obj.ID) {
		return false
	}
	rec := obj.Clone()
	rec.GroupID = ""
	s.objects[rec.ID] = &rec
	s.order = append(s.order, rec.ID)
	return true
}

// Remove deletes an object and notifies removal listeners.
func (s *Scene) Remove(id string) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	groupID := obj.GroupID
	delete(s.objects, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	for _, fn := range s.onRemoved {
		fn(id, groupID)
	}
	return true
}

// ZIndices returns every object's stacking index.
func (s *Scene) ZIndices() []int {
	out := make([]int, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id].ZIndex)
	}
	return out
}

// putGroup inserts or replaces a group record.
func (s *Scene) putGroup(g document.Group) {
	if _, ok := s.groups[g.ID]; !ok {
		s.groupOrder = append(s.groupOrder, g.ID)
	}
	rec := g.Clone()
	s.groups[g.ID] = &rec
}

// deleteGroup removes a group record without touching members.
func (s *Scene) deleteGroup(id string) {
	delete(s.groups, id)
	s.groupOrder = slices.DeleteFunc(s.groupOrder, func(v string) bool { return v == id })
}

// setRaw writes a record's stored bounds and group without events.
func (s *Scene) setRaw(id string, bounds document.Rect, groupID string) {
	if obj, ok := s.objects[id]; ok {
		obj.Bounds = bounds
		obj.GroupID = groupID
	}
}

// moveGroupTo moves a group's origin. Members keep their relative positions and
// therefore move with it.
func (s *Scene) moveGroupTo(id string, x, y float64) bool {
	g, ok := s.groups[id]
	if !ok {
		return false
	}
	g.Bounds.X = x
	g.Bounds.Y = y
	return true
}
