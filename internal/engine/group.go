package engine

import (
	"fmt"
	"slices"

	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/typeid"
)

// GroupManager creates and dissolves groups and keeps each group's bounds equal
// to the union of its members. It listens to scene events rather than being
// called by the other engines.
type GroupManager struct {
	scene    *Scene
	index    *SpatialIndex
	created  int
	updating bool
}

// NewGroupManager creates a group manager and subscribes it to scene events.
func NewGroupManager(scene *Scene, index *SpatialIndex) *GroupManager {
	m := &GroupManager{scene: scene, index: index}
	scene.OnBoundsChanged(m.memberChanged)
	scene.OnRemoved(m.memberRemoved)
	return m
}

// Create groups ids. Members keep their absolute placement; their stored
// positions become relative to the group's origin.
func (m *GroupManager) Create(name string, ids []string) (document.Group, error) {
	var members []string
	for _, id := range ids {
		if slices.Contains(members, id) {
			continue
		}
		obj, ok := m.scene.Object(id)
		if !ok {
			continue
		}
		if obj.GroupID != "" {
			return document.Group{}, ErrAlreadyGrouped
		}
		members = append(members, id)
	}
	if len(members) < 2 {
		return document.Group{}, ErrTooFewObjects
	}

	m.created++
	if name == "" {
		name = fmt.Sprintf("Group %d", m.created)
	}

	bounds := m.index.SelectionBounds(members)
	g := document.Group{
		ID:        typeid.NewGroupID(),
		Name:      name,
		MemberIDs: members,
		Bounds:    bounds,
	}
	m.scene.putGroup(g)

	for _, id := range members {
		abs, _ := m.scene.Absolute(id)
		m.scene.setRaw(id, abs.Translate(-bounds.X, -bounds.Y), g.ID)
	}
	return g, nil
}

// Ungroup dissolves a group, restoring absolute member positions.
func (m *GroupManager) Ungroup(groupID string) error {
	g, ok := m.scene.Group(groupID)
	if !ok {
		return ErrGroupNotFound
	}
	m.dissolve(g)
	return nil
}

func (m *GroupManager) dissolve(g document.Group) {
	for _, id := range g.MemberIDs {
		abs, ok := m.scene.Absolute(id)
		if !ok {
			continue
		}
		m.scene.setRaw(id, abs, "")
	}
	m.scene.deleteGroup(g.ID)
}

// Recompute resets a group's bounds to the union of its members and rebases
// member positions so no member moves on the canvas.
func (m *GroupManager) Recompute(groupID string) {
	g, ok := m.scene.Group(groupID)
	if !ok {
		return
	}

	abs := make([]document.Rect, 0, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		if b, ok := m.scene.Absolute(id); ok {
			abs = append(abs, b)
		}
	}
	union := document.UnionAll(abs)
	if union == g.Bounds {
		return
	}

	g.Bounds = union
	m.scene.putGroup(g)
	i := 0
	for _, id := range g.MemberIDs {
		if !m.scene.Has(id) {
			continue
		}
		m.scene.setRaw(id, abs[i].Translate(-union.X, -union.Y), g.ID)
		i++
	}
}

// GroupOf returns the group an object belongs to.
func (m *GroupManager) GroupOf(id string) (document.Group, bool) {
	obj, ok := m.scene.Object(id)
	if !ok || obj.GroupID == "" {
		return document.Group{}, false
	}
	return m.scene.Group(obj.GroupID)
}

func (m *GroupManager) memberChanged(id string) {
	if m.updating {
		return
	}
	obj, ok := m.scene.objects[id]
	if !ok || obj.GroupID == "" {
		return
	}
	m.updating = true
	defer func() { m.updating = false }()
	m.Recompute(obj.GroupID)
}

func (m *GroupManager) memberRemoved(id, groupID string) {
	g, ok := m.scene.Group(groupID)
	if !ok {
		return
	}
	g.MemberIDs = slices.DeleteFunc(g.MemberIDs, func(v string) bool { return v == id })
	if len(g.MemberIDs) < 2 {
		m.dissolve(g)
		return
	}
	m.scene.putGroup(g)
	m.Recompute(g.ID)
}
