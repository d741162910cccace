package engine

import (
	"slices"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// SpatialIndex is the read-only query surface over a scene's bounding boxes.
type SpatialIndex struct {
	scene *Scene
}

// NewSpatialIndex creates an index over scene.
func NewSpatialIndex(scene *Scene) *SpatialIndex {
	return &SpatialIndex{scene: scene}
}

// Bounds returns an object's absolute bounds.
func (ix *SpatialIndex) Bounds(id string) (document.Rect, bool) {
	return ix.scene.Absolute(id)
}

// Others returns the absolute bounds of every non-locked object not in exclude.
func (ix *SpatialIndex) Others(exclude ...string) []document.Rect {
	var out []document.Rect
	for _, id := range ix.scene.order {
		if slices.Contains(exclude, id) {
			continue
		}
		if ix.scene.objects[id].Locked {
			continue
		}
		b, _ := ix.scene.Absolute(id)
		out = append(out, b)
	}
	return out
}

// VisualBounds returns the axis-aligned box of an object after rotation.
func (ix *SpatialIndex) VisualBounds(id string) (document.Rect, bool) {
	obj, ok := ix.scene.objects[id]
	if !ok {
		return document.Rect{}, false
	}
	b, _ := ix.scene.Absolute(id)
	return ObjectMatrix(b, obj.Rotation).TransformRect(b), true
}

// HitTest returns the topmost non-locked object containing the point, or an
// empty string. The point is tested in each object's rotated frame. Among equal
// zIndex values the object later in the arena wins.
func (ix *SpatialIndex) HitTest(x, y float64) string {
	hit := ""
	hitZ := 0
	for _, id := range ix.scene.order {
		obj := ix.scene.objects[id]
		if obj.Locked {
			continue
		}
		b, _ := ix.scene.Absolute(id)
		if b.IsEmpty() {
			continue
		}
		lx, ly := ObjectMatrix(b, obj.Rotation).Invert().TransformPoint(x, y)
		if !b.Contains(lx, ly) {
			continue
		}
		if hit == "" || obj.ZIndex >= hitZ {
			hit = id
			hitZ = obj.ZIndex
		}
	}
	return hit
}

// SelectionBounds returns the combined bounding box of the given object IDs.
func (ix *SpatialIndex) SelectionBounds(ids []string) document.Rect {
	var result document.Rect
	first := true

	for _, id := range ids {
		b, ok := ix.scene.Absolute(id)
		if !ok || b.IsEmpty() {
			continue
		}
		if first {
			result = b
			first = false
		} else {
			result = result.Union(b)
		}
	}

	return result
}
