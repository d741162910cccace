package engine

import (
	"math"
	"testing"

	"github.com/inamate/inamate/layout-go/internal/document"
)

const eps = 1e-9

type fixture struct {
	settings  *Settings
	scene     *Scene
	index     *SpatialIndex
	snap      *SnapEngine
	transform *TransformEngine
	align     *AlignmentEngine
	groups    *GroupManager
	zorder    *ZOrderManager
}

func newFixture(objects ...document.VisualObject) *fixture {
	s := DefaultSettings()
	f := &fixture{settings: &s, scene: NewScene()}
	f.scene.Load(objects, nil, nil)
	f.index = NewSpatialIndex(f.scene)
	f.snap = NewSnapEngine(f.settings)
	f.transform = NewTransformEngine(f.scene, f.index, f.snap, f.settings)
	f.align = NewAlignmentEngine(f.scene, f.index)
	f.groups = NewGroupManager(f.scene, f.index)
	f.zorder = NewZOrderManager(f.scene)
	return f
}

func obj(id string, x, y, w, h float64) document.VisualObject {
	return document.VisualObject{ID: id, Bounds: document.Rect{X: x, Y: y, Width: w, Height: h}}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func rectNear(a, b document.Rect) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Width, b.Width) && near(a.Height, b.Height)
}

func mustBounds(t *testing.T, f *fixture, id string) document.Rect {
	t.Helper()
	b, ok := f.index.Bounds(id)
	if !ok {
		t.Fatalf("object %q not found", id)
	}
	return b
}
