package engine

import (
	"testing"

	"github.com/inamate/inamate/layout-go/internal/document"
)

func TestHitTestTopmost(t *testing.T) {
	low := obj("low", 0, 0, 100, 100)
	high := obj("high", 50, 50, 100, 100)
	high.ZIndex = 5
	locked := obj("locked", 0, 0, 200, 200)
	locked.ZIndex = 99
	locked.Locked = true
	f := newFixture(low, high, locked)

	tests := []struct {
		x, y float64
		want string
	}{
		{10, 10, "low"},
		{75, 75, "high"},
		{140, 140, "high"},
		{190, 190, ""},
		{-1, -1, ""},
	}
	for _, tt := range tests {
		if got := f.index.HitTest(tt.x, tt.y); got != tt.want {
			t.Errorf("HitTest(%v, %v) = %q, want %q", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestHitTestEqualZPrefersLater(t *testing.T) {
	f := newFixture(obj("first", 0, 0, 100, 100), obj("second", 0, 0, 100, 100))
	if got := f.index.HitTest(50, 50); got != "second" {
		t.Errorf("HitTest = %q, want second", got)
	}
}

func TestHitTestRotated(t *testing.T) {
	bar := obj("bar", 0, 45, 100, 10)
	bar.Rotation = 90
	f := newFixture(bar)

	if got := f.index.HitTest(50, 10); got != "bar" {
		t.Errorf("HitTest inside rotated bar = %q", got)
	}
	if got := f.index.HitTest(10, 50); got != "" {
		t.Errorf("HitTest inside unrotated footprint = %q, want miss", got)
	}

	vb, _ := f.index.VisualBounds("bar")
	if !rectNear(vb, document.Rect{X: 45, Y: 0, Width: 10, Height: 100}) {
		t.Errorf("VisualBounds = %+v", vb)
	}
}

func TestOthersExcludesLockedAndSelf(t *testing.T) {
	locked := obj("c", 0, 0, 10, 10)
	locked.Locked = true
	f := newFixture(obj("a", 0, 0, 10, 10), obj("b", 20, 0, 10, 10), locked)

	others := f.index.Others("a")
	if len(others) != 1 || others[0].X != 20 {
		t.Errorf("Others(a) = %+v", others)
	}
}

func TestSelectionBounds(t *testing.T) {
	f := newFixture(obj("a", 0, 0, 10, 10), obj("b", 20, 30, 10, 10))
	got := f.index.SelectionBounds([]string{"a", "b", "missing"})
	if got != (document.Rect{X: 0, Y: 0, Width: 30, Height: 40}) {
		t.Errorf("SelectionBounds = %+v", got)
	}
	if got := f.index.SelectionBounds(nil); got != (document.Rect{}) {
		t.Errorf("empty selection = %+v", got)
	}
}
