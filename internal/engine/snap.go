package engine

import (
	"math"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// Orientation of a snap guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// GuideKind says which feature of the reference object produced a guide.
type GuideKind string

const (
	GuideEdge   GuideKind = "edge"
	GuideCenter GuideKind = "center"
)

// Guide strengths.
const (
	EdgeStrength   = 1
	CenterStrength = 2
)

// SnapGuide is a transient alignment hint produced during a move frame.
// Position is x for vertical guides and y for horizontal ones.
type SnapGuide struct {
	Position    float64     `json:"position"`
	Orientation Orientation `json:"orientation"`
	Strength    int         `json:"strength"`
	Kind        GuideKind   `json:"kind"`
}

// SnapResult is the outcome of one move frame.
type SnapResult struct {
	X      float64
	Y      float64
	Guides []SnapGuide
}

// SnapEngine computes alignment guides and snapped coordinates.
type SnapEngine struct {
	settings *Settings
}

// NewSnapEngine creates a snap engine reading the shared settings.
func NewSnapEngine(settings *Settings) *SnapEngine {
	return &SnapEngine{settings: settings}
}

// Snap aligns candidate against others. Each axis is handled independently:
// edge candidates are evaluated first and center candidates second, so a
// center match overwrites an edge clamp. Grid rounding runs afterwards when
// grid snapping is on.
func (e *SnapEngine) Snap(candidate document.Rect, others []document.Rect) SnapResult {
	x, vGuides := snapAxis(candidate.X, candidate.Width, others, Vertical, e.settings.SnapThreshold)
	y, hGuides := snapAxis(candidate.Y, candidate.Height, others, Horizontal, e.settings.SnapThreshold)

	if e.settings.SnapToGrid {
		x = roundTo(x, e.settings.GridSize)
		y = roundTo(y, e.settings.GridSize)
	}

	return SnapResult{X: x, Y: y, Guides: append(vGuides, hGuides...)}
}

type snapTarget struct {
	value float64
	kind  GuideKind
}

type movingFeature struct {
	value  float64
	offset float64 // distance from the moving object's near edge
}

func snapAxis(start, size float64, others []document.Rect, o Orientation, threshold float64) (float64, []SnapGuide) {
	features := [3]movingFeature{
		{value: start, offset: 0},
		{value: start + size, offset: size},
		{value: start + size/2, offset: size / 2},
	}

	targets := make([]snapTarget, 0, len(others)*3)
	for _, r := range others {
		near, far := r.X, r.Right()
		if o == Horizontal {
			near, far = r.Y, r.Bottom()
		}
		targets = append(targets, snapTarget{near, GuideEdge}, snapTarget{far, GuideEdge})
	}
	for _, r := range others {
		cx, cy := r.Center()
		c := cx
		if o == Horizontal {
			c = cy
		}
		targets = append(targets, snapTarget{c, GuideCenter})
	}

	pos := start
	seen := make(map[float64]bool)
	var guides []SnapGuide
	for _, t := range targets {
		for _, f := range features {
			if math.Abs(t.value-f.value) >= threshold || seen[t.value] {
				continue
			}
			seen[t.value] = true
			strength := EdgeStrength
			if t.kind == GuideCenter {
				strength = CenterStrength
			}
			guides = append(guides, SnapGuide{
				Position:    t.value,
				Orientation: o,
				Strength:    strength,
				Kind:        t.kind,
			})
			pos = t.value - f.offset
		}
	}
	return pos, guides
}
