package engine

import (
	"slices"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// Alignment names a batch alignment or distribution.
type Alignment string

const (
	AlignLeft            Alignment = "left"
	AlignRight           Alignment = "right"
	AlignTop             Alignment = "top"
	AlignBottom          Alignment = "bottom"
	AlignCenter          Alignment = "center"
	AlignMiddle          Alignment = "middle"
	DistributeHorizontal Alignment = "distribute-horizontal"
	DistributeVertical   Alignment = "distribute-vertical"
)

// MinMembers is the selection size the alignment needs.
func (a Alignment) MinMembers() int {
	if a == DistributeHorizontal || a == DistributeVertical {
		return 3
	}
	return 2
}

// AlignmentEngine repositions a multi-object selection.
type AlignmentEngine struct {
	scene *Scene
	index *SpatialIndex
}

// NewAlignmentEngine creates an alignment engine.
func NewAlignmentEngine(scene *Scene, index *SpatialIndex) *AlignmentEngine {
	return &AlignmentEngine{scene: scene, index: index}
}

type member struct {
	id string
	b  document.Rect
}

// Align applies kind to the objects in ids. Sizes never change. Unknown ids
// are ignored; too few remaining members is an error and nothing moves.
func (e *AlignmentEngine) Align(kind Alignment, ids []string) error {
	var members []member
	for _, id := range ids {
		if slices.ContainsFunc(members, func(m member) bool { return m.id == id }) {
			continue
		}
		if b, ok := e.index.Bounds(id); ok {
			members = append(members, member{id: id, b: b})
		}
	}
	if len(members) < kind.MinMembers() {
		return ErrTooFewObjects
	}

	minLeft, maxRight := members[0].b.Left(), members[0].b.Right()
	minTop, maxBottom := members[0].b.Top(), members[0].b.Bottom()
	for _, m := range members[1:] {
		minLeft = min(minLeft, m.b.Left())
		maxRight = max(maxRight, m.b.Right())
		minTop = min(minTop, m.b.Top())
		maxBottom = max(maxBottom, m.b.Bottom())
	}

	switch kind {
	case AlignLeft:
		e.each(members, func(b document.Rect) document.Rect { b.X = minLeft; return b })
	case AlignRight:
		e.each(members, func(b document.Rect) document.Rect { b.X = maxRight - b.Width; return b })
	case AlignTop:
		e.each(members, func(b document.Rect) document.Rect { b.Y = minTop; return b })
	case AlignBottom:
		e.each(members, func(b document.Rect) document.Rect { b.Y = maxBottom - b.Height; return b })
	case AlignCenter:
		ref := (minLeft + maxRight) / 2
		e.each(members, func(b document.Rect) document.Rect { b.X = ref - b.Width/2; return b })
	case AlignMiddle:
		ref := (minTop + maxBottom) / 2
		e.each(members, func(b document.Rect) document.Rect { b.Y = ref - b.Height/2; return b })
	case DistributeHorizontal:
		e.distribute(members, false)
	case DistributeVertical:
		e.distribute(members, true)
	default:
		return ErrUnknownOp
	}
	return nil
}

func (e *AlignmentEngine) each(members []member, fn func(document.Rect) document.Rect) {
	for _, m := range members {
		e.scene.SetAbsolute(m.id, fn(m.b))
	}
}

// distribute sorts by leading edge, keeps the first and last members and
// centers each interior member i at first.leading + spacing*i.
func (e *AlignmentEngine) distribute(members []member, vertical bool) {
	lead := func(b document.Rect) float64 { return b.Left() }
	trail := func(b document.Rect) float64 { return b.Right() }
	if vertical {
		lead = func(b document.Rect) float64 { return b.Top() }
		trail = func(b document.Rect) float64 { return b.Bottom() }
	}

	slices.SortStableFunc(members, func(a, b member) int {
		switch la, lb := lead(a.b), lead(b.b); {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})

	first, last := members[0], members[len(members)-1]
	spacing := (trail(last.b) - lead(first.b)) / float64(len(members)-1)

	for i := 1; i < len(members)-1; i++ {
		b := members[i].b
		center := lead(first.b) + spacing*float64(i)
		if vertical {
			b.Y = center - b.Height/2
		} else {
			b.X = center - b.Width/2
		}
		e.scene.SetAbsolute(members[i].id, b)
	}
}
