package document

import (
	"github.com/inamate/inamate/layout-go/internal/typeid"
)

// NewSampleObjects returns a small canvas used by the playground session.
func NewSampleObjects() []VisualObject {
	header := typeid.NewObjectID()
	card := typeid.NewObjectID()
	button := typeid.NewObjectID()
	badge := typeid.NewObjectID()

	return []VisualObject{
		{
			ID:        header,
			Bounds:    Rect{X: 40, Y: 40, Width: 640, Height: 80},
			ZIndex:    1,
			ElementID: "header",
			Tag:       "header",
			Style:     map[string]string{"background": "#1a1a2e", "color": "#ffffff"},
		},
		{
			ID:      card,
			Bounds:  Rect{X: 40, Y: 160, Width: 300, Height: 200},
			ZIndex:  2,
			Tag:     "div",
			Classes: []string{"card", "shadow"},
			Style:   map[string]string{"background": "#ffffff", "border-radius": "8px"},
		},
		{
			ID:      button,
			Bounds:  Rect{X: 380, Y: 160, Width: 120, Height: 40},
			ZIndex:  3,
			Tag:     "button",
			Classes: []string{"primary"},
			Style:   map[string]string{"background": "#e94560", "color": "#ffffff"},
			Script:  "onClick: submit",
		},
		{
			ID:       badge,
			Bounds:   Rect{X: 540, Y: 170, Width: 40, Height: 40},
			Rotation: 45,
			ZIndex:   4,
			Tag:      "span",
			Classes:  []string{"badge"},
			Locked:   true,
		},
	}
}
