package layout

import (
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/inamate/inamate/layout-go/internal/document"
)

var (
	rotatePattern    = regexp.MustCompile(`rotate\(\s*(-?[0-9.]+)\s*deg\s*\)`)
	layoutIDSelector = regexp.MustCompile(`^\[data-layout-id="([^"]+)"\]$`)
)

// computedKeys are the style properties export derives from geometry.
var computedKeys = []string{"left", "top", "width", "height", "transform", "z-index"}

// ObjectsFromDocument rebuilds editable objects from a saved layout so a
// session can resume where it was last exported. Unparsable values fall back
// to zero.
func ObjectsFromDocument(doc *document.LayoutDocument) []document.VisualObject {
	out := make([]document.VisualObject, 0, len(doc.Records))
	for _, rec := range doc.Records {
		obj := document.VisualObject{
			ID: rec.ID,
			Bounds: document.Rect{
				X:      parsePx(rec.Style["left"]),
				Y:      parsePx(rec.Style["top"]),
				Width:  parsePx(rec.Style["width"]),
				Height: parsePx(rec.Style["height"]),
			},
		}
		if m := rotatePattern.FindStringSubmatch(rec.Style["transform"]); m != nil {
			obj.Rotation, _ = strconv.ParseFloat(m[1], 64)
		}
		obj.ZIndex, _ = strconv.Atoi(rec.Style["z-index"])
		applySelector(&obj, rec.Selector)

		style := maps.Clone(rec.Style)
		for _, k := range computedKeys {
			delete(style, k)
		}
		if len(style) > 0 {
			obj.Style = style
		}
		out = append(out, obj)
	}
	return out
}

func applySelector(obj *document.VisualObject, selector string) {
	switch {
	case strings.HasPrefix(selector, "#"):
		obj.ElementID = selector[1:]
	case layoutIDSelector.MatchString(selector):
	default:
		parts := strings.Split(selector, ".")
		obj.Tag = parts[0]
		if len(parts) > 1 {
			obj.Classes = parts[1:]
		}
	}
}

func parsePx(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	return f
}
