package editor

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/inamate/inamate/layout-go/internal/document"
)

// ExportLayout returns one record per object in arena order, with the host
// style merged with the computed placement.
func (c *Controller) ExportLayout() ([]document.LayoutRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("export"); err != nil {
		return nil, err
	}
	return ExportRecords(c.scene.Resolved()), nil
}

// ExportRecords converts objects with absolute bounds into layout records.
func ExportRecords(objects []document.VisualObject) []document.LayoutRecord {
	out := make([]document.LayoutRecord, 0, len(objects))
	for _, o := range objects {
		style := maps.Clone(o.Style)
		if style == nil {
			style = make(map[string]string, 6)
		}
		style["left"] = px(o.Bounds.X)
		style["top"] = px(o.Bounds.Y)
		style["width"] = px(o.Bounds.Width)
		style["height"] = px(o.Bounds.Height)
		style["transform"] = fmt.Sprintf("rotate(%sdeg)", num(o.Rotation))
		style["z-index"] = strconv.Itoa(o.ZIndex)
		out = append(out, document.LayoutRecord{
			ID:       o.ID,
			Selector: Selector(o),
			Style:    style,
		})
	}
	return out
}

// Selector derives a CSS selector hint: the element id when present, else the
// tag and classes (either may be absent), else an attribute selector on the
// object id.
func Selector(o document.VisualObject) string {
	if o.ElementID != "" {
		return "#" + o.ElementID
	}
	var b strings.Builder
	b.WriteString(o.Tag)
	for _, cls := range o.Classes {
		if cls = strings.TrimSpace(cls); cls != "" {
			b.WriteByte('.')
			b.WriteString(cls)
		}
	}
	if b.Len() > 0 {
		return b.String()
	}
	return fmt.Sprintf("[data-layout-id=%q]", o.ID)
}

func px(v float64) string {
	return num(v) + "px"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
