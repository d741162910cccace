package document

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// VisualObject is the unit of manipulation on the canvas.
//
// While GroupID is set, Bounds.X and Bounds.Y are relative to the owning
// group's origin. Width and height are always absolute.
type VisualObject struct {
	ID       string  `json:"id"`
	Bounds   Rect    `json:"bounds"`
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
	Locked   bool    `json:"locked"`
	GroupID  string  `json:"groupId,omitempty"`

	// Host metadata, carried through for export only.
	ElementID string            `json:"elementId,omitempty"`
	Tag       string            `json:"tag,omitempty"`
	Classes   []string          `json:"classes,omitempty"`
	Style     map[string]string `json:"style,omitempty"`

	// Script is an opaque behavior payload. It is never evaluated here.
	Script string `json:"script,omitempty"`
}

// Clone returns a deep copy of the object.
func (o VisualObject) Clone() VisualObject {
	o.Classes = slices.Clone(o.Classes)
	o.Style = maps.Clone(o.Style)
	return o
}

// Group is a named aggregate of two or more objects. Bounds is absolute.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
	Bounds    Rect     `json:"bounds"`
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	g.MemberIDs = slices.Clone(g.MemberIDs)
	return g
}

// Connection is auxiliary wiring between objects. Its payload is opaque.
type Connection struct {
	ID   string          `json:"id"`
	From string          `json:"from"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Clone returns a deep copy of the connection.
func (c Connection) Clone() Connection {
	c.Data = slices.Clone(c.Data)
	return c
}

// Snapshot is a full, immutable copy of the editable state.
type Snapshot struct {
	Objects     []VisualObject `json:"objects"`
	Groups      []Group        `json:"groups"`
	Connections []Connection   `json:"connections"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewSnapshot deep-copies the given state into a snapshot.
func NewSnapshot(objects []VisualObject, groups []Group, connections []Connection) Snapshot {
	snap := Snapshot{
		Objects:     make([]VisualObject, len(objects)),
		Groups:      make([]Group, len(groups)),
		Connections: make([]Connection, len(connections)),
		Timestamp:   time.Now(),
	}
	for i, o := range objects {
		snap.Objects[i] = o.Clone()
	}
	for i, g := range groups {
		snap.Groups[i] = g.Clone()
	}
	for i, c := range connections {
		snap.Connections[i] = c.Clone()
	}
	return snap
}

// LayoutRecord is one exported object: identifier, selector hint and
// computed style subset.
type LayoutRecord struct {
	ID       string            `json:"id"`
	Selector string            `json:"selector"`
	Style    map[string]string `json:"style"`
}

// LayoutDocument is a persisted export.
type LayoutDocument struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"projectId"`
	Version   int            `json:"version"`
	Records   []LayoutRecord `json:"records"`
	CreatedAt time.Time      `json:"createdAt"`
}
