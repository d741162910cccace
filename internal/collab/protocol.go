package collab

import (
	"encoding/json"

	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/editor"
	"github.com/inamate/inamate/layout-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// PresencePayload is what peers see of one user: pointer position, the
// objects their client highlights, and the gesture they hold. Gesture is the
// interaction mode ("dragging", "resizing", "rotating") while that user owns
// the room's gesture and is ignored when sent by a client.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Gesture     string     `json:"gesture,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a canvas-space pointer position.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceStatePayload is sent to a joining client with everyone's presence.
type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

// PresenceJoinPayload announces a user entering the room.
type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// PresenceLeavePayload announces a user leaving the room.
type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Editor commands, client to server
	TypeEditorActivate   = "editor.activate"
	TypeEditorDeactivate = "editor.deactivate"
	TypeEditorPointer    = "editor.pointer"
	TypeEditorSelect     = "editor.select"
	TypeEditorKey        = "editor.key"
	TypeEditorAction     = "editor.action"
	TypeEditorExport     = "editor.export"

	// Editor replies, server to client
	TypeEditorState  = "editor.state"
	TypeEditorNack   = "editor.nack"
	TypeEditorLayout = "editor.layout"
)

// Pointer phases
const (
	PhaseDown   = "down"
	PhaseMove   = "move"
	PhaseUp     = "up"
	PhaseCancel = "cancel"
)

// Editor actions
const (
	ActionAlign     = "align"
	ActionGroup     = "group"
	ActionUngroup   = "ungroup"
	ActionReorder   = "reorder"
	ActionLock      = "lock"
	ActionStyle     = "style"
	ActionDelete    = "delete"
	ActionDuplicate = "duplicate"
	ActionUndo      = "undo"
	ActionRedo      = "redo"
)

// WelcomePayload is sent once to a client after it joins a room.
type WelcomePayload struct {
	ClientID string       `json:"clientId"`
	UserID   string       `json:"userId"`
	Seq      int64        `json:"seq"`
	State    editor.State `json:"state"`
}

// ActivatePayload starts a session over the given objects.
type ActivatePayload struct {
	Objects     []document.VisualObject `json:"objects"`
	Connections []document.Connection   `json:"connections,omitempty"`
}

// PointerPayload is one pointer event.
type PointerPayload struct {
	Phase  string        `json:"phase"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Target editor.Target `json:"target"`
}

// SelectPayload changes the selection. An empty ObjectID clears it.
type SelectPayload struct {
	ObjectID string `json:"objectId"`
	Additive bool   `json:"additive,omitempty"`
}

// KeyPayload is a key chord such as "ctrl+z".
type KeyPayload struct {
	Key string `json:"key"`
}

// ActionPayload carries a discrete editor action. Which fields are read
// depends on Action.
type ActionPayload struct {
	Action    string           `json:"action"`
	Alignment engine.Alignment `json:"alignment,omitempty"`
	Name      string           `json:"name,omitempty"`
	GroupID   string           `json:"groupId,omitempty"`
	ZOp       engine.ZOp       `json:"zOp,omitempty"`
	ObjectID  string           `json:"objectId,omitempty"`
	Property  string           `json:"property,omitempty"`
	Value     string           `json:"value,omitempty"`
}

// NackPayload reports a rejected editor command. Nothing changed.
type NackPayload struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Reason string `json:"reason"`
}

// LayoutPayload is the reply to editor.export.
type LayoutPayload struct {
	Records []document.LayoutRecord `json:"records"`
}
