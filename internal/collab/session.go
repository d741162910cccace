package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/inamate/inamate/layout-go/internal/editor"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnknownMessage = errors.New("unknown message type")
	ErrUnknownAction  = errors.New("unknown action")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotOwner       = errors.New("gesture belongs to another client")
)

// Session is the shared editor of one room. Every applied command bumps seq.
// A gesture belongs to the client whose pointer-down started it; only that
// client may move, release or cancel it.
type Session struct {
	editor *editor.Controller
	seq    atomic.Int64

	mu    sync.Mutex
	owner string // clientID driving the active gesture
}

func NewSession(opts editor.Options) *Session {
	return &Session{editor: editor.New(opts)}
}

// Editor returns the session's controller.
func (s *Session) Editor() *editor.Controller {
	return s.editor
}

// Seq returns the number of commands applied so far.
func (s *Session) Seq() int64 {
	return s.seq.Load()
}

// Apply runs one editor message from clientID against the controller. A
// non-nil reply is meant for the sender only and means no state changed;
// otherwise the new sequence number is returned.
func (s *Session) Apply(clientID string, msg *Message) (seq int64, reply *Message, err error) {
	switch msg.Type {
	case TypeEditorActivate:
		var p ActivatePayload
		if err := decode(msg.Payload, &p); err != nil {
			return 0, nil, err
		}
		s.editor.Activate(p.Objects, p.Connections)

	case TypeEditorDeactivate:
		s.editor.Deactivate()

	case TypeEditorPointer:
		var p PointerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return 0, nil, err
		}
		if err := s.pointer(clientID, p); err != nil {
			return 0, nil, err
		}

	case TypeEditorSelect:
		var p SelectPayload
		if err := decode(msg.Payload, &p); err != nil {
			return 0, nil, err
		}
		if err := s.editor.Select(p.ObjectID, p.Additive); err != nil {
			return 0, nil, err
		}

	case TypeEditorKey:
		var p KeyPayload
		if err := decode(msg.Payload, &p); err != nil {
			return 0, nil, err
		}
		if err := s.editor.HandleKey(p.Key); err != nil {
			return 0, nil, err
		}

	case TypeEditorAction:
		var p ActionPayload
		if err := decode(msg.Payload, &p); err != nil {
			return 0, nil, err
		}
		if err := s.action(p); err != nil {
			return 0, nil, err
		}

	case TypeEditorExport:
		records, err := s.editor.ExportLayout()
		if err != nil {
			return 0, nil, err
		}
		payload, err := json.Marshal(LayoutPayload{Records: records})
		if err != nil {
			return 0, nil, fmt.Errorf("marshal layout: %w", err)
		}
		return s.Seq(), &Message{Type: TypeEditorLayout, Seq: s.Seq(), Payload: payload}, nil

	default:
		return 0, nil, fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type)
	}
	return s.seq.Add(1), nil, nil
}

func (s *Session) pointer(clientID string, p PointerPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p.Phase {
	case PhaseDown:
		if p.Target.Kind == "" {
			p.Target = editor.Body()
		}
		if err := s.editor.PointerDown(p.X, p.Y, p.Target); err != nil {
			return err
		}
		if s.editor.Mode() != editor.ModeIdle {
			s.owner = clientID
		}
		return nil
	case PhaseMove, PhaseUp, PhaseCancel:
		if owner := s.currentOwner(); owner != "" && owner != clientID {
			return ErrNotOwner
		}
	default:
		return fmt.Errorf("%w: pointer phase %q", ErrInvalidPayload, p.Phase)
	}

	if p.Phase == PhaseMove {
		return s.editor.PointerMove(p.X, p.Y)
	}
	s.owner = ""
	if p.Phase == PhaseUp {
		return s.editor.PointerUp()
	}
	return s.editor.PointerCancel()
}

// currentOwner returns the gesture owner, forgetting it once the controller
// is idle again. Callers hold s.mu.
func (s *Session) currentOwner() string {
	if s.owner != "" && s.editor.Mode() == editor.ModeIdle {
		s.owner = ""
	}
	return s.owner
}

// GestureOwner returns the client driving the active gesture, or "".
func (s *Session) GestureOwner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentOwner()
}

// Release cancels the gesture owned by clientID, as if its pointer had been
// lifted. It reports whether a gesture was released.
func (s *Session) Release(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clientID == "" || s.currentOwner() != clientID {
		return false
	}
	s.owner = ""
	if err := s.editor.PointerCancel(); err != nil {
		return false
	}
	s.seq.Add(1)
	return true
}

func (s *Session) action(p ActionPayload) error {
	switch p.Action {
	case ActionAlign:
		return s.editor.Align(p.Alignment)
	case ActionGroup:
		_, err := s.editor.Group(p.Name)
		return err
	case ActionUngroup:
		return s.editor.Ungroup(p.GroupID)
	case ActionReorder:
		return s.editor.Reorder(p.ZOp, p.ObjectID)
	case ActionLock:
		return s.editor.ToggleLock(p.ObjectID)
	case ActionStyle:
		return s.editor.SetStyle(p.ObjectID, p.Property, p.Value)
	case ActionDelete:
		return s.editor.DeleteSelection()
	case ActionDuplicate:
		return s.editor.DuplicateSelection()
	case ActionUndo:
		return s.editor.Undo()
	case ActionRedo:
		return s.editor.Redo()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, p.Action)
	}
}

// StateMessage builds an editor.state message for the current seq.
func (s *Session) StateMessage() *Message {
	seq := s.Seq()
	payload, err := json.Marshal(s.editor.State())
	if err != nil {
		return nil
	}
	return &Message{Type: TypeEditorState, Seq: seq, Payload: payload}
}

// Close ends the editing session. A gesture in progress is finalized and any
// pending capture is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.owner = ""
	s.mu.Unlock()
	s.editor.Deactivate()
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
