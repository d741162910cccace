package collab

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/editor"
)

// SeedFunc returns the objects a new room's session starts with. Returning
// nil leaves the session inactive until a client sends editor.activate.
type SeedFunc func(projectID string) []document.VisualObject

type Room struct {
	projectID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	session   *Session
}

func NewRoom(projectID string, session *Session) *Room {
	return &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		session:   session,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	editorOpts editor.Options
	seed       SeedFunc
}

func NewHub(editorOpts editor.Options, seed SeedFunc) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		editorOpts: editorOpts,
		seed:       seed,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends Run and closes every room's session.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for id, room := range h.rooms {
			room.session.Close()
			delete(h.rooms, id)
		}
		slog.Info("hub stopped")
	})
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Export returns the live layout of a project's session.
func (h *Hub) Export(projectID string) ([]document.LayoutRecord, error) {
	room, ok := h.room(projectID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.session.Editor().ExportLayout()
}

func (h *Hub) room(projectID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[projectID]
	return room, ok
}

func (h *Hub) addClient(client *Client) {
	room, ok := h.room(client.ProjectID)
	if !ok {
		// Seeding may read the store, so it runs outside the hub lock. Rooms
		// are only created here, on the Run goroutine.
		room = NewRoom(client.ProjectID, h.newSession(client.ProjectID))
	}

	h.mu.Lock()
	h.rooms[client.ProjectID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Seq:      room.session.Seq(),
		State:    room.session.Editor().State(),
	})
	client.Send(&Message{Type: TypeWelcome, ClientID: client.ClientID, Payload: welcome})

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.ProjectID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) newSession(projectID string) *Session {
	s := NewSession(h.editorOpts)
	if h.seed != nil {
		if objs := h.seed(projectID); objs != nil {
			s.Editor().Activate(objs, nil)
		}
	}
	return s
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	// A dropped connection lifts its pointer.
	released := room.session.Release(client.ClientID)
	if released {
		slog.Info("gesture released", "user", client.UserID, "project", client.ProjectID)
	}

	if empty {
		room.session.Close()
		slog.Info("room closed", "project", client.ProjectID)
		return
	}

	if released {
		if state := room.session.StateMessage(); state != nil {
			h.broadcastToRoom(client.ProjectID, state, "")
		}
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.ProjectID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeEditorActivate, TypeEditorDeactivate, TypeEditorPointer, TypeEditorSelect,
		TypeEditorKey, TypeEditorAction, TypeEditorExport:
		h.handleEditor(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Nack(msg, ErrUnknownMessage)
	}
}

func (h *Hub) handleEditor(sender *Client, msg *Message) {
	room, ok := h.room(sender.ProjectID)
	if !ok {
		return
	}

	_, reply, err := room.session.Apply(sender.ClientID, msg)
	if err != nil {
		slog.Debug("editor command rejected", "type", msg.Type, "user", sender.UserID, "error", err)
		sender.Nack(msg, err)
		return
	}
	if reply != nil {
		sender.Send(reply)
		return
	}
	if state := room.session.StateMessage(); state != nil {
		h.broadcastToRoom(sender.ProjectID, state, "")
	}
	if msg.Type == TypeEditorPointer {
		h.syncGesture(room, sender)
	}
}

// syncGesture publishes whether sender now drives the room's gesture.
func (h *Hub) syncGesture(room *Room, sender *Client) {
	gesture := ""
	if room.session.GestureOwner() == sender.ClientID {
		gesture = room.session.Editor().Mode().String()
	}
	if p, changed := room.presence.SetGesture(sender.UserID, sender.DisplayName, gesture); changed {
		h.broadcastPresence(sender, p)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.ProjectID)
	if !ok {
		return
	}

	h.broadcastPresence(sender, room.presence.Update(sender.UserID, &presence))
}

// broadcastPresence sends p as sender's presence to the rest of the room.
func (h *Hub) broadcastPresence(sender *Client, p *PresencePayload) {
	outPayload, _ := json.Marshal(p)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.ProjectID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
