package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 256 * 1024 // editor.activate carries whole scenes
	sendBuffer = 256
)

// Client is one websocket connection in a room. Every message it reads is
// stamped with its identity, so the session can tell which connection owns a
// gesture.
type Client struct {
	Identity
	ProjectID string
	ClientID  string

	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, who Identity, projectID, clientID string) *Client {
	return &Client{
		Identity:  who,
		ProjectID: projectID,
		ClientID:  clientID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
}

// ReadPump dispatches incoming messages until the connection drops. Leaving
// unregisters the client, which releases any gesture it was driving.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "user", c.UserID, "client", c.ClientID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			continue
		}
		if msg.Type == "" {
			c.Nack(&msg, ErrUnknownMessage)
			continue
		}

		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.ProjectID = c.ProjectID

		c.hub.handleMessage(c, &msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg for delivery. Messages to a closed or backed-up client are
// dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID, "client", c.ClientID)
	}
}

// Nack tells the client msg was rejected and nothing changed.
func (c *Client) Nack(msg *Message, err error) {
	p := NackPayload{Type: msg.Type, Reason: err.Error()}
	if msg.Type == TypeEditorAction {
		var a ActionPayload
		if json.Unmarshal(msg.Payload, &a) == nil {
			p.Action = a.Action
		}
	}
	if errors.Is(err, ErrInvalidPayload) {
		slog.Warn("invalid editor payload", "type", msg.Type, "user", c.UserID, "error", err)
	}
	payload, _ := json.Marshal(p)
	c.Send(&Message{Type: TypeEditorNack, ClientID: c.ClientID, Payload: payload})
}

// close stops delivery and lets WritePump exit.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
