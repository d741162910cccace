package collab

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

// PresenceManager tracks what each user in a room is looking at and which
// gesture, if any, they are driving. Cursor and selection come from the
// client; the gesture is set by the hub from session ownership.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

// Update stores a client-reported presence for userID and returns the merged
// copy to broadcast. The recorded gesture is kept.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) *PresencePayload {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	next := p.clone()
	next.Gesture = ""
	if prev, ok := pm.presences[userID]; ok {
		next.Gesture = prev.Gesture
	}
	pm.presences[userID] = next
	return next.clone()
}

// SetGesture records the gesture userID drives; "" means none. It reports
// whether the value changed.
func (pm *PresenceManager) SetGesture(userID, displayName, gesture string) (*PresencePayload, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, ok := pm.presences[userID]
	if !ok {
		if gesture == "" {
			return nil, false
		}
		p = &PresencePayload{DisplayName: displayName}
		pm.presences[userID] = p
	}
	if p.Gesture == gesture {
		return p.clone(), false
	}
	p.Gesture = gesture
	return p.clone(), true
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

// Get returns a copy of userID's presence.
func (pm *PresenceManager) Get(userID string) (*PresencePayload, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.presences[userID]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// GetAll returns a copy of every presence keyed by user.
func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		result[k] = v.clone()
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}

func (p *PresencePayload) clone() *PresencePayload {
	out := *p
	out.Selection = slices.Clone(p.Selection)
	if p.Cursor != nil {
		c := *p.Cursor
		out.Cursor = &c
	}
	return &out
}
