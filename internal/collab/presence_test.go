package collab

import (
	"encoding/json"
	"testing"
)

func TestPresenceKeepsServerGesture(t *testing.T) {
	pm := NewPresenceManager()

	if _, changed := pm.SetGesture("u1", "Ada", ""); changed {
		t.Error("clearing an unknown user's gesture reported a change")
	}
	p, changed := pm.SetGesture("u1", "Ada", "dragging")
	if !changed || p.Gesture != "dragging" || p.DisplayName != "Ada" {
		t.Fatalf("SetGesture() = %+v, %v", p, changed)
	}
	if _, changed := pm.SetGesture("u1", "Ada", "dragging"); changed {
		t.Error("repeating the same gesture reported a change")
	}

	// Clients cannot claim or clear a gesture through presence.update.
	out := pm.Update("u1", &PresencePayload{Cursor: &CursorPos{X: 3, Y: 4}, Selection: []string{"a"}, Gesture: "rotating"})
	if out.Gesture != "dragging" || out.Cursor.X != 3 {
		t.Errorf("Update() = %+v, want gesture dragging and cursor kept", out)
	}
	fresh := pm.Update("u2", &PresencePayload{Gesture: "resizing"})
	if fresh.Gesture != "" {
		t.Errorf("new user gesture = %q, want empty", fresh.Gesture)
	}

	out.Selection[0] = "mutated"
	got, ok := pm.Get("u1")
	if !ok || got.Selection[0] != "a" {
		t.Errorf("Get() = %+v, want stored selection untouched", got)
	}

	pm.Remove("u2")
	msg := pm.StateMessage()
	var state PresenceStatePayload
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Presences) != 1 || state.Presences["u1"].Gesture != "dragging" {
		t.Errorf("state = %+v", state.Presences)
	}
}
