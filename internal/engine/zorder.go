package engine

// ZOp names a stacking order change.
type ZOp string

const (
	BringToFront ZOp = "bring-to-front"
	SendToBack   ZOp = "send-to-back"
	MoveForward  ZOp = "move-forward"
	MoveBackward ZOp = "move-backward"
)

// ZOrderManager maintains a sparse integer stacking order.
type ZOrderManager struct {
	scene *Scene
}

// NewZOrderManager creates a z-order manager.
func NewZOrderManager(scene *Scene) *ZOrderManager {
	return &ZOrderManager{scene: scene}
}

// Apply changes the zIndex of id according to op.
func (m *ZOrderManager) Apply(op ZOp, id string) error {
	obj, ok := m.scene.Object(id)
	if !ok {
		return ErrNotFound
	}
	all := m.scene.ZIndices()
	lo, hi := all[0], all[0]
	for _, z := range all[1:] {
		lo = min(lo, z)
		hi = max(hi, z)
	}

	var z int
	switch op {
	case BringToFront:
		z = hi + 1
	case SendToBack:
		z = lo - 1
	case MoveForward:
		z = hi + 1
		found := false
		next := 0
		for _, v := range all {
			if v > obj.ZIndex && (!found || v < next) {
				next, found = v, true
			}
		}
		if found {
			z = next + 1
		}
	case MoveBackward:
		z = lo - 1
		found := false
		prev := 0
		for _, v := range all {
			if v < obj.ZIndex && (!found || v > prev) {
				prev, found = v, true
			}
		}
		if found {
			z = prev - 1
		}
	default:
		return ErrUnknownOp
	}

	m.scene.SetZIndex(id, z)
	return nil
}
