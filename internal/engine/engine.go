// Package engine holds the spatial algorithms of the layout editor: the object
// arena, snapping, transforms, alignment, grouping and stacking order.
package engine

import (
	"errors"
	"math"
)

// Defaults for Settings.
const (
	DefaultGridSize      = 10.0
	DefaultSnapThreshold = 5.0
	DefaultMinSize       = 20.0
	DefaultRotationStep  = 15.0
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrTooFewObjects  = errors.New("too few objects for operation")
	ErrAlreadyGrouped = errors.New("object already belongs to a group")
	ErrUnknownOp      = errors.New("unknown operation")
)

// Settings are the tunables shared by every engine. Engines hold a pointer so
// toggles made by the controller apply immediately.
type Settings struct {
	GridSize      float64
	SnapThreshold float64
	MinSize       float64
	RotationStep  float64
	SnapToGrid    bool
}

// DefaultSettings returns the stock editor tunables with grid snapping off.
func DefaultSettings() Settings {
	return Settings{
		GridSize:      DefaultGridSize,
		SnapThreshold: DefaultSnapThreshold,
		MinSize:       DefaultMinSize,
		RotationStep:  DefaultRotationStep,
	}
}

// roundTo rounds v to the nearest multiple of step. A non-positive step
// leaves v unchanged.
func roundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
