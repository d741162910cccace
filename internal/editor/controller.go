// Package editor is the selection controller: the one component a host talks
// to. It owns the interaction mode, the selection and the history, and routes
// pointer and keyboard events to the engines.
package editor

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/engine"
	"github.com/inamate/inamate/layout-go/internal/history"
	"github.com/inamate/inamate/layout-go/internal/typeid"
)

// DefaultDuplicateOffset is how far duplicates are shifted on both axes.
const DefaultDuplicateOffset = 20.0

var (
	ErrInactive    = errors.New("editor is not active")
	ErrBusy        = errors.New("another gesture is in progress")
	ErrLocked      = errors.New("object is locked")
	ErrNoSelection = errors.New("nothing selected")
	ErrUnbound     = errors.New("key is not bound")
)

// Host receives presentation updates. A no-op implementation is valid.
// Methods run while the controller is locked and must not call back into it.
type Host interface {
	// Sync is called with absolute-bounds copies after state changes.
	Sync(objects []document.VisualObject)
	// ShowGuides is called each drag frame and with nil when a gesture ends.
	ShowGuides(guides []engine.SnapGuide)
	// Restore is called on deactivate.
	Restore()
}

type nopHost struct{}

func (nopHost) Sync([]document.VisualObject)  {}
func (nopHost) ShowGuides([]engine.SnapGuide) {}
func (nopHost) Restore()                      {}

// Options configure a Controller. Zero fields take defaults.
type Options struct {
	GridSize        float64
	SnapThreshold   float64
	MinSize         float64
	RotationStep    float64
	HistoryCapacity int
	StyleDebounce   time.Duration
	DuplicateOffset float64
	Keymap          Keymap
	Host            Host
	Logger          *slog.Logger
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	s := engine.DefaultSettings()
	return Options{
		GridSize:        s.GridSize,
		SnapThreshold:   s.SnapThreshold,
		MinSize:         s.MinSize,
		RotationStep:    s.RotationStep,
		HistoryCapacity: history.DefaultCapacity,
		StyleDebounce:   history.DefaultDebounce,
		DuplicateOffset: DefaultDuplicateOffset,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GridSize <= 0 {
		o.GridSize = d.GridSize
	}
	if o.SnapThreshold <= 0 {
		o.SnapThreshold = d.SnapThreshold
	}
	if o.MinSize <= 0 {
		o.MinSize = d.MinSize
	}
	if o.RotationStep <= 0 {
		o.RotationStep = d.RotationStep
	}
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = d.HistoryCapacity
	}
	if o.StyleDebounce <= 0 {
		o.StyleDebounce = d.StyleDebounce
	}
	if o.DuplicateOffset == 0 {
		o.DuplicateOffset = d.DuplicateOffset
	}
	if o.Keymap == nil {
		o.Keymap = DefaultKeymap()
	}
	if o.Host == nil {
		o.Host = nopHost{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// State is a point-in-time view of the editor for presentation.
type State struct {
	Active      bool                    `json:"active"`
	Mode        string                  `json:"mode"`
	Selection   []string                `json:"selection"`
	Objects     []document.VisualObject `json:"objects"`
	Groups      []document.Group        `json:"groups"`
	Connections []document.Connection   `json:"connections"`
	Guides      []engine.SnapGuide      `json:"guides"`
	ShowGrid    bool                    `json:"showGrid"`
	SnapToGrid  bool                    `json:"snapToGrid"`
	CanUndo     bool                    `json:"canUndo"`
	CanRedo     bool                    `json:"canRedo"`
}

// Controller orchestrates one editing session. Its methods are safe for
// concurrent use and are applied in call order.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	logger *slog.Logger
	host   Host

	settings  engine.Settings
	scene     *engine.Scene
	index     *engine.SpatialIndex
	snap      *engine.SnapEngine
	transform *engine.TransformEngine
	align     *engine.AlignmentEngine
	groups    *engine.GroupManager
	zorder    *engine.ZOrderManager

	history    *history.Manager
	debounce   *history.Debouncer
	styleDirty bool

	active    bool
	mode      Mode
	gesture   engine.Gesture
	selection []string
	guides    []engine.SnapGuide
	showGrid  bool
}

// New creates an inactive controller.
func New(opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		opts:   opts,
		logger: opts.Logger,
		host:   opts.Host,
		settings: engine.Settings{
			GridSize:      opts.GridSize,
			SnapThreshold: opts.SnapThreshold,
			MinSize:       opts.MinSize,
			RotationStep:  opts.RotationStep,
		},
		scene:   engine.NewScene(),
		history: history.NewManager(opts.HistoryCapacity),
	}
	c.index = engine.NewSpatialIndex(c.scene)
	c.snap = engine.NewSnapEngine(&c.settings)
	c.transform = engine.NewTransformEngine(c.scene, c.index, c.snap, &c.settings)
	c.align = engine.NewAlignmentEngine(c.scene, c.index)
	c.groups = engine.NewGroupManager(c.scene, c.index)
	c.zorder = engine.NewZOrderManager(c.scene)
	c.debounce = history.NewDebouncer(opts.StyleDebounce, c.styleSettled)
	return c
}

// Activate starts a session over objects. Any previous session is discarded.
// Incoming objects are treated as ungrouped with absolute bounds.
func (c *Controller) Activate(objects []document.VisualObject, connections []document.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		c.deactivate()
	}
	objs := make([]document.VisualObject, len(objects))
	for i, o := range objects {
		objs[i] = o.Clone()
		objs[i].GroupID = ""
	}
	c.scene.Load(objs, nil, connections)
	c.history.Reset()
	c.history.Capture(c.scene.Snapshot())
	c.active = true
	c.mode = ModeIdle
	c.selection = nil
	c.guides = nil
	c.logger.Debug("editor activated", "objects", c.scene.Len())
	c.sync()
}

// Deactivate ends the session. A gesture in progress is finalized first and a
// pending style capture is dropped.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deactivate()
}

func (c *Controller) deactivate() {
	if !c.active {
		return
	}
	c.finishGesture()
	c.debounce.Cancel()
	c.styleDirty = false
	c.active = false
	c.selection = nil
	c.guides = nil
	c.logger.Debug("editor deactivated")
	c.host.Restore()
}

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Select changes the selection. An empty id clears it. With additive the id
// is toggled in the current selection instead of replacing it.
func (c *Controller) Select(id string, additive bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("select"); err != nil {
		return err
	}
	if id == "" {
		c.selection = nil
		return nil
	}
	obj, ok := c.scene.Object(id)
	if !ok {
		return c.reject("select", engine.ErrNotFound)
	}
	if obj.Locked {
		return c.reject("select", ErrLocked)
	}
	switch {
	case !additive:
		c.selection = []string{id}
	case slices.Contains(c.selection, id):
		c.selection = slices.DeleteFunc(c.selection, func(v string) bool { return v == id })
	default:
		c.selection = append(c.selection, id)
	}
	return nil
}

// PointerDown starts a gesture. A body press on empty canvas clears the
// selection; a handle or rotate press needs exactly one selected object.
func (c *Controller) PointerDown(x, y float64, target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("pointer down"); err != nil {
		return err
	}
	if c.mode != ModeIdle {
		return c.reject("pointer down", ErrBusy)
	}

	var (
		g   engine.Gesture
		err error
	)
	switch target.Kind {
	case TargetHandle, TargetRotate:
		if len(c.selection) != 1 {
			return c.reject("pointer down", ErrNoSelection)
		}
		id := c.selection[0]
		if c.locked(id) {
			return c.reject("pointer down", ErrLocked)
		}
		if target.Kind == TargetHandle {
			g, err = c.transform.BeginResize(id, target.Handle, x, y)
		} else {
			g, err = c.transform.BeginRotate(id, x, y)
		}
	default:
		id := c.index.HitTest(x, y)
		if id == "" {
			c.selection = nil
			return nil
		}
		if grp, ok := c.groups.GroupOf(id); ok && slices.ContainsFunc(grp.MemberIDs, c.locked) {
			return c.reject("pointer down", ErrLocked)
		}
		if !slices.Contains(c.selection, id) {
			c.selection = []string{id}
		}
		g, err = c.transform.BeginMove(id, x, y)
	}
	if err != nil {
		return c.reject("pointer down", err)
	}

	c.gesture = g
	c.mode = target.mode()
	return nil
}

// PointerMove feeds one frame to the active gesture. It is a no-op when idle.
func (c *Controller) PointerMove(x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("pointer move"); err != nil {
		return err
	}
	if c.gesture == nil {
		return nil
	}
	c.guides = c.gesture.Update(x, y)
	c.host.ShowGuides(c.guides)
	c.sync()
	return nil
}

// PointerUp finalizes the active gesture and records it in history when it
// changed anything.
func (c *Controller) PointerUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("pointer up"); err != nil {
		return err
	}
	c.finishGesture()
	return nil
}

// PointerCancel is handled exactly like PointerUp.
func (c *Controller) PointerCancel() error {
	return c.PointerUp()
}

func (c *Controller) finishGesture() {
	if c.gesture == nil {
		c.mode = ModeIdle
		return
	}
	changed := c.gesture.Changed()
	c.gesture = nil
	c.mode = ModeIdle
	if c.guides != nil {
		c.guides = nil
		c.host.ShowGuides(nil)
	}
	if changed {
		c.capture()
	}
}

// Align aligns or distributes the selection.
func (c *Controller) Align(kind engine.Alignment) error {
	return c.mutate("align", func() error {
		return c.align.Align(kind, c.selection)
	})
}

// Group groups the selection and returns the new group.
func (c *Controller) Group(name string) (document.Group, error) {
	var g document.Group
	err := c.mutate("group", func() error {
		var err error
		g, err = c.groups.Create(name, c.selection)
		return err
	})
	return g, err
}

// Ungroup dissolves a group. Members keep their absolute placement.
func (c *Controller) Ungroup(groupID string) error {
	return c.mutate("ungroup", func() error {
		return c.groups.Ungroup(groupID)
	})
}

// Reorder changes the stacking order of id.
func (c *Controller) Reorder(op engine.ZOp, id string) error {
	return c.mutate("reorder", func() error {
		if c.locked(id) {
			return ErrLocked
		}
		return c.zorder.Apply(op, id)
	})
}

func (c *Controller) BringToFront(id string) error { return c.Reorder(engine.BringToFront, id) }
func (c *Controller) SendToBack(id string) error   { return c.Reorder(engine.SendToBack, id) }
func (c *Controller) MoveForward(id string) error  { return c.Reorder(engine.MoveForward, id) }
func (c *Controller) MoveBackward(id string) error { return c.Reorder(engine.MoveBackward, id) }

// ToggleLock flips the lock flag of id. A newly locked object leaves the
// selection.
func (c *Controller) ToggleLock(id string) error {
	return c.mutate("toggle lock", func() error {
		obj, ok := c.scene.Object(id)
		if !ok {
			return engine.ErrNotFound
		}
		c.scene.SetLocked(id, !obj.Locked)
		if !obj.Locked {
			c.selection = slices.DeleteFunc(c.selection, func(v string) bool { return v == id })
		}
		return nil
	})
}

// DeleteSelection removes every selected object.
func (c *Controller) DeleteSelection() error {
	return c.mutate("delete", func() error {
		if len(c.selection) == 0 {
			return ErrNoSelection
		}
		for _, id := range c.selection {
			c.scene.Remove(id)
		}
		c.selection = nil
		return nil
	})
}

// DuplicateSelection copies the selected objects, offset on both axes and
// stacked above everything. The copies become the selection.
func (c *Controller) DuplicateSelection() error {
	return c.mutate("duplicate", func() error {
		if len(c.selection) == 0 {
			return ErrNoSelection
		}
		top := slices.Max(c.scene.ZIndices())
		copies := make([]string, 0, len(c.selection))
		for i, id := range c.selection {
			obj, ok := c.scene.Object(id)
			if !ok {
				continue
			}
			abs, _ := c.scene.Absolute(id)
			obj.ID = typeid.NewObjectID()
			obj.Bounds = abs.Translate(c.opts.DuplicateOffset, c.opts.DuplicateOffset)
			obj.ZIndex = top + 1 + i
			obj.ElementID = ""
			c.scene.Add(obj)
			copies = append(copies, obj.ID)
		}
		c.selection = copies
		return nil
	})
}

// SetStyle edits one host style property. Edits are captured in history once
// they settle for the debounce delay.
func (c *Controller) SetStyle(id, property, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("set style"); err != nil {
		return err
	}
	obj, ok := c.scene.Object(id)
	if !ok {
		return c.reject("set style", engine.ErrNotFound)
	}
	if obj.Locked {
		return c.reject("set style", ErrLocked)
	}
	c.scene.SetStyle(id, property, value)
	c.styleDirty = true
	c.debounce.Trigger()
	c.sync()
	return nil
}

func (c *Controller) styleSettled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active && c.styleDirty {
		c.capture()
	}
}

// Undo steps back one history entry. A pending style edit is recorded first
// so it can itself be undone.
func (c *Controller) Undo() error {
	return c.travel("undo", c.history.Undo)
}

// Redo steps forward one history entry.
func (c *Controller) Redo() error {
	return c.travel("redo", c.history.Redo)
}

func (c *Controller) travel(op string, step func() (document.Snapshot, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(op); err != nil {
		return err
	}
	if c.mode != ModeIdle {
		return c.reject(op, ErrBusy)
	}
	if c.styleDirty {
		c.capture()
	}
	snap, err := step()
	if err != nil {
		return c.reject(op, err)
	}
	c.scene.Restore(snap)
	c.selection = slices.DeleteFunc(c.selection, func(id string) bool {
		return !c.scene.Has(id) || c.locked(id)
	})
	c.sync()
	return nil
}

// ToggleGrid flips grid visibility. It does not affect snapping.
func (c *Controller) ToggleGrid() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("toggle grid"); err != nil {
		return err
	}
	c.showGrid = !c.showGrid
	return nil
}

// ToggleSnap flips grid rounding for moves, resizes and rotations.
func (c *Controller) ToggleSnap() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("toggle snap"); err != nil {
		return err
	}
	c.settings.SnapToGrid = !c.settings.SnapToGrid
	return nil
}

// HandleKey dispatches a key chord through the keymap. Escape clears the
// selection, or ends the session when nothing is selected.
func (c *Controller) HandleKey(key string) error {
	action, ok := c.opts.Keymap.Lookup(key)
	if !ok {
		return ErrUnbound
	}
	switch action {
	case ActionToggleGrid:
		return c.ToggleGrid()
	case ActionToggleSnap:
		return c.ToggleSnap()
	case ActionDelete:
		return c.DeleteSelection()
	case ActionDuplicate:
		return c.DuplicateSelection()
	case ActionUndo:
		return c.Undo()
	case ActionRedo:
		return c.Redo()
	case ActionDeselect:
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.ready("deselect"); err != nil {
			return err
		}
		if len(c.selection) == 0 {
			c.deactivate()
			return nil
		}
		c.selection = nil
		return nil
	}
	return ErrUnbound
}

// State returns a presentation snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Active:      c.active,
		Mode:        c.mode.String(),
		Selection:   slices.Clone(c.selection),
		Objects:     c.scene.Resolved(),
		Groups:      c.scene.Groups(),
		Connections: c.scene.Connections(),
		Guides:      slices.Clone(c.guides),
		ShowGrid:    c.showGrid,
		SnapToGrid:  c.settings.SnapToGrid,
		CanUndo:     c.history.CanUndo(),
		CanRedo:     c.history.CanRedo(),
	}
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Selection returns the selected ids in selection order.
func (c *Controller) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.selection)
}

// Objects returns the objects with absolute bounds.
func (c *Controller) Objects() []document.VisualObject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene.Resolved()
}

// Groups returns the group table.
func (c *Controller) Groups() []document.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene.Groups()
}

// Guides returns the guides of the latest drag frame.
func (c *Controller) Guides() []engine.SnapGuide {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.guides)
}

// Settings returns the current tunables.
func (c *Controller) Settings() engine.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// HistoryLen returns the number of stored snapshots and the cursor.
func (c *Controller) HistoryLen() (length, cursor int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Len(), c.history.Cursor()
}

// mutate runs a discrete action: it must be idle, and a successful action is
// captured once.
func (c *Controller) mutate(op string, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(op); err != nil {
		return err
	}
	if c.mode != ModeIdle {
		return c.reject(op, ErrBusy)
	}
	if err := fn(); err != nil {
		return c.reject(op, err)
	}
	c.capture()
	c.sync()
	return nil
}

// capture records the current state. A pending debounced capture is covered
// by this one and is dropped.
func (c *Controller) capture() {
	c.debounce.Cancel()
	c.styleDirty = false
	c.history.Capture(c.scene.Snapshot())
}

func (c *Controller) ready(op string) error {
	if !c.active {
		return c.reject(op, ErrInactive)
	}
	return nil
}

func (c *Controller) reject(op string, err error) error {
	c.logger.Debug("operation rejected", "op", op, "error", err)
	return err
}

func (c *Controller) locked(id string) bool {
	obj, ok := c.scene.Object(id)
	return ok && obj.Locked
}

func (c *Controller) sync() {
	c.host.Sync(c.scene.Resolved())
}
