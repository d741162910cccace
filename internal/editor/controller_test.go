package editor

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/engine"
	"github.com/inamate/inamate/layout-go/internal/history"
)

type recordingHost struct {
	mu       sync.Mutex
	syncs    int
	guides   [][]engine.SnapGuide
	restored int
}

func (h *recordingHost) Sync([]document.VisualObject) {
	h.mu.Lock()
	h.syncs++
	h.mu.Unlock()
}

func (h *recordingHost) ShowGuides(g []engine.SnapGuide) {
	h.mu.Lock()
	h.guides = append(h.guides, g)
	h.mu.Unlock()
}

func (h *recordingHost) Restore() {
	h.mu.Lock()
	h.restored++
	h.mu.Unlock()
}

func obj(id string, x, y, w, h float64) document.VisualObject {
	return document.VisualObject{ID: id, Bounds: document.Rect{X: x, Y: y, Width: w, Height: h}}
}

// twoBoxes is a 100x100 box at the origin and a small box far enough away
// that nothing snaps to it.
func twoBoxes() []document.VisualObject {
	return []document.VisualObject{
		obj("a", 0, 0, 100, 100),
		obj("b", 1000, 1000, 50, 50),
	}
}

func newController(t *testing.T, opts Options, objects ...document.VisualObject) (*Controller, *recordingHost) {
	t.Helper()
	host := &recordingHost{}
	opts.Host = host
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(opts)
	c.Activate(objects, nil)
	t.Cleanup(c.Deactivate)
	return c, host
}

func bounds(t *testing.T, c *Controller, id string) document.Rect {
	t.Helper()
	for _, o := range c.Objects() {
		if o.ID == id {
			return o.Bounds
		}
	}
	t.Fatalf("object %q not found", id)
	return document.Rect{}
}

func drag(t *testing.T, c *Controller, fromX, fromY, toX, toY float64) {
	t.Helper()
	if err := c.PointerDown(fromX, fromY, Body()); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if err := c.PointerMove(toX, toY); err != nil {
		t.Fatalf("PointerMove() error = %v", err)
	}
	if err := c.PointerUp(); err != nil {
		t.Fatalf("PointerUp() error = %v", err)
	}
}

func historyLen(c *Controller) int {
	n, _ := c.HistoryLen()
	return n
}

func TestInactiveRejects(t *testing.T) {
	c := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	if err := c.PointerDown(0, 0, Body()); !errors.Is(err, ErrInactive) {
		t.Errorf("PointerDown() error = %v, want ErrInactive", err)
	}
	if err := c.Undo(); !errors.Is(err, ErrInactive) {
		t.Errorf("Undo() error = %v, want ErrInactive", err)
	}
	if _, err := c.ExportLayout(); !errors.Is(err, ErrInactive) {
		t.Errorf("ExportLayout() error = %v, want ErrInactive", err)
	}
}

func TestActivateCapturesInitialState(t *testing.T) {
	c, host := newController(t, Options{}, twoBoxes()...)

	if !c.Active() {
		t.Fatal("Active() = false after Activate")
	}
	if n, cur := c.HistoryLen(); n != 1 || cur != 0 {
		t.Errorf("HistoryLen() = %d, %d, want 1, 0", n, cur)
	}
	if c.Mode() != ModeIdle {
		t.Errorf("Mode() = %v, want idle", c.Mode())
	}
	if host.syncs == 0 {
		t.Error("host was not synced on activate")
	}
}

func TestDragMovesAndCapturesOnce(t *testing.T) {
	c, host := newController(t, Options{}, twoBoxes()...)

	if err := c.PointerDown(50, 50, Body()); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if c.Mode() != ModeDragging {
		t.Fatalf("Mode() = %v, want dragging", c.Mode())
	}
	for _, x := range []float64{100, 150, 200, 250} {
		if err := c.PointerMove(x, 250); err != nil {
			t.Fatalf("PointerMove() error = %v", err)
		}
	}
	if err := c.PointerUp(); err != nil {
		t.Fatalf("PointerUp() error = %v", err)
	}

	want := document.Rect{X: 200, Y: 200, Width: 100, Height: 100}
	if got := bounds(t, c, "a"); got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
	if got := historyLen(c); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
	if got := c.Selection(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Selection() = %v, want [a]", got)
	}
	if last := host.guides[len(host.guides)-1]; last != nil {
		t.Errorf("guides after release = %v, want nil", last)
	}
}

func TestClickWithoutMoveDoesNotCapture(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	if err := c.PointerDown(50, 50, Body()); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerUp(); err != nil {
		t.Fatal(err)
	}
	if got := historyLen(c); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestPointerCancelFinalizesLikeUp(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	if err := c.PointerDown(50, 50, Body()); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerMove(80, 90); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerCancel(); err != nil {
		t.Fatal(err)
	}

	if c.Mode() != ModeIdle {
		t.Errorf("Mode() = %v, want idle", c.Mode())
	}
	if got := historyLen(c); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
	want := document.Rect{X: 30, Y: 40, Width: 100, Height: 100}
	if got := bounds(t, c, "a"); got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestGestureExclusivity(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	if err := c.PointerDown(50, 50, Body()); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerDown(100, 100, ResizeHandle(engine.HandleSE)); !errors.Is(err, ErrBusy) {
		t.Errorf("second PointerDown() error = %v, want ErrBusy", err)
	}
	if err := c.Align(engine.AlignLeft); !errors.Is(err, ErrBusy) {
		t.Errorf("Align() during drag error = %v, want ErrBusy", err)
	}
	if err := c.Undo(); !errors.Is(err, ErrBusy) {
		t.Errorf("Undo() during drag error = %v, want ErrBusy", err)
	}
	if c.Mode() != ModeDragging {
		t.Errorf("Mode() = %v, want dragging", c.Mode())
	}
}

func TestEmptyCanvasClearsSelection(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	if err := c.Select("a", false); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerDown(500, 500, Body()); err != nil {
		t.Fatal(err)
	}
	if got := c.Selection(); len(got) != 0 {
		t.Errorf("Selection() = %v, want empty", got)
	}
	if c.Mode() != ModeIdle {
		t.Errorf("Mode() = %v, want idle", c.Mode())
	}
}

func TestHandleNeedsSingleSelection(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	if err := c.PointerDown(100, 100, ResizeHandle(engine.HandleSE)); !errors.Is(err, ErrNoSelection) {
		t.Errorf("PointerDown() error = %v, want ErrNoSelection", err)
	}
	_ = c.Select("a", false)
	_ = c.Select("b", true)
	if err := c.PointerDown(100, 100, RotateHandle()); !errors.Is(err, ErrNoSelection) {
		t.Errorf("PointerDown() with two selected error = %v, want ErrNoSelection", err)
	}
}

func TestResizeGesture(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.Select("a", false)
	if err := c.PointerDown(100, 100, ResizeHandle(engine.HandleSE)); err != nil {
		t.Fatal(err)
	}
	if c.Mode() != ModeResizing {
		t.Fatalf("Mode() = %v, want resizing", c.Mode())
	}
	_ = c.PointerMove(150, 130)
	_ = c.PointerUp()

	want := document.Rect{X: 0, Y: 0, Width: 150, Height: 130}
	if got := bounds(t, c, "a"); got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
	if got := historyLen(c); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestRotateGesture(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.Select("a", false)
	// Center is (50, 50); start to the right, end straight below.
	if err := c.PointerDown(100, 50, RotateHandle()); err != nil {
		t.Fatal(err)
	}
	if c.Mode() != ModeRotating {
		t.Fatalf("Mode() = %v, want rotating", c.Mode())
	}
	_ = c.PointerMove(50, 100)
	_ = c.PointerUp()

	for _, o := range c.Objects() {
		if o.ID == "a" && (o.Rotation < 89.999 || o.Rotation > 90.001) {
			t.Errorf("rotation = %v, want 90", o.Rotation)
		}
	}
}

func TestLockedObjectsAreUntouchable(t *testing.T) {
	objs := twoBoxes()
	objs[0].Locked = true
	c, _ := newController(t, Options{}, objs...)

	if err := c.Select("a", false); !errors.Is(err, ErrLocked) {
		t.Errorf("Select() error = %v, want ErrLocked", err)
	}
	if err := c.BringToFront("a"); !errors.Is(err, ErrLocked) {
		t.Errorf("BringToFront() error = %v, want ErrLocked", err)
	}
	if err := c.SetStyle("a", "color", "red"); !errors.Is(err, ErrLocked) {
		t.Errorf("SetStyle() error = %v, want ErrLocked", err)
	}

	// A press on a locked object falls through to empty canvas.
	if err := c.PointerDown(50, 50, Body()); err != nil {
		t.Fatal(err)
	}
	_ = c.PointerMove(150, 150)
	_ = c.PointerUp()

	if got := bounds(t, c, "a"); got != objs[0].Bounds {
		t.Errorf("locked object moved to %+v", got)
	}
	if got := historyLen(c); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestToggleLockRemovesFromSelection(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.Select("a", false)
	_ = c.Select("b", true)
	if err := c.ToggleLock("a"); err != nil {
		t.Fatal(err)
	}
	if got := c.Selection(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Selection() = %v, want [b]", got)
	}
	if err := c.ToggleLock("a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Select("a", true); err != nil {
		t.Errorf("Select() after unlock error = %v", err)
	}
	if err := c.ToggleLock("missing"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("ToggleLock(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUndoRedoInverse(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	states := [][]document.VisualObject{c.Objects()}
	for i := 0; i < 30; i++ {
		x := bounds(t, c, "a").X + 50
		drag(t, c, x, 50, x+10, 50)
		states = append(states, c.Objects())
	}

	for i := 29; i >= 0; i-- {
		if err := c.Undo(); err != nil {
			t.Fatalf("Undo() #%d error = %v", 30-i, err)
		}
		if got := c.Objects(); !reflect.DeepEqual(got, states[i]) {
			t.Fatalf("after undo to step %d: %+v, want %+v", i, got, states[i])
		}
	}
	if err := c.Undo(); !errors.Is(err, history.ErrNothingToUndo) {
		t.Errorf("Undo() at start error = %v, want ErrNothingToUndo", err)
	}
	for i := 1; i <= 30; i++ {
		if err := c.Redo(); err != nil {
			t.Fatalf("Redo() #%d error = %v", i, err)
		}
		if got := c.Objects(); !reflect.DeepEqual(got, states[i]) {
			t.Fatalf("after redo to step %d: %+v, want %+v", i, got, states[i])
		}
	}
	if err := c.Redo(); !errors.Is(err, history.ErrNothingToRedo) {
		t.Errorf("Redo() at tail error = %v, want ErrNothingToRedo", err)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	c, _ := newController(t, Options{HistoryCapacity: 10}, twoBoxes()...)

	for i := 0; i < 25; i++ {
		x := bounds(t, c, "a").X + 50
		drag(t, c, x, 50, x+10, 50)
	}
	if got := historyLen(c); got != 10 {
		t.Fatalf("history length = %d, want 10", got)
	}
	undos := 0
	for c.Undo() == nil {
		undos++
	}
	if undos != 9 {
		t.Errorf("successful undos = %d, want 9", undos)
	}
	// The oldest surviving entry is the state after the 16th drag.
	if got := bounds(t, c, "a").X; got != 160 {
		t.Errorf("oldest x = %v, want 160", got)
	}
}

func TestAlignThroughController(t *testing.T) {
	c, _ := newController(t, Options{}, obj("a", 10, 0, 50, 50), obj("b", 200, 300, 40, 40))

	_ = c.Select("a", false)
	if err := c.Align(engine.AlignLeft); !errors.Is(err, engine.ErrTooFewObjects) {
		t.Errorf("Align() with one selected error = %v, want ErrTooFewObjects", err)
	}
	if got := historyLen(c); got != 1 {
		t.Errorf("history length after rejection = %d, want 1", got)
	}

	_ = c.Select("b", true)
	if err := c.Align(engine.AlignLeft); err != nil {
		t.Fatal(err)
	}
	if got := bounds(t, c, "b").X; got != 10 {
		t.Errorf("b.X = %v, want 10", got)
	}
	if got := historyLen(c); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestGroupUndoRedo(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.Select("a", false)
	_ = c.Select("b", true)
	g, err := c.Group("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(g.ID, "grp_") {
		t.Errorf("group id = %q, want grp_ prefix", g.ID)
	}
	want := document.Rect{X: 0, Y: 0, Width: 1050, Height: 1050}
	if g.Bounds != want {
		t.Errorf("group bounds = %+v, want %+v", g.Bounds, want)
	}
	if _, err := c.Group("again"); !errors.Is(err, engine.ErrAlreadyGrouped) {
		t.Errorf("regroup error = %v, want ErrAlreadyGrouped", err)
	}

	if err := c.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := c.Groups(); len(got) != 0 {
		t.Errorf("groups after undo = %v, want none", got)
	}
	if err := c.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := c.Groups(); len(got) != 1 {
		t.Fatalf("groups after redo = %d, want 1", len(got))
	}
	if err := c.Ungroup(g.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Ungroup(g.ID); !errors.Is(err, engine.ErrGroupNotFound) {
		t.Errorf("second Ungroup() error = %v, want ErrGroupNotFound", err)
	}
	if got := bounds(t, c, "b"); got != twoBoxes()[1].Bounds {
		t.Errorf("b after ungroup = %+v, want %+v", got, twoBoxes()[1].Bounds)
	}
}

func TestDragGroupedMemberMovesGroup(t *testing.T) {
	c, _ := newController(t, Options{}, obj("a", 0, 0, 100, 100), obj("b", 300, 0, 100, 100))

	_ = c.Select("a", false)
	_ = c.Select("b", true)
	if _, err := c.Group("pair"); err != nil {
		t.Fatal(err)
	}
	drag(t, c, 50, 50, 50, 250)

	if got := bounds(t, c, "a"); got.Y != 200 {
		t.Errorf("a.Y = %v, want 200", got.Y)
	}
	if got := bounds(t, c, "b"); got.Y != 200 || got.X != 300 {
		t.Errorf("b = %+v, want x 300 y 200", got)
	}
}

func TestDeleteAndDuplicate(t *testing.T) {
	objs := twoBoxes()
	objs[0].ElementID = "hero"
	objs[0].ZIndex = 3
	c, _ := newController(t, Options{}, objs...)

	if err := c.DeleteSelection(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("DeleteSelection() error = %v, want ErrNoSelection", err)
	}

	_ = c.Select("a", false)
	if err := c.DuplicateSelection(); err != nil {
		t.Fatal(err)
	}
	sel := c.Selection()
	if len(sel) != 1 || !strings.HasPrefix(sel[0], "obj_") {
		t.Fatalf("Selection() = %v, want one obj_ id", sel)
	}
	var dup document.VisualObject
	for _, o := range c.Objects() {
		if o.ID == sel[0] {
			dup = o
		}
	}
	if want := (document.Rect{X: 20, Y: 20, Width: 100, Height: 100}); dup.Bounds != want {
		t.Errorf("duplicate bounds = %+v, want %+v", dup.Bounds, want)
	}
	if dup.ZIndex != 4 || dup.ElementID != "" {
		t.Errorf("duplicate z=%d elementId=%q, want 4 and empty", dup.ZIndex, dup.ElementID)
	}

	if err := c.DeleteSelection(); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Objects()); got != 2 {
		t.Errorf("objects after delete = %d, want 2", got)
	}
	if err := c.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Objects()); got != 3 {
		t.Errorf("objects after undo = %d, want 3", got)
	}
}

func TestUndoPrunesSelection(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.Select("a", false)
	_ = c.DuplicateSelection()
	if err := c.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := c.Selection(); len(got) != 0 {
		t.Errorf("Selection() = %v, want empty", got)
	}
}

func TestStyleEditsAreDebounced(t *testing.T) {
	c, _ := newController(t, Options{StyleDebounce: 20 * time.Millisecond}, twoBoxes()...)

	for _, v := range []string{"r", "re", "red"} {
		if err := c.SetStyle("a", "color", v); err != nil {
			t.Fatal(err)
		}
	}
	if got := historyLen(c); got != 1 {
		t.Errorf("history length before settle = %d, want 1", got)
	}
	time.Sleep(100 * time.Millisecond)
	if got := historyLen(c); got != 2 {
		t.Errorf("history length after settle = %d, want 2", got)
	}
}

func TestUndoFlushesPendingStyle(t *testing.T) {
	c, _ := newController(t, Options{StyleDebounce: time.Hour}, twoBoxes()...)

	_ = c.SetStyle("a", "color", "red")
	if err := c.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := c.Objects()[0].Style["color"]; got != "" {
		t.Errorf("color after undo = %q, want empty", got)
	}
	if err := c.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := c.Objects()[0].Style["color"]; got != "red" {
		t.Errorf("color after redo = %q, want red", got)
	}
}

func TestDiscreteCaptureCoversPendingStyle(t *testing.T) {
	c, _ := newController(t, Options{StyleDebounce: 20 * time.Millisecond}, twoBoxes()...)

	_ = c.SetStyle("a", "color", "red")
	if err := c.BringToFront("a"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(80 * time.Millisecond)
	if got := historyLen(c); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestDeactivateCancelsPendingStyle(t *testing.T) {
	c, host := newController(t, Options{StyleDebounce: 20 * time.Millisecond}, twoBoxes()...)

	_ = c.SetStyle("a", "color", "red")
	c.Deactivate()
	time.Sleep(80 * time.Millisecond)

	if got := historyLen(c); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
	if host.restored != 1 {
		t.Errorf("host restored %d times, want 1", host.restored)
	}
	if c.Active() {
		t.Error("Active() = true after Deactivate")
	}
}

func TestDeactivateFinalizesGesture(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.PointerDown(50, 50, Body())
	_ = c.PointerMove(70, 50)
	c.Deactivate()

	if c.Mode() != ModeIdle {
		t.Errorf("Mode() = %v, want idle", c.Mode())
	}
	if got := historyLen(c); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestHandleKey(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	if err := c.HandleKey("g"); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleKey("S"); err != nil {
		t.Fatal(err)
	}
	st := c.State()
	if !st.ShowGrid || !st.SnapToGrid {
		t.Errorf("ShowGrid=%v SnapToGrid=%v, want both true", st.ShowGrid, st.SnapToGrid)
	}

	_ = c.Select("a", false)
	if err := c.HandleKey("Meta+D"); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Objects()); got != 3 {
		t.Errorf("objects after duplicate = %d, want 3", got)
	}
	if err := c.HandleKey("ctrl+z"); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleKey("shift+ctrl+z"); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Objects()); got != 3 {
		t.Errorf("objects after redo = %d, want 3", got)
	}
	_ = c.Select("a", false)
	if err := c.HandleKey("Backspace"); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Objects()); got != 2 {
		t.Errorf("objects after delete = %d, want 2", got)
	}

	if err := c.HandleKey("q"); !errors.Is(err, ErrUnbound) {
		t.Errorf("HandleKey(q) error = %v, want ErrUnbound", err)
	}

	_ = c.Select("b", false)
	_ = c.HandleKey("Escape")
	if !c.Active() || len(c.Selection()) != 0 {
		t.Fatalf("first escape: active=%v selection=%v, want active and empty", c.Active(), c.Selection())
	}
	_ = c.HandleKey("esc")
	if c.Active() {
		t.Error("second escape did not end the session")
	}
}

func TestStateReflectsController(t *testing.T) {
	c, _ := newController(t, Options{}, twoBoxes()...)

	_ = c.Select("b", false)
	st := c.State()
	if !st.Active || st.Mode != "idle" || st.CanUndo || st.CanRedo {
		t.Errorf("State() = %+v", st)
	}
	if !reflect.DeepEqual(st.Selection, []string{"b"}) {
		t.Errorf("State().Selection = %v, want [b]", st.Selection)
	}
	if len(st.Objects) != 2 {
		t.Errorf("State().Objects = %d, want 2", len(st.Objects))
	}
}

func TestConcurrentCallsAreSerialized(t *testing.T) {
	c, _ := newController(t, Options{StyleDebounce: time.Millisecond}, twoBoxes()...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.SetStyle("b", "opacity", "0.5")
				_ = c.BringToFront("a")
				_ = c.Undo()
				_ = c.State()
			}
		}()
	}
	wg.Wait()
	if n, cur := c.HistoryLen(); cur >= n {
		t.Errorf("cursor %d out of range for length %d", cur, n)
	}
}
