//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/editor"
	"github.com/inamate/inamate/layout-go/internal/engine"
)

var (
	ctl  *editor.Controller
	host = &jsHost{}
)

// jsHost forwards presentation updates to callbacks installed with setHost.
type jsHost struct {
	onSync    js.Value
	onGuides  js.Value
	onRestore js.Value
}

func (h *jsHost) Sync(objects []document.VisualObject) {
	call(h.onSync, objects)
}

func (h *jsHost) ShowGuides(guides []engine.SnapGuide) {
	call(h.onGuides, guides)
}

func (h *jsHost) Restore() {
	if h.onRestore.Type() == js.TypeFunction {
		h.onRestore.Invoke()
	}
}

func call(fn js.Value, v any) {
	if fn.Type() != js.TypeFunction {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fn.Invoke(string(data))
}

func main() {
	ctl = editor.New(editor.Options{Host: host})

	// Create the editor API object
	layoutEditor := js.Global().Get("Object").New()

	// --- Session ---
	layoutEditor.Set("setHost", js.FuncOf(setHost))
	layoutEditor.Set("activate", js.FuncOf(activate))
	layoutEditor.Set("activateSample", js.FuncOf(activateSample))
	layoutEditor.Set("deactivate", js.FuncOf(deactivate))

	// --- Pointer and keyboard ---
	layoutEditor.Set("select", js.FuncOf(selectObject))
	layoutEditor.Set("pointerDown", js.FuncOf(pointerDown))
	layoutEditor.Set("pointerMove", js.FuncOf(pointerMove))
	layoutEditor.Set("pointerUp", js.FuncOf(pointerUp))
	layoutEditor.Set("pointerCancel", js.FuncOf(pointerCancel))
	layoutEditor.Set("handleKey", js.FuncOf(handleKey))

	// --- Actions ---
	layoutEditor.Set("align", js.FuncOf(align))
	layoutEditor.Set("group", js.FuncOf(group))
	layoutEditor.Set("ungroup", js.FuncOf(ungroup))
	layoutEditor.Set("reorder", js.FuncOf(reorder))
	layoutEditor.Set("toggleLock", js.FuncOf(toggleLock))
	layoutEditor.Set("deleteSelection", js.FuncOf(deleteSelection))
	layoutEditor.Set("duplicateSelection", js.FuncOf(duplicateSelection))
	layoutEditor.Set("setStyle", js.FuncOf(setStyle))
	layoutEditor.Set("undo", js.FuncOf(undo))
	layoutEditor.Set("redo", js.FuncOf(redo))
	layoutEditor.Set("toggleGrid", js.FuncOf(toggleGrid))
	layoutEditor.Set("toggleSnap", js.FuncOf(toggleSnap))

	// --- Queries ---
	layoutEditor.Set("getState", js.FuncOf(getState))
	layoutEditor.Set("exportLayout", js.FuncOf(exportLayout))

	// Register on global scope
	js.Global().Set("layoutEditor", layoutEditor)

	// Signal that WASM is ready
	js.Global().Set("layoutWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func arg(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

// --- Session Handlers ---

func setHost(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return missing("host object")
	}
	h := args[0]
	host.onSync = h.Get("sync")
	host.onGuides = h.Get("showGuides")
	host.onRestore = h.Get("restore")
	return result(nil)
}

func activate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("objects JSON")
	}
	var objects []document.VisualObject
	if err := json.Unmarshal([]byte(args[0].String()), &objects); err != nil {
		return result(err)
	}
	var connections []document.Connection
	if raw := arg(args, 1); raw != "" {
		if err := json.Unmarshal([]byte(raw), &connections); err != nil {
			return result(err)
		}
	}
	ctl.Activate(objects, connections)
	return result(nil)
}

func activateSample(this js.Value, args []js.Value) interface{} {
	ctl.Activate(document.NewSampleObjects(), nil)
	return result(nil)
}

func deactivate(this js.Value, args []js.Value) interface{} {
	ctl.Deactivate()
	return nil
}

// --- Pointer Handlers ---

func selectObject(this js.Value, args []js.Value) interface{} {
	additive := len(args) > 1 && args[1].Truthy()
	return result(ctl.Select(arg(args, 0), additive))
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("coordinates")
	}
	target := editor.Body()
	switch editor.TargetKind(arg(args, 2)) {
	case editor.TargetHandle:
		target = editor.ResizeHandle(engine.Handle(arg(args, 3)))
	case editor.TargetRotate:
		target = editor.RotateHandle()
	}
	return result(ctl.PointerDown(args[0].Float(), args[1].Float(), target))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("coordinates")
	}
	return result(ctl.PointerMove(args[0].Float(), args[1].Float()))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	return result(ctl.PointerUp())
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	return result(ctl.PointerCancel())
}

func handleKey(this js.Value, args []js.Value) interface{} {
	return result(ctl.HandleKey(arg(args, 0)))
}

// --- Action Handlers ---

func align(this js.Value, args []js.Value) interface{} {
	return result(ctl.Align(engine.Alignment(arg(args, 0))))
}

func group(this js.Value, args []js.Value) interface{} {
	g, err := ctl.Group(arg(args, 0))
	if err != nil {
		return result(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "groupId": g.ID})
}

func ungroup(this js.Value, args []js.Value) interface{} {
	return result(ctl.Ungroup(arg(args, 0)))
}

func reorder(this js.Value, args []js.Value) interface{} {
	return result(ctl.Reorder(engine.ZOp(arg(args, 0)), arg(args, 1)))
}

func toggleLock(this js.Value, args []js.Value) interface{} {
	return result(ctl.ToggleLock(arg(args, 0)))
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	return result(ctl.DeleteSelection())
}

func duplicateSelection(this js.Value, args []js.Value) interface{} {
	return result(ctl.DuplicateSelection())
}

func setStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("id, property and value")
	}
	return result(ctl.SetStyle(arg(args, 0), arg(args, 1), arg(args, 2)))
}

func undo(this js.Value, args []js.Value) interface{} {
	return result(ctl.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return result(ctl.Redo())
}

func toggleGrid(this js.Value, args []js.Value) interface{} {
	return result(ctl.ToggleGrid())
}

func toggleSnap(this js.Value, args []js.Value) interface{} {
	return result(ctl.ToggleSnap())
}

// --- Query Handlers ---

func getState(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(ctl.State())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func exportLayout(this js.Value, args []js.Value) interface{} {
	records, err := ctl.ExportLayout()
	if err != nil {
		return result(err)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(string(data))
}
