//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/inamate/sketchboard/internal/clipboard"
	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/viewport"
)

var (
	eng  *engine.Engine
	clip *clipboard.Memory
)

func main() {
	cfg := config.Default()
	cfg.SeedSample = true
	clip = clipboard.NewMemory()
	eng = engine.New(cfg, nil, clip)
	if err := eng.Load(context.Background()); err != nil {
		js.Global().Get("console").Call("error", "sketchboard load: "+err.Error())
	}
	forwardEvents()

	// Create the engine API object
	sketchboardEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	sketchboardEngine.Set("pointer", js.FuncOf(pointer))
	sketchboardEngine.Set("key", js.FuncOf(key))
	sketchboardEngine.Set("action", js.FuncOf(action))
	sketchboardEngine.Set("setMode", js.FuncOf(setMode))
	sketchboardEngine.Set("setStrategy", js.FuncOf(setStrategy))
	sketchboardEngine.Set("resize", js.FuncOf(resize))
	sketchboardEngine.Set("rotate", js.FuncOf(rotate))
	sketchboardEngine.Set("centerOnNearest", js.FuncOf(centerOnNearest))
	sketchboardEngine.Set("setClipboardImage", js.FuncOf(setClipboardImage))
	sketchboardEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	sketchboardEngine.Set("getLayers", js.FuncOf(getLayers))
	sketchboardEngine.Set("getState", js.FuncOf(getState))
	sketchboardEngine.Set("getElements", js.FuncOf(getElements))
	sketchboardEngine.Set("exportPNG", js.FuncOf(exportPNG))

	// Register on global scope
	js.Global().Set("sketchboardEngine", sketchboardEngine)

	// Signal that WASM is ready
	js.Global().Set("sketchboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// forwardEvents passes engine notifications to window.sketchboardOnEvent
// when the page defines it.
func forwardEvents() {
	emit := func(typ string, payload any) {
		cb := js.Global().Get("sketchboardOnEvent")
		if cb.Type() != js.TypeFunction {
			return
		}
		cb.Invoke(typ, toJSON(payload))
	}
	ev := eng.Events()
	ev.Selection.Subscribe(func(s selection.Snapshot) { emit("selection.changed", s) })
	ev.Elements.Subscribe(func(c document.ElementsChanged) { emit("elements.changed", c) })
	ev.Viewport.Subscribe(func(s viewport.State) { emit("viewport.changed", s) })
	ev.Transient.Subscribe(func(t engine.TransientChanged) { emit("transient.changed", t) })
	ev.RenderStrategy.Subscribe(func(s render.StrategyChanged) { emit("strategy.changed", s) })
	ev.Stack.Subscribe(func(s command.StackChanged) { emit("stack.changed", s) })
	ev.Mode.Subscribe(func(m mode.ModeChanged) { emit("mode.changed", m) })
	ev.PersistFailed.Subscribe(func(p engine.PersistFailed) { emit("persist.failed", p) })
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func pointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing pointer event JSON"})
	}
	var ev mode.PointerEvent
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return result(err)
	}
	eng.HandlePointer(ev)
	return result(nil)
}

func key(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var ev mode.KeyEvent
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.HandleKey(ev))
}

func action(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing action"})
	}
	a, err := mode.ParseAction(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.Do(a)
	return result(nil)
}

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing mode"})
	}
	return result(eng.SwitchMode(args[0].String()))
}

func setStrategy(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing strategy"})
	}
	return result(eng.SetStrategy(args[0].String()))
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "missing width or height"})
	}
	return result(eng.Resize(args[0].Int(), args[1].Int()))
}

func rotate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing direction"})
	}
	dir, err := viewport.ParseDirection(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.RotateView(dir)
	return result(nil)
}

func centerOnNearest(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CenterOnNearest())
}

// setClipboardImage stores a data URL for the next paste. Browsers only
// hand clipboard images to page script, so the page forwards them here.
func setClipboardImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing data URL"})
	}
	bmp, err := clipboard.DecodeText(args[0].String())
	if err != nil {
		return result(err)
	}
	clip.SetImage(bmp)
	return result(nil)
}

// tick runs one frame and returns the redrawn layers as JSON, or an empty
// string when nothing changed.
func tick(this js.Value, args []js.Value) interface{} {
	r := eng.Tick()
	if !r.Any() {
		return js.ValueOf("")
	}
	lists := eng.DisplayLists()
	out := make(map[string][]render.DrawCommand)
	if r.Persistent {
		out[render.LayerBackground.String()] = lists[render.LayerBackground.String()]
		out[render.LayerData.String()] = lists[render.LayerData.String()]
	}
	if r.Transient {
		out[render.LayerTransient.String()] = lists[render.LayerTransient.String()]
	}
	return js.ValueOf(toJSON(out))
}

// --- Query Handlers ---

func getLayers(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.DisplayLists()))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(map[string]any{
		"mode":      eng.Mode(),
		"modes":     eng.Modes(),
		"strategy":  eng.Strategy(),
		"viewport":  eng.Viewport(),
		"selection": eng.Selection(),
		"history":   eng.History(),
		"stats":     eng.RenderStats(),
	}))
}

func getElements(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Elements()))
}

// exportPNG returns the board without the transient layer as a data URL.
func exportPNG(this js.Value, args []js.Value) interface{} {
	url, err := document.NewBitmap(eng.Compose(false)).DataURL()
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(url)
}
