//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())

	// Create the engine API object
	geoshapeEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	geoshapeEngine.Set("loadScene", js.FuncOf(loadScene))
	geoshapeEngine.Set("loadSampleScene", js.FuncOf(loadSampleScene))
	geoshapeEngine.Set("setView", js.FuncOf(setView))
	geoshapeEngine.Set("setTerrain", js.FuncOf(setTerrain))
	geoshapeEngine.Set("upsertShape", js.FuncOf(upsertShape))
	geoshapeEngine.Set("removeShape", js.FuncOf(removeShape))
	geoshapeEngine.Set("setHighlighted", js.FuncOf(setHighlighted))

	// --- Queries (frontend ← engine) ---
	geoshapeEngine.Set("render", js.FuncOf(render))
	geoshapeEngine.Set("pick", js.FuncOf(pick))
	geoshapeEngine.Set("intersect", js.FuncOf(intersect))
	geoshapeEngine.Set("getScene", js.FuncOf(getScene))
	geoshapeEngine.Set("getFailures", js.FuncOf(getFailures))

	// Register on global scope
	js.Global().Set("geoshapeEngine", geoshapeEngine)

	// Signal that WASM is ready
	js.Global().Set("geoshapeWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err)
	}
	return ok()
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// --- Command Handlers ---

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("scene JSON")
	}
	return result(eng.LoadScene(args[0].String()))
}

func loadSampleScene(this js.Value, args []js.Value) interface{} {
	sceneID := "scene_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		sceneID = args[0].String()
	}
	eng.LoadSampleScene(sceneID)
	return ok()
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("view JSON")
	}
	var v document.View
	if err := json.Unmarshal([]byte(args[0].String()), &v); err != nil {
		return fail(err)
	}
	return result(eng.SetView(v))
}

func setTerrain(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("terrain JSON")
	}
	var t document.Terrain
	if err := json.Unmarshal([]byte(args[0].String()), &t); err != nil {
		return fail(err)
	}
	return result(eng.SetTerrain(t))
}

func upsertShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer ID or shape JSON")
	}
	var s document.Shape
	if err := json.Unmarshal([]byte(args[1].String()), &s); err != nil {
		return fail(err)
	}
	return result(eng.UpsertShape(args[0].String(), s))
}

func removeShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("shape ID")
	}
	return result(eng.RemoveShape(args[0].String()))
}

func setHighlighted(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("shape ID or flag")
	}
	return result(eng.SetHighlighted(args[0].String(), args[1].Truthy()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	frame, err := eng.Render(time.Now())
	if err != nil {
		return js.ValueOf(`{"commands":[]}`)
	}
	return js.ValueOf(frame.ToJSON())
}

func pick(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	res, hit, err := eng.Pick(context.Background(), time.Now(), args[0].Float(), args[1].Float())
	if err != nil || !hit {
		return js.ValueOf("null")
	}
	return js.ValueOf(res.ToJSON())
}

func intersect(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("[]")
	}
	hits, err := eng.IntersectAt(context.Background(), args[0].Float(), args[1].Float())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(toJSON(hits))
}

func getScene(this js.Value, args []js.Value) interface{} {
	scene, err := eng.Scene()
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(toJSON(scene))
}

func getFailures(this js.Value, args []js.Value) interface{} {
	out := make(map[string]string)
	for id, err := range eng.Failures() {
		out[id] = err.Error()
	}
	return js.ValueOf(toJSON(out))
}
