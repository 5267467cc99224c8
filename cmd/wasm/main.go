//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/curve"
	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(bus.New(nil), engine.Options{})

	// Create the engine API object
	rigEngine := js.Global().Get("Object").New()

	// --- Document ---
	rigEngine.Set("loadDocument", js.FuncOf(loadDocument))
	rigEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	rigEngine.Set("getDocument", js.FuncOf(getDocument))
	rigEngine.Set("markSaved", js.FuncOf(markSaved))
	rigEngine.Set("isDirty", js.FuncOf(isDirty))
	rigEngine.Set("setMode", js.FuncOf(setMode))

	// --- Nodes ---
	rigEngine.Set("addBone", js.FuncOf(addBone))
	rigEngine.Set("addSprite", js.FuncOf(addSprite))
	rigEngine.Set("removeNode", js.FuncOf(removeNode))
	rigEngine.Set("moveNode", js.FuncOf(moveNode))
	rigEngine.Set("renameNode", js.FuncOf(renameNode))
	rigEngine.Set("setDrawOrder", js.FuncOf(setDrawOrder))

	// --- Properties ---
	rigEngine.Set("setDesignValue", js.FuncOf(setDesignValue))
	rigEngine.Set("setAnimateValue", js.FuncOf(setAnimateValue))
	rigEngine.Set("pushVisualValue", js.FuncOf(pushVisualValue))
	rigEngine.Set("resetPose", js.FuncOf(resetPose))

	// --- Animations ---
	rigEngine.Set("addAnimation", js.FuncOf(addAnimation))
	rigEngine.Set("removeAnimation", js.FuncOf(removeAnimation))
	rigEngine.Set("setKeyframe", js.FuncOf(setKeyframe))
	rigEngine.Set("removeKeyframe", js.FuncOf(removeKeyframe))
	rigEngine.Set("setPlayhead", js.FuncOf(setPlayhead))

	// --- History ---
	rigEngine.Set("undo", js.FuncOf(undo))
	rigEngine.Set("redo", js.FuncOf(redo))
	rigEngine.Set("jumpToVersion", js.FuncOf(jumpToVersion))
	rigEngine.Set("getHistory", js.FuncOf(getHistory))

	// --- Queries ---
	rigEngine.Set("render", js.FuncOf(render))
	rigEngine.Set("hitTest", js.FuncOf(hitTest))
	rigEngine.Set("subscribe", js.FuncOf(subscribe))

	// Register on global scope
	js.Global().Set("rigEngine", rigEngine)

	// Signal that WASM is ready
	js.Global().Set("rigWasmReady", js.ValueOf(true))

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

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(string(data))
}

func nodeArg(v js.Value) document.NodeID {
	return document.NodeID(v.Int())
}

// --- Document ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	var s document.Snapshot
	if err := json.Unmarshal([]byte(args[0].String()), &s); err != nil {
		return result(err)
	}
	return result(eng.Load(s))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	name := "sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	eng.LoadSampleDocument(name)
	return result(nil)
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Snapshot())
}

func markSaved(this js.Value, args []js.Value) interface{} {
	eng.MarkSaved()
	return nil
}

func isDirty(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Dirty())
}

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("mode")
	}
	switch m := engine.Mode(args[0].String()); m {
	case engine.ModeDesign, engine.ModeAnimate:
		eng.SetMode(m)
		return result(nil)
	default:
		return js.ValueOf(map[string]interface{}{"error": "unknown mode " + string(m)})
	}
}

// --- Nodes ---

func addBone(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("parent and name")
	}
	id, err := eng.AddBone(nodeArg(args[0]), args[1].String())
	if err != nil {
		return result(err)
	}
	return js.ValueOf(int(id))
}

func addSprite(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("parent, name and asset")
	}
	id, err := eng.AddSprite(nodeArg(args[0]), args[1].String(), args[2].String())
	if err != nil {
		return result(err)
	}
	return js.ValueOf(int(id))
}

func removeNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("node")
	}
	return result(eng.RemoveNode(nodeArg(args[0])))
}

func moveNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("node and parent")
	}
	index := -1
	if len(args) > 2 && args[2].Type() == js.TypeNumber {
		index = args[2].Int()
	}
	return result(eng.MoveNode(nodeArg(args[0]), nodeArg(args[1]), index))
}

func renameNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("node and name")
	}
	return result(eng.RenameNode(nodeArg(args[0]), args[1].String()))
}

func setDrawOrder(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("node and index")
	}
	return result(eng.SetDrawOrder(nodeArg(args[0]), args[1].Int()))
}

// --- Properties ---

func setDesignValue(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("node, property and value")
	}
	return result(eng.SetDesignValue(nodeArg(args[0]), document.PropertyType(args[1].String()), args[2].Float()))
}

func setAnimateValue(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("node, property and value")
	}
	return result(eng.SetAnimateValue(nodeArg(args[0]), document.PropertyType(args[1].String()), args[2].Float()))
}

// pushVisualValue previews a drag in the current mode without touching
// history. The final value is committed with setDesignValue or
// setAnimateValue.
func pushVisualValue(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("node, property and value")
	}
	p, err := eng.Property(nodeArg(args[0]), document.PropertyType(args[1].String()))
	if err != nil {
		return result(err)
	}
	if eng.Mode() == engine.ModeAnimate {
		p.PushAnimateVisualValue(args[2].Float())
	} else {
		p.PushDesignVisualValue(args[2].Float())
	}
	return result(nil)
}

func resetPose(this js.Value, args []js.Value) interface{} {
	ids := make([]document.NodeID, 0, len(args))
	for _, a := range args {
		ids = append(ids, nodeArg(a))
	}
	return result(eng.ResetAnimateValues(ids...))
}

// --- Animations ---

func addAnimation(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("name and length")
	}
	id, err := eng.AddAnimation(args[0].String(), args[1].Int())
	if err != nil {
		return result(err)
	}
	return js.ValueOf(id)
}

func removeAnimation(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("animation")
	}
	return result(eng.RemoveAnimation(args[0].String()))
}

// setKeyframe(animation, node, property, frame, value, ease?)
func setKeyframe(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return missing("animation, node, property, frame and value")
	}
	kf := document.Keyframe{
		Frame:  args[3].Int(),
		Value:  args[4].Float(),
		Easing: curve.Linear(),
	}
	if len(args) > 5 && args[5].Type() == js.TypeNumber {
		kf.Easing = curve.EasingCurve(args[5].Float())
	}
	return result(eng.SetKeyframe(args[0].String(), nodeArg(args[1]), document.PropertyType(args[2].String()), kf))
}

func removeKeyframe(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("animation, node, property and frame")
	}
	return result(eng.RemoveKeyframe(args[0].String(), nodeArg(args[1]), document.PropertyType(args[2].String()), args[3].Int()))
}

func setPlayhead(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("animation and frame")
	}
	return result(eng.SetPlayhead(args[0].String(), args[1].Float()))
}

// --- History ---

func undo(this js.Value, args []js.Value) interface{} {
	eng.Undo()
	return js.ValueOf(int(eng.CurrentVersion()))
}

func redo(this js.Value, args []js.Value) interface{} {
	eng.Redo()
	return js.ValueOf(int(eng.CurrentVersion()))
}

func jumpToVersion(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("version")
	}
	eng.JumpToVersion(int64(args[0].Int()))
	return js.ValueOf(int(eng.CurrentVersion()))
}

func getHistory(this js.Value, args []js.Value) interface{} {
	return toJSON(map[string]interface{}{
		"version": eng.CurrentVersion(),
		"undo":    eng.UndoEntries(),
		"redo":    eng.RedoEntries(),
	})
}

// --- Queries ---

func render(this js.Value, args []js.Value) interface{} {
	s, err := engine.DrawCommandsToJSON(eng.DrawCommands())
	if err != nil {
		return result(err)
	}
	return js.ValueOf(s)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(0)
	}
	radius := 4.0
	if len(args) > 2 {
		radius = args[2].Float()
	}
	return js.ValueOf(int(eng.HitTest(args[0].Float(), args[1].Float(), radius)))
}

// subscribe registers a callback that receives every bus notification as a
// JSON envelope string.
func subscribe(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return missing("callback")
	}
	fn := args[0]
	eng.Bus().SubscribeAll(func(m bus.Message) {
		data, err := bus.Encode(m)
		if err != nil {
			return
		}
		fn.Invoke(string(data))
	})
	return result(nil)
}
