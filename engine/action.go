package engine

import (
	"fmt"

	"keyweaver/scancodes"
)

// Action is the closed set of things a key can do.
type Action interface {
	isAction()
	String() string
}

// KeyAction sends a key stroke, held for as long as the key is.
type KeyAction struct {
	Stroke scancodes.Stroke
}

// ModAction registers modifiers only.
type ModAction struct {
	Mods    scancodes.Mods
	OneShot bool
}

type LayerMode uint8

const (
	LayerMomentary LayerMode = iota
	LayerToggle
	LayerOneShot
	LayerClear
	LayerLock // keep the top layer on, or turn it off when locked
)

// LayerAction changes the layer stack.
type LayerAction struct {
	Layer int
	Mode  LayerMode
}

// MacroAction types a string.
type MacroAction struct {
	Text string
}

// AccentAction composes Mark and Letter without relying on OS dead keys.
type AccentAction struct {
	Mark   scancodes.Stroke
	Letter scancodes.Code
}

// CapsWordAction toggles Caps Word.
type CapsWordAction struct{}

// RepeatAction replays the last key, or its alternate when Alternate is set.
type RepeatAction struct {
	Alternate bool
}

type LightingOp uint8

const (
	LightingToggle LightingOp = iota
	LightingReset
)

// LightingAction toggles the LEDs (sticky across idle) or repaints them.
type LightingAction struct {
	Op LightingOp
}

// LeaderAction starts collecting a leader sequence.
type LeaderAction struct{}

// ExecAction hands a command line to the host.
type ExecAction struct {
	Command string
}

func (KeyAction) isAction()      {}
func (ModAction) isAction()      {}
func (LayerAction) isAction()    {}
func (MacroAction) isAction()    {}
func (AccentAction) isAction()   {}
func (CapsWordAction) isAction() {}
func (RepeatAction) isAction()   {}
func (LightingAction) isAction() {}
func (LeaderAction) isAction()   {}
func (ExecAction) isAction()     {}

func (a KeyAction) String() string { return a.Stroke.String() }

func (a ModAction) String() string {
	if a.OneShot {
		return "osm:" + a.Mods.String()
	}
	return a.Mods.String()
}

func (a LayerAction) String() string {
	switch a.Mode {
	case LayerToggle:
		return fmt.Sprintf("tg:%d", a.Layer)
	case LayerOneShot:
		return fmt.Sprintf("osl:%d", a.Layer)
	case LayerClear:
		return "clear"
	case LayerLock:
		return "layerlock"
	default:
		return fmt.Sprintf("layer:%d", a.Layer)
	}
}

func (a MacroAction) String() string  { return fmt.Sprintf("text:%q", a.Text) }
func (a AccentAction) String() string { return "accent:" + a.Mark.String() + " " + scancodes.Name(a.Letter) }
func (CapsWordAction) String() string { return "capsword" }
func (LeaderAction) String() string   { return "leader" }
func (a ExecAction) String() string   { return "exec:" + a.Command }

func (a RepeatAction) String() string {
	if a.Alternate {
		return "altrepeat"
	}
	return "repeat"
}

func (a LightingAction) String() string {
	if a.Op == LightingReset {
		return "rgb:reset"
	}
	return "rgb:toggle"
}

// Key is shorthand for a plain key stroke action.
func Key(code scancodes.Code) KeyAction {
	return KeyAction{Stroke: scancodes.Stroke{Code: code}}
}

// Chord is shorthand for a key stroke with modifiers.
func Chord(mods scancodes.Mods, code scancodes.Code) KeyAction {
	return KeyAction{Stroke: scancodes.Stroke{Code: code, Mods: mods}}
}
