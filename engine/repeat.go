package engine

import (
	"strings"

	"github.com/gvalkov/golang-evdev"

	"keyweaver/scancodes"
)

// repeatMemory is the last key sent from a physical key press.
type repeatMemory struct {
	stroke scancodes.Stroke
	mods   scancodes.Mods
	ok     bool
}

func (r *repeatMemory) remember(s scancodes.Stroke, mods scancodes.Mods) {
	r.stroke = s
	r.mods = mods
	r.ok = true
}

// DefaultAltRepeat reverses Tab and completes common English words.
func DefaultAltRepeat() map[scancodes.Code]AltRepeat {
	text := func(s string) AltRepeat {
		return AltRepeat{
			Unshifted: MacroAction{Text: s},
			Shifted:   MacroAction{Text: strings.ToUpper(s)},
		}
	}
	return map[scancodes.Code]AltRepeat{
		keyTab: {
			Unshifted:  Chord(scancodes.ModLShift, keyTab),
			Shifted:    Key(keyTab),
			FollowLast: true,
		},
		scancodes.Code(evdev.KEY_S): text("sion"),
		scancodes.Code(evdev.KEY_N): text("ion"),
		scancodes.Code(evdev.KEY_T): text("heir"),
		scancodes.Code(evdev.KEY_W): text("hich"),
		scancodes.Code(evdev.KEY_M): text("ent"),
		scancodes.Code(evdev.KEY_B): text("ecause"),
		scancodes.Code(evdev.KEY_A): text("tion"),
		scancodes.Code(evdev.KEY_I): text("tion"),
		keySpace:                    {Unshifted: MacroAction{Text: "and"}},
	}
}

// repeatLast sends the last key again, or its alternate. Neither is
// remembered itself.
func (e *Engine) repeatLast(alternate bool) {
	if !e.repeat.ok {
		return
	}
	e.synthetic++
	defer func() { e.synthetic-- }()

	last := e.repeat
	if !alternate {
		e.tapStroke(scancodes.Stroke{Code: last.stroke.Code, Mods: last.mods})
		return
	}
	alt, ok := e.cfg.AltRepeat[last.stroke.Code]
	if !ok {
		return
	}
	shifted := (e.mods.base() | e.mods.oneShot).Shifted() || e.capsWord.active
	if alt.FollowLast {
		shifted = last.mods.Shifted()
	}
	act := alt.Unshifted
	if shifted && alt.Shifted != nil {
		act = alt.Shifted
	}
	if act != nil {
		e.tapAction(act)
	}
}
