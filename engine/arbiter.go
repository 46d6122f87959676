package engine

import (
	"time"

	"keyweaver/scancodes"
)

// shouldHold decides a pending key against another key pressed while it was
// held. Keys on opposite hands chord; same hand rolls are typing.
func (e *Engine) shouldHold(p *PendingHold, other KeyID, now time.Duration) bool {
	b := p.binding
	if p.streak {
		return false
	}
	if b.AlwaysHold {
		return true
	}
	if ct := pick(b.ChordTimeout, e.cfg.ChordTimeout); ct > 0 && now-p.Press >= ct {
		return true
	}
	ps, os := e.sideOf(p.Key), e.sideOf(other)
	if ps == Neutral || os == Neutral {
		return true
	}
	return ps != os
}

// streakTimeout is how recently a typing key must have been hit for a
// mod-tap to count as typing. Layer-taps never do.
func (e *Engine) streakTimeout(b *Binding) time.Duration {
	switch h := b.Hold.(type) {
	case LayerAction:
		return 0
	case ModAction:
		if h.Mods&^scancodes.ModShift == 0 {
			return e.cfg.ShiftStreak
		}
	}
	return e.cfg.StreakTimeout
}

// sideOf is the first handedness found walking the active layers down,
// then the keymap wide one.
func (e *Engine) sideOf(key KeyID) Side {
	layers := e.cfg.Keymap.Layers
	for _, n := range e.layers.stack() {
		if n >= len(layers) {
			continue
		}
		if b, ok := layers[n].Keys[key]; ok && b != nil && b.Side != Neutral {
			return b.Side
		}
	}
	return e.cfg.Keymap.Sides[key]
}
