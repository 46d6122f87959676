package engine

import (
	"time"
)

// comboState buffers presses of combo keys until they either complete a
// combo or stop being able to.
type comboState struct {
	buf   []KeyEvent
	token Token
	held  map[KeyID]*comboFire
}

// comboFire is one completed combo. Its press and release travel through
// route like key events, so an undecided tap-hold key settles first.
type comboFire struct {
	combo *Combo
	keys  []KeyID
	act   *activation
}

func (e *Engine) comboFeed(ev KeyEvent) {
	if len(e.cfg.Keymap.Combos) == 0 {
		e.dispatch(ev)
		return
	}
	if !ev.Pressed {
		if f, ok := e.combo.held[ev.Key]; ok {
			delete(e.combo.held, ev.Key)
			// The first member released ends the combo.
			e.route(queued{KeyEvent: KeyEvent{Key: f.keys[0], Time: ev.Time}, fire: f})
			return
		}
		e.flushCombo()
		e.dispatch(ev)
		return
	}

	if len(e.combo.buf) > 0 {
		keys := make([]KeyID, 0, len(e.combo.buf)+1)
		for _, b := range e.combo.buf {
			keys = append(keys, b.Key)
		}
		keys = append(keys, ev.Key)
		if c := e.matchCombo(keys, true); c != nil {
			e.fireCombo(c, keys, ev)
			return
		}
		if e.matchCombo(keys, false) != nil {
			e.combo.buf = append(e.combo.buf, ev)
			return
		}
		e.flushCombo()
	}
	if e.matchCombo([]KeyID{ev.Key}, false) != nil {
		e.combo.buf = []KeyEvent{ev}
		e.combo.token = e.sched.At(ev.Time+e.cfg.ComboTerm, func(time.Duration) time.Duration {
			e.flushCombo()
			return 0
		})
		return
	}
	e.dispatch(ev)
}

// matchCombo finds a combo on the current layer whose keys equal keys
// (exact) or contain them (prefix).
func (e *Engine) matchCombo(keys []KeyID, exact bool) *Combo {
	layer := e.layers.highest()
	for i := range e.cfg.Keymap.Combos {
		c := &e.cfg.Keymap.Combos[i]
		if c.Layer != layer || len(keys) > len(c.Keys) || (exact && len(keys) != len(c.Keys)) {
			continue
		}
		if containsAll(c.Keys, keys) {
			return c
		}
	}
	return nil
}

func containsAll(set, keys []KeyID) bool {
	for _, k := range keys {
		found := false
		for _, s := range set {
			if s == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// fireCombo sends the completed combo down the pipeline as one press of its
// first key.
func (e *Engine) fireCombo(c *Combo, keys []KeyID, ev KeyEvent) {
	e.sched.Cancel(e.combo.token)
	e.combo.buf = nil
	f := &comboFire{combo: c, keys: keys}
	for _, k := range keys {
		e.combo.held[k] = f
	}
	e.route(queued{KeyEvent: KeyEvent{Key: keys[0], Pressed: true, Time: ev.Time}, fire: f})
}

func (e *Engine) pressCombo(f *comboFire) {
	e.logf("combo %v: %s", f.keys, f.combo.Action)
	f.act = e.pressAction(f.combo.Action)
}

func (e *Engine) releaseCombo(f *comboFire) {
	if f.act != nil {
		e.releaseActivation(f.act)
		f.act = nil
	}
}

// flushCombo hands buffered presses to the classifier in arrival order.
func (e *Engine) flushCombo() {
	if len(e.combo.buf) == 0 {
		return
	}
	e.sched.Cancel(e.combo.token)
	buf := e.combo.buf
	e.combo.buf = nil
	for _, ev := range buf {
		e.dispatch(ev)
	}
}
