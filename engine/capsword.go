package engine

import (
	"time"

	"keyweaver/scancodes"
)

type capsWord struct {
	active bool
	token  Token
}

func (e *Engine) toggleCapsWord() {
	if e.capsWord.active {
		e.capsWordOff()
		return
	}
	e.capsWord.active = true
	e.logf("caps word on")
	e.armCapsWordIdle()
}

func (e *Engine) capsWordOff() {
	e.capsWord.active = false
	e.sched.Cancel(e.capsWord.token)
	e.capsWord.token = InvalidToken
	e.logf("caps word off")
}

func (e *Engine) armCapsWordIdle() {
	if e.cfg.CapsWordIdle <= 0 || e.sched.Extend(e.capsWord.token, e.cfg.CapsWordIdle) {
		return
	}
	e.capsWord.token = e.sched.After(e.cfg.CapsWordIdle, func(time.Duration) time.Duration {
		e.capsWord.token = InvalidToken
		if e.capsWord.active {
			e.capsWordOff()
		}
		return 0
	})
}

// capsWordKey reports whether code keeps Caps Word going and whether it
// gets shifted.
func (e *Engine) capsWordKey(code scancodes.Code, mods scancodes.Mods) (cont, shift bool) {
	if mods&^scancodes.ModShift != 0 {
		return false, false
	}
	shifted := mods.Shifted()
	switch {
	case scancodes.IsLetter(code):
		return true, true
	case code == keyMinus:
		// unshifted minus becomes underscore, and underscore stays
		return true, !shifted
	case scancodes.IsDigit(code) && !shifted:
		return true, false
	case code == keyApostrophe, code == keyGrave, code == keyBackspace, code == keyDelete:
		return true, false
	}
	for _, c := range e.cfg.CapsWord.Shift {
		if c == code {
			return true, true
		}
	}
	for _, c := range e.cfg.CapsWord.Continue {
		if c == code {
			return true, false
		}
	}
	return false, false
}

// transform runs the typing-history transformers over a stroke about to be
// sent and returns the weak modifiers to add to it.
func (e *Engine) transform(code scancodes.Code, mods scancodes.Mods) scancodes.Mods {
	var weak scancodes.Mods
	if e.capsWord.active {
		cont, shift := e.capsWordKey(code, mods)
		if cont {
			if shift {
				weak |= scancodes.ModLShift
			}
			e.armCapsWordIdle()
		} else {
			e.capsWordOff()
		}
	}
	if e.sentence.feed(code, mods|weak, e.history, e.cfg.Abbreviations) && e.cfg.SentenceCase {
		weak |= scancodes.ModLShift
	}
	return weak
}
