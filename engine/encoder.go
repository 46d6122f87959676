package engine

import (
	"unicode/utf8"

	"keyweaver/scancodes"
)

// modState separates where modifiers come from. Only reported is what the
// host has seen.
type modState struct {
	counts   [8]int
	real     scancodes.Mods
	oneShot  scancodes.Mods
	eager    scancodes.Mods
	reported scancodes.Mods
}

func (m *modState) register(mods scancodes.Mods) {
	for i := 0; i < 8; i++ {
		if mods&(1<<uint(i)) != 0 {
			m.counts[i]++
			m.real |= 1 << uint(i)
		}
	}
}

func (m *modState) unregister(mods scancodes.Mods) {
	for i := 0; i < 8; i++ {
		if mods&(1<<uint(i)) == 0 || m.counts[i] == 0 {
			continue
		}
		m.counts[i]--
		if m.counts[i] == 0 {
			m.real &^= 1 << uint(i)
		}
	}
}

// base is what stays reported with no key down.
func (m *modState) base() scancodes.Mods {
	return m.real | m.eager
}

// sendMods brings the reported modifiers to target, releases first.
func (e *Engine) sendMods(target scancodes.Mods) {
	cur := e.mods.reported
	if cur == target {
		return
	}
	codes := (cur &^ target).Codes()
	for i := len(codes) - 1; i >= 0; i-- {
		e.out.Release(codes[i])
	}
	for _, code := range (target &^ cur).Codes() {
		e.out.Press(code)
	}
	e.mods.reported = target
}

// registerStroke is the press half of every key stroke, physical or
// synthetic. Caps Word and Sentence Case add weak shift, overrides swap the
// key, and the modifiers go down before the key.
func (e *Engine) registerStroke(s scancodes.Stroke) *activation {
	if s.Code == 0 {
		e.mods.register(s.Mods)
		e.sendMods(e.mods.base())
		return &activation{real: s.Mods}
	}
	if scancodes.IsModifier(s.Code) {
		m := scancodes.ModsFor(s.Code) | s.Mods
		e.mods.register(m)
		e.sendMods(e.mods.base())
		return &activation{real: m}
	}
	if e.synthetic == 0 {
		e.afterAccent = false
	}

	mods := e.mods.base() | e.mods.oneShot | s.Mods
	mods |= e.transform(s.Code, mods)
	if e.synthetic == 0 {
		e.repeat.remember(s, mods)
	}
	if ch := scancodes.CharFor(s.Code, false); ch >= ' ' && mods&^(scancodes.ModShift|scancodes.ModRAlt) == 0 {
		e.typed = true
		e.lastTyping = e.clock
		e.lastCode = s.Code
	}

	code, mods := e.override(s.Code, mods)
	e.sendMods(mods)
	e.out.Press(code)

	if e.mods.oneShot != 0 {
		e.mods.oneShot = 0
	}
	e.consumeOneShot()
	return &activation{codes: []scancodes.Code{code}}
}

func (e *Engine) tapStroke(s scancodes.Stroke) {
	e.releaseActivation(e.registerStroke(s))
}

// override applies the first matching key override.
func (e *Engine) override(code scancodes.Code, mods scancodes.Mods) (scancodes.Code, scancodes.Mods) {
	for _, o := range e.cfg.Keymap.Overrides {
		if o.Key != code || !satisfies(mods, o.Trigger) || mods&widen(o.Negative) != 0 {
			continue
		}
		return o.Replacement.Code, mods&^widen(o.Trigger) | o.Replacement.Mods
	}
	return code, mods
}

// satisfies: every modifier kind named in trigger is held on either side.
func satisfies(mods, trigger scancodes.Mods) bool {
	if trigger == 0 {
		return true
	}
	for _, kind := range []scancodes.Mods{scancodes.ModCtrl, scancodes.ModShift, scancodes.ModAlt, scancodes.ModGui} {
		if trigger&kind != 0 && mods&kind == 0 {
			return false
		}
	}
	return true
}

// widen extends every modifier in m to both sides.
func widen(m scancodes.Mods) scancodes.Mods {
	for _, kind := range []scancodes.Mods{scancodes.ModCtrl, scancodes.ModShift, scancodes.ModAlt, scancodes.ModGui} {
		if m&kind != 0 {
			m |= kind
		}
	}
	return m
}

// sendString types text. Runes without a US key stroke go to the paster
// when the output has one, and are dropped otherwise.
func (e *Engine) sendString(text string) {
	e.synthetic++
	defer func() { e.synthetic-- }()

	var raw []byte
	flush := func() {
		if len(raw) == 0 {
			return
		}
		if p, ok := e.out.(Paster); ok {
			p.Paste(string(raw))
		} else {
			e.logf("no stroke for %q, dropped", raw)
		}
		raw = raw[:0]
	}
	for _, r := range text {
		s, ok := scancodes.ForChar(r)
		if !ok {
			raw = utf8.AppendRune(raw, r)
			continue
		}
		flush()
		e.tapStroke(s)
	}
	flush()
}
