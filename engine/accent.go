package engine

import (
	"keyweaver/scancodes"
)

// compose types an accented letter as mark then letter. The mark is sent
// bare so the host dead key sees no modifiers; the letter goes through the
// normal pipeline and gets whatever case applies. Every accent key drops the
// layer stack, so two accented letters never come out in a row. Until the
// layer key is released (or a plain key is typed) another accent key only
// types its letter.
func (e *Engine) compose(a AccentAction) {
	e.synthetic++
	defer func() { e.synthetic-- }()
	defer e.clearLayers()

	if e.afterAccent {
		e.tapStroke(scancodes.Stroke{Code: a.Letter})
		return
	}
	held := e.mods.reported
	e.sendMods(a.Mark.Mods)
	e.out.Press(a.Mark.Code)
	e.out.Release(a.Mark.Code)
	e.sendMods(held)

	e.tapStroke(scancodes.Stroke{Code: a.Letter})
	e.afterAccent = true
}
