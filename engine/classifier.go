package engine

import (
	"time"

	"keyweaver/scancodes"
)

// PendingHold is a tap-hold key whose fate is not decided yet. While it
// exists every later event waits in Engine.waiting.
type PendingHold struct {
	Key      KeyID
	Press    time.Duration
	deadline time.Duration
	binding  *Binding
	others   []KeyID // keys pressed after Press, in order
	eager    scancodes.Mods
	streak   bool
	released bool
	release  time.Duration
	token    Token
}

func (e *Engine) startPending(ev KeyEvent, b *Binding) {
	p := &PendingHold{
		Key:      ev.Key,
		Press:    ev.Time,
		deadline: ev.Time + pick(b.TappingTerm, e.cfg.TappingTerm),
		binding:  b,
	}
	e.pending = p

	if e.quickTap(ev, b) || e.flowTap(ev, b) {
		e.resolvePending(Tap, ev.Time)
		return
	}
	if st := e.streakTimeout(b); st > 0 && e.typed && ev.Time-e.lastTyping < st {
		p.streak = true
	}
	if m, ok := b.Hold.(ModAction); ok && !m.OneShot && m.Mods&b.Eager != 0 {
		p.eager = m.Mods & b.Eager
		e.mods.eager |= p.eager
		e.sendMods(e.mods.base())
	}
	p.token = e.sched.At(p.deadline, func(deadline time.Duration) time.Duration {
		if e.pending == p && !p.released {
			e.resolvePending(Hold, deadline)
		}
		return 0
	})
}

// quickTap: a second press of the key that was just tapped repeats the tap.
func (e *Engine) quickTap(ev KeyEvent, b *Binding) bool {
	qt := pick(b.QuickTapTerm, e.cfg.QuickTapTerm)
	return qt > 0 && e.lastTap.ok && e.lastTap.released &&
		e.lastTap.key == ev.Key && ev.Time-e.lastTap.release < qt
}

// flowTap: a letter key hit right after typing is a letter.
func (e *Engine) flowTap(ev KeyEvent, b *Binding) bool {
	ft := pick(b.FlowTapTerm, e.cfg.FlowTapTerm)
	if ft <= 0 || !e.typed || ev.Time-e.lastTyping >= ft {
		return false
	}
	k, ok := b.Tap.(KeyAction)
	return ok && flowKey(e.lastCode) && flowKey(k.Stroke.Code)
}

func flowKey(code scancodes.Code) bool {
	if scancodes.IsLetter(code) {
		return true
	}
	switch code {
	case keySpace, keyDot, keyComma, keySemicolon, keySlash:
		return true
	}
	return false
}

func (e *Engine) releasePending(ev KeyEvent) {
	p := e.pending
	p.released = true
	p.release = ev.Time
	switch {
	case ev.Time == p.Press:
		// Bounce: settle on the next tick, as a tap.
		e.sched.Cancel(p.token)
		p.token = e.sched.At(ev.Time, func(deadline time.Duration) time.Duration {
			if e.pending == p {
				e.resolvePending(Tap, deadline)
			}
			return 0
		})
	case len(p.others) > 0 && !p.binding.Instant && e.shouldHold(p, p.others[0], ev.Time):
		e.resolvePending(Hold, ev.Time)
	default:
		e.resolvePending(Tap, ev.Time)
	}
}

func (e *Engine) otherPressed(ev KeyEvent) {
	p := e.pending
	p.others = append(p.others, ev.Key)
	if p.released || p.binding.Instant {
		return
	}
	if !e.shouldHold(p, ev.Key, ev.Time) {
		e.resolvePending(Tap, ev.Time)
	}
}

// otherReleased: a key pressed and released inside the hold window makes an
// opposite hand chord.
func (e *Engine) otherReleased(ev KeyEvent) {
	p := e.pending
	if p.released || p.binding.Instant {
		return
	}
	for _, k := range p.others {
		if k == ev.Key {
			if e.shouldHold(p, k, ev.Time) {
				e.resolvePending(Hold, ev.Time)
			}
			return
		}
	}
}

// resolvePending settles the pending key and replays what waited for it.
func (e *Engine) resolvePending(res Resolution, now time.Duration) {
	p := e.pending
	e.pending = nil
	e.sched.Cancel(p.token)
	e.clock = now
	e.notify(p.Key, res)
	b := p.binding

	var held *activation
	switch res {
	case Tap:
		e.dropEager(p)
		if p.released {
			e.tapAction(b.Tap)
			e.lastTap.key = p.Key
			e.lastTap.release = p.release
			e.lastTap.released = true
			e.lastTap.ok = true
		} else {
			act := e.pressAction(b.Tap)
			act.tap = true
			e.active[p.Key] = act
			e.lastTap.key = p.Key
			e.lastTap.released = false
			e.lastTap.ok = true
		}
	case Hold:
		var act *activation
		if m, ok := b.Hold.(ModAction); ok && b.OneShotHold {
			e.mods.oneShot |= m.Mods
			act = &activation{}
		} else {
			act = e.pressAction(b.Hold)
		}
		e.dropEager(p)
		if p.released {
			held = act
		} else {
			e.active[p.Key] = act
		}
	}

	queue := e.waiting
	e.waiting = nil
	for _, q := range queue {
		e.route(q)
	}
	if held != nil {
		e.releaseActivation(held)
	}
}

func (e *Engine) dropEager(p *PendingHold) {
	if p.eager == 0 {
		return
	}
	e.mods.eager &^= p.eager
	p.eager = 0
	e.sendMods(e.mods.base())
}
