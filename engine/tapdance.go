package engine

import (
	"time"
)

// TapDanceState counts taps of one dance key until the term runs out or
// another key interrupts.
type TapDanceState struct {
	Key      KeyID
	Count    int
	Pressed  bool
	LastTap  time.Duration
	dance    *Dance
	term     time.Duration
	deadline time.Duration
	token    Token
}

func (e *Engine) dancePress(ev KeyEvent, b *Binding) {
	d := e.dance
	if d == nil {
		d = &TapDanceState{
			Key:   ev.Key,
			dance: b.Dance,
			term:  pick(b.Dance.Term, pick(b.TappingTerm, e.cfg.TappingTerm)),
		}
		e.dance = d
	}
	d.Count++
	if d.Count > d.dance.max() {
		// Runaway tapping: forget the dance and the release that follows.
		e.logf("key %d: %d taps, dance reset", ev.Key, d.Count)
		e.sched.Cancel(d.token)
		e.dance = nil
		e.swallow[ev.Key] = true
		return
	}
	d.Pressed = true
	d.LastTap = ev.Time
	d.deadline = ev.Time + d.term
	e.sched.Cancel(d.token)
	d.token = e.sched.At(d.deadline, func(deadline time.Duration) time.Duration {
		if e.dance == d {
			e.finishDance(deadline, false)
		}
		return 0
	})
}

// finishDance sends the variant for the current count. A key still held at
// the end of the term gets its hold variant unless another key interrupted.
func (e *Engine) finishDance(now time.Duration, interrupted bool) {
	d := e.dance
	e.dance = nil
	e.sched.Cancel(d.token)
	e.clock = now

	i := d.Count - 1
	var act Action
	if d.Pressed && !interrupted && i < len(d.dance.Holds) && d.dance.Holds[i] != nil {
		act = d.dance.Holds[i]
		e.notify(d.Key, Hold)
	} else {
		if i < len(d.dance.Taps) {
			act = d.dance.Taps[i]
		}
		e.notify(d.Key, Tap)
	}
	switch {
	case act == nil:
		if d.Pressed {
			e.active[d.Key] = &activation{}
		}
	case d.Pressed:
		e.active[d.Key] = e.pressAction(act)
	default:
		e.tapAction(act)
	}
}
