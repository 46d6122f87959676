package engine

import (
	"time"
)

// leaderState collects the keys pressed after the leader key. down outlives
// the sequence: releases of collected keys are dropped whenever they come.
type leaderState struct {
	active bool
	seq    []KeyID
	down   map[KeyID]bool
	token  Token
}

func (e *Engine) startLeader() {
	l := &e.leader
	e.sched.Cancel(l.token)
	l.active = true
	l.seq = nil
	e.armLeader()
}

func (e *Engine) armLeader() {
	l := &e.leader
	e.sched.Cancel(l.token)
	l.token = e.sched.At(e.clock+e.cfg.LeaderTimeout, func(deadline time.Duration) time.Duration {
		e.clock = deadline
		a, _ := e.matchLeader(l.seq)
		e.endLeader(a)
		return 0
	})
}

// leaderFeed takes ev when it belongs to a leader sequence.
func (e *Engine) leaderFeed(ev KeyEvent) bool {
	l := &e.leader
	if !ev.Pressed {
		if l.down[ev.Key] {
			delete(l.down, ev.Key)
			return true
		}
		return false
	}
	if !l.active {
		return false
	}
	l.down[ev.Key] = true
	l.seq = append(l.seq, ev.Key)
	a, longer := e.matchLeader(l.seq)
	switch {
	case longer:
		e.armLeader()
	default:
		e.endLeader(a)
	}
	return true
}

// matchLeader finds the sequence equal to seq, and reports whether a longer
// one starts with it.
func (e *Engine) matchLeader(seq []KeyID) (Action, bool) {
	var exact Action
	longer := false
	for _, s := range e.cfg.Keymap.Leader {
		if len(s.Keys) < len(seq) {
			continue
		}
		prefix := true
		for i, k := range seq {
			if s.Keys[i] != k {
				prefix = false
				break
			}
		}
		switch {
		case !prefix:
		case len(s.Keys) == len(seq):
			exact = s.Action
		default:
			longer = true
		}
	}
	return exact, longer
}

func (e *Engine) endLeader(a Action) {
	l := &e.leader
	e.sched.Cancel(l.token)
	e.logf("leader %v: %v", l.seq, a)
	l.active = false
	l.seq = nil
	if a != nil {
		e.tapAction(a)
	}
}
