package engine

import (
	"time"
)

// Token names a scheduled callback. InvalidToken is never handed out.
type Token uint32

const InvalidToken Token = 0

// Callback runs when its deadline is reached. The argument is the deadline it
// was scheduled for. A positive return value re-arms it that much later.
type Callback func(deadline time.Duration) time.Duration

type task struct {
	token    Token
	deadline time.Duration
	cb       Callback
}

// Scheduler is a single queue of deferred callbacks driven by Advance.
// Callbacks run inside Advance, never concurrently.
type Scheduler struct {
	now   time.Duration
	last  Token
	tasks map[Token]*task
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[Token]*task)}
}

// Now is the latest time passed to Advance.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules cb delay after Now.
func (s *Scheduler) After(delay time.Duration, cb Callback) Token {
	return s.At(s.now+delay, cb)
}

// At schedules cb at an absolute deadline. A deadline in the past fires on
// the next Advance.
func (s *Scheduler) At(deadline time.Duration, cb Callback) Token {
	s.last++
	if s.last == InvalidToken {
		s.last++
	}
	s.tasks[s.last] = &task{token: s.last, deadline: deadline, cb: cb}
	return s.last
}

// Extend moves a pending callback to delay after Now. It returns false for
// unknown, fired or cancelled tokens; the caller must schedule anew.
func (s *Scheduler) Extend(token Token, delay time.Duration) bool {
	t, ok := s.tasks[token]
	if !ok {
		return false
	}
	t.deadline = s.now + delay
	return true
}

// Cancel drops a pending callback.
func (s *Scheduler) Cancel(token Token) bool {
	if _, ok := s.tasks[token]; !ok {
		return false
	}
	delete(s.tasks, token)
	return true
}

// Pending reports the number of armed callbacks.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Advance moves the clock to now (never backwards) and runs every due
// callback in deadline order, ties broken by scheduling order.
func (s *Scheduler) Advance(now time.Duration) {
	if now > s.now {
		s.now = now
	}
	for {
		t := s.due()
		if t == nil {
			return
		}
		delete(s.tasks, t.token)
		if next := t.cb(t.deadline); next > 0 {
			t.deadline += next
			s.tasks[t.token] = t
		}
	}
}

func (s *Scheduler) due() *task {
	var first *task
	for _, t := range s.tasks {
		if t.deadline > s.now {
			continue
		}
		if first == nil || t.deadline < first.deadline ||
			(t.deadline == first.deadline && t.token < first.token) {
			first = t
		}
	}
	return first
}
