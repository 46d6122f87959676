// Package engine turns physical key transitions into HID key reports.
//
// A key press flows through a fixed pipeline: the combo stage, then the
// tap/hold classifier (with tap-dance and chord arbitration), then the
// typing-history transformers (Caps Word, Sentence Case, repeat memory)
// and finally the modifier-aware encoder that drives Output.
//
// The engine is single threaded and owns no clock: callers feed it events
// with timestamps and call Tick so deferred work can run. All of its state is
// reachable from one Engine value.
package engine

import (
	"time"

	"keyweaver/scancodes"
)

// activation is whatever a key press left behind until its release.
type activation struct {
	codes  []scancodes.Code // key codes held down, in press order
	real   scancodes.Mods   // registered modifiers
	layer  int
	hasLyr bool
	tap    bool // tap of a tap-hold key, feeds quick tap
}

type Engine struct {
	cfg    Config
	out    Output
	lights Lights
	hooks  Hooks
	sched  *Scheduler

	clock time.Duration // time of the event being processed

	layers layerStack
	mods   modState

	pending *PendingHold
	waiting []queued
	dance   *TapDanceState
	combo   comboState
	leader  leaderState
	active  map[KeyID]*activation
	swallow map[KeyID]bool

	history  *History
	sentence sentenceCase
	capsWord capsWord
	repeat   repeatMemory

	synthetic   int // depth of macro, repeat and compose output
	afterAccent bool

	lastTap struct {
		key      KeyID
		release  time.Duration
		released bool
		ok       bool
	}
	typed      bool
	lastTyping time.Duration
	lastCode   scancodes.Code

	idleToken   Token
	manualLight bool // lights switched off by the user, survives idle
}

// New builds an engine. lights may be nil.
func New(cfg Config, out Output, lights Lights, hooks Hooks) *Engine {
	if lights == nil {
		lights = noLights{}
	}
	e := &Engine{
		out:    out,
		lights: lights,
		hooks:  hooks,
		sched:  NewScheduler(),
	}
	e.setConfig(cfg)
	return e
}

func (e *Engine) setConfig(cfg Config) {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	e.cfg = cfg
	e.active = make(map[KeyID]*activation)
	e.swallow = make(map[KeyID]bool)
	e.history = NewHistory(cfg.HistorySize)
	e.layers = layerStack{oneShot: -1}
	e.sentence = sentenceCase{}
	e.capsWord = capsWord{}
	e.repeat = repeatMemory{}
	e.combo = comboState{held: make(map[KeyID]*comboFire)}
	e.leader = leaderState{down: make(map[KeyID]bool)}
}

// Handle feeds one key transition. Due timers run first.
func (e *Engine) Handle(ev KeyEvent) {
	e.Tick(ev.Time)
	e.clock = ev.Time
	e.touchIdle()
	if e.leaderFeed(ev) {
		return
	}
	e.comboFeed(ev)
}

// Tick runs every deferred callback due at now.
func (e *Engine) Tick(now time.Duration) {
	e.sched.Advance(now)
}

// Reconfigure releases everything held and starts over with cfg.
// Lighting state survives.
func (e *Engine) Reconfigure(cfg Config) {
	e.Reset()
	idle := e.idleToken
	e.setConfig(cfg)
	e.idleToken = idle
	e.renderIndicators()
}

// Reset drops all pending decisions and releases every held key and modifier.
func (e *Engine) Reset() {
	if e.pending != nil {
		e.sched.Cancel(e.pending.token)
		e.pending = nil
	}
	if e.dance != nil {
		e.sched.Cancel(e.dance.token)
		e.dance = nil
	}
	e.sched.Cancel(e.combo.token)
	e.sched.Cancel(e.capsWord.token)
	e.sched.Cancel(e.leader.token)
	e.leader = leaderState{down: make(map[KeyID]bool)}
	e.waiting = nil
	e.combo.buf = nil
	for key, f := range e.combo.held {
		if f.act != nil {
			e.releaseHeld(f.act)
			f.act = nil
		}
		delete(e.combo.held, key)
	}
	for key := range e.swallow {
		delete(e.swallow, key)
	}
	for key, act := range e.active {
		e.releaseHeld(act)
		delete(e.active, key)
	}
	e.mods = modState{reported: e.mods.reported}
	e.sendMods(0)
	e.layers = layerStack{oneShot: -1}
	e.capsWord = capsWord{}
	e.sentence.clear(e.history)
}

// Layer is the highest active layer.
func (e *Engine) Layer() int { return e.layers.highest() }

// Mods is the modifier set last reported to the host.
func (e *Engine) Mods() scancodes.Mods { return e.mods.reported }

// CapsWord reports whether Caps Word is on.
func (e *Engine) CapsWord() bool { return e.capsWord.active }

// SentencePrimed reports whether the next letter will be capitalized.
func (e *Engine) SentencePrimed() bool { return e.sentence.state == statePrimed }

// History is the recent typing history, oldest first.
func (e *Engine) History() string { return e.history.String() }

// Leading reports whether a leader sequence is being collected.
func (e *Engine) Leading() bool { return e.leader.active }

// PendingKey reports the key awaiting a tap/hold decision.
func (e *Engine) PendingKey() (KeyID, bool) {
	if e.pending == nil {
		return 0, false
	}
	return e.pending.Key, true
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.hooks.Logf != nil {
		e.hooks.Logf(format, args...)
	}
}

func (e *Engine) notify(key KeyID, res Resolution) {
	e.logf("key %d: %s", key, res)
	if e.hooks.OnResolve != nil {
		e.hooks.OnResolve(key, res)
	}
}

// queued is an event held back while a tap-hold key is undecided. fire is
// set when the event completed (or released) a combo; Key is then the
// combo's first key.
type queued struct {
	KeyEvent
	fire *comboFire
}

// dispatch runs an event through classification.
func (e *Engine) dispatch(ev KeyEvent) {
	e.route(queued{KeyEvent: ev})
}

// route is dispatch for queued events. Replays of buffered events come back
// here too, so nothing overtakes an undecided key.
func (e *Engine) route(q queued) {
	ev := q.KeyEvent
	e.clock = ev.Time
	e.expire(ev.Time)
	if p := e.pending; p != nil {
		switch {
		case q.fire == nil && !ev.Pressed && ev.Key == p.Key:
			e.releasePending(ev)
		case ev.Pressed:
			e.waiting = append(e.waiting, q)
			e.otherPressed(ev)
		default:
			e.waiting = append(e.waiting, q)
			e.otherReleased(ev)
		}
		return
	}
	switch {
	case q.fire != nil && ev.Pressed:
		e.pressCombo(q.fire)
	case q.fire != nil:
		e.releaseCombo(q.fire)
	case ev.Pressed:
		e.press(ev)
	default:
		e.release(ev)
	}
}

// expire settles decisions whose deadline passed before now. The scheduler
// normally got there first; replayed events may not have.
func (e *Engine) expire(now time.Duration) {
	if p := e.pending; p != nil && !p.released && now >= p.deadline {
		e.resolvePending(Hold, p.deadline)
	}
	if d := e.dance; d != nil && now >= d.deadline {
		e.finishDance(d.deadline, false)
	}
}

func (e *Engine) press(ev KeyEvent) {
	if e.lastTap.ok && e.lastTap.key != ev.Key {
		e.lastTap.ok = false
	}
	// Another key ends a dance before its own lookup: the dance may have
	// changed layers.
	if d := e.dance; d != nil && d.Key != ev.Key {
		e.finishDance(ev.Time, true)
	}
	b := e.layers.lookup(e.cfg.Keymap.Layers, ev.Key)
	if d := e.dance; d != nil && (b == nil || b.Dance == nil) {
		e.finishDance(ev.Time, true)
	}
	switch {
	case b == nil:
		e.active[ev.Key] = &activation{}
	case b.Dance != nil:
		e.dancePress(ev, b)
	case b.Hold != nil:
		e.startPending(ev, b)
	case b.Tap != nil:
		e.active[ev.Key] = e.pressAction(b.Tap)
	default:
		e.active[ev.Key] = &activation{}
	}
}

func (e *Engine) release(ev KeyEvent) {
	if e.swallow[ev.Key] {
		delete(e.swallow, ev.Key)
		return
	}
	if d := e.dance; d != nil && d.Key == ev.Key {
		d.Pressed = false
		return
	}
	act, ok := e.active[ev.Key]
	if !ok {
		return
	}
	delete(e.active, ev.Key)
	e.releaseActivation(act)
	if act.tap {
		e.lastTap.key = ev.Key
		e.lastTap.release = ev.Time
		e.lastTap.released = true
		e.lastTap.ok = true
	}
}

// pressAction performs the press half of an action.
func (e *Engine) pressAction(a Action) *activation {
	switch a := a.(type) {
	case KeyAction:
		return e.registerStroke(a.Stroke)
	case ModAction:
		if a.OneShot {
			e.mods.oneShot |= a.Mods
			return &activation{}
		}
		e.mods.register(a.Mods)
		e.sendMods(e.mods.base())
		return &activation{real: a.Mods}
	case LayerAction:
		return e.layerPress(a)
	case MacroAction:
		e.sendString(a.Text)
	case AccentAction:
		e.compose(a)
	case CapsWordAction:
		e.toggleCapsWord()
	case RepeatAction:
		e.repeatLast(a.Alternate)
	case LeaderAction:
		e.startLeader()
	case LightingAction:
		e.lighting(a.Op)
	case ExecAction:
		if e.hooks.Exec != nil {
			e.hooks.Exec(a.Command)
		}
	}
	return &activation{}
}

func (e *Engine) releaseActivation(act *activation) {
	if act == nil {
		return
	}
	for i := len(act.codes) - 1; i >= 0; i-- {
		e.out.Release(act.codes[i])
	}
	if act.real != 0 {
		e.mods.unregister(act.real)
	}
	if act.hasLyr {
		e.layers.release(act.layer)
		e.afterAccent = false
		e.renderIndicators()
	}
	e.sendMods(e.mods.base())
}

func (e *Engine) releaseHeld(act *activation) {
	for i := len(act.codes) - 1; i >= 0; i-- {
		e.out.Release(act.codes[i])
	}
}

func (e *Engine) tapAction(a Action) {
	e.releaseActivation(e.pressAction(a))
}

type noLights struct{}

func (noLights) SetColor(int, RGB) {}
func (noLights) Enable()           {}
func (noLights) Disable()          {}
func (noLights) Enabled() bool     { return true }
