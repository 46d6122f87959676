package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gvalkov/golang-evdev"

	"keyweaver/scancodes"
)

var (
	kA      = KeyID(evdev.KEY_A)
	kJ      = KeyID(evdev.KEY_J)
	kK      = KeyID(evdev.KEY_K)
	kS      = KeyID(evdev.KEY_S)
	kX      = KeyID(evdev.KEY_X)
	kSpace  = KeyID(evdev.KEY_SPACE)
	kShift  = KeyID(evdev.KEY_LEFTSHIFT)
	kRShift = KeyID(evdev.KEY_RIGHTSHIFT)
	kCtrl   = KeyID(evdev.KEY_LEFTCTRL)
	kAlt    = KeyID(evdev.KEY_LEFTALT)
	kCaps   = KeyID(evdev.KEY_CAPSLOCK)
	kTab    = KeyID(evdev.KEY_TAB)
	kBspc   = KeyID(evdev.KEY_BACKSPACE)
	kEnter  = KeyID(evdev.KEY_ENTER)
	kF1     = KeyID(evdev.KEY_F1)
	kF2     = KeyID(evdev.KEY_F2)
	kF3     = KeyID(evdev.KEY_F3)
	kF4     = KeyID(evdev.KEY_F4)
	kF5     = KeyID(evdev.KEY_F5)
	kF6     = KeyID(evdev.KEY_F6)
	kF7     = KeyID(evdev.KEY_F7)
	kF8     = KeyID(evdev.KEY_F8)
	kF9     = KeyID(evdev.KEY_F9)
	kF10    = KeyID(evdev.KEY_F10)
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// recorder is an Output that logs every transition and the text a US
// layout host would see.
type recorder struct {
	ops    []string
	down   map[scancodes.Code]bool
	text   []rune
	pastes []string
}

func newRecorder() *recorder {
	return &recorder{down: make(map[scancodes.Code]bool)}
}

func (r *recorder) Press(code scancodes.Code) {
	r.ops = append(r.ops, "+"+scancodes.Name(code))
	r.down[code] = true
	switch {
	case scancodes.IsModifier(code):
	case code == keyBackspace:
		if len(r.text) > 0 {
			r.text = r.text[:len(r.text)-1]
		}
	default:
		shifted := r.down[scancodes.Code(evdev.KEY_LEFTSHIFT)] || r.down[scancodes.Code(evdev.KEY_RIGHTSHIFT)]
		if ch := scancodes.CharFor(code, shifted); ch != 0 {
			r.text = append(r.text, ch)
		}
	}
}

func (r *recorder) Release(code scancodes.Code) {
	r.ops = append(r.ops, "-"+scancodes.Name(code))
	delete(r.down, code)
}

func (r *recorder) Paste(text string) {
	r.pastes = append(r.pastes, text)
	r.text = append(r.text, []rune(text)...)
}

const leftHand = "QWERTASDFGZXCVB"

// typingKeys binds every printable key to itself, plus plain modifiers.
func typingKeys() map[KeyID]*Binding {
	keys := make(map[KeyID]*Binding)
	for code := scancodes.Code(1); code < 0x54; code++ {
		if scancodes.CharFor(code, false) == 0 && code != keyBackspace {
			continue
		}
		b := &Binding{Tap: Key(code)}
		if scancodes.IsLetter(code) {
			b.Side = Right
			if strings.Contains(leftHand, scancodes.Name(code)) {
				b.Side = Left
			}
		}
		keys[KeyID(code)] = b
	}
	keys[kShift] = &Binding{Tap: ModAction{Mods: scancodes.ModLShift}}
	keys[kCtrl] = &Binding{Tap: ModAction{Mods: scancodes.ModLCtrl}}
	keys[kAlt] = &Binding{Tap: ModAction{Mods: scancodes.ModLAlt}}
	return keys
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.IdleTimeout = 0
	cfg.Keymap.Layers = []Layer{{Name: "base", Keys: typingKeys()}}
	return cfg
}

func bind(cfg *Config, layer int, key KeyID, b *Binding) *Binding {
	for len(cfg.Keymap.Layers) <= layer {
		cfg.Keymap.Layers = append(cfg.Keymap.Layers, Layer{Keys: make(map[KeyID]*Binding)})
	}
	cfg.Keymap.Layers[layer].Keys[key] = b
	return b
}

func modTap(cfg *Config, key KeyID, mods scancodes.Mods, side Side) *Binding {
	return bind(cfg, 0, key, &Binding{Tap: Key(scancodes.Code(key)), Hold: ModAction{Mods: mods}, Side: side})
}

type harness struct {
	t        *testing.T
	e        *Engine
	out      *recorder
	resolved []string
	execs    []string
}

func newHarness(t *testing.T, cfg Config) *harness {
	h := &harness{t: t, out: newRecorder()}
	h.e = New(cfg, h.out, nil, Hooks{
		OnResolve: func(key KeyID, res Resolution) {
			h.resolved = append(h.resolved, fmt.Sprintf("%s:%s", scancodes.Name(scancodes.Code(key)), res))
		},
		Exec: func(command string) { h.execs = append(h.execs, command) },
		Logf: t.Logf,
	})
	return h
}

func (h *harness) down(key KeyID, at int) {
	h.e.Handle(KeyEvent{Key: key, Pressed: true, Time: ms(at)})
}

func (h *harness) up(key KeyID, at int) {
	h.e.Handle(KeyEvent{Key: key, Pressed: false, Time: ms(at)})
}

func (h *harness) tap(key KeyID, at int) {
	h.down(key, at)
	h.up(key, at+10)
}

func (h *harness) tick(at int) {
	h.e.Tick(ms(at))
}

// typeText types s key by key from at, holding the physical shift where the
// US layout needs it. It returns the time after the last key.
func (h *harness) typeText(s string, at int) int {
	h.t.Helper()
	for _, r := range s {
		st, ok := scancodes.ForChar(r)
		if !ok {
			h.t.Fatalf("no stroke for %q", r)
		}
		shifted := st.Mods.Shifted()
		if shifted {
			h.down(kShift, at)
			at += 5
		}
		h.tap(KeyID(st.Code), at)
		at += 20
		if shifted {
			h.up(kShift, at)
			at += 5
		}
		at += 5
	}
	return at
}

func (h *harness) expectOps(want string) {
	h.t.Helper()
	if got := strings.Join(h.out.ops, " "); got != want {
		h.t.Errorf("ops = %q, want %q", got, want)
	}
}

func (h *harness) expectText(want string) {
	h.t.Helper()
	if got := string(h.out.text); got != want {
		h.t.Errorf("text = %q, want %q", got, want)
	}
}

func (h *harness) expectResolved(want ...string) {
	h.t.Helper()
	if got := strings.Join(h.resolved, " "); got != strings.Join(want, " ") {
		h.t.Errorf("resolved = %q, want %q", got, strings.Join(want, " "))
	}
}

func TestPlainKeys(t *testing.T) {
	h := newHarness(t, testConfig())
	h.typeText("Hi there", 0)
	h.expectText("Hi there")
	if h.e.Mods() != 0 {
		t.Errorf("mods left over: %s", h.e.Mods())
	}
}

func TestStrokeOrdering(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kF1, &Binding{Tap: Chord(scancodes.ModLGui, scancodes.Code(evdev.KEY_C))})
	h := newHarness(t, cfg)
	h.tap(kF1, 0)
	h.expectOps("+LGui +C -C -LGui")
}

func TestModifierRefcount(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kF1, &Binding{Tap: ModAction{Mods: scancodes.ModLShift}})
	h := newHarness(t, cfg)
	h.down(kShift, 0)
	h.down(kF1, 10)
	h.up(kShift, 20)
	if h.e.Mods() != scancodes.ModLShift {
		t.Errorf("mods = %s, want LShift", h.e.Mods())
	}
	h.up(kF1, 30)
	h.expectOps("+LShift -LShift")
}

func TestOneShotMod(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kF10, &Binding{Tap: ModAction{Mods: scancodes.ModLShift, OneShot: true}})
	h := newHarness(t, cfg)
	h.tap(kF10, 0)
	h.typeText("ab", 100)
	h.expectText("Ab")
}

func TestOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Keymap.Overrides = []Override{
		{
			Trigger:     scancodes.ModShift,
			Key:         keyDot,
			Replacement: scancodes.Stroke{Code: key1, Mods: scancodes.ModLShift},
			Negative:    scancodes.ModAlt,
		},
		{
			Trigger:     scancodes.ModShift,
			Key:         keyBackspace,
			Replacement: scancodes.Stroke{Code: keyDelete},
		},
	}

	h := newHarness(t, cfg)
	h.typeText("Hi> x", 0)
	h.expectText("Hi! X")

	h = newHarness(t, cfg)
	h.down(kAlt, 0)
	h.down(kShift, 5)
	h.tap(KeyID(keyDot), 10)
	h.expectText(">")

	h = newHarness(t, cfg)
	h.down(kShift, 0)
	h.tap(kBspc, 10)
	h.expectOps("+LShift -LShift +Delete -Delete +LShift")

	// A left hand trigger matches the right modifier too.
	cfg.Keymap.Overrides[0].Trigger = scancodes.ModLShift
	cfg.Keymap.Overrides[0].Negative = scancodes.ModLAlt
	bind(&cfg, 0, kRShift, &Binding{Tap: ModAction{Mods: scancodes.ModRShift}})
	h = newHarness(t, cfg)
	h.down(kRShift, 0)
	h.tap(KeyID(keyDot), 10)
	h.expectText("!")
}

func TestMacroText(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kF2, &Binding{Tap: MacroAction{Text: "Hé!"}})

	h := newHarness(t, cfg)
	h.tap(kF2, 0)
	h.expectText("Hé!")
	if len(h.out.pastes) != 1 || h.out.pastes[0] != "é" {
		t.Errorf("pastes = %q", h.out.pastes)
	}

	// Without a paster the rune is dropped.
	out := newRecorder()
	e := New(cfg, struct{ Output }{out}, nil, Hooks{})
	e.Handle(KeyEvent{Key: kF2, Pressed: true})
	e.Handle(KeyEvent{Key: kF2, Time: ms(10)})
	if got := string(out.text); got != "H!" {
		t.Errorf("text = %q, want %q", got, "H!")
	}
}

func TestExecAction(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kF6, &Binding{Tap: ExecAction{Command: "notify-send hi"}})
	h := newHarness(t, cfg)
	h.tap(kF6, 0)
	if len(h.execs) != 1 || h.execs[0] != "notify-send hi" {
		t.Errorf("execs = %q", h.execs)
	}
	h.expectOps("")
}

func TestLayers(t *testing.T) {
	up := Key(scancodes.Code(evdev.KEY_UP))
	cfg := testConfig()
	bind(&cfg, 0, kF7, &Binding{Tap: LayerAction{Layer: 1, Mode: LayerToggle}})
	bind(&cfg, 0, kF8, &Binding{Tap: LayerAction{Layer: 1, Mode: LayerOneShot}})
	bind(&cfg, 1, kJ, &Binding{Tap: up})
	bind(&cfg, 1, kF9, &Binding{Tap: LayerAction{Mode: LayerClear}})
	bind(&cfg, 1, kK, &Binding{})

	h := newHarness(t, cfg)
	h.tap(kF7, 0)
	if h.e.Layer() != 1 {
		t.Fatalf("layer = %d, want 1", h.e.Layer())
	}
	h.tap(kJ, 100)
	h.tap(kK, 200) // blocked
	h.tap(kS, 300) // transparent
	h.tap(kF7, 400)
	h.tap(kJ, 500)
	h.expectOps("+Up -Up +S -S +J -J")

	h = newHarness(t, cfg)
	h.tap(kF8, 0)
	h.tap(kJ, 100)
	h.tap(kJ, 200)
	h.expectOps("+Up -Up +J -J")

	h = newHarness(t, cfg)
	h.tap(kF7, 0)
	h.tap(kF9, 100)
	if h.e.Layer() != 0 {
		t.Errorf("layer = %d after clear", h.e.Layer())
	}
}

func TestLayerLock(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kCaps, &Binding{Tap: LayerAction{Layer: 1}})
	bind(&cfg, 0, kF8, &Binding{Tap: LayerAction{Layer: 2, Mode: LayerOneShot}})
	bind(&cfg, 1, kJ, &Binding{Tap: Key(scancodes.Code(evdev.KEY_UP))})
	bind(&cfg, 1, kF6, &Binding{Tap: LayerAction{Mode: LayerLock}})
	bind(&cfg, 2, kJ, &Binding{Tap: Key(key1)})
	bind(&cfg, 2, kF6, &Binding{Tap: LayerAction{Mode: LayerLock}})

	h := newHarness(t, cfg)
	h.down(kCaps, 0)
	h.tap(kF6, 10)
	h.up(kCaps, 50)
	h.tap(kJ, 100)
	if h.e.Layer() != 1 {
		t.Fatalf("layer = %d, want 1 while locked", h.e.Layer())
	}
	h.down(kCaps, 200)
	h.up(kCaps, 250)
	h.tap(kF6, 300) // unlock
	h.tap(kJ, 400)
	h.expectOps("+Up -Up +J -J")
	if h.e.Layer() != 0 {
		t.Errorf("layer = %d after unlock", h.e.Layer())
	}

	// A locked one-shot layer outlives its key.
	h = newHarness(t, cfg)
	h.tap(kF8, 0)
	h.tap(kF6, 50)
	h.tap(kJ, 100)
	h.tap(kJ, 150)
	h.expectOps("+1 -1 +1 -1")
}

func TestReconfigureReleasesKeys(t *testing.T) {
	cfg := testConfig()
	h := newHarness(t, cfg)
	h.down(kShift, 0)
	h.down(kJ, 10)
	h.e.Reconfigure(cfg)
	h.expectOps("+LShift +J -J -LShift")
	h.up(kJ, 20)
	h.up(kShift, 30)
	h.expectOps("+LShift +J -J -LShift")
}

type printer struct{}

func (printer) Press(code scancodes.Code)   { fmt.Println("press", scancodes.Name(code)) }
func (printer) Release(code scancodes.Code) { fmt.Println("release", scancodes.Name(code)) }

func Example() {
	a, j := KeyID(evdev.KEY_A), KeyID(evdev.KEY_J)
	cfg := DefaultConfig()
	cfg.Keymap.Layers = []Layer{{Name: "base", Keys: map[KeyID]*Binding{
		a: {Tap: Key(scancodes.Code(a)), Hold: ModAction{Mods: scancodes.ModLCtrl}, Side: Left},
		j: {Tap: Key(scancodes.Code(j)), Side: Right},
	}}}
	e := New(cfg, printer{}, nil, Hooks{})

	e.Handle(KeyEvent{Key: a, Pressed: true, Time: 0})
	e.Handle(KeyEvent{Key: j, Pressed: true, Time: 50 * time.Millisecond})
	e.Handle(KeyEvent{Key: a, Pressed: false, Time: 100 * time.Millisecond})
	e.Handle(KeyEvent{Key: j, Pressed: false, Time: 150 * time.Millisecond})
	// Output:
	// press LCtrl
	// press J
	// release LCtrl
	// release J
}
