package engine

import (
	"testing"

	"github.com/gvalkov/golang-evdev"

	"keyweaver/scancodes"
)

type fakeLights struct {
	enabled bool
	colors  map[int]RGB
}

func newFakeLights() *fakeLights {
	return &fakeLights{enabled: true, colors: make(map[int]RGB)}
}

func (l *fakeLights) SetColor(index int, c RGB) { l.colors[index] = c }
func (l *fakeLights) Enable()                   { l.enabled = true }
func (l *fakeLights) Disable()                  { l.enabled = false }
func (l *fakeLights) Enabled() bool             { return l.enabled }

func lightingHarness(t *testing.T, cfg Config) (*harness, *fakeLights) {
	lights := newFakeLights()
	h := &harness{t: t, out: newRecorder()}
	h.e = New(cfg, h.out, lights, Hooks{Logf: t.Logf})
	return h, lights
}

func TestIdleLights(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeout = ms(1000)
	h, lights := lightingHarness(t, cfg)

	h.down(kJ, 0)
	h.tick(999)
	if !lights.enabled {
		t.Fatal("lights off before the timeout")
	}
	h.tick(1000)
	if lights.enabled {
		t.Fatal("lights still on after the timeout")
	}
	h.up(kJ, 1500)
	if !lights.enabled {
		t.Fatal("lights not restored by a key event")
	}
}

func TestIdleExtends(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeout = ms(1000)
	h, lights := lightingHarness(t, cfg)

	h.down(kJ, 0)
	h.up(kJ, 800)
	h.tick(1500)
	if !lights.enabled {
		t.Fatal("idle countdown not extended")
	}
	h.tick(1800)
	if lights.enabled {
		t.Fatal("lights still on after the extended timeout")
	}
}

func TestLightsManualToggle(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeout = ms(1000)
	bind(&cfg, 0, kF4, &Binding{Tap: LightingAction{Op: LightingToggle}})
	h, lights := lightingHarness(t, cfg)

	h.tap(kF4, 0)
	if lights.enabled {
		t.Fatal("toggle did not switch the lights off")
	}
	h.tap(kJ, 100)
	h.tick(5000)
	h.tap(kJ, 5100)
	if lights.enabled {
		t.Fatal("manual off did not survive activity")
	}
	h.tap(kF4, 6000)
	if !lights.enabled {
		t.Fatal("toggle did not switch the lights back on")
	}
}

func TestLayerIndicators(t *testing.T) {
	base := RGB{R: 1, G: 2, B: 3}
	cfg := testConfig()
	cfg.BaseColor = base
	cfg.Keymap.LEDs = map[KeyID]int{kJ: 0, kK: 1}
	bind(&cfg, 0, kCaps, &Binding{Tap: LayerAction{Layer: 1}})
	bind(&cfg, 0, kF5, &Binding{Tap: LightingAction{Op: LightingReset}})
	bind(&cfg, 1, kJ, &Binding{Tap: Key(scancodes.Code(evdev.KEY_UP))})
	h, lights := lightingHarness(t, cfg)

	h.tap(kF5, 0)
	if lights.colors[0] != base || lights.colors[1] != base {
		t.Fatalf("reset colors = %v", lights.colors)
	}
	h.down(kCaps, 100)
	if lights.colors[0] != base || lights.colors[1] != (RGB{}) {
		t.Errorf("layer colors = %v", lights.colors)
	}
	h.up(kCaps, 200)
	if lights.colors[1] != base {
		t.Errorf("colors after layer release = %v", lights.colors)
	}
}

func TestSetLights(t *testing.T) {
	base := RGB{R: 9}
	cfg := testConfig()
	cfg.BaseColor = base
	cfg.Keymap.LEDs = map[KeyID]int{kJ: 0}
	h, old := lightingHarness(t, cfg)

	fresh := newFakeLights()
	fresh.enabled = false
	h.e.SetLights(fresh)
	if old.enabled || !fresh.enabled {
		t.Fatalf("old on %v, new on %v", old.enabled, fresh.enabled)
	}
	if fresh.colors[0] != base {
		t.Errorf("new lights not painted: %v", fresh.colors)
	}

	h.e.SetLights(nil)
	if fresh.enabled {
		t.Error("replaced lights left on")
	}
}

func TestSetLightsKeepsManualOff(t *testing.T) {
	cfg := testConfig()
	bind(&cfg, 0, kF4, &Binding{Tap: LightingAction{Op: LightingToggle}})
	h, _ := lightingHarness(t, cfg)

	h.tap(kF4, 0)
	fresh := newFakeLights()
	h.e.SetLights(fresh)
	if fresh.enabled {
		t.Error("new lights switched on against a manual off")
	}
}
