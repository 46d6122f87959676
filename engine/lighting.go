package engine

import (
	"time"
)

// touchIdle restarts the idle countdown and wakes the lights.
func (e *Engine) touchIdle() {
	if e.cfg.IdleTimeout > 0 && !e.sched.Extend(e.idleToken, e.cfg.IdleTimeout) {
		e.idleToken = e.sched.After(e.cfg.IdleTimeout, e.idle)
	}
	if !e.lights.Enabled() && !e.manualLight {
		e.lights.Enable()
		e.renderIndicators()
	}
}

func (e *Engine) idle(time.Duration) time.Duration {
	e.idleToken = InvalidToken
	if e.lights.Enabled() {
		e.logf("idle, lights off")
		e.lights.Disable()
	}
	return 0
}

func (e *Engine) lighting(op LightingOp) {
	switch op {
	case LightingToggle:
		if e.lights.Enabled() {
			e.manualLight = true
			e.lights.Disable()
		} else {
			e.manualLight = false
			e.lights.Enable()
			e.renderIndicators()
		}
	case LightingReset:
		e.renderIndicators()
	}
}

// renderIndicators paints every mapped key in the base color, or on an upper
// layer, darkens the keys that layer leaves transparent.
func (e *Engine) renderIndicators() {
	if len(e.cfg.Keymap.LEDs) == 0 || !e.lights.Enabled() {
		return
	}
	top := e.layers.highest()
	var keys map[KeyID]*Binding
	if top > 0 && top < len(e.cfg.Keymap.Layers) {
		keys = e.cfg.Keymap.Layers[top].Keys
	}
	for key, led := range e.cfg.Keymap.LEDs {
		color := e.cfg.BaseColor
		if top > 0 {
			if _, ok := keys[key]; !ok {
				color = e.cfg.IndicatorColor
			}
		}
		e.lights.SetColor(led, color)
	}
}

// SetLights swaps the LED sink, e.g. after the LED list changed on reload.
// The old sink is switched off and the new one takes over its state.
func (e *Engine) SetLights(l Lights) {
	if l == nil {
		l = noLights{}
	}
	on := e.lights.Enabled()
	if on {
		e.lights.Disable()
	}
	e.lights = l
	if on && !e.manualLight {
		l.Enable()
	} else if l.Enabled() {
		l.Disable()
	}
	e.renderIndicators()
}
