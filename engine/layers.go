package engine

import (
	"sort"
)

// layerStack tracks active layers above the always-on base layer 0.
type layerStack struct {
	on      []int // ascending
	oneShot int   // -1 when none
	locked  map[int]bool
}

func (l *layerStack) has(n int) bool {
	i := sort.SearchInts(l.on, n)
	return i < len(l.on) && l.on[i] == n
}

func (l *layerStack) set(n int) {
	if n <= 0 || l.has(n) {
		return
	}
	l.on = append(l.on, n)
	sort.Ints(l.on)
}

func (l *layerStack) off(n int) {
	i := sort.SearchInts(l.on, n)
	if i < len(l.on) && l.on[i] == n {
		l.on = append(l.on[:i], l.on[i+1:]...)
	}
	if l.oneShot == n {
		l.oneShot = -1
	}
	delete(l.locked, n)
}

// release drops a momentary layer unless it was locked meanwhile.
func (l *layerStack) release(n int) {
	if !l.locked[n] {
		l.off(n)
	}
}

// lock keeps the top layer on after the key holding it is released.
// Locking a locked layer turns it off.
func (l *layerStack) lock() {
	top := l.highest()
	switch {
	case top == 0:
	case l.locked[top]:
		l.off(top)
	default:
		if l.locked == nil {
			l.locked = make(map[int]bool)
		}
		l.locked[top] = true
		if l.oneShot == top {
			l.oneShot = -1
		}
	}
}

func (l *layerStack) toggle(n int) {
	if l.has(n) {
		l.off(n)
	} else {
		l.set(n)
	}
}

func (l *layerStack) clear() {
	l.on = nil
	l.oneShot = -1
	l.locked = nil
}

func (l *layerStack) highest() int {
	if len(l.on) == 0 {
		return 0
	}
	return l.on[len(l.on)-1]
}

// stack lists active layers from the top down, base last.
func (l *layerStack) stack() []int {
	out := make([]int, 0, len(l.on)+1)
	for i := len(l.on) - 1; i >= 0; i-- {
		out = append(out, l.on[i])
	}
	return append(out, 0)
}

// lookup finds the binding for key, falling through transparent entries.
func (l *layerStack) lookup(layers []Layer, key KeyID) *Binding {
	for _, n := range l.stack() {
		if n >= len(layers) {
			continue
		}
		if b, ok := layers[n].Keys[key]; ok {
			return b
		}
	}
	return nil
}

func (e *Engine) layerPress(a LayerAction) *activation {
	defer e.renderIndicators()
	switch a.Mode {
	case LayerToggle:
		e.layers.toggle(a.Layer)
	case LayerOneShot:
		e.layers.set(a.Layer)
		e.layers.oneShot = a.Layer
	case LayerClear:
		e.layers.clear()
		e.afterAccent = false
	case LayerLock:
		e.layers.lock()
	default:
		e.layers.set(a.Layer)
		return &activation{layer: a.Layer, hasLyr: true}
	}
	return &activation{}
}

// clearLayers drops every layer above the base one.
func (e *Engine) clearLayers() {
	if len(e.layers.on) > 0 {
		e.layers.clear()
		e.renderIndicators()
	}
}

// consumeOneShot drops a one-shot layer once a key was sent through it.
func (e *Engine) consumeOneShot() {
	if n := e.layers.oneShot; n >= 0 {
		e.layers.off(n)
		e.renderIndicators()
	}
}
