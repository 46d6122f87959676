package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/micmonay/keybd_event" // Virtual keyboard
	"golang.design/x/clipboard"

	"keyweaver/engine"
	"keyweaver/scancodes"
)

// virtualKeyboard is the uinput HID sink. Every Press and Release is one
// key transition; the engine does all the modifier bookkeeping.
type virtualKeyboard struct {
	kb   keybd_event.KeyBonding
	clip bool // clipboard usable for Paste
}

func newVirtualKeyboard() (*virtualKeyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	// uinput devices need a moment before the desktop listens to them
	time.Sleep(2 * time.Second)

	v := &virtualKeyboard{kb: kb}
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable, non-US characters will be dropped: %s", err.Error())
	} else {
		v.clip = true
	}
	return v, nil
}

func (v *virtualKeyboard) send(code scancodes.Code, press bool) {
	v.kb.Clear()
	v.kb.SetKeys(int(code))
	var err error
	if press {
		err = v.kb.Press()
	} else {
		err = v.kb.Release()
	}
	if err != nil {
		log.Printf("Virtual keyboard error on %s: %s", scancodes.Name(code), err.Error())
	}
}

func (v *virtualKeyboard) Press(code scancodes.Code) {
	logDebug("+%s", scancodes.Name(code))
	v.send(code, true)
}

func (v *virtualKeyboard) Release(code scancodes.Code) {
	logDebug("-%s", scancodes.Name(code))
	v.send(code, false)
}

// Paste puts text on the clipboard and sends Ctrl+V.
func (v *virtualKeyboard) Paste(text string) {
	if !v.clip {
		logNotice("Dropping %q: no clipboard", text)
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	ctrl, _ := scancodes.ByName("LCtrl")
	key, _ := scancodes.ByName("V")
	v.send(ctrl, true)
	v.send(key, true)
	v.send(key, false)
	v.send(ctrl, false)
}

// sysfsLights drives LEDs of the kernel LED class. They are single color,
// so the brightness follows the brightest channel.
type sysfsLights struct {
	path   string
	leds   []string
	max    []int
	colors []engine.RGB
	on     bool
}

func newSysfsLights(path string, leds []string) *sysfsLights {
	l := &sysfsLights{
		path:   path,
		leds:   leds,
		max:    make([]int, len(leds)),
		colors: make([]engine.RGB, len(leds)),
	}
	for i, name := range leds {
		l.max[i] = 1
		b, err := os.ReadFile(filepath.Join(path, name, "max_brightness"))
		if err != nil {
			log.Printf("LED \"%s\": %s", name, err.Error())
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(string(b))); err == nil && n > 0 {
			l.max[i] = n
		}
	}
	return l
}

func (l *sysfsLights) brightness(i int, c engine.RGB) int {
	v := c.R
	if c.G > v {
		v = c.G
	}
	if c.B > v {
		v = c.B
	}
	b := int(v) * l.max[i] / 255
	if v > 0 && b == 0 {
		b = 1
	}
	return b
}

func (l *sysfsLights) write(i, value int) {
	name := filepath.Join(l.path, l.leds[i], "brightness")
	if err := os.WriteFile(name, []byte(strconv.Itoa(value)), 0644); err != nil {
		logDebug("LED \"%s\": %s", l.leds[i], err.Error())
	}
}

func (l *sysfsLights) SetColor(index int, color engine.RGB) {
	if index < 0 || index >= len(l.leds) {
		return
	}
	logDebug("LED %d (%s): %v", index, l.leds[index], color)
	l.colors[index] = color
	if l.on {
		l.write(index, l.brightness(index, color))
	}
}

func (l *sysfsLights) Enable() {
	l.on = true
	for i, c := range l.colors {
		l.write(i, l.brightness(i, c))
	}
}

func (l *sysfsLights) Disable() {
	l.on = false
	for i := range l.leds {
		l.write(i, 0)
	}
}

func (l *sysfsLights) Enabled() bool {
	return l.on
}
