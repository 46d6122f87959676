package main

import (
	"log"
	"path/filepath"
	"sync"

	evdev "github.com/holoplot/go-evdev"

	"keyweaver/config"
)

// devices is the set of keyboards being read, keyed by device path.
type devices struct {
	sync.Mutex
	conf  config.TScanDevices
	allow bool // false in test mode: never grab
	open  map[string]*evdev.InputDevice
	names map[string]string
}

func newDevices(conf config.TScanDevices, allow bool) *devices {
	return &devices{
		conf:  conf,
		allow: allow,
		open:  make(map[string]*evdev.InputDevice),
		names: make(map[string]string),
	}
}

func (d *devices) grab() bool {
	return d.allow && d.conf.Grab
}

// wanted reports whether the device at path falls under Search and escapes
// Bypass.
func (d *devices) wanted(path, name string) bool {
	if match, _ := filepath.Match(d.conf.Search, path); !match {
		return false
	}
	return d.conf.BypassRE == nil || !d.conf.BypassRE.MatchString(name)
}

// configure applies a reloaded [ScanDevices]. Keyboards the new rules
// exclude are let go, the rest follow the new Grab setting. New matches
// wait for the next scan.
func (d *devices) configure(conf config.TScanDevices) {
	d.Lock()
	defer d.Unlock()
	grabbed := d.grab()
	d.conf = conf
	for path, dev := range d.open {
		name := d.names[path]
		if !d.wanted(path, name) {
			log.Println("keyboard released:", name, path)
			if grabbed {
				dev.Ungrab()
			}
			delete(d.open, path)
			delete(d.names, path)
			dev.Close()
			continue
		}
		switch {
		case grabbed && !d.grab():
			dev.Ungrab()
		case !grabbed && d.grab():
			if err := dev.Grab(); err != nil {
				log.Printf("Events warning: Unable to grab \"%s\": %s", name, err.Error())
			}
		}
	}
}

// isKeyboard: can type letters and Enter, and is no pointer.
func isKeyboard(dev *evdev.InputDevice) bool {
	for _, t := range dev.CapableTypes() {
		switch t {
		case evdev.EV_ABS, evdev.EV_REL:
			return false
		}
	}
	hasA, hasEnter := false, false
	for _, c := range dev.CapableEvents(evdev.EV_KEY) {
		switch c {
		case evdev.KEY_A:
			hasA = true
		case evdev.KEY_ENTER:
			hasEnter = true
		}
	}
	return hasA && hasEnter
}

// scan opens the keyboards not yet attached. Called at start and every
// ScanDevices.Respawn seconds, so hot plugged keyboards are picked up.
func (d *devices) scan() {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		log.Printf("Events error: Unable to list devices: %s", err.Error())
		return
	}

	d.Lock()
	defer d.Unlock()
	for _, p := range paths {
		if _, ok := d.open[p.Path]; ok {
			continue
		}
		if !d.wanted(p.Path, p.Name) {
			logDebug("bypass: %s (%s)", p.Name, p.Path)
			continue
		}
		dev, err := evdev.Open(p.Path)
		if err != nil {
			logNotice("Events warning: Skipping device \"%s\": %s", p.Path, err.Error())
			continue
		}
		if !isKeyboard(dev) {
			dev.Close()
			continue
		}
		if d.grab() {
			if err := dev.Grab(); err != nil {
				log.Printf("Events warning: Unable to grab \"%s\": %s", p.Name, err.Error())
				dev.Close()
				continue
			}
		}
		log.Println("keyboard:", p.Name, p.Path)
		d.open[p.Path] = dev
		d.names[p.Path] = p.Name
		go d.keyboard(p.Path, p.Name, dev)
	}
}

// keyboard feeds key events of one device into keyboardEvents until the
// device goes away.
func (d *devices) keyboard(path, name string, dev *evdev.InputDevice) {
	defer d.drop(path, dev)
	for {
		event, err := dev.ReadOne()
		if err != nil {
			log.Printf("Closing device \"%s\" due to an error:\n\"\"\" %s \"\"\"", name, err.Error())
			return
		}
		if event.Type == evdev.EV_KEY { // Key events
			keyboardEvents <- t_key{code: uint16(event.Code), value: event.Value, at: since()}
		}
	}
}

// drop forgets dev unless a reload already let it go (and a rescan may have
// reopened the path since).
func (d *devices) drop(path string, dev *evdev.InputDevice) {
	d.Lock()
	defer d.Unlock()
	if d.open[path] == dev {
		delete(d.open, path)
		delete(d.names, path)
		dev.Close()
	}
}

// close releases every grab, so the keyboards work again without us.
func (d *devices) close() {
	d.Lock()
	defer d.Unlock()
	for path, dev := range d.open {
		if d.allow {
			dev.Ungrab()
		}
		dev.Close()
		delete(d.open, path)
		delete(d.names, path)
	}
}
