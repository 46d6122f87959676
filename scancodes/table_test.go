package scancodes

import (
	"testing"

	"github.com/gvalkov/golang-evdev"
)

func TestBaseTable(t *testing.T) {
	if len(baseCodes) != 0x54 {
		t.Errorf("Table misses %d entries", 0x54-len(baseCodes))
	}
	if baseCodes[evdev.KEY_Q] != "Q" {
		t.Error("Misalignment before Q")
	}
	if baseCodes[evdev.KEY_A] != "A" {
		t.Error("Misalignment between Q-A")
	}
	if baseCodes[evdev.KEY_Z] != "Z" {
		t.Error("Misalignment between A-Z")
	}
	if baseCodes[evdev.KEY_F1] != "F1" {
		t.Error("Misalignment betwen Z-F1")
	}
	if baseCodes[evdev.KEY_KP7] != "Keypad_7" {
		t.Error("Misalignment between F1-Keypad_7")
	}
	if baseCodes[evdev.KEY_KPDOT] != "Keypad_." {
		t.Error("Misalignment at the end of the table")
	}
}

func TestShiftTable(t *testing.T) {
	if len(shiftCodes) != len(baseCodes) {
		t.Errorf("Table misses %d entries", len(baseCodes)-len(shiftCodes))
	}
	if shiftCodes[evdev.KEY_1] != "!" {
		t.Error("Misalignment at 1")
	}
	if shiftCodes[evdev.KEY_A] != "A" {
		t.Error("Misalignment between Q-A")
	}
	if shiftCodes[evdev.KEY_SLASH] != "?" {
		t.Error("Misalignment betwen Z-/")
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		code Code
		ok   bool
	}{
		{"A", evdev.KEY_A, true},
		{"Dot", evdev.KEY_DOT, true},
		{".", evdev.KEY_DOT, true},
		{"PageUp", evdev.KEY_PAGEUP, true},
		{"Cmd", evdev.KEY_LEFTMETA, true},
		{"RShift", evdev.KEY_RIGHTSHIFT, true},
		{"Nope", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		code, ok := ByName(tt.name)
		if ok != tt.ok || code != tt.code {
			t.Errorf("ByName(%q) = %d,%v; want %d,%v", tt.name, code, ok, tt.code, tt.ok)
		}
	}
}

func TestCharFor(t *testing.T) {
	tests := []struct {
		code    Code
		shifted bool
		want    rune
	}{
		{evdev.KEY_A, false, 'a'},
		{evdev.KEY_A, true, 'A'},
		{evdev.KEY_DOT, false, '.'},
		{evdev.KEY_DOT, true, '>'},
		{evdev.KEY_1, true, '!'},
		{evdev.KEY_SPACE, false, ' '},
		{evdev.KEY_APOSTROPHE, true, '"'},
		{evdev.KEY_LEFTSHIFT, false, 0},
		{evdev.KEY_PAGEUP, false, 0},
	}
	for _, tt := range tests {
		if got := CharFor(tt.code, tt.shifted); got != tt.want {
			t.Errorf("CharFor(%s, %v) = %q; want %q", Name(tt.code), tt.shifted, got, tt.want)
		}
	}
}

func TestForCharRoundTrip(t *testing.T) {
	for _, char := range "abcXYZ019!?.,;:'\"-_=+[]{}\\|`~ " {
		stroke, ok := ForChar(char)
		if !ok {
			t.Errorf("ForChar(%q) failed", char)
			continue
		}
		if got := CharFor(stroke.Code, stroke.Mods.Shifted()); got != char {
			t.Errorf("CharFor(ForChar(%q)) = %q", char, got)
		}
	}
	if _, ok := ForChar('é'); ok {
		t.Error("ForChar('é') must fail on the US layout")
	}
}

func TestMods(t *testing.T) {
	m := ModLShift | ModRGui
	codes := m.Codes()
	if len(codes) != 2 || codes[0] != evdev.KEY_LEFTSHIFT || codes[1] != evdev.KEY_RIGHTMETA {
		t.Errorf("Codes() = %v", codes)
	}
	if !m.Shifted() || ModLCtrl.Shifted() {
		t.Error("Shifted() mismatch")
	}
	if ModsFor(evdev.KEY_RIGHTALT) != ModRAlt || ModsFor(evdev.KEY_A) != 0 {
		t.Error("ModsFor mismatch")
	}
	if !IsLetter(evdev.KEY_Q) || IsLetter(evdev.KEY_1) || !IsDigit(evdev.KEY_0) {
		t.Error("IsLetter/IsDigit mismatch")
	}
}

func TestKnown(t *testing.T) {
	codes := Known()
	seen := make(map[Code]bool, len(codes))
	for i, code := range codes {
		if i > 0 && codes[i-1] >= code {
			t.Fatalf("not sorted at %d: %d >= %d", i, codes[i-1], code)
		}
		if Name(code) == "" {
			t.Errorf("code %d has no name", code)
		}
		seen[code] = true
	}
	for _, name := range []string{"A", "Esc", "Keypad_.", "F12", "LGui", "PageDown"} {
		code, _ := ByName(name)
		if !seen[code] {
			t.Errorf("%s missing", name)
		}
	}
	if seen[0] {
		t.Error("code 0 listed")
	}
}
