// Package scancodes names Linux input key codes and computes the key strokes
// (US layout) needed to type a string on the virtual keyboard.
package scancodes

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"unicode"
)

// Code is a Linux input key code (KEY_* in input-event-codes.h).
type Code uint16

// Mods is a HID style modifier bitmask.
type Mods uint8

const (
	ModLCtrl Mods = 1 << iota
	ModLShift
	ModLAlt
	ModLGui
	ModRCtrl
	ModRShift
	ModRAlt
	ModRGui

	ModCtrl  = ModLCtrl | ModRCtrl
	ModShift = ModLShift | ModRShift
	ModAlt   = ModLAlt | ModRAlt
	ModGui   = ModLGui | ModRGui
)

// Shifted reports whether either shift bit is set.
func (m Mods) Shifted() bool {
	return m&ModShift != 0
}

// Codes returns the modifier key codes for m in bit order.
func (m Mods) Codes() []Code {
	var codes []Code
	for i, code := range modCodes {
		if m&(1<<uint(i)) != 0 {
			codes = append(codes, code)
		}
	}
	return codes
}

func (m Mods) String() string {
	if m == 0 {
		return "none"
	}
	names := make([]string, 0, 2)
	for _, code := range m.Codes() {
		names = append(names, Name(code))
	}
	return strings.Join(names, "+")
}

// Stroke is one key pressed together with a set of modifiers.
// Code 0 means "modifiers only".
type Stroke struct {
	Code Code
	Mods Mods
}

func (s Stroke) String() string {
	if s.Code == 0 {
		return s.Mods.String()
	}
	if s.Mods == 0 {
		return Name(s.Code)
	}
	return s.Mods.String() + "+" + Name(s.Code)
}

// IsModifier reports whether code is one of the eight modifier keys.
func IsModifier(code Code) bool {
	return ModsFor(code) != 0
}

// ModsFor returns the modifier bit for a modifier key code, 0 otherwise.
func ModsFor(code Code) Mods {
	for i, c := range modCodes {
		if c == code {
			return 1 << uint(i)
		}
	}
	return 0
}

// ByName resolves a key name ("A", "LShift", "PageUp", ";", "Dot" ...).
func ByName(name string) (Code, bool) {
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	for code, codeKey := range baseCodes {
		if codeKey != "" && name == codeKey {
			return Code(code), true
		}
	}
	code, ok := extendedCodes[name]
	return code, ok
}

// Name returns the canonical name of code, or "" when unknown.
func Name(code Code) string {
	if int(code) < len(baseCodes) {
		return baseCodes[code]
	}
	for name, c := range extendedCodes {
		if c == code {
			return name
		}
	}
	return ""
}

// ForString obtains the series of strokes needed to produce a string.
func ForString(input string) ([]Stroke, error) {
	return ForSequence(SequenceForString(input))
}

// ForSequence obtains the strokes for a sequence of chords like
// "LGui+LShift+4 Tab". Every chord holds at most one non-modifier key.
func ForSequence(sequence string) ([]Stroke, error) {
	strokes := make([]Stroke, 0, len(sequence))
	for _, chord := range strings.Fields(sequence) {
		var stroke Stroke
		for _, key := range splitChord(chord) {
			code, ok := ByName(key)
			if !ok {
				return nil, errors.New("Unknown keyboard key " + key)
			}
			if mod := ModsFor(code); mod != 0 {
				stroke.Mods |= mod
				continue
			}
			if stroke.Code != 0 {
				return nil, errors.New("More than one key in chord " + chord)
			}
			stroke.Code = code
		}
		strokes = append(strokes, stroke)
	}
	return strokes, nil
}

// splitChord splits on "+" but keeps a trailing "+" key name ("LShift+=" is
// fine, "Keypad_Plus" is spelled out).
func splitChord(chord string) []string {
	parts := strings.Split(chord, "+")
	keys := parts[:0]
	for _, p := range parts {
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// SequenceForString converts an input string into a sequence of keypresses.
func SequenceForString(input string) string {
	sequence := bytes.Buffer{}
	wroteFirst := false
	for _, char := range input {
		if wroteFirst {
			sequence.WriteRune(' ')
		} else {
			wroteFirst = true
		}
		sequence.WriteString(SequenceForChar(char))
	}
	return sequence.String()
}

// SequenceForChar converts an input character into a sequence of keypresses.
func SequenceForChar(char rune) string {
	// Letters.
	if char < unicode.MaxASCII {
		if unicode.IsLower(char) {
			return string(unicode.ToUpper(char))
		} else if unicode.IsUpper(char) {
			return "LShift+" + string(char)
		}
	}
	switch char {
	case '\n':
		return "Enter"
	case '\t':
		return "Tab"
	case ' ':
		return "Space"
	}
	for code, keyName := range shiftCodes {
		if keyName != "" && keyName == string(char) {
			return "LShift+" + baseCodes[code]
		}
	}
	return string(char)
}

// ForChar returns the stroke typing char, false if the US layout has none.
func ForChar(char rune) (Stroke, bool) {
	strokes, err := ForSequence(SequenceForChar(char))
	if err != nil || len(strokes) != 1 || strokes[0].Code == 0 {
		return Stroke{}, false
	}
	return strokes[0], true
}

// CharFor is the inverse of ForChar: the character code produces, 0 when it
// is not printable.
func CharFor(code Code, shifted bool) rune {
	if code == 0 || int(code) >= len(baseCodes) {
		return 0
	}
	switch baseCodes[code] {
	case "Space":
		return ' '
	case "Enter":
		return '\n'
	case "Tab":
		return '\t'
	}
	name := baseCodes[code]
	if shifted {
		name = shiftCodes[code]
	}
	if len(name) != 1 {
		return 0
	}
	char := rune(name[0])
	if unicode.IsLetter(char) && !shifted {
		return unicode.ToLower(char)
	}
	return char
}

// IsLetter reports whether code is one of A..Z.
func IsLetter(code Code) bool {
	if int(code) >= len(baseCodes) {
		return false
	}
	name := baseCodes[code]
	return len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z'
}

// IsDigit reports whether code is one of the top row 1..0 keys.
func IsDigit(code Code) bool {
	if int(code) >= len(baseCodes) {
		return false
	}
	name := baseCodes[code]
	return len(name) == 1 && name[0] >= '0' && name[0] <= '9'
}

// Known lists every named key code in ascending order.
func Known() []Code {
	codes := make([]Code, 0, len(baseCodes)+len(extendedCodes))
	for code, name := range baseCodes {
		if name != "" {
			codes = append(codes, Code(code))
		}
	}
	for _, code := range extendedCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
