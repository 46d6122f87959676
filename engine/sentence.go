package engine

import (
	"strings"
	"unicode"

	"keyweaver/scancodes"
)

type sentenceState uint8

const (
	stateInit sentenceState = iota
	stateWord
	stateEnding
	statePrimed
)

func (s sentenceState) String() string {
	return [...]string{"init", "word", "ending", "primed"}[s]
}

type sentenceCase struct {
	state sentenceState
}

// sentenceClass sorts a stroke: 'a' letter, '.' sentence ending punctuation,
// ' ' space, '\'' quote, '#' other symbol, 0 anything that resets.
func sentenceClass(code scancodes.Code, mods scancodes.Mods) rune {
	if mods&^(scancodes.ModShift|scancodes.ModRAlt) != 0 {
		return 0
	}
	shifted := mods.Shifted()
	switch {
	case scancodes.IsLetter(code):
		return 'a'
	case code == key1, code == keySlash, code == keyComma:
		if shifted {
			return '.'
		}
		return '#'
	case code == keyDot:
		return '.'
	case scancodes.IsDigit(code):
		return '#'
	case code == keyMinus, code == keyEqual, code == keyLeftBrace, code == keyRightBrace,
		code == keyBackslash, code == keySemicolon, code == keyGrave:
		return '#'
	case code == keySpace:
		return ' '
	case code == keyApostrophe:
		return '\''
	}
	return 0
}

// feed advances the state machine for one stroke and reports whether the
// stroke must be shifted. Backspace without modifiers rewinds.
func (s *sentenceCase) feed(code scancodes.Code, mods scancodes.Mods, h *History, abbrevs []string) bool {
	if code == keyBackspace && mods == 0 {
		if e, ok := h.pop(); ok {
			s.state = e.before
		} else {
			s.state = stateInit
		}
		return false
	}
	class := sentenceClass(code, mods)
	if class == 0 {
		s.clear(h)
		return false
	}

	before := s.state
	capitalize := false
	switch class {
	case 'a':
		capitalize = s.state == statePrimed && !mods.Shifted()
		s.state = stateWord
	case '.':
		if s.state == stateWord || s.state == stateEnding {
			s.state = stateEnding
		} else {
			s.state = stateInit
		}
	case ' ':
		switch s.state {
		case stateEnding:
			s.state = statePrimed
			// the space is not in the history yet
			for _, a := range abbrevs {
				if h.EndsWithWord(strings.ToLower(a)) {
					s.state = stateInit
					break
				}
			}
		case statePrimed:
		default:
			s.state = stateInit
		}
	case '\'':
		// quotes keep the state
	default:
		s.state = stateInit
	}

	char := class
	if class == 'a' {
		char = unicode.ToLower(scancodes.CharFor(code, false))
	}
	h.push(char, before)
	return capitalize
}

func (s *sentenceCase) clear(h *History) {
	s.state = stateInit
	h.Reset()
}
