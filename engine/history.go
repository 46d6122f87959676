package engine

import (
	"strings"
)

type historyEntry struct {
	char   rune
	before sentenceState
}

// History is a fixed size ring of recently typed characters. Letters are
// kept lower case. Each entry remembers the Sentence Case state before it
// so backspace can undo it.
type History struct {
	buf   []historyEntry
	start int
	count int
	// evicted is set once anything fell off the front.
	evicted bool
}

func NewHistory(size int) *History {
	return &History{buf: make([]historyEntry, size)}
}

func (h *History) Len() int { return h.count }

func (h *History) push(char rune, before sentenceState) {
	if len(h.buf) == 0 {
		return
	}
	if h.count == len(h.buf) {
		h.start = (h.start + 1) % len(h.buf)
		h.count--
		h.evicted = true
	}
	h.buf[(h.start+h.count)%len(h.buf)] = historyEntry{char: char, before: before}
	h.count++
}

func (h *History) pop() (historyEntry, bool) {
	if h.count == 0 {
		return historyEntry{}, false
	}
	h.count--
	return h.buf[(h.start+h.count)%len(h.buf)], true
}

// Reset forgets everything.
func (h *History) Reset() {
	h.start, h.count = 0, 0
	h.evicted = false
}

func (h *History) at(i int) rune {
	return h.buf[(h.start+i)%len(h.buf)].char
}

// String is the history, oldest first.
func (h *History) String() string {
	var b strings.Builder
	for i := 0; i < h.count; i++ {
		b.WriteRune(h.at(i))
	}
	return b.String()
}

// EndsWithWord reports whether the history ends in word, with a space or the
// true start of typing in front of it.
func (h *History) EndsWithWord(word string) bool {
	w := []rune(word)
	if len(w) > h.count {
		return false
	}
	off := h.count - len(w)
	for i, r := range w {
		if h.at(off+i) != r {
			return false
		}
	}
	if off == 0 {
		return !h.evicted
	}
	return h.at(off-1) == ' '
}
