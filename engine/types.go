package engine

import (
	"time"

	"keyweaver/scancodes"
)

// KeyID identifies a physical key. With an evdev keyboard it is the key code
// the device reports, before any remapping.
type KeyID uint16

// KeyEvent is one key transition as observed by the scanner.
// Time is monotonic, relative to an arbitrary origin.
type KeyEvent struct {
	Key     KeyID
	Pressed bool
	Time    time.Duration
}

// Side is the hand a key belongs to.
type Side uint8

const (
	Neutral Side = iota
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return "*"
	}
}

// Resolution is what the classifier decided for a key press.
type Resolution uint8

const (
	Pending Resolution = iota
	Tap
	Hold
)

func (r Resolution) String() string {
	switch r {
	case Tap:
		return "tap"
	case Hold:
		return "hold"
	default:
		return "pending"
	}
}

// Binding is the static policy of one key on one layer.
// Zero durations fall back to the engine wide Config values.
type Binding struct {
	Tap   Action
	Hold  Action // nil: the key is not hold capable
	Dance *Dance // non-nil: tap-dance key, Tap and Hold are ignored

	TappingTerm  time.Duration
	QuickTapTerm time.Duration
	FlowTapTerm  time.Duration
	ChordTimeout time.Duration

	Side       Side
	AlwaysHold bool // honor the hold whatever hand the other key is on
	Instant    bool // skip chord arbitration: tap unless held past the tapping term
	Eager      scancodes.Mods
	// OneShotHold turns a modifier hold into a one-shot modifier.
	OneShotHold bool
}

// Dance maps tap counts to actions. Taps[n-1] is sent for n taps,
// Holds[n-1] when the n-th tap is still held at the end of the term.
type Dance struct {
	Taps  []Action
	Holds []Action
	Term  time.Duration
}

func (d *Dance) max() int {
	if len(d.Holds) > len(d.Taps) {
		return len(d.Holds)
	}
	return len(d.Taps)
}

// Layer is a sparse key table. Keys missing from an upper layer are
// transparent; a Binding with neither Tap, Hold nor Dance blocks the key.
type Layer struct {
	Name string
	Keys map[KeyID]*Binding
}

// Combo fires Action when all Keys are pressed within the combo term
// while Layer is the highest active layer.
type Combo struct {
	Keys   []KeyID
	Action Action
	Layer  int
}

// LeaderSequence runs Action once Keys were pressed, in order, after the
// leader key.
type LeaderSequence struct {
	Keys   []KeyID
	Action Action
}

// Override replaces Key by Replacement while Trigger modifiers are held and
// none of Negative are. Modifiers match by kind, on either side.
type Override struct {
	Trigger     scancodes.Mods
	Key         scancodes.Code
	Replacement scancodes.Stroke
	Negative    scancodes.Mods
}

// AltRepeat is what the alternate repeat key sends after a given key.
// FollowLast picks Shifted when the remembered key was shifted, otherwise the
// current shift state and Caps Word decide.
type AltRepeat struct {
	Unshifted  Action
	Shifted    Action
	FollowLast bool
}

// RGB is an LED color.
type RGB struct {
	R, G, B uint8
}

// Output is the HID report sink.
type Output interface {
	Press(code scancodes.Code)
	Release(code scancodes.Code)
}

// Paster is implemented by outputs able to insert text that has no key
// stroke on the US layout.
type Paster interface {
	Paste(text string)
}

// Lights is the LED sink. Indices come from Keymap.LEDs.
type Lights interface {
	SetColor(index int, color RGB)
	Enable()
	Disable()
	Enabled() bool
}

// Hooks are optional callbacks into the host. All of them run on the
// engine's goroutine and must not block.
type Hooks struct {
	Exec      func(command string)
	OnResolve func(key KeyID, res Resolution)
	Logf      func(format string, args ...interface{})
}
