package scancodes

import (
	"github.com/gvalkov/golang-evdev"
)

// Linux input key codes 0..0x54 line up with the Set 1 scancodes, so the
// tables below are indexed by Code directly.
//     http://www.win.tue.nl/~aeb/linux/kbd/scancodes-1.html#ss1.4

// Unshifted names.
var baseCodes = []string{
	"",
	"Esc", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "-", "=", "Backspace",
	"Tab", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", "[", "]",
	"Enter",
	"LCtrl",
	"A", "S", "D", "F", "G", "H", "J", "K", "L", ";", "'",
	"`",
	"LShift", "\\",
	"Z", "X", "C", "V", "B", "N", "M", ",", ".", "/", "RShift",
	"Keypad_*",
	"LAlt", "Space",
	"CapsLock",
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10",
	"NumLock", "ScrollLock",
	"Keypad_7", "Keypad_8", "Keypad_9",
	"Keypad_-",
	"Keypad_4", "Keypad_5", "Keypad_6", "Keypad_Plus",
	"Keypad_1", "Keypad_2", "Keypad_3",
	"Keypad_0", "Keypad_.",
}

// Shifted characters.
// NOTE: Uppercase letters are special-cased in code. They're only here because
//       they help us align the other keys.
var shiftCodes = []string{
	"",
	"", "!", "@", "#", "$", "%", "^", "&", "*", "(", ")", "_", "+", "",
	"", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", "{", "}",
	"",
	"",
	"A", "S", "D", "F", "G", "H", "J", "K", "L", ":", "\"",
	"~",
	"", "|",
	"Z", "X", "C", "V", "B", "N", "M", "<", ">", "?", "",
	"",
	"", "",
	"",
	"", "", "", "", "", "", "", "", "", "",
	"", "",
	"", "", "",
	"",
	"", "", "", "",
	"", "", "",
	"", "",
}

// Keys past the Set 1 range.
var extendedCodes = map[string]Code{
	"F11":          evdev.KEY_F11,
	"F12":          evdev.KEY_F12,
	"Keypad_Enter": evdev.KEY_KPENTER,
	"RCtrl":        evdev.KEY_RIGHTCTRL,
	"Keypad_/":     evdev.KEY_KPSLASH,
	"PrintScreen":  evdev.KEY_SYSRQ,
	"RAlt":         evdev.KEY_RIGHTALT,
	"Home":         evdev.KEY_HOME,
	"Up":           evdev.KEY_UP,
	"PageUp":       evdev.KEY_PAGEUP,
	"Left":         evdev.KEY_LEFT,
	"Right":        evdev.KEY_RIGHT,
	"End":          evdev.KEY_END,
	"Down":         evdev.KEY_DOWN,
	"PageDown":     evdev.KEY_PAGEDOWN,
	"Insert":       evdev.KEY_INSERT,
	"Delete":       evdev.KEY_DELETE,
	"Mute":         evdev.KEY_MUTE,
	"VolumeDown":   evdev.KEY_VOLUMEDOWN,
	"VolumeUp":     evdev.KEY_VOLUMEUP,
	"LGui":         evdev.KEY_LEFTMETA,
	"RGui":         evdev.KEY_RIGHTMETA,
	"Menu":         evdev.KEY_COMPOSE,
	"NextSong":     evdev.KEY_NEXTSONG,
	"PlayPause":    evdev.KEY_PLAYPAUSE,
	"PrevSong":     evdev.KEY_PREVIOUSSONG,
}

// Friendlier spellings accepted in config files.
var aliases = map[string]string{
	"Escape":     "Esc",
	"Bspc":       "Backspace",
	"Del":        "Delete",
	"Ins":        "Insert",
	"Minus":      "-",
	"Equal":      "=",
	"LBracket":   "[",
	"RBracket":   "]",
	"Semicolon":  ";",
	"Apostrophe": "'",
	"Quote":      "'",
	"Grave":      "`",
	"Backslash":  "\\",
	"Comma":      ",",
	"Dot":        ".",
	"Slash":      "/",
	"Ctrl":       "LCtrl",
	"Shift":      "LShift",
	"Alt":        "LAlt",
	"Gui":        "LGui",
	"Cmd":        "LGui",
	"Super":      "LGui",
	"AltGr":      "RAlt",
}

// Modifier bit -> key code, in Mods bit order.
var modCodes = [8]Code{
	evdev.KEY_LEFTCTRL,
	evdev.KEY_LEFTSHIFT,
	evdev.KEY_LEFTALT,
	evdev.KEY_LEFTMETA,
	evdev.KEY_RIGHTCTRL,
	evdev.KEY_RIGHTSHIFT,
	evdev.KEY_RIGHTALT,
	evdev.KEY_RIGHTMETA,
}
