package engine

import (
	"github.com/gvalkov/golang-evdev"

	"keyweaver/scancodes"
)

// Key codes the transformers look at.
const (
	keySpace      = scancodes.Code(evdev.KEY_SPACE)
	keyDot        = scancodes.Code(evdev.KEY_DOT)
	keyComma      = scancodes.Code(evdev.KEY_COMMA)
	keySemicolon  = scancodes.Code(evdev.KEY_SEMICOLON)
	keySlash      = scancodes.Code(evdev.KEY_SLASH)
	keyApostrophe = scancodes.Code(evdev.KEY_APOSTROPHE)
	keyGrave      = scancodes.Code(evdev.KEY_GRAVE)
	keyMinus      = scancodes.Code(evdev.KEY_MINUS)
	keyEqual      = scancodes.Code(evdev.KEY_EQUAL)
	keyLeftBrace  = scancodes.Code(evdev.KEY_LEFTBRACE)
	keyRightBrace = scancodes.Code(evdev.KEY_RIGHTBRACE)
	keyBackslash  = scancodes.Code(evdev.KEY_BACKSLASH)
	keyBackspace  = scancodes.Code(evdev.KEY_BACKSPACE)
	keyDelete     = scancodes.Code(evdev.KEY_DELETE)
	keyTab        = scancodes.Code(evdev.KEY_TAB)
	key1          = scancodes.Code(evdev.KEY_1)
)
