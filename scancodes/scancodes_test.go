package scancodes

import (
	"fmt"
)

func ExampleSequenceForChar_letters() {
	fmt.Printf("%s %s\n", SequenceForChar('a'), SequenceForChar('A'))
	fmt.Printf("%s %s\n", SequenceForChar('v'), SequenceForChar('V'))
	// Output:
	// A LShift+A
	// V LShift+V
}
func ExampleSequenceForChar_symbols() {
	fmt.Printf("%s %s\n", SequenceForChar(';'), SequenceForChar(':'))
	// Output:
	// ; LShift+;
}
func ExampleSequenceForChar_whitespace() {
	fmt.Printf("%s %s\n", SequenceForChar(' '), SequenceForChar('\n'))
	// Output:
	// Space Enter
}

func ExampleSequenceForString() {
	fmt.Println(SequenceForString("Hello world!\n"))
	// Output: LShift+H E L L O Space W O R L D LShift+1 Enter
}

func ExampleForSequence_key() {
	strokes, err := ForSequence("Esc")
	fmt.Printf("%v %v", strokes, err)
	// Output:
	// [Esc] <nil>
}
func ExampleForSequence_chord() {
	strokes, err := ForSequence("LCtrl+LAlt+Del")
	fmt.Printf("%v %v", strokes, err)
	// Output: [LCtrl+LAlt+Delete] <nil>
}
func ExampleForSequence_modifiersOnly() {
	strokes, err := ForSequence("Shift+Cmd")
	fmt.Printf("%v %v", strokes, err)
	// Output: [LShift+LGui] <nil>
}
func ExampleForSequence_error() {
	strokes, err := ForSequence("Food")
	fmt.Printf("%v %v", strokes, err)
	// Output: [] Unknown keyboard key Food
}

func ExampleForString() {
	strokes, err := ForString("Hi!")
	fmt.Printf("%v %v", strokes, err)
	// Output: [LShift+H I LShift+1] <nil>
}
