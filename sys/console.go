package sys

import (
	"fmt"
	"io"
)

// Console is the character device behind the print and read syscalls.
// Output accumulates until cleared; input is a FIFO of queued characters.
// An optional Display writer mirrors output to a live terminal.
type Console struct {
	Display io.Writer // Optional live display side channel.

	input  []rune
	output []rune
}

// QueueInput appends characters to the pending input FIFO.
func (con *Console) QueueInput(text string) {
	con.input = append(con.input, []rune(text)...)
}

// ReadChar pops the next queued input character. If the queue is empty,
// ok is false.
func (con *Console) ReadChar() (c rune, ok bool) {
	if len(con.input) == 0 {
		return
	}

	c = con.input[0]
	con.input = con.input[1:]
	ok = true

	return
}

// PrintChar appends one character to the output accumulator, mirroring
// it to the display.
func (con *Console) PrintChar(c rune) {
	con.output = append(con.output, c)
	if con.Display != nil {
		fmt.Fprintf(con.Display, "%c", c)
	}
}

// PrintHex appends a value formatted as 0x%04X to the output accumulator,
// mirroring it to the display.
func (con *Console) PrintHex(value uint16) {
	hex := fmt.Sprintf("0x%04X", value)
	con.output = append(con.output, []rune(hex)...)
	if con.Display != nil {
		io.WriteString(con.Display, hex)
	}
}

// Output returns all characters emitted so far.
func (con *Console) Output() string {
	return string(con.output)
}

// ClearOutput empties the output accumulator.
func (con *Console) ClearOutput() {
	con.output = nil
}

// Reset empties both the input queue and the output accumulator.
func (con *Console) Reset() {
	con.input = nil
	con.output = nil
}
