package sys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_InputFifo(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	con.QueueInput("ab")
	con.QueueInput("c")

	for _, want := range "abc" {
		c, ok := con.ReadChar()
		assert.True(ok)
		assert.Equal(want, c)
	}

	_, ok := con.ReadChar()
	assert.False(ok)
}

func TestConsole_OutputAccumulates(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	con.PrintChar('H')
	con.PrintChar('i')
	con.PrintHex(0x1234)
	assert.Equal("Hi0x1234", con.Output())

	con.ClearOutput()
	assert.Equal("", con.Output())
}

func TestConsole_PrintHexFormat(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	con.PrintHex(0x000A)
	assert.Equal("0x000A", con.Output())
}

func TestConsole_DisplayMirror(t *testing.T) {
	assert := assert.New(t)

	var display bytes.Buffer
	con := &Console{Display: &display}
	con.PrintChar('X')
	con.PrintHex(0xBEEF)

	assert.Equal("X0xBEEF", display.String())
	assert.Equal("X0xBEEF", con.Output())
}

func TestConsole_Reset(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	con.QueueInput("abc")
	con.PrintChar('x')
	con.Reset()

	assert.Equal("", con.Output())
	_, ok := con.ReadChar()
	assert.False(ok)
}
