package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doParse(t *testing.T, lines ...string) (words []uint16, err error) {
	t.Helper()

	asm := &Assembler{}
	return asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
}

func TestAssembler_SimpleAdd(t *testing.T) {
	assert := assert.New(t)

	words, err := doParse(t,
		"LOADI R1, 0x05",
		"LOADI R2, 0x03",
		"ADD R3, R1, R2",
		"HALT",
	)
	assert.NoError(err)
	assert.Equal([]uint16{0xC105, 0xC203, 0x1312, 0xFFFF}, words)
}

func TestAssembler_Loop(t *testing.T) {
	assert := assert.New(t)

	words, err := doParse(t,
		"    LOADI R1, 0x00",
		"    LOADI R2, 0x0A",
		"loop:",
		"    ADDI R1, 0x01",
		"    SUB R3, R2, R1",
		"    BNE R3, loop",
		"    HALT",
	)
	assert.NoError(err)
	assert.Equal([]uint16{0xC100, 0xC20A, 0x2101, 0x3321, 0xF3FD, 0xFFFF}, words)
}

func TestAssembler_LabelOnInstructionLine(t *testing.T) {
	assert := assert.New(t)

	words, err := doParse(t,
		"start: LOADI R1, 1 ; comment",
		"JMP start",
	)
	assert.NoError(err)
	assert.Equal([]uint16{0xC101, 0xD000}, words)
}

func TestAssembler_Mnemonics(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line string
		word uint16
	}){
		{"NOP", 0x0000},
		{"HALT", 0xFFFF},
		{"ADD R3, R1, R2", 0x1312},
		{"SUB R3, R2, R1", 0x3321},
		{"AND R1, R2, R3", 0x4123},
		{"OR R1, R2, R3", 0x5123},
		{"XOR R1, R2, R3", 0x6123},
		{"NOT R1, R2", 0x7120},
		{"SHL R1, R2, R3", 0x8123},
		{"SHR R1, R2, R3", 0x9123},
		{"LOAD R1, R2, 0x3", 0xA123},
		{"STORE R1, R2, 0x3", 0xB123},
		{"LOADI R1, -1", 0xC1FF},
		{"JMP 0x123", 0xD123},
		{"BEQ R1, -2", 0xE1FE},
		{"BNE R3, -3", 0xF3FD},
		{"CALL", 0xFF00},
		{"RET", 0xFF10},
		{"PUSH", 0xFF20},
		{"POP", 0xFF30},
		{"loadi r1, 5", 0xC105}, // Mnemonics and registers fold case.
	}

	for _, entry := range table {
		words, err := doParse(t, entry.line)
		assert.NoError(err, entry.line)
		assert.Equal([]uint16{entry.word}, words, entry.line)
	}
}

func TestAssembler_Equate(t *testing.T) {
	assert := assert.New(t)

	words, err := doParse(t,
		".equ TEN 0x0A",
		"LOADI R2, TEN",
	)
	assert.NoError(err)
	assert.Equal([]uint16{0xC20A}, words)
}

func TestAssembler_Expression(t *testing.T) {
	assert := assert.New(t)

	words, err := doParse(t,
		".equ BASE 0x10",
		"LOADI R1, $(2 + 3)",
		"JMP $(BASE + 4)",
	)
	assert.NoError(err)
	assert.Equal([]uint16{0xC105, 0xD014}, words)
}

func TestAssembler_ExpressionLabel(t *testing.T) {
	assert := assert.New(t)

	// Labels are visible to $(...) expressions as byte addresses.
	words, err := doParse(t,
		"start: NOP",
		"JMP $(start)",
	)
	assert.NoError(err)
	assert.Equal([]uint16{0x0000, 0xD000}, words)
}

func TestAssembler_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("HANDLER", "0x0010")

	words, err := asm.Parse(strings.NewReader("JMP HANDLER"))
	assert.NoError(err)
	assert.Equal([]uint16{0xD010}, words)
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		lines []string
		want  error
	}){
		{"label dup", []string{"a: NOP", "a: NOP"}, ErrLabelDuplicate},
		{"equ dup", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"equ syntax", []string{".equ A"}, ErrEquateSyntax},
		{"bad opcode", []string{"FROB R1"}, ErrOpcodeInvalid},
		{"bad register", []string{"ADD R1, R2, RX"}, ErrRegisterInvalid},
		{"operand count", []string{"ADD R1, R2"}, ErrOperandCount},
		{"imm range", []string{"LOADI R1, 0x100"}, ErrImmediateRange},
		{"offset range", []string{"LOAD R1, R2, 16"}, ErrImmediateRange},
		{"jmp range", []string{"JMP 0x1000"}, ErrTargetInvalid},
	}

	for _, entry := range table {
		_, err := doParse(t, entry.lines...)
		assert.Error(err, entry.name)
		if entry.want != nil {
			assert.ErrorIs(err, entry.want, entry.name)
		}
	}
}

func TestAssembler_LabelMissing(t *testing.T) {
	assert := assert.New(t)

	_, err := doParse(t, "BNE R1, nowhere")
	assert.Error(err)

	var lerr ErrLabelMissing
	assert.ErrorAs(err, &lerr)
	assert.Equal("nowhere", string(lerr))
}

func TestAssembler_ErrSyntaxLineNo(t *testing.T) {
	assert := assert.New(t)

	_, err := doParse(t,
		"NOP",
		"ADD R1, R2",
	)
	assert.Error(err)

	var serr ErrSyntax
	assert.ErrorAs(err, &serr)
	assert.Equal(2, serr.LineNo)
}

func TestAssembler_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	words, err := doParse(t,
		"LOADI R1, 0x05",
		"HALT",
	)
	assert.NoError(err)

	listing := Listing(words, 0)
	assert.Contains(listing, "LOADI R1, 0x05")
	assert.Contains(listing, "HALT")
}
