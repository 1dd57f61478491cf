package cpu

import (
	"fmt"
	"strings"
)

// Format is an instruction format class.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_R        = Format(0) // R
	FORMAT_I        = Format(1) // I
	FORMAT_M        = Format(2) // M
	FORMAT_J        = Format(3) // J
	FORMAT_B        = Format(4) // B
	FORMAT_EXTENDED = Format(5) // extended
	FORMAT_SPECIAL  = Format(6) // special
)

// Instruction encoding constants.
const (
	WORD_NOP  = uint16(0x0000) // Canonical no-operation encoding.
	WORD_HALT = uint16(0xFFFF) // Canonical halt encoding.

	// Extended family sub-opcodes, found in bits 11..4 of an 0xF-family word.
	EXT_CALL = uint8(0xF0)
	EXT_RET  = uint8(0xF1)
	EXT_PUSH = uint8(0xF2)
	EXT_POP  = uint8(0xF3)
)

// Instruction is the decoded view of one 16-bit word. Every field is
// extracted from its fixed bit range regardless of format; consumers pick
// the fields their format defines.
type Instruction struct {
	Format   Format
	Opcode   uint8  // Top nibble, bits 15-12.
	Rd       uint8  // Bits 11-8.
	Rs       uint8  // Bits 7-4.
	Rt       uint8  // Bits 3-0.
	Imm8     uint8  // Bits 7-0.
	Offset   uint8  // Bits 3-0.
	Addr12   uint16 // Bits 11-0.
	Mnemonic string
}

// Opcode dispatch table for the 0x0-0xE top nibbles.
var opcodeTable = [15]struct {
	format   Format
	mnemonic string
}{
	0x0: {FORMAT_SPECIAL, "NOP"},
	0x1: {FORMAT_R, "ADD"},
	0x2: {FORMAT_I, "ADDI"},
	0x3: {FORMAT_R, "SUB"},
	0x4: {FORMAT_R, "AND"},
	0x5: {FORMAT_R, "OR"},
	0x6: {FORMAT_R, "XOR"},
	0x7: {FORMAT_R, "NOT"},
	0x8: {FORMAT_R, "SHL"},
	0x9: {FORMAT_R, "SHR"},
	0xA: {FORMAT_M, "LOAD"},
	0xB: {FORMAT_M, "STORE"},
	0xC: {FORMAT_I, "LOADI"},
	0xD: {FORMAT_J, "JMP"},
	0xE: {FORMAT_B, "BEQ"},
}

// Decode decodes a single 16-bit instruction word. Decode is total: every
// word classifies to some format, with unmapped opcodes reported as the
// special UNKNOWN mnemonic.
func Decode(word uint16) (inst Instruction) {
	inst = Instruction{
		Opcode: uint8((word >> 12) & 0xF),
		Rd:     uint8((word >> 8) & 0xF),
		Rs:     uint8((word >> 4) & 0xF),
		Rt:     uint8(word & 0xF),
		Imm8:   uint8(word & 0xFF),
		Offset: uint8(word & 0xF),
		Addr12: word & 0xFFF,
	}

	inst.Format, inst.Mnemonic = classify(word, inst.Opcode)

	return
}

// classify determines the format and mnemonic for an instruction word.
// The fixed precedence is: whole-word specials, then the 0xF extended
// family, then the top-nibble opcode table.
func classify(word uint16, opcode uint8) (format Format, mnemonic string) {
	if word == WORD_NOP {
		return FORMAT_SPECIAL, "NOP"
	}
	if word == WORD_HALT {
		return FORMAT_SPECIAL, "HALT"
	}

	if opcode == 0xF {
		// Bits 11..4 select the extended sub-opcode; everything else
		// in the 0xF family is a BNE branch.
		switch uint8((word >> 4) & 0xFF) {
		case EXT_CALL:
			return FORMAT_EXTENDED, "CALL"
		case EXT_RET:
			return FORMAT_EXTENDED, "RET"
		case EXT_PUSH:
			return FORMAT_EXTENDED, "PUSH"
		case EXT_POP:
			return FORMAT_EXTENDED, "POP"
		default:
			return FORMAT_B, "BNE"
		}
	}

	entry := opcodeTable[opcode]
	if entry.mnemonic == "" {
		return FORMAT_SPECIAL, "UNKNOWN"
	}

	return entry.format, entry.mnemonic
}

// Operands renders the operand list for the instruction's format.
func (inst Instruction) Operands() (out string) {
	switch inst.Format {
	case FORMAT_R:
		if inst.Mnemonic == "NOT" {
			out = fmt.Sprintf("R%X, R%X", inst.Rd, inst.Rs)
		} else {
			out = fmt.Sprintf("R%X, R%X, R%X", inst.Rd, inst.Rs, inst.Rt)
		}
	case FORMAT_I:
		out = fmt.Sprintf("R%X, 0x%02X", inst.Rd, inst.Imm8)
	case FORMAT_M:
		out = fmt.Sprintf("R%X, R%X, 0x%X", inst.Rd, inst.Rs, inst.Offset)
	case FORMAT_J:
		out = fmt.Sprintf("0x%03X", inst.Addr12)
	case FORMAT_B:
		out = fmt.Sprintf("R%X, %d", inst.Rd, int8(inst.Imm8))
	case FORMAT_EXTENDED, FORMAT_SPECIAL:
		// Bare mnemonic.
	}

	return
}

// String returns the assembly language rendering of the instruction.
func (inst Instruction) String() string {
	operands := inst.Operands()
	if operands == "" {
		return inst.Mnemonic
	}

	return inst.Mnemonic + " " + operands
}

// Disassemble renders one listing line: `ADDRESS: WORD  MNEMONIC OPERANDS`.
func Disassemble(address uint16, word uint16) string {
	return fmt.Sprintf("%04X: %04X  %v", address, word, Decode(word))
}

// Listing disassembles a word sequence loaded at a starting address.
func Listing(words []uint16, address uint16) string {
	var sb strings.Builder
	for _, word := range words {
		sb.WriteString(Disassemble(address, word))
		sb.WriteByte('\n')
		address += 2
	}

	return sb.String()
}
