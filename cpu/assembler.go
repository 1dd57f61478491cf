// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// encodeTable maps mnemonics to their top-nibble opcodes.
var encodeTable = map[string]uint16{
	"NOP":   0x0,
	"ADD":   0x1,
	"ADDI":  0x2,
	"SUB":   0x3,
	"AND":   0x4,
	"OR":    0x5,
	"XOR":   0x6,
	"NOT":   0x7,
	"SHL":   0x8,
	"SHR":   0x9,
	"LOAD":  0xA,
	"STORE": 0xB,
	"LOADI": 0xC,
	"JMP":   0xD,
	"BEQ":   0xE,
	"BNE":   0xF,
}

// extendedTable maps extended mnemonics to their bits 11..4 sub-opcodes.
var extendedTable = map[string]uint16{
	"CALL": uint16(EXT_CALL),
	"RET":  uint16(EXT_RET),
	"PUSH": uint16(EXT_PUSH),
	"POP":  uint16(EXT_POP),
}

// statement is one source line pending encoding.
type statement struct {
	LineNo   int
	Line     string
	Mnemonic string
	Operands []string
	Address  uint16
}

// Assembler is a two-pass assembler for the CVERE instruction set.
// The first pass collects labels and equates; the second pass encodes
// instruction words, evaluating $(...) expressions at compile time.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	Label  map[string]uint16 // Map of labels to byte addresses.
	Equate map[string]string // Map of equates.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a numeric word: 0x hex, 0b binary, 0o or
// leading-zero octal, or decimal, optionally negative.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// parenEval does compile-time $(...) evaluations. Labels, equates, and
// predefines are visible to the expression as integers.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value64, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may be register
			// names or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value64))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
	}

	return
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// expand rewrites a word: $(...) expressions are evaluated, and equates
// are substituted.
func (asm *Assembler) expand(word string) (out string, err error) {
	out = parenRe.ReplaceAllStringFunc(word, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	if sub, ok := asm.Equate[out]; ok {
		out = sub
	}

	return
}

// parseRegister parses an R<hex digit> register name.
func (asm *Assembler) parseRegister(word string) (reg uint16, err error) {
	upper := strings.ToUpper(word)
	if !strings.HasPrefix(upper, "R") {
		err = ErrRegisterInvalid
		return
	}

	num, perr := strconv.ParseUint(upper[1:], 16, 8)
	if perr != nil || num >= 16 {
		err = ErrRegisterInvalid
		return
	}

	reg = uint16(num)

	return
}

// Parse assembles a source stream into a word sequence.
func (asm *Assembler) Parse(in io.Reader) (words []uint16, err error) {
	asm.Label = map[string]uint16{}
	asm.Equate = map[string]string{}
	for key, value := range asm.predefine {
		asm.Equate[key] = value
	}

	var stmts []statement

	// First pass: collect labels, equates, and statements.
	var address uint16
	lineno := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if idx := strings.Index(line, ":"); idx >= 0 {
			label := strings.TrimSpace(line[:idx])
			if _, ok := asm.Label[label]; ok {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrLabelDuplicate}
				return
			}
			asm.Label[label] = address
			line = strings.TrimSpace(line[idx+1:])
			if line == "" {
				continue
			}
		}

		fields := strings.Fields(line)

		if fields[0] == ".equ" {
			if len(fields) != 3 {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrEquateSyntax}
				return
			}
			if _, ok := asm.Equate[fields[1]]; ok {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrEquateDuplicate}
				return
			}
			asm.Equate[fields[1]] = fields[2]
			continue
		}

		var operands []string
		if len(fields) > 1 {
			for _, op := range strings.Split(strings.Join(fields[1:], ""), ",") {
				operands = append(operands, strings.TrimSpace(op))
			}
		}

		stmts = append(stmts, statement{
			LineNo:   lineno,
			Line:     line,
			Mnemonic: strings.ToUpper(fields[0]),
			Operands: operands,
			Address:  address,
		})
		address += 2
	}
	if err = scanner.Err(); err != nil {
		return
	}

	// Second pass: encode.
	for _, stmt := range stmts {
		var word uint16
		word, err = asm.encode(stmt)
		if err != nil {
			err = ErrSyntax{LineNo: stmt.LineNo, Line: stmt.Line, Err: err}
			return
		}
		if asm.Verbose {
			log.Printf("asm: %v", Disassemble(stmt.Address, word))
		}
		words = append(words, word)
	}

	return
}

// operand expands and parses a numeric operand.
func (asm *Assembler) operand(word string) (value int64, err error) {
	expanded, err := asm.expand(word)
	if err != nil {
		return
	}

	return asm.valueOf(expanded)
}

// target resolves a jump or branch target: a label's byte address, or a
// numeric value.
func (asm *Assembler) target(word string) (address int64, isLabel bool, err error) {
	if addr, ok := asm.Label[word]; ok {
		return int64(addr), true, nil
	}

	address, err = asm.operand(word)
	if err != nil && labelRe.MatchString(word) {
		err = ErrLabelMissing(word)
	}

	return
}

// encode emits the instruction word for a single statement.
func (asm *Assembler) encode(stmt statement) (word uint16, err error) {
	if sub, ok := extendedTable[stmt.Mnemonic]; ok {
		if len(stmt.Operands) != 0 {
			err = ErrOperandCount
			return
		}
		word = 0xF000 | (sub << 4)
		return
	}

	opcode, ok := encodeTable[stmt.Mnemonic]
	if !ok && stmt.Mnemonic != "HALT" {
		err = ErrOpcodeInvalid
		return
	}

	switch stmt.Mnemonic {
	case "NOP":
		word = WORD_NOP

	case "HALT":
		word = WORD_HALT

	case "ADD", "SUB", "AND", "OR", "XOR", "SHL", "SHR":
		var rd, rs, rt uint16
		if len(stmt.Operands) != 3 {
			err = ErrOperandCount
			return
		}
		if rd, err = asm.parseRegister(stmt.Operands[0]); err != nil {
			return
		}
		if rs, err = asm.parseRegister(stmt.Operands[1]); err != nil {
			return
		}
		if rt, err = asm.parseRegister(stmt.Operands[2]); err != nil {
			return
		}
		word = (opcode << 12) | (rd << 8) | (rs << 4) | rt

	case "NOT":
		var rd, rs uint16
		if len(stmt.Operands) != 2 {
			err = ErrOperandCount
			return
		}
		if rd, err = asm.parseRegister(stmt.Operands[0]); err != nil {
			return
		}
		if rs, err = asm.parseRegister(stmt.Operands[1]); err != nil {
			return
		}
		word = (opcode << 12) | (rd << 8) | (rs << 4)

	case "ADDI", "LOADI":
		var rd uint16
		var imm int64
		if len(stmt.Operands) != 2 {
			err = ErrOperandCount
			return
		}
		if rd, err = asm.parseRegister(stmt.Operands[0]); err != nil {
			return
		}
		if imm, err = asm.operand(stmt.Operands[1]); err != nil {
			return
		}
		if imm < -128 || imm > 255 {
			err = ErrImmediateRange
			return
		}
		word = (opcode << 12) | (rd << 8) | (uint16(imm) & 0xFF)

	case "LOAD", "STORE":
		var rd, rs uint16
		var offset int64
		if len(stmt.Operands) != 3 {
			err = ErrOperandCount
			return
		}
		if rd, err = asm.parseRegister(stmt.Operands[0]); err != nil {
			return
		}
		if rs, err = asm.parseRegister(stmt.Operands[1]); err != nil {
			return
		}
		if offset, err = asm.operand(stmt.Operands[2]); err != nil {
			return
		}
		if offset < 0 || offset > 15 {
			err = ErrImmediateRange
			return
		}
		word = (opcode << 12) | (rd << 8) | (rs << 4) | uint16(offset)

	case "JMP":
		var address int64
		if len(stmt.Operands) != 1 {
			err = ErrOperandCount
			return
		}
		if address, _, err = asm.target(stmt.Operands[0]); err != nil {
			return
		}
		if address < 0 || address > 0xFFF {
			err = ErrTargetInvalid
			return
		}
		word = (opcode << 12) | uint16(address)

	case "BEQ", "BNE":
		var rd uint16
		var value int64
		var isLabel bool
		if len(stmt.Operands) != 2 {
			err = ErrOperandCount
			return
		}
		if rd, err = asm.parseRegister(stmt.Operands[0]); err != nil {
			return
		}
		if value, isLabel, err = asm.target(stmt.Operands[1]); err != nil {
			return
		}
		if isLabel {
			// Displacement counts words, relative to the
			// already-advanced PC.
			value = (value - int64(stmt.Address) - 2) / 2
		}
		if value < -128 || value > 127 {
			err = ErrTargetInvalid
			return
		}
		word = (opcode << 12) | (rd << 8) | (uint16(value) & 0xFF)

	default:
		err = ErrOpcodeInvalid
	}

	return
}
