package cpu

import (
	"errors"

	"github.com/ezrec/cvere/translate"
)

var f = translate.From

var (
	// Engine errors
	ErrHalted = errors.New(f("vm halted"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrOperandCount    = errors.New(f("operand count"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrTargetInvalid   = errors.New(f("branch target invalid"))
	ErrImmediateRange  = errors.New(f("immediate out of range"))
)

// ErrInvalidOpcode reports a top-nibble value with no execution mapping.
type ErrInvalidOpcode uint16

func (eo ErrInvalidOpcode) Error() string {
	return f("invalid opcode 0x%04x", uint16(eo))
}

func (eo ErrInvalidOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrInvalidOpcode)
	return
}

// ErrLabelMissing reports a reference to an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrParseNumber reports a word that failed numeric parsing.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression reports an invalid $(...) expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax locates an assembler error at its source line.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
