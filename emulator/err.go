package emulator

import (
	"github.com/ezrec/cvere/translate"
)

var f = translate.From

// ErrRuntime indicates the address of a runtime error.
type ErrRuntime struct {
	Address uint16
	Err     error
}

func (err *ErrRuntime) Error() string {
	return f("at 0x%04x %v", err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
