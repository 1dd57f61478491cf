// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/cvere/cpu"
	"github.com/ezrec/cvere/internal"
	"github.com/ezrec/cvere/sys"
)

// DEFAULT_CYCLE_LIMIT bounds a Run when the caller has no better budget.
const DEFAULT_CYCLE_LIMIT = uint64(1000)

var _emulator_defines = map[string]string{
	"SYS_EXIT":       fmt.Sprintf("0x%02x", int(sys.SYS_EXIT)),
	"SYS_PRINT_CHAR": fmt.Sprintf("0x%02x", int(sys.SYS_PRINT_CHAR)),
	"SYS_PRINT_HEX":  fmt.Sprintf("0x%02x", int(sys.SYS_PRINT_HEX)),
	"SYS_READ_CHAR":  fmt.Sprintf("0x%02x", int(sys.SYS_READ_CHAR)),
	"SYS_GET_TIME":   fmt.Sprintf("0x%02x", int(sys.SYS_GET_TIME)),
	"SYS_SLEEP":      fmt.Sprintf("0x%02x", int(sys.SYS_SLEEP)),
}

// Emulator state. VM + console + syscall handler + loaded program.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.
	*cpu.Vm      // Reference to the CPU simulation.

	Console sys.Console // Console device.
	Handler sys.Handler // Syscall dispatch, bound to the console.

	Program     []uint16 // Word image loaded on Reset.
	LoadAddress uint16   // Byte address the image loads at.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Vm: cpu.NewVm(),
	}

	emu.Handler = sys.Handler{
		Console: &emu.Console,
		Clock:   func() uint64 { return emu.Vm.Cycles },
	}

	return
}

// Defines returns an iterator over all of the defines, fed to the
// assembler as predefines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Vm.Defines(),
	)
}

// Reset restores the VM and console to boot state and reloads the
// program image.
func (emu *Emulator) Reset() {
	emu.Vm.Verbose = emu.Verbose
	emu.Vm.Reset()
	emu.Console.Reset()
	emu.Vm.LoadProgram(emu.Program, emu.LoadAddress)
}

// Step executes one instruction, locating any failure at the address
// it was fetched from.
func (emu *Emulator) Step() (err error) {
	pc := emu.Vm.Regs.Pc
	err = emu.Vm.Step()
	if err != nil {
		err = &ErrRuntime{Address: pc, Err: err}
	}

	return
}

// Run steps until halt, failure, or the cycle budget is spent, and
// returns the cycles consumed.
func (emu *Emulator) Run(maxCycles uint64) (cycles uint64, err error) {
	emu.Vm.Verbose = emu.Verbose

	for !emu.Vm.Halted && cycles < maxCycles {
		err = emu.Step()
		if err != nil {
			break
		}
		cycles++
	}

	return
}

// Syscall dispatches a system call by number through the handler. An
// exit request halts the VM.
func (emu *Emulator) Syscall(number uint16, arg uint16) (result uint16) {
	result, exit := emu.Handler.Dispatch(sys.SyscallFromWord(number), arg)
	if exit {
		emu.Vm.Halted = true
	}

	return
}

// Listing disassembles the loaded program image.
func (emu *Emulator) Listing() string {
	return cpu.Listing(emu.Program, emu.LoadAddress)
}
