package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

// Ring is a privilege ring, totally ordered by capability. Lower values
// are more privileged.
type Ring int

//go:generate go tool stringer -linecomment -type=Ring
const (
	RING_KERNEL     = Ring(0) // kernel
	RING_SUPERVISOR = Ring(1) // supervisor
	RING_USER       = Ring(2) // user
)

// Register file boot defaults. Each ring's stack grows downward from the
// top of its own 4KiB-separated arena.
const (
	BOOT_KERNEL_SP     = uint16(0xFFFE)
	BOOT_SUPERVISOR_SP = uint16(0xEFFE)
	BOOT_USER_SP       = uint16(0xDFFE)
	EXCEPTION_HANDLER  = uint16(0x0010)
)

// RegisterFile holds the CVERE register state: sixteen general-purpose
// registers (r0 hardwired to zero), the PC/SP/LR/SR specials, one banked
// stack pointer per privilege ring, and the exception save slots.
//
// SP always aliases the banked slot of the active ring. Every ring
// transition banks the outgoing SP and loads the incoming one, so no
// ring ever observes a stale stack pointer.
type RegisterFile struct {
	gp [16]uint16

	Pc uint16 // Program counter, next fetch address.
	Sp uint16 // Live stack pointer for the active ring.
	Lr uint16 // Link register, reserved for CALL/RET.
	Sr uint16 // Status register, flags-encoded.

	KernelSp     uint16
	SupervisorSp uint16
	UserSp       uint16
	Ring         Ring

	ExceptionHandler uint16 // Exception entry address.
	SavedPc          uint16 // PC captured on exception entry.
	SavedSr          uint16 // SR captured on exception entry.
}

// NewRegisterFile creates a register file at boot defaults.
func NewRegisterFile() (regs *RegisterFile) {
	regs = &RegisterFile{}
	regs.Reset()

	return
}

// Reset restores every field, including all three stack pointer banks and
// the privilege ring, to boot defaults.
func (regs *RegisterFile) Reset() {
	clear(regs.gp[:])
	regs.Pc = 0
	regs.Sp = BOOT_KERNEL_SP
	regs.Lr = 0
	regs.Sr = 0

	regs.KernelSp = BOOT_KERNEL_SP
	regs.SupervisorSp = BOOT_SUPERVISOR_SP
	regs.UserSp = BOOT_USER_SP
	regs.Ring = RING_KERNEL

	regs.ExceptionHandler = EXCEPTION_HANDLER
	regs.SavedPc = 0
	regs.SavedSr = 0
}

// ReadGP reads a general-purpose register. Register 0 always reads as
// zero, and out-of-range indexes read as zero.
func (regs *RegisterFile) ReadGP(reg uint8) uint16 {
	if reg == 0 || reg >= 16 {
		return 0
	}

	return regs.gp[reg]
}

// WriteGP writes a general-purpose register. Writes to register 0 and to
// out-of-range indexes are discarded.
func (regs *RegisterFile) WriteGP(reg uint8, value uint16) {
	if reg == 0 || reg >= 16 {
		return
	}

	regs.gp[reg] = value
}

// bank stores the live SP into the named ring's slot.
func (regs *RegisterFile) bank(ring Ring) {
	switch ring {
	case RING_KERNEL:
		regs.KernelSp = regs.Sp
	case RING_SUPERVISOR:
		regs.SupervisorSp = regs.Sp
	case RING_USER:
		regs.UserSp = regs.Sp
	}
}

// banked returns the named ring's stored stack pointer.
func (regs *RegisterFile) banked(ring Ring) uint16 {
	switch ring {
	case RING_SUPERVISOR:
		return regs.SupervisorSp
	case RING_USER:
		return regs.UserSp
	default:
		return regs.KernelSp
	}
}

// EnterKernelMode switches from user to kernel ring, banking the user SP
// and loading the kernel SP. No-op from any other ring.
func (regs *RegisterFile) EnterKernelMode() {
	if regs.Ring != RING_USER {
		return
	}

	regs.UserSp = regs.Sp
	regs.Sp = regs.KernelSp
	regs.Ring = RING_KERNEL
}

// DropPrivilege transitions to the target ring: the current ring's SP is
// banked, the target's banked SP becomes live. Valid for every ring pair,
// including a ring to itself.
func (regs *RegisterFile) DropPrivilege(target Ring) {
	regs.bank(regs.Ring)
	regs.Sp = regs.banked(target)
	regs.Ring = target
}

// RaisePrivilegeOnException performs the exception entry sequence: capture
// PC and SR into the save slots, bank the current ring's SP, force the
// kernel ring with its banked SP, and jump to the exception handler.
//
// This is the only sanctioned promotion path, reserved for engine-raised
// events. Program-level transitions only ever lower privilege through
// DropPrivilege.
func (regs *RegisterFile) RaisePrivilegeOnException() {
	regs.SavedPc = regs.Pc
	regs.SavedSr = regs.Sr

	regs.bank(regs.Ring)

	regs.Ring = RING_KERNEL
	regs.Sp = regs.KernelSp
	regs.Pc = regs.ExceptionHandler
}

// IsKernelMode reports whether the kernel ring is active.
func (regs *RegisterFile) IsKernelMode() bool {
	return regs.Ring == RING_KERNEL
}

// IsSupervisorMode reports whether the supervisor ring is active.
func (regs *RegisterFile) IsSupervisorMode() bool {
	return regs.Ring == RING_SUPERVISOR
}

// IsUserMode reports whether the user ring is active.
func (regs *RegisterFile) IsUserMode() bool {
	return regs.Ring == RING_USER
}

// Flags returns the unpacked status register condition codes.
func (regs *RegisterFile) Flags() Flags {
	return FlagsFromBits(regs.Sr)
}

// SetFlags packs condition codes into the status register.
func (regs *RegisterFile) SetFlags(flags Flags) {
	regs.Sr = flags.Bits()
}

// Lookup finds a register value by name. Names are case-insensitive: the
// specials PC, SP, LR, SR, or R<hex digit> for a general-purpose register.
func (regs *RegisterFile) Lookup(name string) (value uint16, ok bool) {
	switch upper := strings.ToUpper(name); upper {
	case "PC":
		return regs.Pc, true
	case "SP":
		return regs.Sp, true
	case "LR":
		return regs.Lr, true
	case "SR":
		return regs.Sr, true
	default:
		if !strings.HasPrefix(upper, "R") {
			return
		}
		num, err := strconv.ParseUint(upper[1:], 16, 8)
		if err != nil || num >= 16 {
			return
		}
		return regs.ReadGP(uint8(num)), true
	}
}

// Dump returns a human-readable register state block.
func (regs *RegisterFile) Dump() (text string) {
	text = "General Purpose Registers:\n"
	for n := range uint8(16) {
		text += fmt.Sprintf("  R%X: 0x%04X", n, regs.ReadGP(n))
		if (n+1)%4 == 0 {
			text += "\n"
		}
	}

	text += "\nSpecial Registers:\n"
	text += fmt.Sprintf("  PC: 0x%04X\n", regs.Pc)
	text += fmt.Sprintf("  SP: 0x%04X (%v)\n", regs.Sp, regs.Ring)
	text += fmt.Sprintf("  LR: 0x%04X\n", regs.Lr)

	flags := regs.Flags()
	text += fmt.Sprintf("  SR: 0x%04X [Z=%d N=%d C=%d V=%d]\n", regs.Sr,
		b2i(flags.Zero), b2i(flags.Negative), b2i(flags.Carry), b2i(flags.Overflow))

	text += fmt.Sprintf("\nPrivilege Mode: %v\n", regs.Ring)

	return
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}
