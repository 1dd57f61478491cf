// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

// MEMORY_SIZE is the byte-addressable memory span.
const MEMORY_SIZE = 65536

var _vm_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	"KERNEL_SP":   fmt.Sprintf("0x%04x", BOOT_KERNEL_SP),
	"SUPER_SP":    fmt.Sprintf("0x%04x", BOOT_SUPERVISOR_SP),
	"USER_SP":     fmt.Sprintf("0x%04x", BOOT_USER_SP),
	"EXC_HANDLER": fmt.Sprintf("0x%04x", EXCEPTION_HANDLER),
}

// Vm is the CVERE execution engine: flat little-endian memory, the
// register file, a cycle counter, and the halted latch. All memory
// faults degrade to a default value rather than failing; the only hard
// stop condition is stepping a machine that has already halted.
type Vm struct {
	Verbose bool // Set to enable verbose logging.

	Regs   *RegisterFile
	Memory [MEMORY_SIZE]byte

	Halted bool
	Cycles uint64
}

// NewVm creates a VM at boot state.
func NewVm() (vm *Vm) {
	vm = &Vm{
		Regs: NewRegisterFile(),
	}

	return
}

// Defines for the vm, fed to the assembler as predefines.
func (vm *Vm) Defines() iter.Seq2[string, string] {
	return maps.All(_vm_defines)
}

// Reset restores memory, registers, and counters to boot state.
func (vm *Vm) Reset() {
	if vm.Verbose {
		log.Printf("cpu: reset")
	}

	clear(vm.Memory[:])
	vm.Regs.Reset()
	vm.Halted = false
	vm.Cycles = 0
}

// LoadProgram writes a word sequence into memory little-endian, starting
// at the given byte address. Words that would land past the memory bound
// are silently dropped.
func (vm *Vm) LoadProgram(words []uint16, address uint16) {
	addr := int(address)
	for _, word := range words {
		if addr+1 >= len(vm.Memory) {
			break
		}
		vm.Memory[addr] = byte(word)
		vm.Memory[addr+1] = byte(word >> 8)
		addr += 2
	}
}

// ReadWord reads a 16-bit little-endian value. A read whose high byte
// falls past the memory bound returns zero.
func (vm *Vm) ReadWord(address uint16) uint16 {
	addr := int(address)
	if addr+1 >= len(vm.Memory) {
		return 0
	}

	return uint16(vm.Memory[addr]) | uint16(vm.Memory[addr+1])<<8
}

// WriteWord writes a 16-bit little-endian value. A write whose high byte
// falls past the memory bound is dropped.
func (vm *Vm) WriteWord(address uint16, value uint16) {
	addr := int(address)
	if addr+1 >= len(vm.Memory) {
		return
	}

	vm.Memory[addr] = byte(value)
	vm.Memory[addr+1] = byte(value >> 8)
}

// fetch reads the instruction word at PC and advances PC by one word.
// A fetch past the memory bound yields the HALT encoding, so execution
// runs off the end of memory into a graceful halt.
func (vm *Vm) fetch() uint16 {
	addr := int(vm.Regs.Pc)
	if addr+1 >= len(vm.Memory) {
		return WORD_HALT
	}

	word := uint16(vm.Memory[addr]) | uint16(vm.Memory[addr+1])<<8
	vm.Regs.Pc += 2

	return word
}

// Step executes a single fetch-decode-execute cycle.
func (vm *Vm) Step() (err error) {
	if vm.Halted {
		return ErrHalted
	}

	word := vm.fetch()
	vm.Cycles++

	inst := Decode(word)

	if vm.Verbose {
		log.Printf("cpu: %04x: %v", vm.Regs.Pc, inst)
	}

	regs := vm.Regs

	switch inst.Opcode {
	case 0x0:
		// NOP

	case 0x1: // ADD
		sum := uint32(regs.ReadGP(inst.Rs)) + uint32(regs.ReadGP(inst.Rt))
		regs.WriteGP(inst.Rd, uint16(sum))
		vm.updateFlagsCarry(sum)

	case 0x2: // ADDI, rd doubles as the accumulator
		sum := uint32(regs.ReadGP(inst.Rd)) + uint32(inst.Imm8)
		regs.WriteGP(inst.Rd, uint16(sum))
		vm.updateFlagsCarry(sum)

	case 0x3: // SUB
		result := regs.ReadGP(inst.Rs) - regs.ReadGP(inst.Rt)
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0x4: // AND
		result := regs.ReadGP(inst.Rs) & regs.ReadGP(inst.Rt)
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0x5: // OR
		result := regs.ReadGP(inst.Rs) | regs.ReadGP(inst.Rt)
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0x6: // XOR
		result := regs.ReadGP(inst.Rs) ^ regs.ReadGP(inst.Rt)
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0x7: // NOT
		result := ^regs.ReadGP(inst.Rs)
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0x8: // SHL
		shift := regs.ReadGP(inst.Rt) & 0xF
		result := regs.ReadGP(inst.Rs) << shift
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0x9: // SHR
		shift := regs.ReadGP(inst.Rt) & 0xF
		result := regs.ReadGP(inst.Rs) >> shift
		regs.WriteGP(inst.Rd, result)
		vm.updateFlags(result)

	case 0xA: // LOAD, offset counts words
		address := regs.ReadGP(inst.Rs) + uint16(inst.Offset)*2
		regs.WriteGP(inst.Rd, vm.ReadWord(address))

	case 0xB: // STORE, offset counts words
		address := regs.ReadGP(inst.Rs) + uint16(inst.Offset)*2
		vm.WriteWord(address, regs.ReadGP(inst.Rd))

	case 0xC: // LOADI, sign-extended
		regs.WriteGP(inst.Rd, uint16(int16(int8(inst.Imm8))))

	case 0xD: // JMP, absolute
		regs.Pc = inst.Addr12

	case 0xE: // BEQ
		if regs.ReadGP(inst.Rd) == 0 {
			regs.Pc += uint16(int16(int8(inst.Imm8)) * 2)
		}

	case 0xF:
		switch inst.Format {
		case FORMAT_SPECIAL: // HALT
			vm.Halted = true
		case FORMAT_EXTENDED:
			// CALL/RET/PUSH/POP are recognized but not yet
			// executed; the extension point is reserved.
		default: // BNE
			if regs.ReadGP(inst.Rd) != 0 {
				regs.Pc += uint16(int16(int8(inst.Imm8)) * 2)
			}
		}

	default:
		// Unreachable: every nibble is covered above.
		err = ErrInvalidOpcode(word)
	}

	return
}

// Run steps the engine until it halts, fails, or the cycle budget is
// spent, returning the number of cycles consumed. The first Step failure
// is surfaced immediately.
func (vm *Vm) Run(maxCycles uint64) (cycles uint64, err error) {
	start := vm.Cycles

	for !vm.Halted && (vm.Cycles-start) < maxCycles {
		err = vm.Step()
		if err != nil {
			break
		}
	}

	cycles = vm.Cycles - start

	return
}

// updateFlags sets the zero and negative flags from a 16-bit result.
// Carry and overflow are left untouched.
func (vm *Vm) updateFlags(result uint16) {
	flags := vm.Regs.Flags()
	flags.Zero = result == 0
	flags.Negative = (result & 0x8000) != 0
	vm.Regs.SetFlags(flags)
}

// updateFlagsCarry sets zero and negative from the low 16 bits of a
// widened sum, and carry from the overflow past 16 bits. The overflow
// flag is left untouched.
func (vm *Vm) updateFlagsCarry(sum uint32) {
	result := uint16(sum)
	flags := vm.Regs.Flags()
	flags.Zero = result == 0
	flags.Negative = (result & 0x8000) != 0
	flags.Carry = sum > 0xFFFF
	vm.Regs.SetFlags(flags)
}

// String returns the current VM state as a string.
func (vm *Vm) String() (text string) {
	text = vm.Regs.Dump()
	text += fmt.Sprintf("\nCycles: %d  Halted: %v\n", vm.Cycles, vm.Halted)

	return
}
