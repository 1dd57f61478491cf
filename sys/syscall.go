// Package sys provides the CVERE system call taxonomy and the console
// device it targets. The taxonomy is a closed numeric contract: decoding
// is total, with unmapped codes reported as SYS_UNKNOWN.
package sys

// Syscall is a system call code.
type Syscall int

//go:generate go tool stringer -linecomment -type=Syscall
const (
	SYS_EXIT       = Syscall(0x00) // exit
	SYS_PRINT_CHAR = Syscall(0x01) // print_char
	SYS_PRINT_HEX  = Syscall(0x02) // print_hex
	SYS_READ_CHAR  = Syscall(0x03) // read_char
	SYS_GET_TIME   = Syscall(0x04) // get_time
	SYS_SLEEP      = Syscall(0x05) // sleep
	SYS_ALLOC_MEM  = Syscall(0x06) // alloc_mem
	SYS_FREE_MEM   = Syscall(0x07) // free_mem
	SYS_OPEN_FILE  = Syscall(0x08) // open_file
	SYS_CLOSE_FILE = Syscall(0x09) // close_file
	SYS_READ_FILE  = Syscall(0x0A) // read_file
	SYS_WRITE_FILE = Syscall(0x0B) // write_file

	SYS_UNKNOWN = Syscall(0xFFFF) // unknown
)

// SyscallFromWord decodes a numeric syscall code. Decoding is total:
// unmapped values yield SYS_UNKNOWN.
func SyscallFromWord(value uint16) Syscall {
	code := Syscall(value)
	if code >= SYS_EXIT && code <= SYS_WRITE_FILE {
		return code
	}

	return SYS_UNKNOWN
}

// Handler is the syscall dispatch table, bound to its console sink.
//
// The calling convention reserved for the trap extension point: the
// syscall number arrives in RD, the argument in RS, and the result is
// written back through RD. No instruction encoding is committed to the
// trap yet; the engine executes the extended opcodes as no-ops and the
// emulator owns the handler until one lands.
type Handler struct {
	Console *Console
	Clock   func() uint64 // Cycle counter source for get_time.
}

// Dispatch runs one syscall. Unmapped and not-yet-implemented codes
// degrade to a zero result rather than failing.
func (h *Handler) Dispatch(code Syscall, arg uint16) (result uint16, exit bool) {
	switch code {
	case SYS_EXIT:
		exit = true
	case SYS_PRINT_CHAR:
		h.Console.PrintChar(rune(arg))
	case SYS_PRINT_HEX:
		h.Console.PrintHex(arg)
	case SYS_READ_CHAR:
		c, ok := h.Console.ReadChar()
		if !ok {
			// Empty input queue is a bounded query, not a stall.
			result = 0xFFFF
			break
		}
		result = uint16(c)
	case SYS_GET_TIME:
		if h.Clock != nil {
			result = uint16(h.Clock())
		}
	default:
		// The remaining taxonomy entries are contract placeholders.
	}

	return
}
