package cpu

// Status register flag bit positions.
const (
	SR_ZERO     = uint16(1 << 0)
	SR_NEGATIVE = uint16(1 << 1)
	SR_CARRY    = uint16(1 << 2)
	SR_OVERFLOW = uint16(1 << 3)
)

// Flags is the unpacked view of the status register condition codes.
type Flags struct {
	Zero     bool
	Negative bool
	Carry    bool
	Overflow bool
}

// Bits packs the flags into their status register encoding.
func (fl Flags) Bits() (sr uint16) {
	if fl.Zero {
		sr |= SR_ZERO
	}
	if fl.Negative {
		sr |= SR_NEGATIVE
	}
	if fl.Carry {
		sr |= SR_CARRY
	}
	if fl.Overflow {
		sr |= SR_OVERFLOW
	}

	return
}

// FlagsFromBits unpacks a status register value into flags.
func FlagsFromBits(sr uint16) Flags {
	return Flags{
		Zero:     (sr & SR_ZERO) != 0,
		Negative: (sr & SR_NEGATIVE) != 0,
		Carry:    (sr & SR_CARRY) != 0,
		Overflow: (sr & SR_OVERFLOW) != 0,
	}
}
