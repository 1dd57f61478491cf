package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// checkSpInvariant asserts that SP matches the banked value for the
// active ring.
func checkSpInvariant(t *testing.T, regs *RegisterFile) {
	t.Helper()

	banked := regs.banked(regs.Ring)
	assert.Equal(t, banked, regs.Sp, "SP stale for ring %v", regs.Ring)
}

func TestRegisterFile_BootDefaults(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()

	assert.Equal(RING_KERNEL, regs.Ring)
	assert.True(regs.IsKernelMode())
	assert.False(regs.IsSupervisorMode())
	assert.False(regs.IsUserMode())
	assert.Equal(BOOT_KERNEL_SP, regs.Sp)
	assert.Equal(BOOT_KERNEL_SP, regs.KernelSp)
	assert.Equal(BOOT_SUPERVISOR_SP, regs.SupervisorSp)
	assert.Equal(BOOT_USER_SP, regs.UserSp)
	assert.Equal(EXCEPTION_HANDLER, regs.ExceptionHandler)
	assert.Equal(uint16(0), regs.Pc)
	assert.Equal(uint16(0), regs.Lr)
	assert.Equal(uint16(0), regs.Sr)
}

func TestRegisterFile_GP(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()

	for reg := uint8(1); reg < 16; reg++ {
		regs.WriteGP(reg, 0x1000+uint16(reg))
		assert.Equal(0x1000+uint16(reg), regs.ReadGP(reg))
	}

	// R0 is hardwired to zero.
	regs.WriteGP(0, 0xBEEF)
	assert.Equal(uint16(0), regs.ReadGP(0))

	// Out-of-range indexes are a no-op and read zero.
	regs.WriteGP(16, 0xBEEF)
	assert.Equal(uint16(0), regs.ReadGP(16))
	assert.Equal(uint16(0), regs.ReadGP(0xFF))
}

func TestRegisterFile_DropPrivilege(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()

	// Kernel pushes two words, then drops to user.
	regs.Sp -= 4
	kernelSp := regs.Sp
	regs.DropPrivilege(RING_USER)
	assert.Equal(RING_USER, regs.Ring)
	assert.Equal(BOOT_USER_SP, regs.Sp)
	assert.Equal(kernelSp, regs.KernelSp)
	checkSpInvariant(t, regs)

	// User stack activity is banked on the way out.
	regs.Sp -= 2
	userSp := regs.Sp
	regs.DropPrivilege(RING_SUPERVISOR)
	assert.Equal(RING_SUPERVISOR, regs.Ring)
	assert.Equal(BOOT_SUPERVISOR_SP, regs.Sp)
	assert.Equal(userSp, regs.UserSp)
	checkSpInvariant(t, regs)

	// Idempotent ring-to-ring transition.
	regs.DropPrivilege(RING_SUPERVISOR)
	assert.Equal(RING_SUPERVISOR, regs.Ring)
	assert.Equal(BOOT_SUPERVISOR_SP, regs.Sp)
	checkSpInvariant(t, regs)

	// Kernel's earlier SP survives the round trip.
	regs.DropPrivilege(RING_KERNEL)
	assert.Equal(RING_KERNEL, regs.Ring)
	assert.Equal(kernelSp, regs.Sp)
	checkSpInvariant(t, regs)
}

func TestRegisterFile_EnterKernelMode(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()

	// No-op from kernel.
	regs.EnterKernelMode()
	assert.Equal(RING_KERNEL, regs.Ring)
	checkSpInvariant(t, regs)

	// No-op from supervisor.
	regs.DropPrivilege(RING_SUPERVISOR)
	regs.EnterKernelMode()
	assert.Equal(RING_SUPERVISOR, regs.Ring)
	checkSpInvariant(t, regs)

	// User to kernel banks the user SP.
	regs.DropPrivilege(RING_USER)
	regs.Sp -= 6
	userSp := regs.Sp
	regs.EnterKernelMode()
	assert.Equal(RING_KERNEL, regs.Ring)
	assert.Equal(BOOT_KERNEL_SP, regs.Sp)
	assert.Equal(userSp, regs.UserSp)
	checkSpInvariant(t, regs)
}

func TestRegisterFile_RaisePrivilegeOnException(t *testing.T) {
	assert := assert.New(t)

	for _, ring := range []Ring{RING_KERNEL, RING_SUPERVISOR, RING_USER} {
		regs := NewRegisterFile()
		regs.DropPrivilege(ring)
		regs.Pc = 0x1234
		regs.Sr = 0x0005
		regs.Sp -= 2
		trapSp := regs.Sp

		regs.RaisePrivilegeOnException()

		assert.Equal(RING_KERNEL, regs.Ring, "from %v", ring)
		assert.Equal(uint16(0x1234), regs.SavedPc)
		assert.Equal(uint16(0x0005), regs.SavedSr)
		assert.Equal(EXCEPTION_HANDLER, regs.Pc)
		assert.Equal(trapSp, regs.banked(ring), "from %v", ring)
		checkSpInvariant(t, regs)
	}
}

func TestRegisterFile_Reset(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()
	regs.WriteGP(5, 0x5555)
	regs.Pc = 0x100
	regs.Lr = 0x200
	regs.Sr = 0xF
	regs.DropPrivilege(RING_USER)
	regs.Sp = 0x1000
	regs.RaisePrivilegeOnException()

	regs.Reset()

	assert.Equal(uint16(0), regs.ReadGP(5))
	assert.Equal(uint16(0), regs.Pc)
	assert.Equal(uint16(0), regs.Lr)
	assert.Equal(uint16(0), regs.Sr)
	assert.Equal(RING_KERNEL, regs.Ring)
	assert.Equal(BOOT_KERNEL_SP, regs.Sp)
	assert.Equal(BOOT_KERNEL_SP, regs.KernelSp)
	assert.Equal(BOOT_SUPERVISOR_SP, regs.SupervisorSp)
	assert.Equal(BOOT_USER_SP, regs.UserSp)
	assert.Equal(uint16(0), regs.SavedPc)
	assert.Equal(uint16(0), regs.SavedSr)
}

func TestRegisterFile_Lookup(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()
	regs.Pc = 0x1234
	regs.Lr = 0x5678
	regs.Sr = 0x000F
	regs.WriteGP(3, 0xABCD)
	regs.WriteGP(10, 0x00AA)

	table := [](struct {
		name  string
		value uint16
		ok    bool
	}){
		{"PC", 0x1234, true},
		{"pc", 0x1234, true},
		{"SP", BOOT_KERNEL_SP, true},
		{"lr", 0x5678, true},
		{"Sr", 0x000F, true},
		{"R3", 0xABCD, true},
		{"r3", 0xABCD, true},
		{"RA", 0x00AA, true},
		{"R0", 0, true},
		{"R10", 0, false}, // Index 16 is out of range.
		{"RG", 0, false},
		{"X1", 0, false},
		{"", 0, false},
	}

	for _, entry := range table {
		value, ok := regs.Lookup(entry.name)
		assert.Equal(entry.ok, ok, entry.name)
		assert.Equal(entry.value, value, entry.name)
	}
}

func TestRegisterFile_Dump(t *testing.T) {
	assert := assert.New(t)

	regs := NewRegisterFile()
	regs.WriteGP(1, 0x0005)
	regs.SetFlags(Flags{Zero: true, Carry: true})

	dump := regs.Dump()
	assert.Contains(dump, "R1: 0x0005")
	assert.Contains(dump, "PC: 0x0000")
	assert.Contains(dump, "SP: 0xFFFE (kernel)")
	assert.Contains(dump, "[Z=1 N=0 C=1 V=0]")
	assert.Contains(dump, "Privilege Mode: kernel")

	regs.DropPrivilege(RING_USER)
	assert.Contains(regs.Dump(), "SP: 0xDFFE (user)")
}
