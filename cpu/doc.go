// Package cpu implements the CVERE 16-bit processor and its assembler.
//
// The processor has 16 general-purpose registers (r0 hardwired to zero),
// a program counter, a link register, a flags-encoded status register, and
// a stack pointer banked across three privilege rings (kernel, supervisor,
// user). Memory is a flat 64KiB little-endian byte array. Instructions are
// single 16-bit words decoded by format: register, immediate, memory, jump,
// branch, extended, and special.
//
// The assembler provides a small two-pass assembly language for the CVERE
// instruction set, supporting labels, equates, and compile-time expression
// evaluation.
package cpu
