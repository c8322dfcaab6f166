// Package cpu implements the LS-8 byte-code machine and its assembler.
//
// The machine consists of 256 bytes of memory, eight 8-bit general-purpose
// registers (r7 doubles as the stack pointer), a flag byte written by CMP,
// and a program counter. Each instruction is one opcode byte followed by up
// to two operand bytes; the top two bits of the opcode give the operand
// count and bit 5 marks an ALU operation.
//
// Programs are loaded from listings of binary literals, or assembled from
// mnemonic source with labels, equates, and compile-time expressions.
package cpu
