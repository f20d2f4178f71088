// Package cpu implements the tinyvm machine and its assembler.
//
// The machine has a 16-bit program counter, three 16-bit registers (A, B
// and C), zero and negative flags set by cmp, and a stack of 16-bit values,
// over a flat 64KiB byte addressable Memory. Instructions are one opcode
// byte followed by their operands; 16-bit values are stored most
// significant byte first.
//
// The assembler is two pass: the first pass computes label addresses, the
// second emits bytes. It supports labels, .org, .db, .equ equates and
// compile-time $(...) expressions.
package cpu
