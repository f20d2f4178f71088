package cpu

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes the instruction at pc, taken from data based at
// base, to w. It returns the address of the next instruction.
//
// Bytes that do not decode are written as a .db directive. Operands that
// run past the end of data read as zero.
func Disassemble(data []byte, base uint16, pc uint16, w io.Writer) (next uint16, err error) {
	at := func(addr uint16) byte {
		off := int(addr) - int(base)
		if off < 0 || off >= len(data) {
			return 0
		}
		return data[off]
	}

	next = pc
	fetch := func() byte {
		b := at(next)
		next++
		return b
	}

	op := Op(fetch())
	ins, ok := op.Decode()
	if !ok {
		_, err = fmt.Fprintf(w, ".db 0x%02x", uint8(op))
		return
	}

	args := DecodeArgs(ins.Shape, fetch)
	_, err = io.WriteString(w, FormatInstruction(ins, args))
	return
}

// FormatInstruction renders an instruction and its operands as source text.
func FormatInstruction(ins Instruction, args Args) string {
	words := []string{ins.Mnemonic}
	regs := 0
	for _, od := range ins.Shape.Operands() {
		var word string
		switch od {
		case OPERAND_REG:
			word = string(rune(args.Reg[regs]))
			regs++
		case OPERAND_TARGET:
			word = fmt.Sprintf("0x%04x", args.Addr)
		case OPERAND_ADDR:
			word = fmt.Sprintf("0x%04x", args.Addr)
		case OPERAND_IMM16, OPERAND_IMM8:
			word = fmt.Sprintf("%d", args.Imm)
		case OPERAND_HEX8:
			word = fmt.Sprintf("0x%02x", args.Imm)
		}
		words = append(words, word)
	}

	return strings.Join(words, " ")
}

// DisassembleAll writes a listing of every instruction in data, which is
// loaded at base, to w.
func DisassembleAll(data []byte, base uint16, w io.Writer) (err error) {
	end := int(base) + len(data)
	for pc := int(base); pc < end; {
		start := uint16(pc)
		var text strings.Builder
		next, _ := Disassemble(data, base, start, &text)
		length := int(next - start)
		if next <= start {
			// Wrapped past the top of memory.
			length = MEMORY_SIZE - pc
		}

		var hex strings.Builder
		for n := range min(length, end-pc) {
			fmt.Fprintf(&hex, "%02x ", data[pc-int(base)+n])
		}

		_, err = fmt.Fprintf(w, "%04x: %-21s %v\n", start, hex.String(), text.String())
		if err != nil {
			return
		}
		pc += length
	}

	return
}
