package cpu

import (
	"fmt"
)

// Op is the one byte encoding of an instruction.
type Op uint8

const (
	OP_NOP          = Op(0x00) // No operation
	OP_LDA          = Op(0x01) // A = imm16
	OP_LDB          = Op(0x02) // B = imm16
	OP_ADD          = Op(0x03) // A = A + B
	OP_SUB          = Op(0x04) // A = A - B
	OP_MUL          = Op(0x05) // A = A * B
	OP_DIV          = Op(0x06) // A = A / B, skipped when B == 0
	OP_MOD          = Op(0x07) // A = A % B, skipped when B == 0
	OP_PRINTA       = Op(0x08) // Print A in decimal
	OP_PRINTC       = Op(0x09) // Print A as a character
	OP_INA          = Op(0x0a) // A = next input byte
	OP_JMP          = Op(0x10) // Jump
	OP_JZ           = Op(0x11) // Jump if zero flag
	OP_JNZ          = Op(0x12) // Jump if not zero flag
	OP_HLT          = Op(0x13) // Halt
	OP_JN           = Op(0x14) // Jump if negative flag
	OP_JP           = Op(0x15) // Jump if neither negative nor zero
	OP_LOAD_A       = Op(0x20) // A = mem16[addr]
	OP_STORE_A      = Op(0x21) // mem16[addr] = A
	OP_LOAD8_A      = Op(0x22) // A = mem8[addr]
	OP_STORE8_A     = Op(0x23) // mem8[addr] = A & 0xff
	OP_MOV8_MEM_IMM = Op(0x31) // mem8[addr] = imm8
	OP_MOV_REG_IMM  = Op(0x32) // reg = imm16
	OP_MOV_REG_REG  = Op(0x33) // reg = reg
	OP_MOV_REG_MEM  = Op(0x34) // reg = mem8[addr]
	OP_MOV_REG_MEM2 = Op(0x35) // reg = mem16[addr]
	OP_MOV_MEM_REG  = Op(0x36) // mem16[addr] = reg
	OP_MOV_MEM_IMM  = Op(0x37) // mem16[addr] = imm16
	OP_LOAD         = Op(0x38) // reg = mem8[addr]
	OP_STORE        = Op(0x39) // mem16[addr] = reg
	OP_CMP          = Op(0x40) // zero = C == B, negative = B < C
	OP_JEQ          = Op(0x41) // Jump if B == C
	OP_JGT          = Op(0x42) // Jump if B > C
	OP_JLT          = Op(0x43) // Jump if B < C
	OP_INC          = Op(0x44) // reg = reg + 1
	OP_LDC          = Op(0x45) // C = imm16
	OP_PRINTR       = Op(0x46) // Print reg in decimal
	OP_CALL         = Op(0x50) // Push return address, jump
	OP_RET          = Op(0x51) // Pop Pc
	OP_PUSH_A       = Op(0x52) // Push A
	OP_POP_A        = Op(0x53) // Pop A
	OP_PUSH_B       = Op(0x54) // Push B
	OP_POP_B        = Op(0x55) // Pop B
	OP_AND          = Op(0x60) // A = A & B
	OP_OR           = Op(0x61) // A = A | B
	OP_XOR          = Op(0x62) // A = A ^ B
	OP_NOT          = Op(0x63) // A = ^A
	OP_SHL          = Op(0x64) // A = A << 1
	OP_SHR          = Op(0x65) // A = A >> 1
	OP_WAIT         = Op(0x70) // Wait imm8 cycles
	OP_SYSCALL      = Op(0xf0) // System call selected by A
	OP_INT          = Op(0xf1) // Interrupt hex8
	OP_RESET        = Op(0xfe) // Reset machine state
	OP_HALT         = Op(0xff) // Halt
)

// Operand is the kind of a single encoded operand.
type Operand int

//go:generate go tool stringer -linecomment -type=Operand
const (
	OPERAND_REG    = Operand(0) // reg
	OPERAND_TARGET = Operand(1) // target
	OPERAND_ADDR   = Operand(2) // addr
	OPERAND_IMM16  = Operand(3) // imm16
	OPERAND_IMM8   = Operand(4) // imm8
	OPERAND_HEX8   = Operand(5) // hex8
)

// Width returns the number of encoded bytes of the operand.
func (od Operand) Width() int {
	switch od {
	case OPERAND_TARGET, OPERAND_ADDR, OPERAND_IMM16:
		return 2
	default:
		return 1
	}
}

// Shape is the operand layout of an instruction.
type Shape int

//go:generate go tool stringer -linecomment -type=Shape
const (
	SHAPE_NONE           = Shape(0)  // -
	SHAPE_REG            = Shape(1)  // reg
	SHAPE_IMM16          = Shape(2)  // imm16
	SHAPE_TARGET         = Shape(3)  // target
	SHAPE_ADDR           = Shape(4)  // addr
	SHAPE_ADDR_REG       = Shape(5)  // addr,reg
	SHAPE_REG_ADDR       = Shape(6)  // reg,addr
	SHAPE_ADDR_IMM16     = Shape(7)  // addr,imm16
	SHAPE_ADDR_IMM8      = Shape(8)  // addr,imm8
	SHAPE_REG_ADDR_IMM16 = Shape(9)  // reg,addr,imm16
	SHAPE_REG_REG        = Shape(10) // reg,reg
	SHAPE_IMM8           = Shape(11) // imm8
	SHAPE_HEX8           = Shape(12) // hex8
)

var shapeOperands = [...][]Operand{
	SHAPE_NONE:           nil,
	SHAPE_REG:            {OPERAND_REG},
	SHAPE_IMM16:          {OPERAND_IMM16},
	SHAPE_TARGET:         {OPERAND_TARGET},
	SHAPE_ADDR:           {OPERAND_ADDR},
	SHAPE_ADDR_REG:       {OPERAND_ADDR, OPERAND_REG},
	SHAPE_REG_ADDR:       {OPERAND_REG, OPERAND_ADDR},
	SHAPE_ADDR_IMM16:     {OPERAND_ADDR, OPERAND_IMM16},
	SHAPE_ADDR_IMM8:      {OPERAND_ADDR, OPERAND_IMM8},
	SHAPE_REG_ADDR_IMM16: {OPERAND_REG, OPERAND_ADDR, OPERAND_IMM16},
	SHAPE_REG_REG:        {OPERAND_REG, OPERAND_REG},
	SHAPE_IMM8:           {OPERAND_IMM8},
	SHAPE_HEX8:           {OPERAND_HEX8},
}

// Operands returns the operand kinds of the shape, in encoding order.
func (shape Shape) Operands() []Operand {
	return shapeOperands[shape]
}

// Length returns the encoded length of an instruction of this shape,
// including the opcode byte.
func (shape Shape) Length() (length int) {
	length = 1
	for _, od := range shape.Operands() {
		length += od.Width()
	}
	return
}

// Instruction describes one mnemonic of the instruction set.
type Instruction struct {
	Mnemonic string
	Op       Op
	Shape    Shape
}

// Length returns the total encoded length in bytes.
func (ins Instruction) Length() int {
	return ins.Shape.Length()
}

// String returns the mnemonic and its operand shape.
func (ins Instruction) String() string {
	if ins.Shape == SHAPE_NONE {
		return ins.Mnemonic
	}
	return fmt.Sprintf("%v %v", ins.Mnemonic, ins.Shape)
}

// InstructionSet is the complete, ordered instruction set.
var InstructionSet = []Instruction{
	{"nop", OP_NOP, SHAPE_NONE},
	{"lda", OP_LDA, SHAPE_IMM16},
	{"ldb", OP_LDB, SHAPE_IMM16},
	{"add", OP_ADD, SHAPE_NONE},
	{"sub", OP_SUB, SHAPE_NONE},
	{"mul", OP_MUL, SHAPE_NONE},
	{"div", OP_DIV, SHAPE_NONE},
	{"mod", OP_MOD, SHAPE_NONE},
	{"printa", OP_PRINTA, SHAPE_NONE},
	{"printc", OP_PRINTC, SHAPE_NONE},
	{"ina", OP_INA, SHAPE_NONE},
	{"jmp", OP_JMP, SHAPE_TARGET},
	{"jz", OP_JZ, SHAPE_TARGET},
	{"jnz", OP_JNZ, SHAPE_TARGET},
	{"hlt", OP_HLT, SHAPE_NONE},
	{"jn", OP_JN, SHAPE_TARGET},
	{"jp", OP_JP, SHAPE_TARGET},
	{"load_a", OP_LOAD_A, SHAPE_ADDR},
	{"store_a", OP_STORE_A, SHAPE_ADDR},
	{"load8_a", OP_LOAD8_A, SHAPE_ADDR},
	{"store8_a", OP_STORE8_A, SHAPE_ADDR},
	{"mov8_mem_imm", OP_MOV8_MEM_IMM, SHAPE_ADDR_IMM8},
	{"mov_reg_imm", OP_MOV_REG_IMM, SHAPE_REG_ADDR_IMM16},
	{"mov_reg_reg", OP_MOV_REG_REG, SHAPE_REG_REG},
	{"mov_reg_mem", OP_MOV_REG_MEM, SHAPE_REG_ADDR},
	{"mov_reg_mem2", OP_MOV_REG_MEM2, SHAPE_REG_ADDR},
	{"mov_mem_reg", OP_MOV_MEM_REG, SHAPE_ADDR_REG},
	{"mov_mem_imm", OP_MOV_MEM_IMM, SHAPE_ADDR_IMM16},
	{"load", OP_LOAD, SHAPE_ADDR_REG},
	{"store", OP_STORE, SHAPE_ADDR_REG},
	{"cmp", OP_CMP, SHAPE_NONE},
	{"jeq", OP_JEQ, SHAPE_TARGET},
	{"jgt", OP_JGT, SHAPE_TARGET},
	{"jlt", OP_JLT, SHAPE_TARGET},
	{"inc", OP_INC, SHAPE_REG},
	{"ldc", OP_LDC, SHAPE_IMM16},
	{"printr", OP_PRINTR, SHAPE_REG},
	{"call", OP_CALL, SHAPE_TARGET},
	{"ret", OP_RET, SHAPE_NONE},
	{"push_a", OP_PUSH_A, SHAPE_NONE},
	{"pop_a", OP_POP_A, SHAPE_NONE},
	{"push_b", OP_PUSH_B, SHAPE_NONE},
	{"pop_b", OP_POP_B, SHAPE_NONE},
	{"and", OP_AND, SHAPE_NONE},
	{"or", OP_OR, SHAPE_NONE},
	{"xor", OP_XOR, SHAPE_NONE},
	{"not", OP_NOT, SHAPE_NONE},
	{"shl", OP_SHL, SHAPE_NONE},
	{"shr", OP_SHR, SHAPE_NONE},
	{"wait", OP_WAIT, SHAPE_IMM8},
	{"syscall", OP_SYSCALL, SHAPE_NONE},
	{"int", OP_INT, SHAPE_HEX8},
	{"reset", OP_RESET, SHAPE_NONE},
	{"halt", OP_HALT, SHAPE_NONE},
}

var (
	byMnemonic = map[string]*Instruction{}
	byOp       [256]*Instruction
)

func init() {
	for n := range InstructionSet {
		ins := &InstructionSet[n]
		if _, ok := byMnemonic[ins.Mnemonic]; ok {
			panic(fmt.Sprintf("cpu: duplicate mnemonic %q", ins.Mnemonic))
		}
		if byOp[ins.Op] != nil {
			panic(fmt.Sprintf("cpu: opcode 0x%02x used by %q and %q", uint8(ins.Op), byOp[ins.Op].Mnemonic, ins.Mnemonic))
		}
		if int(ins.Shape) >= len(shapeOperands) {
			panic(fmt.Sprintf("cpu: %q has no operand shape", ins.Mnemonic))
		}
		byMnemonic[ins.Mnemonic] = ins
		byOp[ins.Op] = ins
	}
}

// Lookup returns the instruction for a mnemonic.
func Lookup(mnemonic string) (ins Instruction, ok bool) {
	p, ok := byMnemonic[mnemonic]
	if ok {
		ins = *p
	}
	return
}

// Decode returns the instruction for an opcode byte.
func (op Op) Decode() (ins Instruction, ok bool) {
	p := byOp[op]
	if p == nil {
		return
	}
	return *p, true
}

// String returns the mnemonic of the opcode.
func (op Op) String() string {
	ins, ok := op.Decode()
	if !ok {
		return fmt.Sprintf("Op(0x%02x)", uint8(op))
	}
	return ins.Mnemonic
}

// Args holds the decoded operands of one instruction.
type Args struct {
	Reg  [2]byte // Register letters, in encoding order.
	Addr uint16  // Address or jump target.
	Imm  uint16  // Immediate value (8 or 16 bits).
}

// DecodeArgs reads the operands of shape, one byte at a time, from next.
// Multi-byte values are most-significant-byte first.
func DecodeArgs(shape Shape, next func() byte) (args Args) {
	regs := 0
	for _, od := range shape.Operands() {
		switch od {
		case OPERAND_REG:
			args.Reg[regs] = next()
			regs++
		case OPERAND_TARGET, OPERAND_ADDR:
			hi := next()
			args.Addr = uint16(hi)<<8 | uint16(next())
		case OPERAND_IMM16:
			hi := next()
			args.Imm = uint16(hi)<<8 | uint16(next())
		case OPERAND_IMM8, OPERAND_HEX8:
			args.Imm = uint16(next())
		}
	}
	return
}
