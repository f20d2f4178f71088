package cpu

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/tinyvm/io"
)

// Console is the character device of the machine.
type Console io.Console

// Clock is the delay device of the machine.
type Clock io.Clock

// Status of the machine after a tick.
type Status int

//go:generate go tool stringer -linecomment -type=Status
const (
	STATUS_RUNNING = Status(0) // running
	STATUS_HALTED  = Status(1) // halted
	STATUS_EXITED  = Status(2) // exited
	STATUS_FAULTED = Status(3) // faulted
)

// System calls, selected by A.
const (
	SYS_NOP    = 0x00 // No operation.
	SYS_WAIT   = 0x01 // Wait B cycles.
	SYS_PRINTB = 0x02 // Print B in decimal, then a newline.
	SYS_PRINTC = 0x03 // Print B & 0xff as a character.
	SYS_EXIT   = 0xff // Stop the machine.
)

// Interrupts, selected by the int operand.
const (
	INT_PUTC   = 0x10 // Print B & 0xff as a character.
	INT_PRINTB = 0x11 // Print B in decimal, then a newline.
	INT_WAIT   = 0x12 // Wait B cycles.
	INT_RESET  = 0x13 // Reset the machine.
)

// INPUT_EOF is loaded into A by ina at the end of input.
const INPUT_EOF = 0xffff

// Cpu is the execution engine: registers, flags and a stack over a Memory
// that it owns.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory *Memory // Address space; owned by the Cpu.
	Base   uint16  // Instruction base, loaded into Pc by Reset.

	Pc       uint16 // Program counter.
	A        uint16 // Accumulator.
	B        uint16 // Second operand register.
	C        uint16 // Comparison register.
	Zero     bool   // Set by cmp when B == C.
	Negative bool   // Set by cmp when B < C.
	Stack    Stack  // Return addresses and saved registers.

	Ticks  int    // Instructions executed since the last reset.
	Status Status // Running, or why the machine stopped.

	Console Console // Print and input device; nil discards output.
	Clock   Clock   // Delay device; nil does not wait.
}

// NewCpu builds a Cpu from an assembled image, taking ownership of the
// image memory, and resets it to start at base.
func NewCpu(img *Image, base uint16) (cpu *Cpu, err error) {
	if img == nil || img.Memory == nil {
		err = ErrImageMissing
		return
	}

	cpu = &Cpu{
		Memory: img.Memory,
		Base:   base,
	}
	img.Memory = nil

	cpu.Reset()

	return
}

// Reset the machine state. Memory is left untouched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset, pc = 0x%04x", cpu.Base)
	}

	cpu.Pc = cpu.Base
	cpu.A = 0
	cpu.B = 0
	cpu.C = 0
	cpu.Zero = false
	cpu.Negative = false
	cpu.Stack.Reset()
	cpu.Ticks = 0
	cpu.Status = STATUS_RUNNING
}

// Running returns true if the machine can execute another instruction.
func (cpu *Cpu) Running() bool {
	return cpu.Status == STATUS_RUNNING
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	var text strings.Builder

	top := "----"
	value, ok := cpu.Stack.Peek()
	if ok {
		top = fmt.Sprintf("%04x", value)
	}

	fmt.Fprintf(&text, "   pc: %04x\n", cpu.Pc)
	fmt.Fprintf(&text, "    a: %04x\n", cpu.A)
	fmt.Fprintf(&text, "    b: %04x\n", cpu.B)
	fmt.Fprintf(&text, "    c: %04x\n", cpu.C)
	fmt.Fprintf(&text, "flags: %v\n", cpu.Flags())
	fmt.Fprintf(&text, "stack: %v (%d)\n", top, cpu.Stack.Depth())

	return text.String()
}

// Flags returns the flags as "zn", with '-' for each clear flag.
func (cpu *Cpu) Flags() string {
	flags := []byte("--")
	if cpu.Zero {
		flags[0] = 'z'
	}
	if cpu.Negative {
		flags[1] = 'n'
	}
	return string(flags)
}

// Fetch returns the byte at Pc, and advances Pc.
func (cpu *Cpu) Fetch() (value byte) {
	value = cpu.Memory[cpu.Pc]
	cpu.Pc++
	return
}

// Tick executes a single instruction.
func (cpu *Cpu) Tick() (err error) {
	if !cpu.Running() {
		err = ErrHalted
		return
	}

	pc := cpu.Pc
	op := Op(cpu.Fetch())

	defer func() {
		if err != nil {
			cpu.Status = STATUS_FAULTED
			err = errors.Join(ErrOpcode{Pc: pc, Byte: uint8(op)}, err)
		}
	}()

	ins, ok := op.Decode()
	if !ok {
		err = ErrOpcodeDecode
		return
	}

	args := DecodeArgs(ins.Shape, cpu.Fetch)
	if cpu.Verbose {
		log.Printf("%04x: %v", pc, FormatInstruction(ins, args))
	}

	cpu.Ticks++

	err = cpu.Execute(ins.Op, args)

	return
}

// register returns the register named by a register operand byte.
func (cpu *Cpu) register(name byte) (reg *uint16, err error) {
	switch name {
	case 'a':
		reg = &cpu.A
	case 'b':
		reg = &cpu.B
	case 'c':
		reg = &cpu.C
	default:
		err = ErrRegister(name)
	}
	return
}

// print writes text to the console, if there is one.
func (cpu *Cpu) print(text string) (err error) {
	if cpu.Console == nil {
		return
	}
	return cpu.Console.Print(text)
}

// wait delays through the clock, if there is one.
func (cpu *Cpu) wait(cycles uint16) {
	if cpu.Clock == nil {
		return
	}
	cpu.Clock.Wait(cycles)
}

// Execute executes a single decoded instruction. Pc must already point
// past its operands.
func (cpu *Cpu) Execute(op Op, args Args) (err error) {
	switch op {
	case OP_NOP:
	case OP_LDA:
		cpu.A = args.Imm
	case OP_LDB:
		cpu.B = args.Imm
	case OP_LDC:
		cpu.C = args.Imm
	case OP_ADD:
		cpu.A += cpu.B
	case OP_SUB:
		cpu.A -= cpu.B
	case OP_MUL:
		cpu.A *= cpu.B
	case OP_DIV:
		if cpu.B != 0 {
			cpu.A /= cpu.B
		}
	case OP_MOD:
		if cpu.B != 0 {
			cpu.A %= cpu.B
		}
	case OP_AND:
		cpu.A &= cpu.B
	case OP_OR:
		cpu.A |= cpu.B
	case OP_XOR:
		cpu.A ^= cpu.B
	case OP_NOT:
		cpu.A = ^cpu.A
	case OP_SHL:
		cpu.A <<= 1
	case OP_SHR:
		cpu.A >>= 1
	case OP_PRINTA:
		err = cpu.print(fmt.Sprintf("%d", cpu.A))
	case OP_PRINTC:
		err = cpu.print(string([]byte{uint8(cpu.A)}))
	case OP_PRINTR:
		var reg *uint16
		reg, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		err = cpu.print(fmt.Sprintf("%d", *reg))
	case OP_INA:
		cpu.A = INPUT_EOF
		if cpu.Console != nil {
			value, ok := cpu.Console.Read()
			if ok {
				cpu.A = uint16(value)
			}
		}
	case OP_INC:
		var reg *uint16
		reg, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		*reg++
	case OP_CMP:
		cpu.Zero = cpu.C == cpu.B
		cpu.Negative = cpu.B < cpu.C
	case OP_JMP:
		cpu.Pc = args.Addr
	case OP_JZ:
		if cpu.Zero {
			cpu.Pc = args.Addr
		}
	case OP_JNZ:
		if !cpu.Zero {
			cpu.Pc = args.Addr
		}
	case OP_JN:
		if cpu.Negative {
			cpu.Pc = args.Addr
		}
	case OP_JP:
		if !cpu.Negative && !cpu.Zero {
			cpu.Pc = args.Addr
		}
	case OP_JEQ:
		if cpu.B == cpu.C {
			cpu.Pc = args.Addr
		}
	case OP_JGT:
		if cpu.B > cpu.C {
			cpu.Pc = args.Addr
		}
	case OP_JLT:
		if cpu.B < cpu.C {
			cpu.Pc = args.Addr
		}
	case OP_CALL:
		err = cpu.push(cpu.Pc)
		if err != nil {
			return
		}
		cpu.Pc = args.Addr
	case OP_RET:
		value, ok := cpu.Stack.Pop()
		if ok {
			cpu.Pc = value
		}
	case OP_PUSH_A:
		err = cpu.push(cpu.A)
	case OP_PUSH_B:
		err = cpu.push(cpu.B)
	case OP_POP_A:
		value, ok := cpu.Stack.Pop()
		if ok {
			cpu.A = value
		}
	case OP_POP_B:
		value, ok := cpu.Stack.Pop()
		if ok {
			cpu.B = value
		}
	case OP_LOAD_A:
		value, ok := cpu.Memory.Read16(args.Addr)
		if ok {
			cpu.A = value
		}
	case OP_STORE_A:
		cpu.Memory.Write16(args.Addr, cpu.A)
	case OP_LOAD8_A:
		value, ok := cpu.Memory.Read8(args.Addr)
		if ok {
			cpu.A = uint16(value)
		}
	case OP_STORE8_A:
		cpu.Memory.Write8(args.Addr, uint8(cpu.A))
	case OP_MOV8_MEM_IMM:
		cpu.Memory.Write8(args.Addr, uint8(args.Imm))
	case OP_MOV_MEM_IMM:
		cpu.Memory.Write16(args.Addr, args.Imm)
	case OP_MOV_REG_IMM:
		var reg *uint16
		reg, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		*reg = args.Imm
	case OP_MOV_REG_REG:
		var dst, src *uint16
		dst, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		src, err = cpu.register(args.Reg[1])
		if err != nil {
			return
		}
		*dst = *src
	case OP_MOV_REG_MEM, OP_LOAD:
		var reg *uint16
		reg, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		value, ok := cpu.Memory.Read8(args.Addr)
		if ok {
			*reg = uint16(value)
		}
	case OP_MOV_REG_MEM2:
		var reg *uint16
		reg, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		value, ok := cpu.Memory.Read16(args.Addr)
		if ok {
			*reg = value
		}
	case OP_MOV_MEM_REG, OP_STORE:
		var reg *uint16
		reg, err = cpu.register(args.Reg[0])
		if err != nil {
			return
		}
		cpu.Memory.Write16(args.Addr, *reg)
	case OP_WAIT:
		cpu.wait(args.Imm)
	case OP_SYSCALL:
		err = cpu.syscall(cpu.A)
	case OP_INT:
		err = cpu.interrupt(uint8(args.Imm))
	case OP_RESET:
		cpu.Reset()
	case OP_HLT, OP_HALT:
		cpu.Status = STATUS_HALTED
	default:
		err = ErrOpcodeDecode
	}

	return
}

// push a value, faulting when the stack is full.
func (cpu *Cpu) push(value uint16) (err error) {
	if cpu.Stack.Full() {
		err = ErrStackFull
		return
	}
	cpu.Stack.Push(value)
	return
}

func (cpu *Cpu) syscall(num uint16) (err error) {
	switch num {
	case SYS_NOP:
	case SYS_WAIT:
		cpu.wait(cpu.B)
	case SYS_PRINTB:
		err = cpu.print(fmt.Sprintf("%d\n", cpu.B))
	case SYS_PRINTC:
		err = cpu.print(string([]byte{uint8(cpu.B)}))
	case SYS_EXIT:
		cpu.Status = STATUS_EXITED
	default:
		err = ErrSyscall(num)
	}
	return
}

func (cpu *Cpu) interrupt(num uint8) (err error) {
	switch num {
	case INT_PUTC:
		err = cpu.print(string([]byte{uint8(cpu.B)}))
	case INT_PRINTB:
		err = cpu.print(fmt.Sprintf("%d\n", cpu.B))
	case INT_WAIT:
		cpu.wait(cpu.B)
	case INT_RESET:
		cpu.Reset()
	default:
		err = ErrInterrupt(num)
	}
	return
}
