package cpu

import (
	"errors"

	"github.com/ezrec/tinyvm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted       = errors.New(f("cpu halted"))
	ErrStackFull    = errors.New(f("stack full"))
	ErrOpcodeDecode = errors.New(f("decode"))
	ErrImageMissing = errors.New(f("image missing"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOriginSyntax       = errors.New(f(".org syntax"))
	ErrDataSyntax         = errors.New(f(".db syntax"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrInstructionSize    = errors.New(f("instruction size unknown"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrOperandExtra       = errors.New(f("excessive operands"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
)

// Severity of an assembler diagnostic.
type Severity int

//go:generate go tool stringer -linecomment -type=Severity
const (
	SEVERITY_WARNING = Severity(0) // warning
	SEVERITY_ERROR   = Severity(1) // error
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrOriginMoved indicates an origin directive whose address changed
// between the passes.
type ErrOriginMoved struct {
	Address uint16 // Address in the first pass.
	Moved   uint16 // Address in the second pass.
}

func (err ErrOriginMoved) Error() string {
	return f(".org moved from 0x%04x to 0x%04x", err.Address, err.Moved)
}

func (err ErrOriginMoved) Unwrap() error {
	return ErrOriginSyntax
}

// ErrValueRange reports a number too large for its operand.
type ErrValueRange struct {
	Word string
	Bits int
}

func (err ErrValueRange) Error() string {
	return f("'%v' does not fit in %v bits", err.Word, err.Bits)
}

// ErrSyntax locates an assembler diagnostic.
type ErrSyntax struct {
	LineNo   int
	Line     string
	Severity Severity
	Err      error
}

func (err ErrSyntax) Error() string {
	return f("line %v '%v' %v: %v", err.LineNo, err.Line, err.Severity.String(), err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrOpcode locates a runtime fault at the instruction starting at Pc.
type ErrOpcode struct {
	Pc   uint16
	Byte uint8
}

func (eo ErrOpcode) Error() string {
	return f("opcode 0x%02x (%v) at 0x%04x", eo.Byte, Op(eo.Byte).String(), eo.Pc)
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrRegister byte

func (er ErrRegister) Error() string {
	return f("register '%c' (0x%02x) invalid", rune(er), byte(er))
}

type ErrSyscall uint16

func (es ErrSyscall) Error() string {
	return f("syscall 0x%02x unknown", uint16(es))
}

type ErrInterrupt uint8

func (ei ErrInterrupt) Error() string {
	return f("interrupt 0x%02x unknown", uint8(ei))
}
