package emulator

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/io"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.False(emu.Loaded())
	assert.Nil(emu.Cpu)
	assert.Equal(uint16(cpu.DEFAULT_ORIGIN), emu.Base)
	assert.IsType(&io.RealClock{}, emu.Clock)

	_, err := emu.Tick()
	assert.ErrorIs(err, ErrNotLoaded)
	assert.ErrorIs(emu.Reset(), ErrNotLoaded)
	assert.ErrorIs(emu.Run(context.Background(), 10), ErrNotLoaded)

	defines := maps.Collect(emu.Defines())
	assert.Equal("0x9000", defines["ORIGIN"])
	assert.Equal("0x1", defines["SYS_WAIT"])
}

func doLoad(emu *Emulator, program []string, input string, t *testing.T) (output *bytes.Buffer) {
	assert := assert.New(t)

	emu.Clock = &io.VirtualClock{}
	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	output = &bytes.Buffer{}
	emu.Tape.Input = strings.NewReader(input)
	emu.Tape.Output = output

	return
}

func TestEmulator_Tick(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"lda 10",
		"ldb 3",
		"; sum",
		"add",
		"printa",
		"halt",
	}

	emu := NewEmulator()
	output := doLoad(emu, program, "", t)

	listing := emu.Image.Listing
	for n, line := range listing {
		assert.Equal(line.Address, emu.Cpu.Pc)
		assert.Equal(line.LineNo, emu.LineNo(emu.Cpu.Pc))

		done, err := emu.Tick()
		assert.NoError(err, program[line.LineNo-1])
		assert.Equal(n == len(listing)-1, done, program[line.LineNo-1])
	}

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)

	assert.Equal("13", output.String())
	assert.Equal(cpu.STATUS_HALTED, emu.Status())
	assert.Equal(2, emu.Tape.BytesOut)
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        ldc 3",
		"        ldb 0",
		"loop:   inc b",
		"        push_b",
		"        call show",
		"        pop_b",
		"        jlt loop",
		"        lda SYS_EXIT",
		"        syscall",
		"show:   ina",
		"        printc",
		"        lda SYS_PRINTB",
		"        syscall",
		"        ret",
	}

	emu := NewEmulator()
	output := doLoad(emu, program, "xyz", t)

	err := emu.Run(context.Background(), 1000)
	assert.NoError(err)
	assert.Equal("x1\ny2\nz3\n", output.String())
	assert.Equal(cpu.STATUS_EXITED, emu.Status())
	assert.Equal(3, emu.Tape.BytesIn)

	// A reset restarts the program over the same memory.
	assert.NoError(emu.Reset())
	assert.Equal(cpu.STATUS_RUNNING, emu.Status())
	output.Reset()
	emu.Tape.Input = strings.NewReader("abc")
	assert.NoError(emu.Run(context.Background(), 0))
	assert.Equal("a1\nb2\nc3\n", output.String())
}

func TestEmulator_Limit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doLoad(emu, []string{"loop: jmp loop"}, "", t)

	err := emu.Run(context.Background(), 25)
	assert.ErrorIs(err, ErrLimit)
	assert.Equal(25, emu.Cpu.Ticks)
	assert.Equal(cpu.STATUS_RUNNING, emu.Status())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = emu.Run(ctx, 0)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(25, emu.Cpu.Ticks)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"lda 1",
		"",
		"lda 0x42",
		"syscall",
	}

	emu := NewEmulator()
	doLoad(emu, program, "", t)

	err := emu.Run(context.Background(), 100)

	var rt *ErrRuntime
	if assert.ErrorAs(err, &rt) {
		assert.Equal(4, rt.LineNo)
		assert.Equal(uint16(0x9006), rt.Pc)
	}
	assert.ErrorIs(err, cpu.ErrSyscall(0x42))
	assert.Equal(cpu.STATUS_FAULTED, emu.Status())

	done, err := emu.Tick()
	assert.True(done)
	assert.NoError(err)
}

func TestEmulator_Load(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Clock = &io.VirtualClock{}
	output := &bytes.Buffer{}
	emu.Tape.Output = output

	img := cpu.NewImage([]byte{0x01, 0x00, 0x2a, 0x08, 0xff}, emu.Base)
	assert.NoError(emu.Load(img))
	assert.True(emu.Loaded())
	assert.Nil(img.Memory)

	assert.ErrorIs(emu.Load(img), cpu.ErrImageMissing)

	assert.NoError(emu.Run(context.Background(), 10))
	assert.Equal("42", output.String())
	assert.Equal(0, emu.LineNo(emu.Base))

	assert.NoError(emu.Close())
	assert.False(emu.Loaded())
}

func TestEmulator_AssembleErrors(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	err := emu.Assemble(strings.NewReader("lda 1\nfrob\nhalt"))
	assert.ErrorIs(err, cpu.ErrInstructionInvalid)
	assert.False(emu.Loaded())

	var syntax cpu.ErrSyntax
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(2, syntax.LineNo)
	}
}

func TestEmulator_String(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assert.Equal(ErrNotLoaded.Error(), emu.String())

	doLoad(emu, []string{"start: lda 0x1234", "push_a", "end: halt"}, "", t)
	assert.NoError(emu.Run(context.Background(), 10))

	text := emu.String()
	assert.Contains(text, "9005")
	assert.Contains(text, "1234")
	assert.Contains(text, "--")

	symbols := emu.Symbols()
	assert.Contains(symbols, "start")
	assert.Contains(symbols, "9004")
	assert.Less(strings.Index(symbols, "start"), strings.Index(symbols, "end"))
	assert.Equal(SymbolTable(emu.Image), symbols)
}

func TestSymbolTable(t *testing.T) {
	assert := assert.New(t)

	img := &cpu.Image{Symbols: map[string]uint16{"loop": 0x9003, "entry": 0x9000}}
	text := SymbolTable(img)
	assert.Contains(text, "9003")
	assert.Less(strings.Index(text, "entry"), strings.Index(text, "loop"))

	empty := SymbolTable(nil)
	assert.Contains(strings.ToLower(empty), "label")
	assert.NotContains(empty, "9000")
}
