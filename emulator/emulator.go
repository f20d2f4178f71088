// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/internal"
	tvio "github.com/ezrec/tinyvm/io"
)

// Emulator state. Assembler + CPU + peripherals.
//
// The emulator is staged: a program is assembled completely into an image
// before a Cpu is built from it, so the assembler and the engine never
// share memory.
type Emulator struct {
	Verbose  bool   // If set, enables verbose logging.
	Base     uint16 // Instruction base the Cpu starts from.
	*cpu.Cpu        // Reference to the CPU simulation; nil until loaded.

	Assembler *cpu.Assembler // Assembler for Assemble.
	Image     *cpu.Image     // Currently loaded image.

	Tape  tvio.Tape  // Console device.
	Clock tvio.Clock // Delay device.
}

// NewEmulator creates a new emulator, with a real time clock.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Base:      cpu.DEFAULT_ORIGIN,
		Assembler: cpu.NewAssembler(),
		Clock:     &tvio.RealClock{},
	}

	return
}

// Defines returns an iterator over all of the predefined equates, by name.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Sorted2(emu.Assembler.Defines())
}

// Assemble a program from source, and load it.
// Nothing is loaded if the program has any assembly errors.
func (emu *Emulator) Assemble(source io.Reader) (err error) {
	emu.Assembler.Verbose = emu.Verbose

	img, err := emu.Assembler.Parse(source)
	if err != nil {
		return
	}

	err = emu.Load(img)
	return
}

// Load a fully assembled image, and reset the machine.
// The emulator takes ownership of the image memory.
func (emu *Emulator) Load(img *cpu.Image) (err error) {
	machine, err := cpu.NewCpu(img, emu.Base)
	if err != nil {
		return
	}

	machine.Verbose = emu.Verbose
	machine.Console = &emu.Tape
	machine.Clock = emu.Clock

	emu.Cpu = machine
	emu.Image = img
	emu.Tape.Rewind()

	if emu.Verbose {
		log.Printf("emulator: loaded %d bytes at 0x%04x", img.Size(), img.Origin)
	}

	return
}

// Loaded returns true if an image has been loaded.
func (emu *Emulator) Loaded() bool {
	return emu.Cpu != nil
}

// Close the emulator, dropping the loaded machine.
func (emu *Emulator) Close() (err error) {
	emu.Cpu = nil
	emu.Image = nil

	return
}

// Reset the machine state.
func (emu *Emulator) Reset() (err error) {
	if !emu.Loaded() {
		err = ErrNotLoaded
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Tape.Rewind()

	return
}

// LineNo returns the source line number for the instruction at pc, or 0.
func (emu *Emulator) LineNo(pc uint16) int {
	if emu.Image == nil {
		return 0
	}

	line, _ := emu.Image.Debug(pc)
	if line == nil {
		return 0
	}

	return line.LineNo
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	if !emu.Loaded() {
		err = ErrNotLoaded
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if !emu.Cpu.Running() {
		done = true
		return
	}

	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: emu.LineNo(pc), Pc: pc, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	done = !emu.Cpu.Running()

	return
}

// Run ticks the emulator until the machine stops, limit instructions have
// been executed, or the context is done. A limit of zero or less runs
// without an instruction ceiling.
func (emu *Emulator) Run(ctx context.Context, limit int) (err error) {
	for n := 0; limit <= 0 || n < limit; n++ {
		err = ctx.Err()
		if err != nil {
			return
		}

		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
	}

	err = ErrLimit
	return
}

// Status returns the machine status.
func (emu *Emulator) Status() cpu.Status {
	if !emu.Loaded() {
		return cpu.STATUS_HALTED
	}
	return emu.Cpu.Status
}

// String renders the machine state as a table.
func (emu *Emulator) String() string {
	if !emu.Loaded() {
		return ErrNotLoaded.Error()
	}

	top := "----"
	value, ok := emu.Cpu.Stack.Peek()
	if ok {
		top = fmt.Sprintf("%04x", value)
	}

	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("tinyvm %v", emu.Cpu.Status))
	tw.AppendHeader(table.Row{"pc", "a", "b", "c", "flags", "stack", "depth", "ticks"})
	tw.AppendRow(table.Row{
		fmt.Sprintf("%04x", emu.Cpu.Pc),
		fmt.Sprintf("%04x", emu.Cpu.A),
		fmt.Sprintf("%04x", emu.Cpu.B),
		fmt.Sprintf("%04x", emu.Cpu.C),
		emu.Cpu.Flags(),
		top,
		emu.Cpu.Stack.Depth(),
		emu.Cpu.Ticks,
	})

	return tw.Render()
}

// Symbols renders the symbol table of the loaded image, ordered by address.
func (emu *Emulator) Symbols() string {
	return SymbolTable(emu.Image)
}

// SymbolTable renders the symbols of img, ordered by address.
// A nil image renders an empty table.
func SymbolTable(img *cpu.Image) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"label", "address"})
	if img != nil {
		for label, addr := range img.Labels() {
			tw.AppendRow(table.Row{label, fmt.Sprintf("%04x", addr)})
		}
	}

	return tw.Render()
}
