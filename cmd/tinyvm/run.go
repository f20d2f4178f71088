package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"golang.org/x/term"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/emulator"
)

var (
	runLimit  int
	runBase   uint16
	runOrigin uint16
	runRaw    bool
	runInput  string
	runState  bool
)

// runCmd assembles a source file, then executes it.
var runCmd = &cobra.Command{
	Use:   "run sourceFile",
	Short: "Assemble and execute a program",
	Long: `Run assembles exactly one source file, loads it, and executes it from
the instruction base until it halts, faults, reaches the instruction limit,
or is interrupted.

Console output goes to stdout. Console input comes from stdin, or from the
file given with -i. With --raw and a terminal on stdin, the terminal is put
in raw mode so that ina sees every key press.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]

		emu := emulator.NewEmulator()
		emu.Verbose = verbose
		emu.Base = runBase
		emu.Assembler.Origin = runOrigin

		inf, err := os.Open(source)
		if err != nil {
			fatalf("%v", err)
		}
		err = emu.Assemble(inf)
		inf.Close()
		for _, diag := range emu.Assembler.Diagnostics {
			if diag.Severity == cpu.SEVERITY_WARNING {
				fmt.Fprintf(os.Stderr, "%v: %v\n", source, diag)
			}
		}
		if err != nil {
			fatalf("%v: %v", source, err)
		}
		if verbose {
			fmt.Fprintln(os.Stderr, emu.Symbols())
		}

		emu.Tape.Output = os.Stdout
		if len(runInput) == 0 || runInput == "-" {
			emu.Tape.Input = os.Stdin
		} else {
			tape, err := os.Open(runInput)
			if err != nil {
				fatalf("%v", err)
			}
			atexit.Register(func() { tape.Close() })
			emu.Tape.Input = tape
		}

		fd := int(os.Stdin.Fd())
		if runRaw && term.IsTerminal(fd) {
			oldState, err := term.MakeRaw(fd)
			if err != nil {
				fatalf("raw mode: %v", err)
			}
			atexit.Register(func() { _ = term.Restore(fd, oldState) })
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		err = emu.Run(ctx, runLimit)

		if runState {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, emu.String())
		}

		if err != nil {
			fatalf("%v: %v", source, err)
		}
	},
}

func init() {
	runCmd.Flags().IntVarP(&runLimit, "limit", "l", 10_000_000, "Instruction limit, 0 for none")
	runCmd.Flags().Uint16VarP(&runBase, "base", "b", cpu.DEFAULT_ORIGIN, "Instruction base")
	runCmd.Flags().Uint16VarP(&runOrigin, "origin", "O", cpu.DEFAULT_ORIGIN, "Assembly origin")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "Put a terminal stdin in raw mode")
	runCmd.Flags().StringVarP(&runInput, "input", "i", "-", "Console input")
	runCmd.Flags().BoolVarP(&runState, "state", "S", true, "Print the final machine state")
	rootCmd.AddCommand(runCmd)
}
