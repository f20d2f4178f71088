// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command tinyvm assembles, runs and disassembles tinyvm programs.
package main

import (
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tinyvm",
	Short: "Assembler and emulator for the tinyvm machine",
	Long: `Tinyvm is a small 16-bit machine with an 8-bit opcode instruction set
over a 64KiB address space.

Programs are assembled in two passes into an image, which is then loaded
at the instruction base (0x9000 by default) and executed.
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
}

// fatalf logs a message, runs the exit handlers, and exits.
func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	atexit.Exit(1)
}

// openFS splits a host path into a file system and a name inside it.
func openFS(path string) (dir string, name string, err error) {
	path, err = filepath.Abs(path)
	if err != nil {
		return
	}
	return filepath.Dir(path), filepath.Base(path), nil
}

func main() {
	log.SetFlags(0)

	err := rootCmd.Execute()
	if err != nil {
		fatalf("%v", err)
	}

	atexit.Exit(0)
}
