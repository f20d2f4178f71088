package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/emulator"
	"github.com/ezrec/tinyvm/io"
	"github.com/ezrec/tinyvm/translate"
)

var (
	asmOutput  string
	asmSymbols bool
	asmOrigin  uint16
	asmDefines map[string]string
)

// asmCmd assembles a source file into a raw image.
var asmCmd = &cobra.Command{
	Use:   "asm sourceFile",
	Short: "Assemble a program into a raw binary image",
	Long: `Asm assembles exactly one source file.

With -o, the bytes from the lowest to the highest address written are saved
as a raw image with no header. Without it, a hex dump is printed instead.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]

		inf, err := os.Open(source)
		if err != nil {
			fatalf("%v", err)
		}
		defer inf.Close()

		asm := cpu.NewAssembler()
		asm.Verbose = verbose
		asm.Origin = asmOrigin
		for equ, value := range asmDefines {
			asm.Predefine(equ, value)
		}

		img, err := asm.Parse(inf)
		for _, diag := range asm.Diagnostics {
			if diag.Severity == cpu.SEVERITY_WARNING {
				fmt.Fprintf(os.Stderr, "%v: %v\n", source, diag)
			}
		}
		if err != nil {
			fatalf("%v: %v", source, err)
		}

		if asmSymbols {
			fmt.Println(emulator.SymbolTable(img))
		}

		if len(asmOutput) == 0 {
			err = io.HexDump(os.Stdout, img.Origin, img.Binary(), 16)
			if err != nil {
				fatalf("%v", err)
			}
			return
		}

		dir, name, err := openFS(asmOutput)
		if err != nil {
			fatalf("%v: %v", asmOutput, err)
		}
		err = io.SaveImage(io.DirFS(dir), name, img.Binary())
		if err != nil {
			fatalf("%v: %v", asmOutput, err)
		}

		if verbose {
			translate.Fprintf(os.Stderr, "%v: %v bytes at 0x%04x\n", asmOutput, img.Size(), img.Origin)
		}
	},
}

func init() {
	asmCmd.Flags().StringVarP(&asmOutput, "output", "o", "", "Raw image to write")
	asmCmd.Flags().BoolVarP(&asmSymbols, "symbols", "s", false, "Print the symbol table")
	asmCmd.Flags().Uint16VarP(&asmOrigin, "origin", "O", cpu.DEFAULT_ORIGIN, "Assembly origin")
	asmCmd.Flags().StringToStringVarP(&asmDefines, "define", "D", nil, "Predefine an equate, NAME=VALUE")
	rootCmd.AddCommand(asmCmd)
}
