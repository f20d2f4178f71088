package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/tinyvm/cpu"
	"github.com/ezrec/tinyvm/io"
)

var (
	dumpOrigin uint16
	dumpHex    bool
)

// dumpCmd disassembles a raw image.
var dumpCmd = &cobra.Command{
	Use:   "dump imageFile",
	Short: "Disassemble a raw binary image",
	Long: `Dump lists every instruction of a raw image, which has no header, so
its load address must be given again with -O.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, name, err := openFS(args[0])
		if err != nil {
			fatalf("%v: %v", args[0], err)
		}

		data, err := io.LoadImage(io.DirFS(dir), name, cpu.MEMORY_SIZE-int(dumpOrigin))
		if err != nil {
			fatalf("%v: %v", args[0], err)
		}

		if dumpHex {
			err = io.HexDump(os.Stdout, dumpOrigin, data, 16)
		} else {
			err = cpu.DisassembleAll(data, dumpOrigin, os.Stdout)
		}
		if err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	dumpCmd.Flags().Uint16VarP(&dumpOrigin, "origin", "O", cpu.DEFAULT_ORIGIN, "Load address of the image")
	dumpCmd.Flags().BoolVarP(&dumpHex, "hex", "x", false, "Print a hex dump instead")
	rootCmd.AddCommand(dumpCmd)
}
