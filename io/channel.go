// Package io provides the peripherals of the tinyvm machine: the byte
// console (Tape), the delay capability (Clock), and raw image persistence
// and hex dumps.
package io

// Console is the character device behind the print and input instructions.
type Console interface {
	// Print writes text to the console output.
	Print(text string) error
	// Read returns the next input byte, or ok == false at end of input.
	Read() (value byte, ok bool)
}

// Clock provides the machine's timed delays.
type Clock interface {
	// Wait delays for the given number of machine cycles.
	Wait(cycles uint16)
}
