package io

import (
	"io"
)

// Tape is a byte console over an io.Reader for input and an io.Writer for
// output. A nil Input reads as end of input; a nil Output discards.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	BytesOut int // Bytes written since the last Rewind.
	BytesIn  int // Bytes read since the last Rewind.
}

var _ Console = (*Tape)(nil)

// maxEmptyReads bounds consecutive (0, nil) reads before the input is
// treated as ended.
const maxEmptyReads = 100

// Rewind clears the tape counters. The underlying streams cannot be rewound.
func (tc *Tape) Rewind() {
	tc.BytesOut = 0
	tc.BytesIn = 0
}

// Print writes text to the output stream.
func (tc *Tape) Print(text string) (err error) {
	if tc.Output == nil {
		return
	}

	n, err := io.WriteString(tc.Output, text)
	tc.BytesOut += n

	return
}

// Read reads a single byte from the input stream.
func (tc *Tape) Read() (value byte, ok bool) {
	if tc.Input == nil {
		return
	}

	var one [1]byte
	for range maxEmptyReads {
		n, err := tc.Input.Read(one[:])
		if n == 1 {
			tc.BytesIn++
			return one[0], true
		}
		if err != nil {
			return
		}
	}

	return
}
