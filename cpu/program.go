package cpu

import (
	"iter"
	"slices"

	"github.com/ezrec/tinyvm/internal"
)

// Line is one assembled source line.
type Line struct {
	LineNo  int      // Source line number, from 1.
	Address uint16   // Address of the first emitted byte.
	Words   []string // Instruction words after expansion.
	Bytes   []byte   // Emitted bytes.
}

// Image is a fully assembled program: the memory it was assembled into,
// the span of emitted bytes, and the symbols and listing used to build it.
type Image struct {
	Memory  *Memory           // Assembled memory; owned by the Cpu once one is built.
	Origin  uint16            // Lowest address written.
	End     int               // One past the highest address written.
	Symbols map[string]uint16 // Label addresses.
	Listing []Line            // Emitting lines, in source order.
}

// NewImage builds an image from raw bytes loaded at origin.
func NewImage(data []byte, origin uint16) (img *Image) {
	img = &Image{
		Memory:  &Memory{},
		Origin:  origin,
		Symbols: map[string]uint16{},
	}
	n := copy(img.Memory[origin:], data)
	img.End = int(origin) + n

	return
}

// Binary returns the bytes from Origin to End.
func (img *Image) Binary() []byte {
	if img.Memory == nil {
		return nil
	}
	return slices.Clone(img.Memory.Bytes(int(img.Origin), img.End))
}

// Size returns the number of bytes spanned by the image.
func (img *Image) Size() int {
	return max(0, img.End-int(img.Origin))
}

// Debug returns the listing line whose bytes cover pc.
func (img *Image) Debug(pc uint16) (line *Line, index int) {
	for n := range img.Listing {
		ln := &img.Listing[n]
		if int(pc) >= int(ln.Address) && int(pc) < int(ln.Address)+len(ln.Bytes) {
			return ln, int(pc - ln.Address)
		}
	}

	return
}

// Labels returns the symbols ordered by address, then by name.
func (img *Image) Labels() iter.Seq2[string, uint16] {
	return internal.SortedByValue(img.Symbols)
}
