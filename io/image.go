package io

import (
	"fmt"
	"io"
	"io/fs"
)

// WriteImage writes a raw binary image. The image has no header; its load
// address must be supplied again when it is read back.
func WriteImage(w io.Writer, data []byte) (err error) {
	_, err = w.Write(data)
	return
}

// ReadImage reads a raw binary image of at most limit bytes.
func ReadImage(r io.Reader, limit int) (data []byte, err error) {
	data, err = io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return
	}
	if len(data) > limit {
		err = ErrImageTooLarge
		data = nil
	}
	return
}

// SaveImage writes a raw binary image to name in filesys.
func SaveImage(filesys CreateFS, name string, data []byte) (err error) {
	file, err := filesys.Create(name)
	if err != nil {
		return
	}
	defer func() {
		cerr := file.Close()
		if err == nil {
			err = cerr
		}
	}()

	err = WriteImage(file, data)
	return
}

// LoadImage reads a raw binary image of at most limit bytes from name in filesys.
func LoadImage(filesys fs.FS, name string, limit int) (data []byte, err error) {
	file, err := filesys.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	return ReadImage(file, limit)
}

// HexDump writes data, loaded at base, as lines of perLine bytes:
// the address, the bytes in hex, then their printable ASCII.
func HexDump(w io.Writer, base uint16, data []byte, perLine int) (err error) {
	if perLine <= 0 {
		perLine = 16
	}

	for off := 0; off < len(data); off += perLine {
		row := data[off:min(off+perLine, len(data))]

		_, err = fmt.Fprintf(w, "%04x: ", int(base)+off)
		if err != nil {
			return
		}
		for _, b := range row {
			fmt.Fprintf(w, "%02x ", b)
		}

		ascii := make([]byte, len(row))
		for n, b := range row {
			if b >= 0x20 && b < 0x7f {
				ascii[n] = b
			} else {
				ascii[n] = '.'
			}
		}
		_, err = fmt.Fprintf(w, " | %s\n", ascii)
		if err != nil {
			return
		}
	}

	return
}
