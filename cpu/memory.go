package cpu

const (
	MEMORY_SIZE    = 0x10000 // Addressable bytes.
	DEFAULT_ORIGIN = 0x9000  // Default assembly origin and instruction base.
)

// Memory is the flat, byte addressable address space.
type Memory [MEMORY_SIZE]byte

// inRange reports whether span bytes starting at addr all lie below MEMORY_SIZE.
func inRange(addr uint16, span int) bool {
	return int(addr)+span <= MEMORY_SIZE
}

// Read8 reads a byte.
func (mem *Memory) Read8(addr uint16) (value uint8, ok bool) {
	if !inRange(addr, 1) {
		return
	}
	return mem[addr], true
}

// Write8 writes a byte.
func (mem *Memory) Write8(addr uint16, value uint8) (ok bool) {
	if !inRange(addr, 1) {
		return
	}
	mem[addr] = value
	return true
}

// Read16 reads a big-endian 16-bit value. Nothing is read if the second
// byte would lie outside of the address space.
func (mem *Memory) Read16(addr uint16) (value uint16, ok bool) {
	if !inRange(addr, 2) {
		return
	}
	return uint16(mem[addr])<<8 | uint16(mem[addr+1]), true
}

// Write16 writes a big-endian 16-bit value. Nothing is written if the
// second byte would lie outside of the address space.
func (mem *Memory) Write16(addr uint16, value uint16) (ok bool) {
	if !inRange(addr, 2) {
		return
	}
	mem[addr] = uint8(value >> 8)
	mem[addr+1] = uint8(value)
	return true
}

// Bytes returns the memory in [start, end).
func (mem *Memory) Bytes(start, end int) []byte {
	start = max(0, min(start, MEMORY_SIZE))
	end = max(start, min(end, MEMORY_SIZE))
	return mem[start:end]
}
