package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}

	assert.True(mem.Write16(0x8000, 0x1234))
	assert.Equal(uint8(0x12), mem[0x8000])
	assert.Equal(uint8(0x34), mem[0x8001])

	value, ok := mem.Read16(0x8000)
	assert.True(ok)
	assert.Equal(uint16(0x1234), value)

	b, ok := mem.Read8(0x8001)
	assert.True(ok)
	assert.Equal(uint8(0x34), b)

	assert.True(mem.Write8(0xffff, 0x5a))
	b, ok = mem.Read8(0xffff)
	assert.True(ok)
	assert.Equal(uint8(0x5a), b)
}

func TestMemory_Bounds(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem[0xffff] = 0x77

	// A 16-bit access at the last byte would span past the end.
	assert.False(mem.Write16(0xffff, 0x1234))
	assert.Equal(uint8(0x77), mem[0xffff])
	assert.Equal(uint8(0), mem[0])

	value, ok := mem.Read16(0xffff)
	assert.False(ok)
	assert.Equal(uint16(0), value)

	value, ok = mem.Read16(0xfffe)
	assert.True(ok)
	assert.Equal(uint16(0x0077), value)
}

func TestMemory_Bytes(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem[0x9000] = 1
	mem[0x9001] = 2

	assert.Equal([]byte{1, 2}, mem.Bytes(0x9000, 0x9002))
	assert.Equal(0, len(mem.Bytes(0x9002, 0x9000)))
	assert.Equal(1, len(mem.Bytes(0xffff, 0x20000)))
	assert.Equal(2, len(mem.Bytes(-2, 2)))
}
