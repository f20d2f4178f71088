package translate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("label loop missing", From("label %v missing", "loop"))
	assert.Equal("register 'x' invalid", From("register '%v' invalid", "x"))
}

func TestFprintf(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	n, err := Fprintf(buf, "unknown %v", "opcode")
	assert.NoError(err)
	assert.Equal(14, n)
	assert.Equal("unknown opcode", buf.String())

	_, err = Fprintf(nil, "nothing")
	assert.Error(err)
}
