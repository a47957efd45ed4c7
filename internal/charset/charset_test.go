package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode_CP437Default(t *testing.T) {
	// 0x82 is 'é' in CP-437.
	got := Decode([]byte{0x82}, nil)
	assert.Equal(t, "é", got)
}

func TestDecode_ASCIIPassthrough(t *testing.T) {
	got := Decode([]byte("hello.txt"), nil)
	assert.Equal(t, "hello.txt", got)
}

func TestDecode_Windows1252(t *testing.T) {
	// 0xE9 is 'é' in windows-1252.
	got := Decode([]byte{0xE9}, Windows1252)
	assert.Equal(t, "é", got)
}
