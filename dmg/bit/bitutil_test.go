package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.Equal(t, uint16(0x1234), Combine(0x12, 0x34))
}

func TestIsSet(t *testing.T) {
	assert.True(t, IsSet(0, 0x01))
	assert.False(t, IsSet(0, 0xFE))
	assert.True(t, IsSet(7, 0x80))
}

func TestIsSet16(t *testing.T) {
	assert.True(t, IsSet16(9, 0x0200))
	assert.False(t, IsSet16(9, 0x0100))
}

func TestSetReset(t *testing.T) {
	assert.Equal(t, uint8(0x81), Set(7, 0x01))
	assert.Equal(t, uint8(0x01), Reset(7, 0x81))
}

func TestGetBitValue(t *testing.T) {
	assert.Equal(t, uint8(1), GetBitValue(3, 0x08))
	assert.Equal(t, uint8(0), GetBitValue(3, 0xF7))
}

func TestLowHigh(t *testing.T) {
	assert.Equal(t, uint8(0x34), Low(0x1234))
	assert.Equal(t, uint8(0x12), High(0x1234))
}

func TestExtractBits(t *testing.T) {
	assert.Equal(t, uint8(0b101), ExtractBits(0b11010110, 6, 4))
	assert.Equal(t, uint8(0b1), ExtractBits(0xFF, 0, 0))
	assert.Equal(t, uint8(0xFF), ExtractBits(0xFF, 7, 0))
}
