package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmgcore/dmgcore/dmg/memory"
)

func newTestCPU() *CPU {
	return New(memory.New())
}

func TestInc_halfCarryOnNibbleRollover(t *testing.T) {
	c := newTestCPU()
	c.b = 0x0F

	c.inc(&c.b)

	assert.Equal(t, uint8(0x10), c.b)
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.False(t, c.isSetFlag(zeroFlag))
	assert.False(t, c.isSetFlag(subFlag))
}

func TestInc_zeroFlagOnWraparound(t *testing.T) {
	c := newTestCPU()
	c.b = 0xFF

	c.inc(&c.b)

	assert.Equal(t, uint8(0x00), c.b)
	assert.True(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.isSetFlag(halfCarryFlag))
}

func TestInc_doesNotTouchCarryFlag(t *testing.T) {
	c := newTestCPU()
	c.setFlag(carryFlag)
	c.b = 0x01

	c.inc(&c.b)

	assert.True(t, c.isSetFlag(carryFlag))
}

func TestDec_halfCarryOnNibbleBorrow(t *testing.T) {
	c := newTestCPU()
	c.b = 0x10

	c.dec(&c.b)

	assert.Equal(t, uint8(0x0F), c.b)
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.True(t, c.isSetFlag(subFlag))
}

func TestAddToA_setsCarryAndHalfCarry(t *testing.T) {
	c := newTestCPU()
	c.a = 0xF0

	c.addToA(0x20, false)

	assert.Equal(t, uint8(0x10), c.a)
	assert.True(t, c.isSetFlag(carryFlag))
	assert.False(t, c.isSetFlag(halfCarryFlag))
	assert.False(t, c.isSetFlag(subFlag))
}

func TestAddToA_withCarryIncludesCarryIn(t *testing.T) {
	c := newTestCPU()
	c.a = 0x01
	c.setFlag(carryFlag)

	c.addToA(0x01, true)

	assert.Equal(t, uint8(0x03), c.a)
}

func TestSub_setsBorrowFlags(t *testing.T) {
	c := newTestCPU()
	c.a = 0x10

	c.sub(0x01, false)

	assert.Equal(t, uint8(0x0F), c.a)
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.True(t, c.isSetFlag(subFlag))
	assert.False(t, c.isSetFlag(carryFlag))
}

func TestCp_leavesAUnchanged(t *testing.T) {
	c := newTestCPU()
	c.a = 0x42

	c.cp(0x42)

	assert.Equal(t, uint8(0x42), c.a)
	assert.True(t, c.isSetFlag(zeroFlag))
}

func TestAnd_alwaysSetsHalfCarry(t *testing.T) {
	c := newTestCPU()
	c.a = 0xFF

	c.and(0x0F)

	assert.Equal(t, uint8(0x0F), c.a)
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.False(t, c.isSetFlag(carryFlag))
}

func TestXor_selfClearsToZero(t *testing.T) {
	c := newTestCPU()
	c.a = 0x55

	c.xor(0x55)

	assert.Equal(t, uint8(0x00), c.a)
	assert.True(t, c.isSetFlag(zeroFlag))
	assert.False(t, c.isSetFlag(halfCarryFlag))
}

func TestAddToHL_doesNotTouchZeroFlag(t *testing.T) {
	c := newTestCPU()
	c.setFlag(zeroFlag)
	c.setHL(0xFFFF)

	c.addToHL(0x0001)

	assert.Equal(t, uint16(0x0000), c.getHL())
	assert.True(t, c.isSetFlag(zeroFlag), "16-bit ADD never touches Z")
	assert.True(t, c.isSetFlag(carryFlag))
}

func TestDaa_correctsAfterBCDAddition(t *testing.T) {
	c := newTestCPU()
	// 0x45 + 0x38 = 0x7D in binary, 83 in BCD; that ADD leaves N, H and C clear
	c.a = 0x7D
	c.f = 0

	c.daa()

	assert.Equal(t, uint8(0x83), c.a)
	assert.False(t, c.isSetFlag(carryFlag))
}

func TestDaa_correctsAfterBCDSubtraction(t *testing.T) {
	c := newTestCPU()
	c.a = 0x7D
	c.f = 0
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)

	c.daa()

	// subtracting 0x06 compensates for the half-carry adjustment
	assert.Equal(t, uint8(0x77), c.a)
}

func TestRlc_carriesBit7IntoBit0AndFlag(t *testing.T) {
	c := newTestCPU()
	c.b = 0x85 // 1000_0101

	c.rlc(&c.b)

	assert.Equal(t, uint8(0x0B), c.b) // 0000_1011
	assert.True(t, c.isSetFlag(carryFlag))
}

func TestSra_preservesSignBit(t *testing.T) {
	c := newTestCPU()
	c.b = 0x81 // 1000_0001

	c.sra(&c.b)

	assert.Equal(t, uint8(0xC0), c.b) // bit 7 preserved, bit 0 into carry
	assert.True(t, c.isSetFlag(carryFlag))
}

func TestSrl_clearsBit7(t *testing.T) {
	c := newTestCPU()
	c.b = 0x81

	c.srl(&c.b)

	assert.Equal(t, uint8(0x40), c.b)
	assert.True(t, c.isSetFlag(carryFlag))
}

func TestSwap_swapsNibblesAndAlwaysClearsCarry(t *testing.T) {
	c := newTestCPU()
	c.setFlag(carryFlag)
	c.b = 0xAB

	c.swap(&c.b)

	assert.Equal(t, uint8(0xBA), c.b)
	assert.False(t, c.isSetFlag(carryFlag))
}

func TestTestBit_setsZeroWhenBitClear(t *testing.T) {
	c := newTestCPU()

	c.testBit(3, 0xF7) // bit 3 clear

	assert.True(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.False(t, c.isSetFlag(subFlag))
}

func TestJr_handlesNegativeOffset(t *testing.T) {
	c := newTestCPU()
	mmu := memory.New()
	c.memory = mmu
	c.pc = 0xC010
	mmu.Write(0xC010, 0xFE) // -2

	c.jr()

	assert.Equal(t, uint16(0xC00F), c.pc)
}
