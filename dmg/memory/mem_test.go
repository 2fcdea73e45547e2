package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmgcore/dmgcore/dmg/addr"
)

func TestEchoRAM_mirrorsWorkRAM(t *testing.T) {
	m := New()
	m.Write(0xC000, 0x55)
	assert.Equal(t, uint8(0x55), m.Read(0xE000))

	m.Write(0xE010, 0xAA)
	assert.Equal(t, uint8(0xAA), m.Read(0xC010))
}

func TestUnusableRegion_readsOpenBusAndIgnoresWrites(t *testing.T) {
	m := New()
	m.Write(addr.OAMEnd+1, 0x12)
	assert.Equal(t, uint8(0xFF), m.Read(addr.OAMEnd+1))
	assert.Equal(t, uint8(0xFF), m.Read(0xFEFF))
}

func TestLY_isReadOnlyToGuest(t *testing.T) {
	m := New()
	m.PokeRegister(addr.LY, 10)
	m.Write(addr.LY, 99)
	assert.Equal(t, uint8(10), m.Read(addr.LY))
}

func TestSTAT_writePreservesLowBits(t *testing.T) {
	m := New()
	m.PokeRegister(addr.STAT, 0x03) // mode=3, LYC flag set
	m.Write(addr.STAT, 0x78)
	assert.Equal(t, uint8(0x7B), m.Read(addr.STAT), "mode/LYC bits kept, interrupt-enable bits set")
}

func TestDMA_copiesOneHundredSixtyBytesOverTicks(t *testing.T) {
	m := New()
	for i := 0; i < dmaLength; i++ {
		m.Write(0xC000+uint16(i), byte(i))
	}

	m.Write(addr.DMA, 0xC0)
	assert.True(t, m.dmaActive)

	m.Tick(dmaLength)
	assert.False(t, m.dmaActive)

	for i := 0; i < dmaLength; i++ {
		assert.Equal(t, byte(i), m.Read(addr.OAMStart+uint16(i)))
	}
}

func TestJoypad_directionAndButtonGroupsAndCombine(t *testing.T) {
	m := New()
	m.Joypad.Press(JoypadA)
	m.Joypad.Press(JoypadRight)

	m.Write(addr.P1, 0x10) // bit 4 high, bit 5 low: select buttons
	assert.Equal(t, uint8(0x0E), m.Read(addr.P1)&0x0F, "A pressed clears bit 0 of the button nibble")

	m.Write(addr.P1, 0x20) // bit 4 low, bit 5 high: select d-pad
	assert.Equal(t, uint8(0x0E), m.Read(addr.P1)&0x0F, "Right pressed clears bit 0 of the d-pad nibble")

	m.Write(addr.P1, 0x00) // select both: AND-combined
	assert.Equal(t, uint8(0x0E), m.Read(addr.P1)&0x0F)
}

func TestJoypad_pressRequestsInterruptOnlyOnFallingEdge(t *testing.T) {
	m := New()
	m.Write(addr.P1, 0x20) // bit 4 low: select d-pad
	m.Joypad.Press(JoypadUp)
	assert.NotEqual(t, uint8(0), m.Read(addr.IF)&uint8(addr.JoypadInterrupt))

	m.Write(addr.IF, 0)
	m.Joypad.Press(JoypadUp) // already pressed: no new edge
	assert.Equal(t, uint8(0), m.Read(addr.IF)&uint8(addr.JoypadInterrupt))
}

func romOfSize(n int, headerBytes map[int]byte) []byte {
	rom := make([]byte, n)
	for i, b := range headerBytes {
		rom[i] = b
	}
	return rom
}

func TestCartridge_headerParsing(t *testing.T) {
	data := romOfSize(0x8000, map[int]byte{
		0x0134: 'T', 0x0135: 'E', 0x0136: 'S', 0x0137: 'T',
		0x0147: 0x03, // MBC1+RAM+BATTERY
		0x0148: 0x00, // 32KB, 2 banks
		0x0149: 0x02, // 8KB RAM
	})
	cart, err := NewCartridgeWithData(data)
	assert.NoError(t, err)
	assert.Equal(t, "TEST", cart.Title)
	assert.Equal(t, MBC1Kind, cart.Kind)
	assert.True(t, cart.HasBattery)
	assert.Equal(t, 8*1024, cart.RAMSize)
}

func TestCartridge_tooShortIsAnError(t *testing.T) {
	_, err := NewCartridgeWithData(make([]byte, 0x10))
	assert.Error(t, err)
}

func TestMBC1_romBankSelect(t *testing.T) {
	rom := make([]byte, 0x4000*4)
	rom[0x02*0x4000] = 0x77 // marker byte at the start of bank 2

	mbc := NewMBC1(rom, 0)
	mbc.Write(0x2100, 0x02)

	assert.Equal(t, uint8(0x77), mbc.Read(0x4000))
}

func TestMBC1_bankZeroRemapsToBankOne(t *testing.T) {
	rom := make([]byte, 0x4000*2)
	rom[0x4000] = 0x42

	mbc := NewMBC1(rom, 0)
	mbc.Write(0x2000, 0x00) // selecting bank 0 remaps to bank 1

	assert.Equal(t, uint8(0x42), mbc.Read(0x4000))
}

func TestMBC1_ramGatedByEnable(t *testing.T) {
	mbc := NewMBC1(make([]byte, 0x8000), 0x2000)

	mbc.Write(0xA000, 0x99) // RAM disabled: write dropped
	assert.Equal(t, uint8(0xFF), mbc.Read(0xA000))

	mbc.Write(0x0000, 0x0A) // enable RAM
	mbc.Write(0xA000, 0x99)
	assert.Equal(t, uint8(0x99), mbc.Read(0xA000))
}

func TestMBC2_builtInRAMGatedByAddressBit8(t *testing.T) {
	rom := make([]byte, 0x4000*2)
	mbc := NewMBC2(rom)

	mbc.Write(0x0000, 0x0A) // addr bit 8 == 0: RAM enable
	mbc.Write(0x0100, 0x03) // addr bit 8 == 1: ROM bank select, ignored as enable

	mbc.Write(0xA000, 0xF7)
	assert.Equal(t, uint8(0xF7&0x0F), mbc.Read(0xA000)&0x0F)
}

func TestMBC3_rtcRegistersReadWriteThrough(t *testing.T) {
	mbc := NewMBC3(make([]byte, 0x8000), 0)
	mbc.Write(0x0000, 0x0A) // enable
	mbc.Write(0x4000, 0x08) // select RTC seconds register
	mbc.Write(0xA000, 42)
	assert.Equal(t, uint8(42), mbc.Read(0xA000))
}

func TestMBC5_nineBitROMBankSplitAcrossWriteWindows(t *testing.T) {
	rom := make([]byte, 0x4000*257)
	rom[256*0x4000] = 0xAB

	mbc := NewMBC5(rom, 0)
	mbc.Write(0x2000, 0x00) // low 8 bits
	mbc.Write(0x3000, 0x01) // bit 8

	assert.Equal(t, uint8(0xAB), mbc.Read(0x4000))
}

func TestTimer_divResetOnAnyWrite(t *testing.T) {
	var tm Timer
	tm.SetSeed(0xAB00)
	assert.Equal(t, uint8(0xAB), tm.Read(addr.DIV))

	tm.Write(addr.DIV, 0x42)
	assert.Equal(t, uint8(0x00), tm.Read(addr.DIV))
}

func TestTimer_overflowReloadsAfterFourCycles(t *testing.T) {
	var tm Timer
	tm.Write(addr.TAC, 0x05) // enabled, freq 01 (bit 3)
	tm.Write(addr.TMA, 0x42)
	tm.Write(addr.TIMA, 0xFF)

	fired := false
	tm.TimerInterruptHandler = func() { fired = true }

	// Advance until TIMA overflows to 0 and the 4-cycle reload begins.
	tm.Tick(16)
	assert.Equal(t, uint8(0x00), tm.Read(addr.TIMA))
	assert.False(t, fired)

	tm.Tick(4)
	assert.Equal(t, uint8(0x42), tm.Read(addr.TIMA))
	assert.True(t, fired)
}

func TestTimer_tickIsAssociative(t *testing.T) {
	var a, b Timer
	a.SetSeed(0x1234)
	b.SetSeed(0x1234)
	a.Write(addr.TAC, 0x05)
	b.Write(addr.TAC, 0x05)

	a.Tick(37)
	a.Tick(59)

	b.Tick(96)

	assert.Equal(t, a.Read(addr.DIV), b.Read(addr.DIV))
	assert.Equal(t, a.Read(addr.TIMA), b.Read(addr.TIMA))
}

func TestTimer_tacWriteDroppingSelectedBitClocksOnce(t *testing.T) {
	var tm Timer
	tm.SetSeed(0x0008) // bit 3 (freq 01's selected bit) is set
	tm.Write(addr.TAC, 0x05)
	tm.Write(addr.TIMA, 0x00)

	tm.Write(addr.TAC, 0x00) // disabling drops the selected bit high->low
	assert.Equal(t, uint8(0x01), tm.Read(addr.TIMA))
}
