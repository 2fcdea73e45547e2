// Package addr centralizes the addresses of hardware registers and
// memory regions of the DMG address space, so the rest of the core refers
// to them by name instead of magic numbers.
package addr

// LCD / PPU registers.
const (
	LCDC uint16 = 0xFF40 // LCD Control
	STAT uint16 = 0xFF41 // LCDC Status
	SCY  uint16 = 0xFF42 // Scroll Y
	SCX  uint16 = 0xFF43 // Scroll X
	LY   uint16 = 0xFF44 // LCDC Y-Coordinate (read-only on real hardware)
	LYC  uint16 = 0xFF45 // LY Compare
	DMA  uint16 = 0xFF46 // DMA Transfer and Start
	BGP  uint16 = 0xFF47 // BG Palette
	OBP0 uint16 = 0xFF48 // Object Palette 0
	OBP1 uint16 = 0xFF49 // Object Palette 1
	WY   uint16 = 0xFF4A // Window Y Position
	WX   uint16 = 0xFF4B // Window X Position
)

// Audio registers. Reference: https://gbdev.io/pandocs/Audio_Registers.html
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // Channel 1 sweep
	NR11 uint16 = 0xFF11 // Channel 1 length timer & duty cycle
	NR12 uint16 = 0xFF12 // Channel 1 volume & envelope
	NR13 uint16 = 0xFF13 // Channel 1 period low
	NR14 uint16 = 0xFF14 // Channel 1 period high & control

	NR21 uint16 = 0xFF16 // Channel 2 length timer & duty cycle
	NR22 uint16 = 0xFF17 // Channel 2 volume & envelope
	NR23 uint16 = 0xFF18 // Channel 2 period low
	NR24 uint16 = 0xFF19 // Channel 2 period high & control

	NR30 uint16 = 0xFF1A // Channel 3 DAC enable
	NR31 uint16 = 0xFF1B // Channel 3 length timer
	NR32 uint16 = 0xFF1C // Channel 3 output level
	NR33 uint16 = 0xFF1D // Channel 3 period low
	NR34 uint16 = 0xFF1E // Channel 3 period high & control

	NR41 uint16 = 0xFF20 // Channel 4 length timer
	NR42 uint16 = 0xFF21 // Channel 4 volume & envelope
	NR43 uint16 = 0xFF22 // Channel 4 frequency & randomness
	NR44 uint16 = 0xFF23 // Channel 4 control

	NR50 uint16 = 0xFF24 // Master volume & VIN panning
	NR51 uint16 = 0xFF25 // Sound panning
	NR52 uint16 = 0xFF26 // Sound on/off and channel status

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// OAM (Object Attribute Memory): 40 4-byte sprite entries.
const (
	OAMStart uint16 = 0xFE00
	OAMEnd   uint16 = 0xFE9F
)

// Tile data and tile map regions.
const (
	TileData0 uint16 = 0x8000 // unsigned tile data (tiles 0-255)
	TileData1 uint16 = 0x8800 // signed tile data, tiles -128..-1
	TileData2 uint16 = 0x9000 // signed tile data, tiles 0..127

	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

// Interrupt registers.
const (
	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// Joypad.
const (
	P1 uint16 = 0xFF00
)

// Serial I/O.
const (
	// SB holds the byte shifted out/in during a serial transfer.
	SB uint16 = 0xFF01
	// SC is the serial transfer control register: bit 7 starts a transfer,
	// bit 0 selects the clock source (1 = internal).
	SC uint16 = 0xFF02
)

// Timer registers.
const (
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// Interrupt is one of the five maskable interrupt sources, encoded as its
// bit within the IE/IF registers.
type Interrupt uint8

const (
	VBlankInterrupt  Interrupt = 1 << 0
	LCDSTATInterrupt Interrupt = 1 << 1
	TimerInterrupt   Interrupt = 1 << 2
	SerialInterrupt  Interrupt = 1 << 3
	JoypadInterrupt  Interrupt = 1 << 4
)

// Vector is the interrupt service routine address for each interrupt.
var Vector = map[Interrupt]uint16{
	VBlankInterrupt:  0x0040,
	LCDSTATInterrupt: 0x0048,
	TimerInterrupt:   0x0050,
	SerialInterrupt:  0x0058,
	JoypadInterrupt:  0x0060,
}
