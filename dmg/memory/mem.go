package memory

import (
	"fmt"
	"log/slog"

	"github.com/dmgcore/dmgcore/dmg/addr"
	"github.com/dmgcore/dmgcore/dmg/audio"
	"github.com/dmgcore/dmgcore/dmg/bit"
	"github.com/dmgcore/dmgcore/dmg/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// dmaLength is the number of bytes an OAM DMA transfer copies.
const dmaLength = 160

// MMU is the Game Boy's 16-bit address space: it owns work/video RAM
// directly and routes everything else (cartridge, timer, serial, audio,
// joypad) to the owning subsystem. The PPU is not owned here; it
// reads/writes LCD registers through Read/Write, plus PokeRegister for the
// LY and STAT bits it owns, so this package has no dependency on video.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	APU       *audio.APU
	Joypad    *Joypad
	regionMap [256]memRegion

	serial serial.Port
	timer  Timer

	dmaActive bool
	dmaSource uint16
	dmaIndex  int
}

// New creates an MMU with no cartridge inserted.
func New() *MMU {
	m := &MMU{
		memory: make([]byte, 0x10000),
		cart:   NewCartridge(),
		APU:    audio.New(44100),
		Joypad: NewJoypad(),
	}
	m.serial = serial.NewLogSink(func() { m.RequestInterrupt(addr.SerialInterrupt) })
	m.timer.TimerInterruptHandler = func() { m.RequestInterrupt(addr.TimerInterrupt) }
	m.Joypad.JoypadInterruptHandler = func() { m.RequestInterrupt(addr.JoypadInterrupt) }
	initRegionMap(m)
	return m
}

// NewWithCartridge creates an MMU with cart inserted and its MBC wired up.
func NewWithCartridge(cart *Cartridge) (*MMU, error) {
	m := New()
	m.cart = cart

	switch cart.Kind {
	case NoMBCKind:
		m.mbc = NewNoMBC(cart.data)
	case MBC1Kind:
		m.mbc = NewMBC1(cart.data, cart.RAMSize)
	case MBC2Kind:
		m.mbc = NewMBC2(cart.data)
	case MBC3Kind:
		m.mbc = NewMBC3(cart.data, cart.RAMSize)
	case MBC5Kind:
		m.mbc = NewMBC5(cart.data, cart.RAMSize)
	default:
		return nil, fmt.Errorf("memory: unsupported cartridge type for %q", cart.Title)
	}

	return m, nil
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// SetTimerSeed initializes the internal divider counter and DIV register,
// used by test-runner harnesses that need a known post-boot-ROM state.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// SaveRAM returns the external cartridge RAM, for battery-backed saves.
func (m *MMU) SaveRAM() []byte {
	if m.mbc == nil {
		return nil
	}
	return m.mbc.RAM()
}

// LoadRAM restores external cartridge RAM from a previously saved image.
func (m *MMU) LoadRAM(data []byte) {
	if m.mbc != nil {
		m.mbc.LoadRAM(data)
	}
}

// SerialOutput returns every byte the cartridge has written out over the
// serial port so far, in order. Used by test-runner harnesses to detect a
// Blargg-style "Passed"/"Failed" message without racing the port's
// auto-cleared transfer-start bit.
func (m *MMU) SerialOutput() []byte {
	if sink, ok := m.serial.(*serial.LogSink); ok {
		return sink.Captured
	}
	return nil
}

// Tick advances the timer, serial port, and any in-flight OAM DMA transfer
// by cycles T-cycles. The APU and PPU are ticked independently by the
// scheduler, since both need to interleave with CPU instruction boundaries
// in ways the MMU itself doesn't need to know about.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
	m.tickDMA(cycles)
}

// tickDMA advances an in-flight OAM DMA transfer one byte per T-cycle, the
// same rate real hardware copies at. This differs from copy-on-write DMA:
// OAM entries become visible to the PPU mid-transfer, in source order.
func (m *MMU) tickDMA(cycles int) {
	if !m.dmaActive {
		return
	}
	for i := 0; i < cycles && m.dmaActive; i++ {
		m.memory[addr.OAMStart+uint16(m.dmaIndex)] = m.Read(m.dmaSource + uint16(m.dmaIndex))
		m.dmaIndex++
		if m.dmaIndex >= dmaLength {
			m.dmaActive = false
		}
	}
}

// RequestInterrupt sets the corresponding bit of IF.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.memory[addr.IF] |= uint8(interrupt)
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

// PokeRegister writes directly to a register byte, bypassing the guest
// write policy (the LY read-only guard and the STAT low-bits guard). Only
// the PPU, which owns LY and STAT's mode/LYC bits, should call this.
func (m *MMU) PokeRegister(address uint16, value byte) {
	m.memory[address] = value
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		if address > addr.OAMEnd {
			// FEA0-FEFF is unusable on DMG hardware; reads return open bus.
			return 0xFF
		}
		return m.memory[address]
	case regionIO:
		return m.readIO(address)
	default:
		slog.Warn("read at unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.Joypad.Read()
	case address == addr.SB || address == addr.SC:
		return m.serial.Read(address)
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		return m.timer.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.APU.ReadRegister(address)
	case address == addr.IF:
		return m.memory[address] | 0xE0
	default:
		return m.memory[address]
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM, regionWRAM:
		m.memory[address] = value
	case regionEcho:
		m.memory[address-0x2000] = value
	case regionOAM:
		if address > addr.OAMEnd {
			// Writes to the unusable FEA0-FEFF range are dropped.
			return
		}
		m.memory[address] = value
	case regionIO:
		m.writeIO(address, value)
	default:
		slog.Warn("write at unmapped address", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.Joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.serial.Write(address, value)
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		m.timer.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.APU.WriteRegister(address, value)
	case address == addr.IF:
		m.memory[address] = value | 0xE0
	case address == addr.DMA:
		m.memory[address] = value
		m.dmaActive = true
		m.dmaSource = uint16(value) << 8
		m.dmaIndex = 0
	case address == addr.LY:
		// LY is read-only to guest code; only the PPU (via direct memory
		// slot access) may advance it.
	case address == addr.STAT:
		// Bits 0-2 (mode + LYC==LY flag) are PPU-owned; a guest write only
		// affects the interrupt-source-enable bits 3-6.
		m.memory[address] = (m.memory[address] & 0x87) | (value & 0x78)
	default:
		m.memory[address] = value
	}
}
