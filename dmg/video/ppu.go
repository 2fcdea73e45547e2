// Package video implements the DMG PPU: a dot-driven state machine with a
// variable-length Mode 3 and rising-edge "STAT line" interrupt model,
// compositing background, window, and sprites into an RGBA framebuffer.
package video

import (
	"github.com/dmgcore/dmgcore/dmg/addr"
	"github.com/dmgcore/dmgcore/dmg/bit"
)

// Mode is one of the PPU's four per-scanline stages; the numeric values
// match STAT bits 1-0.
type Mode uint8

const (
	HBlank  Mode = 0
	VBlank  Mode = 1
	OAMScan Mode = 2
	Drawing Mode = 3
)

const (
	oamScanDots    = 80
	dotsPerLine    = 456
	maxMode3Len    = 289
	lastLine       = 153
	firstVBlank    = 144
	maxOAMSprite   = 40
	maxLineSprites = 10
)

// Memory is the address-space surface the PPU needs: register read/write,
// a direct register write that bypasses the guest write policy, and
// interrupt requests. *memory.MMU satisfies this.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	PokeRegister(address uint16, value uint8)
	RequestInterrupt(interrupt addr.Interrupt)
}

// oamEntry is one scanned sprite, kept only long enough to render a line.
type oamEntry struct {
	index int
	y     int
	x     int
	tile  uint8
	flags uint8
}

// PPU holds the DMG picture generation state machine.
type PPU struct {
	memory      Memory
	framebuffer *FrameBuffer
	bgColor     [FramebufferSize]uint8 // per-pixel post-palette BG/window color, for sprite priority
	priority    spritePriority

	mode Mode
	line int // LY, 0-153
	dot  int // dot within the current 456-dot line

	mode3Len    int
	lineSprites []oamEntry

	windowLine int
	frameReady bool

	prevStatLine bool
}

// New creates a PPU wired to mem, starting at the post-boot-ROM state (LY
// 0, OAM scan, dot 0, matching the real DMG's power-on PPU state).
func New(mem Memory) *PPU {
	p := &PPU{
		memory:      mem,
		framebuffer: NewFrameBuffer(),
		mode:        OAMScan,
		lineSprites: make([]oamEntry, 0, maxLineSprites),
	}
	p.memory.PokeRegister(addr.LY, 0)
	p.setSTATMode(OAMScan)
	return p
}

// FrameBuffer returns the framebuffer being composited into. Safe to read
// between Tick calls; contents are only valid for a completed frame once
// ConsumeFrameReady returns true.
func (p *PPU) FrameBuffer() *FrameBuffer { return p.framebuffer }

// ConsumeFrameReady reports whether a full frame was just completed
// (LY 143->144) and clears the flag.
func (p *PPU) ConsumeFrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// Tick advances the PPU by cycles T-cycles (dots).
func (p *PPU) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	if !bit.IsSet(7, p.memory.Read(addr.LCDC)) {
		p.disableLCD()
		return
	}

	p.dot++

	switch p.mode {
	case OAMScan:
		if p.dot == oamScanDots {
			p.enterDrawing()
		}
	case Drawing:
		if p.dot == oamScanDots+p.mode3Len {
			p.enterHBlank()
		}
	case HBlank:
		if p.dot == dotsPerLine {
			p.dot = 0
			p.advanceVisibleLine()
		}
	case VBlank:
		if p.dot == dotsPerLine {
			p.dot = 0
			p.advanceVBlankLine()
		}
	}

	p.updateStatLine()
}

// disableLCD holds the PPU in a fixed, inert state while LCDC bit 7 is
// clear: mode forced to HBlank, LY forced to 0, dots don't accumulate.
func (p *PPU) disableLCD() {
	if p.mode == HBlank && p.line == 0 && p.dot == 0 {
		return
	}
	p.mode = HBlank
	p.line = 0
	p.dot = 0
	p.windowLine = 0
	p.memory.PokeRegister(addr.LY, 0)
	p.setSTATMode(HBlank)
}

func (p *PPU) enterDrawing() {
	p.mode = Drawing
	p.setSTATMode(Drawing)
	p.lineSprites = p.scanOAM()
	p.mode3Len = p.computeMode3Length()
}

func (p *PPU) enterHBlank() {
	p.renderScanline()
	p.mode = HBlank
	p.setSTATMode(HBlank)
}

// advanceVisibleLine is called when a visible scanline's HBlank completes.
func (p *PPU) advanceVisibleLine() {
	p.line++
	p.writeLY(p.line)
	if p.line == firstVBlank {
		p.mode = VBlank
		p.setSTATMode(VBlank)
		p.memory.RequestInterrupt(addr.VBlankInterrupt)
		p.windowLine = 0
		p.frameReady = true
		return
	}
	p.mode = OAMScan
	p.setSTATMode(OAMScan)
}

func (p *PPU) advanceVBlankLine() {
	if p.line == lastLine {
		p.line = 0
		p.writeLY(0)
		p.mode = OAMScan
		p.setSTATMode(OAMScan)
		return
	}
	p.line++
	p.writeLY(p.line)
}

func (p *PPU) writeLY(line int) { p.memory.PokeRegister(addr.LY, byte(line)) }

// setSTATMode writes STAT bits 1-0 directly (PPU-owned, bypassing the
// guest write policy).
func (p *PPU) setSTATMode(mode Mode) {
	stat := p.memory.Read(addr.STAT)
	stat = (stat &^ 0x03) | uint8(mode)
	p.memory.PokeRegister(addr.STAT, stat)
}

// updateStatLine implements the rising-edge "line" STAT-interrupt model:
// line is the OR of every currently-enabled STAT condition, and IF bit 1 is
// set only on a 0->1 transition (the well-known "STAT blocking" behavior).
func (p *PPU) updateStatLine() {
	stat := p.memory.Read(addr.STAT)
	ly := p.memory.Read(addr.LY)
	lyc := p.memory.Read(addr.LYC)
	lycMatch := ly == lyc

	if lycMatch {
		stat = bit.Set(2, stat)
	} else {
		stat = bit.Reset(2, stat)
	}
	p.memory.PokeRegister(addr.STAT, stat)

	line := (bit.IsSet(3, stat) && p.mode == HBlank) ||
		(bit.IsSet(4, stat) && p.mode == VBlank) ||
		(bit.IsSet(5, stat) && p.mode == OAMScan) ||
		(bit.IsSet(6, stat) && lycMatch)

	if line && !p.prevStatLine {
		p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	p.prevStatLine = line
}

// computeMode3Length implements the variable Mode-3 duration: a base 172
// dots, plus the fine-scroll penalty, plus 6 dots per sprite on the line,
// plus a window-fetch penalty, clamped to the hardware maximum.
func (p *PPU) computeMode3Length() int {
	scx := p.memory.Read(addr.SCX)
	length := 172 + int(scx%8) + 6*len(p.lineSprites)
	if p.windowVisibleThisLine() {
		length += 6
	}
	if length > maxMode3Len {
		length = maxMode3Len
	}
	return length
}

func (p *PPU) windowVisibleThisLine() bool {
	lcdc := p.memory.Read(addr.LCDC)
	if !bit.IsSet(0, lcdc) || !bit.IsSet(5, lcdc) {
		return false
	}
	wy := p.memory.Read(addr.WY)
	wx := p.memory.Read(addr.WX)
	return int(wy) <= p.line && wx <= 166
}

// scanOAM implements the §4.3 OAM-search algorithm: traverse all 40
// entries, keep the first <=10 overlapping this scanline, sorted by X
// ascending (stable, so ties preserve OAM order).
func (p *PPU) scanOAM() []oamEntry {
	height := 8
	if bit.IsSet(2, p.memory.Read(addr.LCDC)) {
		height = 16
	}

	kept := p.lineSprites[:0]
	for i := 0; i < maxOAMSprite && len(kept) < maxLineSprites; i++ {
		base := addr.OAMStart + uint16(i*4)
		y := int(p.memory.Read(base)) - 16
		if y > p.line || y+height <= p.line {
			continue
		}
		kept = append(kept, oamEntry{
			index: i,
			y:     y,
			x:     int(p.memory.Read(base+1)) - 8,
			tile:  p.memory.Read(base + 2),
			flags: p.memory.Read(base + 3),
		})
	}

	// stable insertion sort by X: the list is at most 10 entries, so this
	// is simpler and just as fast as sort.SliceStable here.
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && kept[j].x < kept[j-1].x; j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}
	return kept
}

func (p *PPU) renderScanline() {
	lcdc := p.memory.Read(addr.LCDC)
	lineOffset := p.line * FramebufferWidth

	if !bit.IsSet(0, lcdc) {
		palette := p.memory.Read(addr.BGP)
		color := ByteToColor(palette & 0x03)
		for x := 0; x < FramebufferWidth; x++ {
			p.framebuffer.SetPixel(x, p.line, color)
			p.bgColor[lineOffset+x] = 0
		}
	} else {
		p.drawBackground()
	}

	if bit.IsSet(5, lcdc) && p.windowVisibleThisLine() {
		p.drawWindow()
	}

	if bit.IsSet(1, lcdc) {
		p.drawSprites()
	}
}

func (p *PPU) drawBackground() {
	lcdc := p.memory.Read(addr.LCDC)
	lineOffset := p.line * FramebufferWidth

	tileDataUnsigned := bit.IsSet(4, lcdc)
	tileMapAddr := addr.TileMap0
	if bit.IsSet(3, lcdc) {
		tileMapAddr = addr.TileMap1
	}

	scx := p.memory.Read(addr.SCX)
	scy := p.memory.Read(addr.SCY)
	palette := p.memory.Read(addr.BGP)

	bgLine := (p.line + int(scy)) & 0xFF
	tileRow := (bgLine / 8) * 32
	pixelY2 := (bgLine % 8) * 2

	for x := 0; x < FramebufferWidth; x++ {
		mapX := (x + int(scx)) & 0xFF
		tileCol := mapX / 8
		tileX := mapX % 8

		tileIndex := p.memory.Read(tileMapAddr + uint16(tileRow+tileCol))
		tileAddr := tileDataAddr(tileIndex, tileDataUnsigned) + uint16(pixelY2)

		low := p.memory.Read(tileAddr)
		high := p.memory.Read(tileAddr + 1)
		pixel := tilePixel(low, high, uint8(7-tileX))

		color := (palette >> (pixel * 2)) & 0x03
		p.framebuffer.SetPixel(x, p.line, ByteToColor(color))
		p.bgColor[lineOffset+x] = color
	}
}

func (p *PPU) drawWindow() {
	lcdc := p.memory.Read(addr.LCDC)
	lineOffset := p.line * FramebufferWidth

	tileDataUnsigned := bit.IsSet(4, lcdc)
	tileMapAddr := addr.TileMap0
	if bit.IsSet(6, lcdc) {
		tileMapAddr = addr.TileMap1
	}

	wx := int(p.memory.Read(addr.WX)) - 7
	palette := p.memory.Read(addr.BGP)

	tileRow := (p.windowLine / 8) * 32
	pixelY2 := (p.windowLine % 8) * 2

	for x := 0; x < FramebufferWidth; x++ {
		if x < wx {
			continue
		}
		winX := x - wx
		tileCol := winX / 8
		tileX := winX % 8

		tileIndex := p.memory.Read(tileMapAddr + uint16(tileRow+tileCol))
		tileAddr := tileDataAddr(tileIndex, tileDataUnsigned) + uint16(pixelY2)

		low := p.memory.Read(tileAddr)
		high := p.memory.Read(tileAddr + 1)
		pixel := tilePixel(low, high, uint8(7-tileX))

		color := (palette >> (pixel * 2)) & 0x03
		p.framebuffer.SetPixel(x, p.line, ByteToColor(color))
		p.bgColor[lineOffset+x] = color
	}
	p.windowLine++
}

func (p *PPU) drawSprites() {
	height := 8
	if bit.IsSet(2, p.memory.Read(addr.LCDC)) {
		height = 16
	}

	p.priority.reset()
	for _, s := range p.lineSprites {
		for px := 0; px < 8; px++ {
			p.priority.claim(s.x+px, s.index, s.x)
		}
	}

	lineOffset := p.line * FramebufferWidth

	// Draw in reverse list order: later (lower-priority) sprites first, so
	// earlier ones paint over them where both own a pixel. Ownership is
	// already resolved above; this matches hardware's compositing order for
	// overlapping transparency.
	for i := len(p.lineSprites) - 1; i >= 0; i-- {
		s := p.lineSprites[i]

		owned := false
		for px := 0; px < 8; px++ {
			if p.priority.ownerOf(s.x+px) == s.index {
				owned = true
				break
			}
		}
		if !owned {
			continue
		}

		tile := s.tile
		if height == 16 {
			tile &= 0xFE
		}

		flipX := bit.IsSet(5, s.flags)
		flipY := bit.IsSet(6, s.flags)
		aboveBG := !bit.IsSet(7, s.flags)
		palette := addr.OBP0
		if bit.IsSet(4, s.flags) {
			palette = addr.OBP1
		}

		pixelY := p.line - s.y
		if flipY {
			pixelY = height - 1 - pixelY
		}
		tileAddr := addr.TileData0 + uint16(tile)*16 + uint16(pixelY*2)

		low := p.memory.Read(tileAddr)
		high := p.memory.Read(tileAddr + 1)

		for px := 0; px < 8; px++ {
			x := s.x + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}
			if p.priority.ownerOf(x) != s.index {
				continue
			}

			bitIdx := 7 - px
			if flipX {
				bitIdx = px
			}
			pixel := tilePixel(low, high, uint8(bitIdx))
			if pixel == 0 {
				continue
			}
			if !aboveBG && p.bgColor[lineOffset+x] != 0 {
				continue
			}

			paletteValue := p.memory.Read(palette)
			color := (paletteValue >> (pixel * 2)) & 0x03
			p.framebuffer.SetPixel(x, p.line, ByteToColor(color))
		}
	}
}

// tileDataAddr resolves a tile index to its base VRAM address under
// LCDC bit 4's unsigned (0x8000 + index*16) or signed (0x9000 + i8*16)
// addressing mode.
func tileDataAddr(index uint8, unsigned bool) uint16 {
	if unsigned {
		return addr.TileData0 + uint16(index)*16
	}
	return uint16(int(addr.TileData2) + int(int8(index))*16)
}

// tilePixel extracts pixel bitIdx (7=leftmost) from a tile row's bit-plane
// pair, combining the low/high bytes into a 2-bit color index.
func tilePixel(low, high uint8, bitIdx uint8) uint8 {
	pixel := uint8(0)
	if bit.IsSet(bitIdx, low) {
		pixel |= 1
	}
	if bit.IsSet(bitIdx, high) {
		pixel |= 2
	}
	return pixel
}
