package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmgcore/dmgcore/dmg/addr"
	"github.com/dmgcore/dmgcore/dmg/memory"
)

func newTestPPU() (*PPU, *memory.MMU) {
	m := memory.New()
	m.Write(addr.LCDC, 0x91) // LCD on, BG on, tile data at 0x8000, BG map at 0x9800
	p := New(m)
	return p, m
}

func TestPPU_modeCyclesThroughAVisibleLine(t *testing.T) {
	p, m := newTestPPU()

	assert.Equal(t, OAMScan, p.mode)

	p.Tick(oamScanDots)
	assert.Equal(t, Drawing, p.mode)

	m3 := p.mode3Len
	p.Tick(m3)
	assert.Equal(t, HBlank, p.mode)

	p.Tick(dotsPerLine - oamScanDots - m3)
	assert.Equal(t, OAMScan, p.mode)
	assert.Equal(t, uint8(1), m.Read(addr.LY))
}

func TestPPU_scanlineIsAlwaysFourHundredFiftySixDots(t *testing.T) {
	p, _ := newTestPPU()
	startLine := p.line

	total := 0
	for p.line == startLine {
		p.Tick(1)
		total++
	}
	assert.Equal(t, dotsPerLine, total)
}

func TestPPU_vblankAfterOneHundredFortyFourLines(t *testing.T) {
	p, m := newTestPPU()

	p.Tick(144 * dotsPerLine)

	assert.Equal(t, VBlank, p.mode)
	assert.True(t, p.ConsumeFrameReady())
	assert.NotEqual(t, uint8(0), m.Read(addr.IF)&uint8(addr.VBlankInterrupt))
}

func TestPPU_frameReturnsLYToStartAfterSeventyThousandTwoHundredTwentyFourCycles(t *testing.T) {
	p, m := newTestPPU()
	startLY := m.Read(addr.LY)

	vblanks := 0
	for i := 0; i < 70224; i++ {
		p.Tick(1)
		if p.ConsumeFrameReady() {
			vblanks++
		}
	}

	assert.Equal(t, startLY, m.Read(addr.LY))
	assert.Equal(t, 1, vblanks)
}

func TestPPU_lcdOffForcesHBlankAndZeroesLY(t *testing.T) {
	p, m := newTestPPU()
	p.Tick(200)

	m.Write(addr.LCDC, 0x01) // LCD off, BG still enabled in the flag byte
	p.Tick(1)

	assert.Equal(t, HBlank, p.mode)
	assert.Equal(t, uint8(0), m.Read(addr.LY))
}

func TestPPU_statInterruptFiresOnRisingEdgeOnly(t *testing.T) {
	p, m := newTestPPU()
	m.Write(addr.STAT, 0x20) // enable OAMScan-mode STAT source

	// Drain the current line's OAMScan mode so the next one starts fresh.
	for p.mode != HBlank {
		p.Tick(1)
	}
	m.Write(addr.IF, 0)

	for p.mode != OAMScan {
		p.Tick(1)
	}
	assert.NotEqual(t, uint8(0), m.Read(addr.IF)&uint8(addr.LCDSTATInterrupt), "entering OAMScan raises the edge")

	m.Write(addr.IF, 0)
	p.Tick(1)
	assert.Equal(t, uint8(0), m.Read(addr.IF)&uint8(addr.LCDSTATInterrupt), "still in OAMScan: no new edge")
}

func TestMode3Length_growsWithSpritesAndScrollAndWindow(t *testing.T) {
	p, m := newTestPPU()
	m.Write(addr.SCX, 3)
	m.Write(addr.LCDC, 0xB1) // 0x91 plus window enable
	m.Write(addr.WY, 0)
	m.Write(addr.WX, 7)
	p.lineSprites = make([]oamEntry, 4)

	length := p.computeMode3Length()
	assert.Equal(t, 172+3+6*4+6, length)
}

func TestMode3Length_clampsToHardwareMax(t *testing.T) {
	p, m := newTestPPU()
	m.Write(addr.SCX, 7)
	// 172+7+6*10 is only 239, so the list is padded past the 10 a scanline
	// can hold to push the sum (172+7+6*20 = 299) over the clamp.
	p.lineSprites = make([]oamEntry, 20)

	assert.Equal(t, maxMode3Len, p.computeMode3Length())
}

func TestScanOAM_keepsAtMostTenSpritesSortedByX(t *testing.T) {
	p, m := newTestPPU()
	p.line = 50

	// 12 sprites overlapping line 50, in descending X order in OAM.
	for i := 0; i < 12; i++ {
		base := addr.OAMStart + uint16(i*4)
		m.Write(base, 50+16)            // y, so y_disp-16 == 50
		m.Write(base+1, uint8(100-i))   // x, descending
		m.Write(base+2, uint8(i))       // tile
		m.Write(base+3, 0)              // flags
	}

	kept := p.scanOAM()
	assert.Len(t, kept, maxLineSprites)
	for i := 1; i < len(kept); i++ {
		assert.LessOrEqual(t, kept[i-1].x, kept[i].x)
	}
}
