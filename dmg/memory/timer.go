package memory

import (
	"github.com/dmgcore/dmgcore/dmg/addr"
	"github.com/dmgcore/dmgcore/dmg/bit"
)

// timerBitForTAC maps TAC's low two bits to the system-counter bit whose
// falling edge clocks TIMA.
var timerBitForTAC = [4]uint8{9, 3, 5, 7}

// Timer encapsulates the Game Boy DIV/TIMA/TMA/TAC behavior: a 16-bit
// internal counter (DIV is its upper byte) and falling-edge-triggered TIMA
// increments, with the four-cycle delayed TMA reload on overflow.
type Timer struct {
	systemCounter uint16
	lastTimerBit  bool
	timaOverflow  int // cycles remaining in the TIMA==0 pending-reload window, 0 if none

	div  byte
	tima byte
	tma  byte
	tac  byte

	// TimerInterruptHandler is invoked when TIMA's delayed reload fires.
	TimerInterruptHandler func()
}

// SetSeed initializes the internal divider counter and DIV register.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastTimerBit = false
	t.timaOverflow = 0
	t.div = byte(t.systemCounter >> 8)
}

// checkEdge re-evaluates the falling-edge condition against the timer's
// last observed bit and increments TIMA (or starts the overflow reload) if
// a 1->0 transition occurred. The edge input is the AND of the TAC enable
// bit and the selected counter bit, so disabling the timer while the bit is
// high also counts as a falling edge. Used both by the per-cycle tick loop
// and by the DIV/TAC write side effects, which can cause a spurious edge
// outside of a normal tick.
func (t *Timer) checkEdge() {
	current := false
	if t.tac&0x04 != 0 {
		current = bit.IsSet16(timerBitForTAC[t.tac&0x03], t.systemCounter)
	}
	if t.lastTimerBit && !current {
		t.incrementTIMA()
	}
	t.lastTimerBit = current
}

func (t *Timer) incrementTIMA() {
	if t.tima == 0xFF {
		t.tima = 0x00
		t.timaOverflow = 4
	} else {
		t.tima++
	}
}

// Tick advances the timer by the given number of T-cycles.
func (t *Timer) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		t.systemCounter++
		t.div = byte(t.systemCounter >> 8)

		if t.timaOverflow > 0 {
			t.timaOverflow--
			if t.timaOverflow == 0 {
				t.tima = t.tma
				if t.TimerInterruptHandler != nil {
					t.TimerInterruptHandler()
				}
			}
			continue
		}

		t.checkEdge()
	}
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return t.div
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		// Unused bits of TAC read back as 1.
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		// Resetting the divider can itself cause the selected multiplexer
		// bit to fall from 1 to 0, clocking TIMA once.
		t.systemCounter = 0
		t.div = 0
		t.checkEdge()
	case addr.TIMA:
		// A write during the 4-cycle reload window cancels the reload.
		t.tima = value
		t.timaOverflow = 0
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value
		// A TAC write that drops the selected bit also re-evaluates the edge.
		t.checkEdge()
	}
}
