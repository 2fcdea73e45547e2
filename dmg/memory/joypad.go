package memory

import "github.com/dmgcore/dmgcore/dmg/bit"

// JoypadKey identifies one of the eight buttons on the DMG joypad.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad models the P1 register's button matrix: two 4-bit groups (d-pad,
// buttons) selected by bits 4-5, AND-combined when both groups are
// selected, with a callback fired on any high->low (press) transition of an
// exposed bit.
type Joypad struct {
	buttons uint8 // low nibble, 1 = released
	dpad    uint8 // low nibble, 1 = released
	select_ uint8 // raw P1 bits 4-5, as last written

	JoypadInterruptHandler func()
}

// NewJoypad creates a Joypad with all buttons released.
func NewJoypad() *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		select_: 0x30,
	}
}

// Read returns the full P1 byte: bits 6-7 always read 1, bits 4-5 are the
// selection as last written, bits 0-3 are the selected group(s) AND-combined.
func (j *Joypad) Read() uint8 {
	result := uint8(0xC0) | (j.select_ & 0x30)

	selectDpad := !bit.IsSet(4, j.select_)
	selectButtons := !bit.IsSet(5, j.select_)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Write updates the selection bits (4-5); other bits are not writable.
func (j *Joypad) Write(value uint8) {
	j.select_ = value & 0x30
}

// Press marks key as pressed (bit cleared) and requests the joypad
// interrupt if any exposed bit made a high->low transition.
func (j *Joypad) Press(key JoypadKey) {
	before := j.Read() & 0x0F
	j.setBit(key, false)
	after := j.Read() & 0x0F

	if before&^after != 0 && j.JoypadInterruptHandler != nil {
		j.JoypadInterruptHandler()
	}
}

// Release marks key as released (bit set).
func (j *Joypad) Release(key JoypadKey) {
	j.setBit(key, true)
}

func (j *Joypad) setBit(key JoypadKey, released bool) {
	var group *uint8
	var bitIndex uint8

	switch key {
	case JoypadRight:
		group, bitIndex = &j.dpad, 0
	case JoypadLeft:
		group, bitIndex = &j.dpad, 1
	case JoypadUp:
		group, bitIndex = &j.dpad, 2
	case JoypadDown:
		group, bitIndex = &j.dpad, 3
	case JoypadA:
		group, bitIndex = &j.buttons, 0
	case JoypadB:
		group, bitIndex = &j.buttons, 1
	case JoypadSelect:
		group, bitIndex = &j.buttons, 2
	case JoypadStart:
		group, bitIndex = &j.buttons, 3
	default:
		return
	}

	if released {
		*group = bit.Set(bitIndex, *group)
	} else {
		*group = bit.Reset(bitIndex, *group)
	}
}
