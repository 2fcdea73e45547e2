// Package cpu implements the Sharp LR35902 instruction set: flat 8-bit
// registers, a table-driven opcode dispatch (256 base opcodes plus the 256
// CB-prefixed ones), and the five-source interrupt service routine.
package cpu

import (
	"fmt"

	"github.com/dmgcore/dmgcore/dmg/addr"
	"github.com/dmgcore/dmgcore/dmg/bit"
)

// Flag is one of the 4 flags packed into the high nibble of F.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Memory is the address-space surface the CPU needs: byte read/write. IF
// and IE are reached through the same Read/Write. *memory.MMU satisfies
// this.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CoreFault is returned by Step when the CPU hits something it cannot
// recover from on its own, currently only an illegal (undefined) opcode.
// The core never panics across this boundary; a host decides whether a
// fault is fatal.
type CoreFault struct {
	PC     uint16
	Opcode uint8
	Reason string
}

func (e *CoreFault) Error() string {
	return fmt.Sprintf("core fault at 0x%04X: opcode 0x%02X %s", e.PC, e.Opcode, e.Reason)
}

// CPU holds the Sharp LR35902 register file and execution state.
type CPU struct {
	memory Memory

	a, f   uint8
	b, c   uint8
	d, e   uint8
	h, l   uint8
	sp, pc uint16

	ime        bool
	imePending bool // EI delays enabling IME by one instruction
	halted     bool
	haltBug    bool
	stopped    bool

	// IF/IE are owned by the MMU; the CPU reads them through memory access
	// the same as any other register, per the real hardware.
}

// New creates a CPU wired to mem, with registers at their post-boot-ROM
// values (the state a real DMG leaves them in after the internal boot ROM
// hands off to the cartridge at 0x0100).
func New(mem Memory) *CPU {
	c := &CPU{memory: mem}
	c.a, c.f = 0x01, 0xB0
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100
	return c
}

// PC returns the current program counter, for debugging/disassembly.
func (c *CPU) PC() uint16 { return c.pc }

// SetPC forcibly repoints execution, used by test-ROM harnesses that skip
// the boot sequence and jump straight into a test image.
func (c *CPU) SetPC(pc uint16) { c.pc = pc }

// IME reports whether interrupts are currently enabled.
func (c *CPU) IME() bool { return c.ime }

// Halted reports whether the CPU is in the low-power HALT state.
func (c *CPU) Halted() bool { return c.halted }

// Registers returns the full register file, for test assertions and
// Mooneye-style pass signatures.
func (c *CPU) Registers() (a, f, b, cReg, d, e, h, l uint8, sp, pc uint16) {
	return c.a, c.f, c.b, c.c, c.d, c.e, c.h, c.l, c.sp, c.pc
}

// ServiceInterrupts checks IE & IF for a pending, enabled interrupt and
// dispatches the highest-priority one (VBlank first), returning the number
// of cycles consumed (20 if an interrupt was serviced, 0 otherwise). A
// HALTed CPU wakes on any pending interrupt even with IME off, but only
// dispatches if IME is on.
func (c *CPU) ServiceInterrupts() int {
	ie := c.memory.Read(addr.IE)
	iflag := c.memory.Read(addr.IF)
	pending := ie & iflag & 0x1F

	if pending != 0 {
		c.halted = false
	}

	if !c.ime || pending == 0 {
		return 0
	}

	for _, interrupt := range interruptPriority {
		if pending&uint8(interrupt) == 0 {
			continue
		}
		c.ime = false
		c.memory.Write(addr.IF, iflag&^uint8(interrupt))
		c.pushStack(c.pc)
		c.pc = addr.Vector[interrupt]
		return 20
	}
	return 0
}

var interruptPriority = []addr.Interrupt{
	addr.VBlankInterrupt,
	addr.LCDSTATInterrupt,
	addr.TimerInterrupt,
	addr.SerialInterrupt,
	addr.JoypadInterrupt,
}

// Step executes exactly one instruction (or, if HALTed/STOPped with no
// pending interrupt, advances time without fetching) and returns the
// number of T-cycles it took.
func (c *CPU) Step() (int, error) {
	if c.imePendingConsume() {
		c.ime = true
	}

	if c.stopped {
		return 4, nil
	}

	if c.halted {
		return 4, nil
	}

	opcode := c.memory.Read(c.pc)
	c.pc++

	if c.haltBug {
		// The HALT bug: HALT executed with IME off and a pending
		// interrupt fails to advance PC past the following opcode, so
		// it is fetched twice.
		c.pc--
		c.haltBug = false
	}

	if opcode == 0xCB {
		cb := c.memory.Read(c.pc)
		c.pc++
		fn := cbTable[cb]
		if fn == nil {
			return 0, &CoreFault{PC: c.pc - 2, Opcode: cb, Reason: "illegal CB-prefixed opcode"}
		}
		return fn(c), nil
	}

	fn := opcodeTable[opcode]
	if fn == nil {
		return 0, &CoreFault{PC: c.pc - 1, Opcode: opcode, Reason: "illegal opcode"}
	}
	return fn(c), nil
}

func (c *CPU) imePendingConsume() bool {
	if !c.imePending {
		return false
	}
	c.imePending = false
	return true
}

// flag helpers

func (c *CPU) setFlag(flag Flag)   { c.f |= uint8(flag) }
func (c *CPU) resetFlag(flag Flag) { c.f &^= uint8(flag) }
func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}
func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

// 16-bit register pair accessors

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f&0xF0) }
func (c *CPU) setAF(v uint16) {
	c.a = bit.High(v)
	c.f = bit.Low(v) & 0xF0 // the low nibble of F is always zero
}
func (c *CPU) getBC() uint16  { return bit.Combine(c.b, c.c) }
func (c *CPU) setBC(v uint16) { c.b, c.c = bit.High(v), bit.Low(v) }
func (c *CPU) getDE() uint16  { return bit.Combine(c.d, c.e) }
func (c *CPU) setDE(v uint16) { c.d, c.e = bit.High(v), bit.Low(v) }
func (c *CPU) getHL() uint16  { return bit.Combine(c.h, c.l) }
func (c *CPU) setHL(v uint16) { c.h, c.l = bit.High(v), bit.Low(v) }

func (c *CPU) readImmediate() uint8 {
	v := c.memory.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) pushStack(v uint16) {
	c.sp--
	c.memory.Write(c.sp, bit.High(v))
	c.sp--
	c.memory.Write(c.sp, bit.Low(v))
}

func (c *CPU) popStack() uint16 {
	low := c.memory.Read(c.sp)
	c.sp++
	high := c.memory.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}
