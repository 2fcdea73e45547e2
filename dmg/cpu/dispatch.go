package cpu

import "github.com/dmgcore/dmgcore/dmg/bit"

// opcodeTable and cbTable are built once at package init. Most entries are
// generated by looping over the uniform instruction families (LD r,r', ALU
// A,r, INC/DEC r, and the entire CB-prefixed set); the irregular
// instructions (control flow, stack ops, DAA, interrupts, and anything
// operating on 16-bit pairs) are assigned by hand below, matching the
// one-function-per-opcode style the rest of the table uses.

var opcodeTable [256]func(*CPU) int
var cbTable [256]func(*CPU) int

func init() {
	buildLoadTable()
	buildALUTable()
	buildIncDecTable()
	buildIrregularTable()
	buildCBTable()
}

// buildLoadTable fills in the 0x40-0x7F LD r,r' block: 64 opcodes, uniform
// apart from 0x76 which is HALT instead of LD (HL),(HL).
func buildLoadTable() {
	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			opcode := 0x40 + dst*8 + src
			if opcode == 0x76 {
				continue // HALT, assigned in buildIrregularTable
			}
			d, s := dst, src
			cost := 4
			if d == regHLInd || s == regHLInd {
				cost = 8
			}
			opcodeTable[opcode] = func(c *CPU) int {
				c.writeReg8(d, c.readReg8(s))
				return cost
			}
		}
	}
}

// buildALUTable fills in 0x80-0xBF: ADD/ADC/SUB/SBC/AND/XOR/OR/CP A,r, and
// their 0xC6/0xCE/0xD6/0xDE/0xE6/0xEE/0xF6/0xFE immediate-operand forms.
func buildALUTable() {
	ops := []func(c *CPU, v uint8){
		func(c *CPU, v uint8) { c.addToA(v, false) },
		func(c *CPU, v uint8) { c.addToA(v, true) },
		func(c *CPU, v uint8) { c.sub(v, false) },
		func(c *CPU, v uint8) { c.sub(v, true) },
		func(c *CPU, v uint8) { c.and(v) },
		func(c *CPU, v uint8) { c.xor(v) },
		func(c *CPU, v uint8) { c.or(v) },
		func(c *CPU, v uint8) { c.cp(v) },
	}

	for row := uint8(0); row < 8; row++ {
		op := ops[row]
		for src := uint8(0); src < 8; src++ {
			opcode := 0x80 + row*8 + src
			s := src
			cost := 4
			if s == regHLInd {
				cost = 8
			}
			opcodeTable[opcode] = func(c *CPU) int {
				op(c, c.readReg8(s))
				return cost
			}
		}

		immOpcode := uint8(0xC6) + row*8
		opcodeTable[immOpcode] = func(c *CPU) int {
			op(c, c.readImmediate())
			return 8
		}
	}
}

// buildIncDecTable fills in INC/DEC r for all 8 targets (0x04/0x05 style
// rows, spaced by 8) plus the 16-bit register-pair INC/DEC.
func buildIncDecTable() {
	incOpcodes := [8]uint8{0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C}
	decOpcodes := [8]uint8{0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D}

	for idx := uint8(0); idx < 8; idx++ {
		i := idx
		if i == regHLInd {
			opcodeTable[incOpcodes[i]] = func(c *CPU) int { c.incIndirect(); return 12 }
			opcodeTable[decOpcodes[i]] = func(c *CPU) int { c.decIndirect(); return 12 }
			continue
		}
		opcodeTable[incOpcodes[i]] = func(c *CPU) int {
			v := c.readReg8(i)
			c.inc(&v)
			c.writeReg8(i, v)
			return 4
		}
		opcodeTable[decOpcodes[i]] = func(c *CPU) int {
			v := c.readReg8(i)
			c.dec(&v)
			c.writeReg8(i, v)
			return 4
		}
	}

	opcodeTable[0x03] = func(c *CPU) int { c.setBC(c.getBC() + 1); return 8 }
	opcodeTable[0x13] = func(c *CPU) int { c.setDE(c.getDE() + 1); return 8 }
	opcodeTable[0x23] = func(c *CPU) int { c.setHL(c.getHL() + 1); return 8 }
	opcodeTable[0x33] = func(c *CPU) int { c.sp++; return 8 }

	opcodeTable[0x0B] = func(c *CPU) int { c.setBC(c.getBC() - 1); return 8 }
	opcodeTable[0x1B] = func(c *CPU) int { c.setDE(c.getDE() - 1); return 8 }
	opcodeTable[0x2B] = func(c *CPU) int { c.setHL(c.getHL() - 1); return 8 }
	opcodeTable[0x3B] = func(c *CPU) int { c.sp--; return 8 }
}

// buildCBTable fills in all 256 CB-prefixed opcodes: RLC/RRC/RL/RR/SLA/
// SRA/SWAP/SRL r (0x00-0x3F), BIT b,r (0x40-0x7F), RES b,r (0x80-0xBF),
// SET b,r (0xC0-0xFF).
func buildCBTable() {
	shiftOps := []func(c *CPU, r *uint8){
		(*CPU).rlc,
		(*CPU).rrc,
		(*CPU).rl,
		(*CPU).rr,
		(*CPU).sla,
		(*CPU).sra,
		(*CPU).swap,
		(*CPU).srl,
	}

	for row := uint8(0); row < 8; row++ {
		op := shiftOps[row]
		for idx := uint8(0); idx < 8; idx++ {
			opcode := row*8 + idx
			i := idx
			if i == regHLInd {
				cbTable[opcode] = func(c *CPU) int {
					addr := c.getHL()
					v := c.memory.Read(addr)
					op(c, &v)
					c.memory.Write(addr, v)
					return 16
				}
				continue
			}
			cbTable[opcode] = func(c *CPU) int {
				v := c.readReg8(i)
				op(c, &v)
				c.writeReg8(i, v)
				return 8
			}
		}
	}

	for bitIdx := uint8(0); bitIdx < 8; bitIdx++ {
		b := bitIdx
		for idx := uint8(0); idx < 8; idx++ {
			i := idx

			bitOpcode := 0x40 + b*8 + i
			if i == regHLInd {
				cbTable[bitOpcode] = func(c *CPU) int {
					c.testBit(b, c.memory.Read(c.getHL()))
					return 12
				}
			} else {
				cbTable[bitOpcode] = func(c *CPU) int {
					c.testBit(b, c.readReg8(i))
					return 8
				}
			}

			resOpcode := 0x80 + b*8 + i
			if i == regHLInd {
				cbTable[resOpcode] = func(c *CPU) int {
					addr := c.getHL()
					c.memory.Write(addr, c.memory.Read(addr)&^(1<<b))
					return 16
				}
			} else {
				cbTable[resOpcode] = func(c *CPU) int {
					c.writeReg8(i, c.readReg8(i)&^(1<<b))
					return 8
				}
			}

			setOpcode := 0xC0 + b*8 + i
			if i == regHLInd {
				cbTable[setOpcode] = func(c *CPU) int {
					addr := c.getHL()
					c.memory.Write(addr, c.memory.Read(addr)|(1<<b))
					return 16
				}
			} else {
				cbTable[setOpcode] = func(c *CPU) int {
					c.writeReg8(i, c.readReg8(i)|(1<<b))
					return 8
				}
			}
		}
	}
}

// buildIrregularTable hand-assigns every opcode that doesn't fit a uniform
// family: immediate loads, 16-bit loads, stack ops, control flow, and the
// handful of single-purpose instructions (DAA, CPL, SCF, CCF, DI, EI, HALT,
// STOP, NOP).
func buildIrregularTable() {
	opcodeTable[0x00] = func(c *CPU) int { return 4 } // NOP

	opcodeTable[0x10] = func(c *CPU) int { // STOP
		c.readImmediate() // STOP is followed by an (ignored) padding byte
		c.stopped = true
		return 4
	}

	opcodeTable[0x76] = func(c *CPU) int { // HALT
		ie := c.memory.Read(0xFFFF)
		iflag := c.memory.Read(0xFF0F)
		if !c.ime && ie&iflag&0x1F != 0 {
			c.haltBug = true
		} else {
			c.halted = true
		}
		return 4
	}

	opcodeTable[0xF3] = func(c *CPU) int { c.ime = false; c.imePending = false; return 4 }    // DI
	opcodeTable[0xFB] = func(c *CPU) int { c.imePending = true; return 4 }                    // EI, delayed one instruction
	opcodeTable[0x3F] = func(c *CPU) int { // CCF
		c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		return 4
	}
	opcodeTable[0x37] = func(c *CPU) int { // SCF
		c.setFlag(carryFlag)
		c.resetFlag(subFlag)
		c.resetFlag(halfCarryFlag)
		return 4
	}
	opcodeTable[0x2F] = func(c *CPU) int { c.cpl(); return 4 }
	opcodeTable[0x27] = func(c *CPU) int { c.daa(); return 4 }

	// LD r,n : 8-bit immediate loads
	ldImmOpcodes := [8]uint8{0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E}
	for idx := uint8(0); idx < 8; idx++ {
		i := idx
		cost := 8
		if i == regHLInd {
			cost = 12
		}
		opcodeTable[ldImmOpcodes[i]] = func(c *CPU) int {
			v := c.readImmediate()
			c.writeReg8(i, v)
			return cost
		}
	}

	opcodeTable[0x01] = func(c *CPU) int { c.setBC(c.readImmediateWord()); return 12 }
	opcodeTable[0x11] = func(c *CPU) int { c.setDE(c.readImmediateWord()); return 12 }
	opcodeTable[0x21] = func(c *CPU) int { c.setHL(c.readImmediateWord()); return 12 }
	opcodeTable[0x31] = func(c *CPU) int { c.sp = c.readImmediateWord(); return 12 }

	opcodeTable[0x02] = func(c *CPU) int { c.memory.Write(c.getBC(), c.a); return 8 }
	opcodeTable[0x12] = func(c *CPU) int { c.memory.Write(c.getDE(), c.a); return 8 }
	opcodeTable[0x0A] = func(c *CPU) int { c.a = c.memory.Read(c.getBC()); return 8 }
	opcodeTable[0x1A] = func(c *CPU) int { c.a = c.memory.Read(c.getDE()); return 8 }

	opcodeTable[0x22] = func(c *CPU) int { // LD (HL+),A
		hl := c.getHL()
		c.memory.Write(hl, c.a)
		c.setHL(hl + 1)
		return 8
	}
	opcodeTable[0x2A] = func(c *CPU) int { // LD A,(HL+)
		hl := c.getHL()
		c.a = c.memory.Read(hl)
		c.setHL(hl + 1)
		return 8
	}
	opcodeTable[0x32] = func(c *CPU) int { // LD (HL-),A
		hl := c.getHL()
		c.memory.Write(hl, c.a)
		c.setHL(hl - 1)
		return 8
	}
	opcodeTable[0x3A] = func(c *CPU) int { // LD A,(HL-)
		hl := c.getHL()
		c.a = c.memory.Read(hl)
		c.setHL(hl - 1)
		return 8
	}

	opcodeTable[0x08] = func(c *CPU) int { // LD (nn),SP
		addr := c.readImmediateWord()
		c.memory.Write(addr, bit.Low(c.sp))
		c.memory.Write(addr+1, bit.High(c.sp))
		return 20
	}

	opcodeTable[0xE0] = func(c *CPU) int { // LDH (n),A
		offset := c.readImmediate()
		c.memory.Write(0xFF00+uint16(offset), c.a)
		return 12
	}
	opcodeTable[0xF0] = func(c *CPU) int { // LDH A,(n)
		offset := c.readImmediate()
		c.a = c.memory.Read(0xFF00 + uint16(offset))
		return 12
	}
	opcodeTable[0xE2] = func(c *CPU) int { c.memory.Write(0xFF00+uint16(c.c), c.a); return 8 }
	opcodeTable[0xF2] = func(c *CPU) int { c.a = c.memory.Read(0xFF00 + uint16(c.c)); return 8 }

	opcodeTable[0xEA] = func(c *CPU) int { c.memory.Write(c.readImmediateWord(), c.a); return 16 }
	opcodeTable[0xFA] = func(c *CPU) int { c.a = c.memory.Read(c.readImmediateWord()); return 16 }

	opcodeTable[0xF9] = func(c *CPU) int { c.sp = c.getHL(); return 8 } // LD SP,HL
	opcodeTable[0xF8] = func(c *CPU) int { // LD HL,SP+e8
		e := c.readSignedImmediate()
		c.setHL(c.addSPSigned(e))
		return 12
	}
	opcodeTable[0xE8] = func(c *CPU) int { // ADD SP,e8
		e := c.readSignedImmediate()
		c.sp = c.addSPSigned(e)
		return 16
	}

	// ADD HL,rr
	opcodeTable[0x09] = func(c *CPU) int { c.addToHL(c.getBC()); return 8 }
	opcodeTable[0x19] = func(c *CPU) int { c.addToHL(c.getDE()); return 8 }
	opcodeTable[0x29] = func(c *CPU) int { c.addToHL(c.getHL()); return 8 }
	opcodeTable[0x39] = func(c *CPU) int { c.addToHL(c.sp); return 8 }

	// Accumulator rotates (unlike the CB rotate family, these always clear Z)
	opcodeTable[0x07] = func(c *CPU) int { c.rlc(&c.a); c.resetFlag(zeroFlag); return 4 }
	opcodeTable[0x0F] = func(c *CPU) int { c.rrc(&c.a); c.resetFlag(zeroFlag); return 4 }
	opcodeTable[0x17] = func(c *CPU) int { c.rl(&c.a); c.resetFlag(zeroFlag); return 4 }
	opcodeTable[0x1F] = func(c *CPU) int { c.rr(&c.a); c.resetFlag(zeroFlag); return 4 }

	// PUSH/POP
	opcodeTable[0xC5] = func(c *CPU) int { c.pushStack(c.getBC()); return 16 }
	opcodeTable[0xD5] = func(c *CPU) int { c.pushStack(c.getDE()); return 16 }
	opcodeTable[0xE5] = func(c *CPU) int { c.pushStack(c.getHL()); return 16 }
	opcodeTable[0xF5] = func(c *CPU) int { c.pushStack(c.getAF()); return 16 }

	opcodeTable[0xC1] = func(c *CPU) int { c.setBC(c.popStack()); return 12 }
	opcodeTable[0xD1] = func(c *CPU) int { c.setDE(c.popStack()); return 12 }
	opcodeTable[0xE1] = func(c *CPU) int { c.setHL(c.popStack()); return 12 }
	opcodeTable[0xF1] = func(c *CPU) int { c.setAF(c.popStack()); return 12 } // setAF already zeros F's low nibble

	// Unconditional control flow
	opcodeTable[0x18] = func(c *CPU) int { c.jr(); return 12 }
	opcodeTable[0xC3] = func(c *CPU) int { c.jp(); return 16 }
	opcodeTable[0xE9] = func(c *CPU) int { c.pc = c.getHL(); return 4 }
	opcodeTable[0xCD] = func(c *CPU) int { c.call(); return 24 }
	opcodeTable[0xC9] = func(c *CPU) int { c.ret(); return 16 }
	opcodeTable[0xD9] = func(c *CPU) int { c.ret(); c.ime = true; return 16 } // RETI

	// Conditional jumps/calls/rets: condition, opcode base for JR/JP/CALL/RET
	type cond struct {
		test func(c *CPU) bool
	}
	conds := [4]cond{
		{func(c *CPU) bool { return !c.isSetFlag(zeroFlag) }},  // NZ
		{func(c *CPU) bool { return c.isSetFlag(zeroFlag) }},   // Z
		{func(c *CPU) bool { return !c.isSetFlag(carryFlag) }}, // NC
		{func(c *CPU) bool { return c.isSetFlag(carryFlag) }},  // C
	}

	jrOpcodes := [4]uint8{0x20, 0x28, 0x30, 0x38}
	jpOpcodes := [4]uint8{0xC2, 0xCA, 0xD2, 0xDA}
	callOpcodes := [4]uint8{0xC4, 0xCC, 0xD4, 0xDC}
	retOpcodes := [4]uint8{0xC0, 0xC8, 0xD0, 0xD8}

	for i := 0; i < 4; i++ {
		test := conds[i].test
		opcodeTable[jrOpcodes[i]] = func(c *CPU) int {
			taken := test(c)
			offset := c.readSignedImmediate()
			if taken {
				c.pc = uint16(int32(c.pc) + int32(offset))
				return 12
			}
			return 8
		}
		opcodeTable[jpOpcodes[i]] = func(c *CPU) int {
			target := c.readImmediateWord()
			if test(c) {
				c.pc = target
				return 16
			}
			return 12
		}
		opcodeTable[callOpcodes[i]] = func(c *CPU) int {
			target := c.readImmediateWord()
			if test(c) {
				c.pushStack(c.pc)
				c.pc = target
				return 24
			}
			return 12
		}
		opcodeTable[retOpcodes[i]] = func(c *CPU) int {
			if test(c) {
				c.ret()
				return 20
			}
			return 8
		}
	}

	// RST
	rstOpcodes := [8]uint8{0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF}
	for i, vec := range [8]uint16{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		v := vec
		opcodeTable[rstOpcodes[i]] = func(c *CPU) int { c.rst(v); return 16 }
	}

	opcodeTable[0xCB] = nil // handled specially in Step, never dispatched directly

	// 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD are
	// illegal on real hardware; leaving them nil makes Step report a
	// CoreFault instead of silently executing garbage.
}
