package cpu

import "github.com/valerio/dmgcore/dmg/bit"

// instruction describes one opcode. Mnemonics use d8/d16 for immediate data,
// a8/a16 for immediate addresses and r8 for signed offsets.
type instruction struct {
	mnemonic string
	length   uint16
	cycles   int
	taken    int  // cycle cost when a conditional branch is taken
	relative bool // PC advances by length even after the handler moved it
	exec     func(c *CPU)
}

// opcodes is the primary dispatch table. Entries with a nil handler are
// opcodes the LR35902 does not define, 0xCB selects opcodesCB instead.
var opcodes = [256]instruction{
	0x00: {"NOP", 1, 4, 0, false, func(c *CPU) {}},
	0x02: {"LD (BC),A", 1, 8, 0, false, func(c *CPU) {
		c.bus.Write(c.reg.GetPair(BC), c.reg.Get(A))
	}},
	0x07: {"RLCA", 1, 4, 0, false, func(c *CPU) { c.rotateA(shifts[0].op) }},
	0x08: {"LD (a16),SP", 3, 20, 0, false, func(c *CPU) {
		address := c.readImmediateWord()
		c.bus.Write(address, bit.Low(c.reg.SP))
		c.bus.Write(address+1, bit.High(c.reg.SP))
	}},
	0x0A: {"LD A,(BC)", 1, 8, 0, false, func(c *CPU) {
		c.reg.Set(A, c.bus.Read(c.reg.GetPair(BC)))
	}},
	0x0F: {"RRCA", 1, 4, 0, false, func(c *CPU) { c.rotateA(shifts[1].op) }},

	// STOP is treated as HALT, the second byte is ignored
	0x10: {"STOP", 2, 4, 0, false, func(c *CPU) { c.irq.Halt() }},
	0x12: {"LD (DE),A", 1, 8, 0, false, func(c *CPU) {
		c.bus.Write(c.reg.GetPair(DE), c.reg.Get(A))
	}},
	0x17: {"RLA", 1, 4, 0, false, func(c *CPU) { c.rotateA(shifts[2].op) }},
	0x18: {"JR r8", 2, 12, 0, true, (*CPU).jr},
	0x1A: {"LD A,(DE)", 1, 8, 0, false, func(c *CPU) {
		c.reg.Set(A, c.bus.Read(c.reg.GetPair(DE)))
	}},
	0x1F: {"RRA", 1, 4, 0, false, func(c *CPU) { c.rotateA(shifts[3].op) }},

	0x20: {"JR NZ,r8", 2, 8, 12, true, conditional(CondNZ, (*CPU).jr)},
	0x22: {"LD (HL+),A", 1, 8, 0, false, func(c *CPU) {
		hl := c.reg.GetPair(HL)
		c.bus.Write(hl, c.reg.Get(A))
		c.reg.SetPair(HL, hl+1)
	}},
	0x27: {"DAA", 1, 4, 0, false, (*CPU).daa},
	0x28: {"JR Z,r8", 2, 8, 12, true, conditional(CondZ, (*CPU).jr)},
	0x2A: {"LD A,(HL+)", 1, 8, 0, false, func(c *CPU) {
		hl := c.reg.GetPair(HL)
		c.reg.Set(A, c.bus.Read(hl))
		c.reg.SetPair(HL, hl+1)
	}},
	0x2F: {"CPL", 1, 4, 0, false, func(c *CPU) {
		c.reg.Set(A, ^c.reg.Get(A))
		c.reg.SetFlags(flagsCPL, FlagValues{})
	}},

	0x30: {"JR NC,r8", 2, 8, 12, true, conditional(CondNC, (*CPU).jr)},
	0x32: {"LD (HL-),A", 1, 8, 0, false, func(c *CPU) {
		hl := c.reg.GetPair(HL)
		c.bus.Write(hl, c.reg.Get(A))
		c.reg.SetPair(HL, hl-1)
	}},
	0x37: {"SCF", 1, 4, 0, false, func(c *CPU) {
		c.reg.SetFlags(flagsSCF, FlagValues{})
	}},
	0x38: {"JR C,r8", 2, 8, 12, true, conditional(CondC, (*CPU).jr)},
	0x3A: {"LD A,(HL-)", 1, 8, 0, false, func(c *CPU) {
		hl := c.reg.GetPair(HL)
		c.reg.Set(A, c.bus.Read(hl))
		c.reg.SetPair(HL, hl-1)
	}},
	0x3F: {"CCF", 1, 4, 0, false, func(c *CPU) {
		c.reg.SetFlags(flagsCCF, FlagValues{C: !c.reg.flag(carryFlag)})
	}},

	0x76: {"HALT", 1, 4, 0, false, func(c *CPU) { c.irq.Halt() }},

	0xC3: {"JP a16", 3, 16, 0, false, func(c *CPU) { c.jump(c.readImmediateWord()) }},
	0xC9: {"RET", 1, 16, 0, false, (*CPU).ret},
	0xCB: {"PREFIX CB", 2, 4, 0, false, nil},
	0xCD: {"CALL a16", 3, 24, 0, false, func(c *CPU) { c.call(c.readImmediateWord()) }},

	0xD9: {"RETI", 1, 16, 0, false, func(c *CPU) {
		c.ret()
		c.irq.EnableMasterNow()
	}},

	0xE0: {"LDH (a8),A", 2, 12, 0, false, func(c *CPU) {
		c.bus.Write(0xFF00+uint16(c.readImmediate()), c.reg.Get(A))
	}},
	0xE2: {"LD (C),A", 1, 8, 0, false, func(c *CPU) {
		c.bus.Write(0xFF00+uint16(c.reg.Get(C)), c.reg.Get(A))
	}},
	0xE8: {"ADD SP,r8", 2, 16, 0, false, func(c *CPU) { c.reg.SP = c.offsetSP() }},
	0xE9: {"JP (HL)", 1, 4, 0, false, func(c *CPU) { c.jump(c.reg.GetPair(HL)) }},
	0xEA: {"LD (a16),A", 3, 16, 0, false, func(c *CPU) {
		c.bus.Write(c.readImmediateWord(), c.reg.Get(A))
	}},

	0xF0: {"LDH A,(a8)", 2, 12, 0, false, func(c *CPU) {
		c.reg.Set(A, c.bus.Read(0xFF00+uint16(c.readImmediate())))
	}},
	0xF2: {"LD A,(C)", 1, 8, 0, false, func(c *CPU) {
		c.reg.Set(A, c.bus.Read(0xFF00+uint16(c.reg.Get(C))))
	}},
	0xF3: {"DI", 1, 4, 0, false, func(c *CPU) { c.irq.DisableMaster() }},
	0xF8: {"LD HL,SP+r8", 2, 12, 0, false, func(c *CPU) { c.reg.SetPair(HL, c.offsetSP()) }},
	0xF9: {"LD SP,HL", 1, 8, 0, false, func(c *CPU) { c.reg.SP = c.reg.GetPair(HL) }},
	0xFA: {"LD A,(a16)", 3, 16, 0, false, func(c *CPU) {
		c.reg.Set(A, c.bus.Read(c.readImmediateWord()))
	}},
	0xFB: {"EI", 1, 4, 0, false, func(c *CPU) { c.irq.EnableMaster() }},
}

// stackPairs is the PUSH/POP operand order, AF taking the slot SP has elsewhere.
var stackPairs = [4]Pair{BC, DE, HL, AF}

var conditions = [4]Condition{CondNZ, CondZ, CondNC, CondC}

// the regular blocks of the primary table are filled from their bit encoding.
func init() {
	for i := range 4 {
		w := wide(i)
		row := uint8(i) << 4
		name := wideNames[w]

		opcodes[0x01|row] = instruction{mnemonic: "LD " + name + ",d16", length: 3, cycles: 12, exec: func(c *CPU) {
			c.setWide(w, c.readImmediateWord())
		}}
		opcodes[0x03|row] = instruction{mnemonic: "INC " + name, length: 1, cycles: 8, exec: func(c *CPU) {
			c.setWide(w, c.getWide(w)+1)
		}}
		opcodes[0x09|row] = instruction{mnemonic: "ADD HL," + name, length: 1, cycles: 8, exec: func(c *CPU) {
			c.addToHL(c.getWide(w))
		}}
		opcodes[0x0B|row] = instruction{mnemonic: "DEC " + name, length: 1, cycles: 8, exec: func(c *CPU) {
			c.setWide(w, c.getWide(w)-1)
		}}

		pair := stackPairs[i]
		opcodes[0xC1|row] = instruction{mnemonic: "POP " + pair.String(), length: 1, cycles: 12, exec: func(c *CPU) {
			c.reg.SetPair(pair, c.popStack())
		}}
		opcodes[0xC5|row] = instruction{mnemonic: "PUSH " + pair.String(), length: 1, cycles: 16, exec: func(c *CPU) {
			c.pushStack(c.reg.GetPair(pair))
		}}

		cond := conditions[i]
		col := uint8(i) << 3
		opcodes[0xC0|col] = instruction{mnemonic: "RET " + cond.String(), length: 1, cycles: 8, taken: 20,
			exec: conditional(cond, (*CPU).ret)}
		opcodes[0xC2|col] = instruction{mnemonic: "JP " + cond.String() + ",a16", length: 3, cycles: 12, taken: 16,
			exec: conditional(cond, func(c *CPU) { c.jump(c.readImmediateWord()) })}
		opcodes[0xC4|col] = instruction{mnemonic: "CALL " + cond.String() + ",a16", length: 3, cycles: 12, taken: 24,
			exec: conditional(cond, func(c *CPU) { c.call(c.readImmediateWord()) })}
	}

	for r := range 8 {
		col := uint8(r) << 3
		name := operandNames[r]
		cycles, load := 4, 8
		if r == operandHL {
			cycles, load = 12, 12
		}

		opcodes[0x04|col] = instruction{mnemonic: "INC " + name, length: 1, cycles: cycles, exec: func(c *CPU) {
			c.writeOperand(r, c.inc(c.readOperand(r)))
		}}
		opcodes[0x05|col] = instruction{mnemonic: "DEC " + name, length: 1, cycles: cycles, exec: func(c *CPU) {
			c.writeOperand(r, c.dec(c.readOperand(r)))
		}}
		opcodes[0x06|col] = instruction{mnemonic: "LD " + name + ",d8", length: 2, cycles: load, exec: func(c *CPU) {
			c.writeOperand(r, c.readImmediate())
		}}

		op := alu[r]
		opcodes[0xC6|col] = instruction{mnemonic: op.name + "d8", length: 2, cycles: 8, exec: func(c *CPU) {
			op.op(c, c.readImmediate())
		}}

		vector := uint16(col)
		opcodes[0xC7|col] = instruction{mnemonic: "RST " + rstNames[r], length: 1, cycles: 16, exec: func(c *CPU) {
			c.rst(vector)
		}}
	}

	// 0x40-0x7F: LD r,r' (0x76 is HALT)
	for code := 0x40; code < 0x80; code++ {
		if code == 0x76 {
			continue
		}
		dst, src := (code>>3)&7, code&7
		cycles := 4
		if dst == operandHL || src == operandHL {
			cycles = 8
		}
		opcodes[code] = instruction{
			mnemonic: "LD " + operandNames[dst] + "," + operandNames[src],
			length:   1,
			cycles:   cycles,
			exec: func(c *CPU) {
				c.writeOperand(dst, c.readOperand(src))
			},
		}
	}

	// 0x80-0xBF: ALU A,r
	for code := 0x80; code < 0xC0; code++ {
		op, src := alu[bit.ExtractBits(uint8(code), 5, 3)], code&7
		cycles := 4
		if src == operandHL {
			cycles = 8
		}
		opcodes[code] = instruction{
			mnemonic: op.name + operandNames[src],
			length:   1,
			cycles:   cycles,
			exec: func(c *CPU) {
				op.op(c, c.readOperand(src))
			},
		}
	}
}

var rstNames = [8]string{"00H", "08H", "10H", "18H", "20H", "28H", "30H", "38H"}
