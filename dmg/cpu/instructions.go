package cpu

import "github.com/valerio/dmgcore/dmg/bit"

// flag effects, Z N H C order
var (
	flagsInc   = MustFlags("Z0H-")
	flagsDec   = MustFlags("Z1H-")
	flagsAdd   = MustFlags("Z0HC")
	flagsSub   = MustFlags("Z1HC")
	flagsAnd   = MustFlags("Z010")
	flagsOr    = MustFlags("Z000")
	flagsAddHL = MustFlags("-0HC")
	flagsAddSP = MustFlags("00HC")
	flagsRotA  = MustFlags("000C")
	flagsShift = MustFlags("Z00C")
	flagsBit   = MustFlags("Z01-")
	flagsDAA   = MustFlags("Z-0C")
	flagsCPL   = MustFlags("-11-")
	flagsSCF   = MustFlags("-001")
	flagsCCF   = MustFlags("-00C")
)

// operand encoding used by the regular opcode blocks: bits 2-0 (source) and
// 5-3 (destination) index this list, 6 meaning the byte at (HL).
var operands = [8]Reg8{B, C, D, E, H, L, 0, A}

const operandHL = 6

var operandNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

func (c *CPU) readOperand(index int) uint8 {
	if index == operandHL {
		return c.bus.Read(c.reg.GetPair(HL))
	}
	return c.reg.Get(operands[index])
}

func (c *CPU) writeOperand(index int, value uint8) {
	if index == operandHL {
		c.bus.Write(c.reg.GetPair(HL), value)
		return
	}
	c.reg.Set(operands[index], value)
}

// wide is a 16 bit operand: the register pairs plus SP, which shares the
// encoding slot of AF in most opcode groups.
type wide uint8

const (
	wideBC wide = iota
	wideDE
	wideHL
	wideSP
)

var wideNames = [4]string{"BC", "DE", "HL", "SP"}

func (c *CPU) getWide(w wide) uint16 {
	switch w {
	case wideBC:
		return c.reg.GetPair(BC)
	case wideDE:
		return c.reg.GetPair(DE)
	case wideHL:
		return c.reg.GetPair(HL)
	default:
		return c.reg.SP
	}
}

func (c *CPU) setWide(w wide, value uint16) {
	switch w {
	case wideBC:
		c.reg.SetPair(BC, value)
	case wideDE:
		c.reg.SetPair(DE, value)
	case wideHL:
		c.reg.SetPair(HL, value)
	default:
		c.reg.SP = value
	}
}

func (c *CPU) carryBit() uint8 {
	return c.reg.flagToBit(carryFlag)
}

func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.reg.SetFlags(flagsInc, FlagValues{
		Z: result == 0,
		H: bit.HalfCarryAdd(value, 1, 0),
	})
	return result
}

func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.reg.SetFlags(flagsDec, FlagValues{
		Z: result == 0,
		H: bit.HalfBorrowSub(value, 1, 0),
	})
	return result
}

// add stores A + value (+ carry flag when withCarry) into A.
func (c *CPU) add(value uint8, withCarry bool) {
	a := c.reg.Get(A)
	var carry uint8
	if withCarry {
		carry = c.carryBit()
	}

	result := a + value + carry
	c.reg.Set(A, result)
	c.reg.SetFlags(flagsAdd, FlagValues{
		Z: result == 0,
		H: bit.HalfCarryAdd(a, value, carry),
		C: bit.CarryAdd(a, value, carry),
	})
}

// compare computes A - value (- carry flag when withCarry) and sets the flags,
// returning the result without storing it. Shared by SUB, SBC and CP.
func (c *CPU) compare(value uint8, withCarry bool) uint8 {
	a := c.reg.Get(A)
	var carry uint8
	if withCarry {
		carry = c.carryBit()
	}

	result := a - value - carry
	c.reg.SetFlags(flagsSub, FlagValues{
		Z: result == 0,
		H: bit.HalfBorrowSub(a, value, carry),
		C: bit.BorrowSub(a, value, carry),
	})
	return result
}

func (c *CPU) sub(value uint8, withCarry bool) {
	c.reg.Set(A, c.compare(value, withCarry))
}

func (c *CPU) and(value uint8) {
	result := c.reg.Get(A) & value
	c.reg.Set(A, result)
	c.reg.SetFlags(flagsAnd, FlagValues{Z: result == 0})
}

func (c *CPU) or(value uint8) {
	result := c.reg.Get(A) | value
	c.reg.Set(A, result)
	c.reg.SetFlags(flagsOr, FlagValues{Z: result == 0})
}

func (c *CPU) xor(value uint8) {
	result := c.reg.Get(A) ^ value
	c.reg.Set(A, result)
	c.reg.SetFlags(flagsOr, FlagValues{Z: result == 0})
}

// alu is the 8 operations of the 0x80-0xBF block and their immediate forms, in encoding order.
var alu = [8]struct {
	name string
	op   func(c *CPU, value uint8)
}{
	{"ADD A,", func(c *CPU, v uint8) { c.add(v, false) }},
	{"ADC A,", func(c *CPU, v uint8) { c.add(v, true) }},
	{"SUB ", func(c *CPU, v uint8) { c.sub(v, false) }},
	{"SBC A,", func(c *CPU, v uint8) { c.sub(v, true) }},
	{"AND ", (*CPU).and},
	{"XOR ", (*CPU).xor},
	{"OR ", (*CPU).or},
	{"CP ", func(c *CPU, v uint8) { c.compare(v, false) }},
}

// addToHL sets the result of adding a 16 bit value to HL, carries are taken
// from bit 11 and bit 15.
func (c *CPU) addToHL(value uint16) {
	hl := c.reg.GetPair(HL)
	c.reg.SetPair(HL, hl+value)
	c.reg.SetFlags(flagsAddHL, FlagValues{
		H: bit.HalfCarryAdd16(hl, value),
		C: bit.CarryAdd16(hl, value),
	})
}

// offsetSP returns SP + the signed immediate, setting flags as ADD SP,r8 and
// LD HL,SP+r8 do: H and C come from the unsigned add of the low bytes.
func (c *CPU) offsetSP() uint16 {
	sp := c.reg.SP
	offset := c.readImmediate()

	c.reg.SetFlags(flagsAddSP, FlagValues{
		H: bit.HalfCarryAdd(bit.Low(sp), offset, 0),
		C: bit.CarryAdd(bit.Low(sp), offset, 0),
	})

	return sp + uint16(int8(offset))
}

// daa corrects A after a BCD addition or subtraction.
func (c *CPU) daa() {
	a := c.reg.Get(A)
	carry := c.reg.flag(carryFlag)

	if !c.reg.flag(subFlag) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.reg.flag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.reg.flag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.reg.Set(A, a)
	c.reg.SetFlags(flagsDAA, FlagValues{Z: a == 0, C: carry})
}

// shift is one rotate/shift operation. Each returns the result and the bit
// shifted out, which becomes the carry flag.
type shift func(c *CPU, value uint8) (uint8, bool)

// shifts lists the CB 0x00-0x3F operations in encoding order.
var shifts = [8]struct {
	name string
	op   shift
}{
	{"RLC", func(c *CPU, v uint8) (uint8, bool) { return v<<1 | v>>7, v&0x80 != 0 }},
	{"RRC", func(c *CPU, v uint8) (uint8, bool) { return v>>1 | v<<7, v&0x01 != 0 }},
	{"RL", func(c *CPU, v uint8) (uint8, bool) { return v<<1 | c.carryBit(), v&0x80 != 0 }},
	{"RR", func(c *CPU, v uint8) (uint8, bool) { return v>>1 | c.carryBit()<<7, v&0x01 != 0 }},
	{"SLA", func(c *CPU, v uint8) (uint8, bool) { return v << 1, v&0x80 != 0 }},
	{"SRA", func(c *CPU, v uint8) (uint8, bool) { return v>>1 | v&0x80, v&0x01 != 0 }},
	{"SWAP", func(c *CPU, v uint8) (uint8, bool) { return v<<4 | v>>4, false }},
	{"SRL", func(c *CPU, v uint8) (uint8, bool) { return v >> 1, v&0x01 != 0 }},
}

// rotateA runs one of the accumulator rotations (RLCA, RRCA, RLA, RRA).
// Unlike the CB forms, Z is always reset.
func (c *CPU) rotateA(op shift) {
	result, carry := op(c, c.reg.Get(A))
	c.reg.Set(A, result)
	c.reg.SetFlags(flagsRotA, FlagValues{C: carry})
}

func (c *CPU) shiftOperand(op shift, index int) {
	result, carry := op(c, c.readOperand(index))
	c.writeOperand(index, result)
	c.reg.SetFlags(flagsShift, FlagValues{Z: result == 0, C: carry})
}

func (c *CPU) testBit(index, value uint8) {
	c.reg.SetFlags(flagsBit, FlagValues{Z: !bit.IsSet(index, value)})
}

// jr adds the signed immediate to PC. Step then adds the instruction length
// on top, making the offset relative to the next instruction.
func (c *CPU) jr() {
	c.jump(c.reg.PC + uint16(int16(c.readSignedImmediate())))
}

func (c *CPU) call(target uint16) {
	c.pushStack(c.reg.PC + 3)
	c.jump(target)
}

func (c *CPU) ret() {
	c.jump(c.popStack())
}

func (c *CPU) rst(vector uint16) {
	c.pushStack(c.reg.PC + 1)
	c.jump(vector)
}

// conditional wraps a branch so it only runs, and costs the taken cycles, when cond holds.
func conditional(cond Condition, branch func(c *CPU)) func(c *CPU) {
	return func(c *CPU) {
		if c.reg.Test(cond) {
			c.taken = true
			branch(c)
		}
	}
}
