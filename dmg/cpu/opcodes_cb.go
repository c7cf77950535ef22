package cpu

import (
	"fmt"

	"github.com/valerio/dmgcore/dmg/bit"
)

// opcodesCB is the table of 0xCB-prefixed opcodes. Every entry is defined:
//
//	0x00-0x3F  rotates and shifts (RLC RRC RL RR SLA SRA SWAP SRL)
//	0x40-0x7F  BIT b,r
//	0x80-0xBF  RES b,r
//	0xC0-0xFF  SET b,r
//
// Bits 2-0 select the operand, bits 5-3 the operation or bit index.
var opcodesCB [256]instruction

func init() {
	for code := range 256 {
		r := code & 7
		y := bit.ExtractBits(uint8(code), 5, 3)
		onHL := r == operandHL

		in := instruction{length: 2, cycles: 8}
		if onHL {
			in.cycles = 16
		}

		switch bit.ExtractBits(uint8(code), 7, 6) {
		case 0:
			op := shifts[y]
			in.mnemonic = op.name + " " + operandNames[r]
			in.exec = func(c *CPU) { c.shiftOperand(op.op, r) }
		case 1:
			in.mnemonic = fmt.Sprintf("BIT %d,%s", y, operandNames[r])
			if onHL {
				in.cycles = 12
			}
			in.exec = func(c *CPU) { c.testBit(y, c.readOperand(r)) }
		case 2:
			in.mnemonic = fmt.Sprintf("RES %d,%s", y, operandNames[r])
			in.exec = func(c *CPU) { c.writeOperand(r, bit.Reset(y, c.readOperand(r))) }
		case 3:
			in.mnemonic = fmt.Sprintf("SET %d,%s", y, operandNames[r])
			in.exec = func(c *CPU) { c.writeOperand(r, bit.Set(y, c.readOperand(r))) }
		}

		opcodesCB[code] = in
	}
}
