package cpu

import (
	"fmt"
	"strings"

	"github.com/valerio/dmgcore/dmg/bit"
)

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      uint16
}

func (d DisassemblyLine) String() string {
	return fmt.Sprintf("%04X: %s", d.Address, d.Instruction)
}

// Disassemble decodes the instruction at pc, filling in immediate operands.
// Reads go through bus, so pass something without side effects on read.
func Disassemble(bus Bus, pc uint16) DisassemblyLine {
	opcode := bus.Read(pc)
	in := &opcodes[opcode]
	if opcode == prefixCB {
		in = &opcodesCB[bus.Read(pc+1)]
	}

	if in.mnemonic == "" {
		return DisassemblyLine{Address: pc, Instruction: fmt.Sprintf("DB 0x%02X", opcode), Length: 1}
	}

	n := bus.Read(pc + 1)
	nn := bit.Combine(bus.Read(pc+2), n)

	text := in.mnemonic
	switch {
	case strings.Contains(text, "d16"):
		text = strings.Replace(text, "d16", fmt.Sprintf("0x%04X", nn), 1)
	case strings.Contains(text, "a16"):
		text = strings.Replace(text, "a16", fmt.Sprintf("0x%04X", nn), 1)
	case strings.Contains(text, "d8"):
		text = strings.Replace(text, "d8", fmt.Sprintf("0x%02X", n), 1)
	case strings.Contains(text, "a8"):
		text = strings.Replace(text, "a8", fmt.Sprintf("0xFF%02X", n), 1)
	case strings.HasPrefix(text, "JR"):
		target := pc + in.length + uint16(int16(int8(n)))
		text = strings.Replace(text, "r8", fmt.Sprintf("0x%04X", target), 1)
	case strings.Contains(text, "r8"):
		text = strings.Replace(text, "r8", fmt.Sprintf("%d", int8(n)), 1)
	}

	return DisassemblyLine{Address: pc, Instruction: text, Length: in.length}
}
