package cpu

import (
	"fmt"

	"github.com/valerio/dmgcore/dmg/bit"
)

// Reg8 names one of the eight 8-bit register cells.
type Reg8 uint8

const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
)

var reg8Names = [...]string{"A", "F", "B", "C", "D", "E", "H", "L"}

func (r Reg8) String() string {
	if int(r) >= len(reg8Names) {
		return fmt.Sprintf("Reg8(%d)", uint8(r))
	}
	return reg8Names[r]
}

// Pair names a 16-bit register formed by two cells, high byte first.
type Pair uint8

const (
	AF Pair = iota
	BC
	DE
	HL
)

var pairCells = [...][2]Reg8{
	AF: {A, F},
	BC: {B, C},
	DE: {D, E},
	HL: {H, L},
}

var pairNames = [...]string{"AF", "BC", "DE", "HL"}

func (p Pair) String() string {
	if int(p) >= len(pairNames) {
		return fmt.Sprintf("Pair(%d)", uint8(p))
	}
	return pairNames[p]
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Condition is a branch condition tested against the flags.
type Condition uint8

const (
	CondNZ Condition = iota
	CondZ
	CondNC
	CondC
)

var conditionNames = [...]string{"NZ", "Z", "NC", "C"}

func (c Condition) String() string {
	if int(c) >= len(conditionNames) {
		return fmt.Sprintf("Condition(%d)", uint8(c))
	}
	return conditionNames[c]
}

// Registers is the register file: eight 8-bit cells plus PC and SP.
// The low nibble of F is always zero.
type Registers struct {
	cells [8]uint8
	PC    uint16
	SP    uint16
}

// Get returns the value of a single 8-bit register.
func (r *Registers) Get(name Reg8) uint8 {
	if name > L {
		panic(fmt.Sprintf("unknown register: %s", name))
	}
	return r.cells[name]
}

// Set stores value in a single 8-bit register. F keeps only its top nibble.
func (r *Registers) Set(name Reg8, value uint8) {
	if name > L {
		panic(fmt.Sprintf("unknown register: %s", name))
	}
	if name == F {
		value &= 0xF0
	}
	r.cells[name] = value
}

// GetPair returns the big-endian composition of a register pair.
func (r *Registers) GetPair(p Pair) uint16 {
	if p > HL {
		panic(fmt.Sprintf("unknown register pair: %s", p))
	}
	cells := pairCells[p]
	return bit.Combine(r.cells[cells[0]], r.cells[cells[1]])
}

// SetPair stores value into a register pair, high byte in the first cell.
func (r *Registers) SetPair(p Pair, value uint16) {
	if p > HL {
		panic(fmt.Sprintf("unknown register pair: %s", p))
	}
	cells := pairCells[p]
	r.Set(cells[0], bit.High(value))
	r.Set(cells[1], bit.Low(value))
}

func (r *Registers) flag(f Flag) bool {
	return r.cells[F]&uint8(f) != 0
}

func (r *Registers) setFlag(f Flag, set bool) {
	if set {
		r.cells[F] |= uint8(f)
		return
	}
	r.cells[F] &^= uint8(f)
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (r *Registers) flagToBit(f Flag) uint8 {
	if r.flag(f) {
		return 1
	}
	return 0
}

// Test evaluates a branch condition.
func (r *Registers) Test(cond Condition) bool {
	switch cond {
	case CondNZ:
		return !r.flag(zeroFlag)
	case CondZ:
		return r.flag(zeroFlag)
	case CondNC:
		return !r.flag(carryFlag)
	case CondC:
		return r.flag(carryFlag)
	default:
		panic(fmt.Sprintf("unknown branch condition: %s", cond))
	}
}

// FlagString returns a human-readable representation of the flag register, e.g. "Z-H-".
func (r *Registers) FlagString() string {
	out := []byte("----")
	for i, name := range []byte("ZNHC") {
		if r.cells[F]&(0x80>>i) != 0 {
			out[i] = name
		}
	}
	return string(out)
}

func (r Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X",
		r.GetPair(AF), r.GetPair(BC), r.GetPair(DE), r.GetPair(HL), r.SP, r.PC)
}

// FlagRule is what an instruction does to one flag.
type FlagRule uint8

const (
	flagKeep FlagRule = iota
	flagReset
	flagSet
	flagCompute
)

// FlagPattern holds one rule per flag, in Z, N, H, C order.
type FlagPattern [4]FlagRule

// FlagValues carries the computed flag values an instruction produced.
// Only flags whose rule is "compute" are read.
type FlagValues struct {
	Z, N, H, C bool
}

const flagLetters = "ZNHC"

// ParseFlags compiles a 4 character flag pattern such as "Z0HC": '0' resets the
// flag, '1' sets it, '-' leaves it unchanged and the flag's own letter takes
// the computed value.
func ParseFlags(pattern string) (FlagPattern, error) {
	var p FlagPattern
	if len(pattern) != len(flagLetters) {
		return p, fmt.Errorf("invalid flag pattern %q: want %d characters", pattern, len(flagLetters))
	}

	for i := range len(flagLetters) {
		switch pattern[i] {
		case '0':
			p[i] = flagReset
		case '1':
			p[i] = flagSet
		case '-':
			p[i] = flagKeep
		case flagLetters[i]:
			p[i] = flagCompute
		default:
			return p, fmt.Errorf("invalid flag pattern %q: unexpected %q at position %d", pattern, pattern[i], i)
		}
	}

	return p, nil
}

// MustFlags is like ParseFlags but panics on an invalid pattern.
func MustFlags(pattern string) FlagPattern {
	p, err := ParseFlags(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// SetFlags rewrites the flags selected by the pattern and leaves the others untouched.
func (r *Registers) SetFlags(p FlagPattern, v FlagValues) {
	computed := [4]bool{v.Z, v.N, v.H, v.C}
	f := r.cells[F]

	for i, rule := range p {
		mask := uint8(0x80) >> i
		switch rule {
		case flagReset:
			f &^= mask
		case flagSet:
			f |= mask
		case flagCompute:
			if computed[i] {
				f |= mask
			} else {
				f &^= mask
			}
		}
	}

	r.cells[F] = f & 0xF0
}
