package cpu

import (
	"errors"
	"fmt"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// ErrUnknownOpcode is returned (wrapped in an OpcodeError) when the fetched
// opcode has no handler. Emulation cannot continue past it.
var ErrUnknownOpcode = errors.New("unknown opcode")

// OpcodeError describes an unknown opcode and where it was fetched.
type OpcodeError struct {
	Opcode   uint8
	Prefixed bool
	PC       uint16
}

func (e *OpcodeError) Error() string {
	if e.Prefixed {
		return fmt.Sprintf("unknown opcode 0xCB%02X at 0x%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("unknown opcode 0x%02X at 0x%04X", e.Opcode, e.PC)
}

func (e *OpcodeError) Unwrap() error { return ErrUnknownOpcode }

// Bus provides the CPU access to the address space.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Interrupts is the part of the interrupt controller driven by instructions
// (EI, DI, RETI, HALT, STOP).
type Interrupts interface {
	EnableMaster()
	EnableMasterNow()
	DisableMaster()
	Halt()
	Halted() bool
}

const (
	prefixCB = 0xCB

	// haltCycles is what a suspended CPU reports per step so peripherals keep moving.
	haltCycles = 4
)

// CPU is the main struct holding LR35902 state
type CPU struct {
	reg Registers

	// per-instruction scratch state, reset before each handler runs
	jumped bool // handler wrote PC
	taken  bool // conditional branch taken

	cycles uint64

	bus Bus
	irq Interrupts
}

// New returns a CPU with all registers cleared. Call Boot to get the
// documented post-boot state.
func New(bus Bus, irq Interrupts) *CPU {
	return &CPU{
		bus: bus,
		irq: irq,
	}
}

// Boot applies the register and I/O values the boot ROM leaves behind.
func (c *CPU) Boot() {
	c.reg.SetPair(AF, 0x01B0)
	c.reg.SetPair(BC, 0x0013)
	c.reg.SetPair(DE, 0x00D8)
	c.reg.SetPair(HL, 0x014D)
	c.reg.SP = 0xFFFE
	c.reg.PC = 0x0100

	initializeMemory(c.bus)
}

func initializeMemory(bus Bus) {
	bus.Write(addr.P1, 0xCF)
	bus.Write(addr.TIMA, 0x00)
	bus.Write(addr.TMA, 0x00)
	bus.Write(addr.TAC, 0x00)
	bus.Write(addr.IF, 0x01)
	bus.Write(addr.LCDC, 0x91)
	bus.Write(addr.STAT, 0x85)
	bus.Write(addr.SCY, 0x00)
	bus.Write(addr.SCX, 0x00)
	bus.Write(addr.LYC, 0x00)
	bus.Write(addr.BGP, 0xFC)
	bus.Write(addr.OBP0, 0xFF)
	bus.Write(addr.OBP1, 0xFF)
	bus.Write(addr.WY, 0x00)
	bus.Write(addr.WX, 0x00)
	bus.Write(addr.IE, 0x00)

	// NR52 first: the other audio registers ignore writes while powered off
	bus.Write(addr.NR52, 0xF1)
	bus.Write(addr.NR10, 0x80)
	bus.Write(addr.NR11, 0xBF)
	bus.Write(addr.NR12, 0xF3)
	bus.Write(addr.NR14, 0xBF)
	bus.Write(addr.NR21, 0x3F)
	bus.Write(addr.NR22, 0x00)
	bus.Write(addr.NR24, 0xBF)
	bus.Write(addr.NR30, 0x7F)
	bus.Write(addr.NR31, 0xFF)
	bus.Write(addr.NR32, 0x9F)
	bus.Write(addr.NR34, 0xBF)
	bus.Write(addr.NR41, 0xFF)
	bus.Write(addr.NR42, 0x00)
	bus.Write(addr.NR43, 0x00)
	bus.Write(addr.NR44, 0xBF)
	bus.Write(addr.NR50, 0x77)
	bus.Write(addr.NR51, 0xF3)
}

// Step executes a single instruction and returns the cycles it took.
// A halted CPU fetches nothing and reports a fixed small cost.
func (c *CPU) Step() (int, error) {
	if c.irq.Halted() {
		c.cycles += haltCycles
		return haltCycles, nil
	}

	pc := c.reg.PC
	opcode := c.bus.Read(pc)

	in := &opcodes[opcode]
	prefixed := opcode == prefixCB
	if prefixed {
		opcode = c.bus.Read(pc + 1)
		in = &opcodesCB[opcode]
	}

	if in.exec == nil {
		return 0, &OpcodeError{Opcode: opcode, Prefixed: prefixed, PC: pc}
	}

	c.jumped = false
	c.taken = false
	in.exec(c)

	// relative jumps compute their target from the opcode address, the length
	// still has to be added so the offset is relative to the next instruction.
	if !c.jumped || in.relative {
		c.reg.PC += in.length
	}

	cycles := in.cycles
	if c.taken {
		cycles = in.taken
	}
	c.cycles += uint64(cycles)

	return cycles, nil
}

// Call pushes the current PC and jumps to vector. Used for interrupt dispatch.
func (c *CPU) Call(vector uint16) {
	c.pushStack(c.reg.PC)
	c.reg.PC = vector
}

// Registers exposes the register file.
func (c *CPU) Registers() *Registers { return &c.reg }

// Cycles returns the total amount of cycles executed so far.
func (c *CPU) Cycles() uint64 { return c.cycles }

// readImmediate returns the byte following the opcode.
// this value is known as immediate ('n' in mnemonics), some opcodes use it as a parameter
func (c *CPU) readImmediate() uint8 {
	return c.bus.Read(c.reg.PC + 1)
}

// readImmediateWord returns the little-endian word following the opcode ('nn' in mnemonics)
func (c *CPU) readImmediateWord() uint16 {
	low := c.bus.Read(c.reg.PC + 1)
	high := c.bus.Read(c.reg.PC + 2)
	return bit.Combine(high, low)
}

// readSignedImmediate returns the byte following the opcode as a signed offset
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) pushStack(value uint16) {
	c.reg.SP--
	c.bus.Write(c.reg.SP, bit.High(value))
	c.reg.SP--
	c.bus.Write(c.reg.SP, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.reg.SP)
	c.reg.SP++
	high := c.bus.Read(c.reg.SP)
	c.reg.SP++
	return bit.Combine(high, low)
}

// jump sets PC, marking it so Step does not advance past the target.
func (c *CPU) jump(target uint16) {
	c.reg.PC = target
	c.jumped = true
}
