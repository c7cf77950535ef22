package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/dmgcore/dmg/interrupt"
)

// ram is a flat 64 KiB address space.
type ram [0x10000]byte

func (r *ram) Read(address uint16) byte         { return r[address] }
func (r *ram) Write(address uint16, value byte) { r[address] = value }

// newTestCPU returns a CPU with program loaded at 0x0100, PC pointing at it.
func newTestCPU(program ...byte) (*CPU, *ram, *interrupt.Controller) {
	mem := &ram{}
	copy(mem[0x0100:], program)
	irq := interrupt.New()

	c := New(mem, irq)
	c.reg.PC = 0x0100
	c.reg.SP = 0xFFFE
	return c, mem, irq
}

func TestCPU_add(t *testing.T) {
	testCases := []struct {
		desc      string
		a, arg    uint8
		withCarry bool
		carryIn   bool
		want      uint8
		flags     Flag
	}{
		{desc: "simple", a: 0x01, arg: 0x02, want: 0x03},
		{desc: "overflow to zero", a: 0xFF, arg: 0x01, want: 0x00, flags: zeroFlag | halfCarryFlag | carryFlag},
		{desc: "half carry", a: 0x0F, arg: 0x01, want: 0x10, flags: halfCarryFlag},
		{desc: "carry only", a: 0xF0, arg: 0x20, want: 0x10, flags: carryFlag},
		{desc: "adc uses carry", a: 0x0E, arg: 0x01, withCarry: true, carryIn: true, want: 0x10, flags: halfCarryFlag},
		{desc: "add ignores carry", a: 0x0E, arg: 0x01, carryIn: true, want: 0x0F},
		{desc: "adc carry into overflow", a: 0xFE, arg: 0x01, withCarry: true, carryIn: true, want: 0x00, flags: zeroFlag | halfCarryFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.reg.Set(A, tC.a)
			c.reg.setFlag(carryFlag, tC.carryIn)

			c.add(tC.arg, tC.withCarry)

			assert.Equal(t, tC.want, c.reg.Get(A))
			assert.Equal(t, uint8(tC.flags), c.reg.Get(F))
		})
	}
}

func TestCPU_sub(t *testing.T) {
	testCases := []struct {
		desc      string
		a, arg    uint8
		withCarry bool
		carryIn   bool
		want      uint8
		flags     Flag
	}{
		{desc: "equal values", a: 0x3C, arg: 0x3C, want: 0x00, flags: zeroFlag | subFlag},
		{desc: "half borrow", a: 0x3E, arg: 0x0F, want: 0x2F, flags: subFlag | halfCarryFlag},
		{desc: "borrow", a: 0x3E, arg: 0x40, want: 0xFE, flags: subFlag | carryFlag},
		{desc: "sbc uses carry", a: 0x3B, arg: 0x2A, withCarry: true, carryIn: true, want: 0x10, flags: subFlag},
		{desc: "sbc borrow from carry", a: 0x00, arg: 0x00, withCarry: true, carryIn: true, want: 0xFF, flags: subFlag | halfCarryFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.reg.Set(A, tC.a)
			c.reg.setFlag(carryFlag, tC.carryIn)

			c.sub(tC.arg, tC.withCarry)

			assert.Equal(t, tC.want, c.reg.Get(A))
			assert.Equal(t, uint8(tC.flags), c.reg.Get(F))
		})
	}
}

func TestCPU_compareKeepsA(t *testing.T) {
	c, _, _ := newTestCPU()
	c.reg.Set(A, 0x3C)

	c.compare(0x2F, false)

	assert.Equal(t, uint8(0x3C), c.reg.Get(A))
	assert.Equal(t, uint8(subFlag|halfCarryFlag), c.reg.Get(F))
}

func TestCPU_logic(t *testing.T) {
	c, _, _ := newTestCPU()

	c.reg.Set(A, 0x5A)
	c.and(0x3F)
	assert.Equal(t, uint8(0x1A), c.reg.Get(A))
	assert.Equal(t, uint8(halfCarryFlag), c.reg.Get(F))

	c.reg.Set(F, 0xF0)
	c.xor(0x1A)
	assert.Equal(t, uint8(0x00), c.reg.Get(A))
	assert.Equal(t, uint8(zeroFlag), c.reg.Get(F))

	c.or(0x81)
	assert.Equal(t, uint8(0x81), c.reg.Get(A))
	assert.Equal(t, uint8(0), c.reg.Get(F))
}

func TestCPU_incDec(t *testing.T) {
	testCases := []struct {
		desc    string
		op      func(c *CPU, v uint8) uint8
		arg     uint8
		carryIn bool
		want    uint8
		flags   Flag
	}{
		{desc: "inc", op: (*CPU).inc, arg: 0x0A, want: 0x0B},
		{desc: "inc sets zero", op: (*CPU).inc, arg: 0xFF, want: 0x00, flags: zeroFlag | halfCarryFlag},
		{desc: "inc half carry", op: (*CPU).inc, arg: 0x0F, want: 0x10, flags: halfCarryFlag},
		{desc: "inc keeps carry", op: (*CPU).inc, arg: 0x01, carryIn: true, want: 0x02, flags: carryFlag},
		{desc: "dec", op: (*CPU).dec, arg: 0x0B, want: 0x0A, flags: subFlag},
		{desc: "dec to zero", op: (*CPU).dec, arg: 0x01, want: 0x00, flags: zeroFlag | subFlag},
		{desc: "dec half borrow", op: (*CPU).dec, arg: 0x10, want: 0x0F, flags: subFlag | halfCarryFlag},
		{desc: "dec wraps", op: (*CPU).dec, arg: 0x00, want: 0xFF, flags: subFlag | halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.reg.setFlag(carryFlag, tC.carryIn)
			assert.Equal(t, tC.want, tC.op(c, tC.arg))
			assert.Equal(t, uint8(tC.flags), c.reg.Get(F))
		})
	}
}

func TestCPU_addToHL(t *testing.T) {
	testCases := []struct {
		desc     string
		hl, arg  uint16
		want     uint16
		flags    Flag
		zeroFlag bool
	}{
		{desc: "simple", hl: 0x1000, arg: 0x0234, want: 0x1234},
		{desc: "half carry from bit 11", hl: 0x0FFF, arg: 0x0001, want: 0x1000, flags: halfCarryFlag},
		{desc: "carry from bit 15", hl: 0xFFFF, arg: 0x0001, want: 0x0000, flags: halfCarryFlag | carryFlag},
		{desc: "zero flag untouched", hl: 0x8000, arg: 0x8000, want: 0x0000, flags: zeroFlag | carryFlag, zeroFlag: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.reg.setFlag(zeroFlag, tC.zeroFlag)
			c.reg.SetPair(HL, tC.hl)

			c.addToHL(tC.arg)

			assert.Equal(t, tC.want, c.reg.GetPair(HL))
			assert.Equal(t, uint8(tC.flags), c.reg.Get(F))
		})
	}
}

func TestCPU_offsetSP(t *testing.T) {
	testCases := []struct {
		desc   string
		sp     uint16
		offset uint8
		want   uint16
		flags  Flag
	}{
		{desc: "positive", sp: 0xFFF8, offset: 0x02, want: 0xFFFA},
		{desc: "low nibble carry", sp: 0x000F, offset: 0x01, want: 0x0010, flags: halfCarryFlag},
		{desc: "low byte carry", sp: 0x00FF, offset: 0x01, want: 0x0100, flags: halfCarryFlag | carryFlag},
		{desc: "negative uses unsigned low byte", sp: 0x0001, offset: 0xFF, want: 0x0000, flags: halfCarryFlag | carryFlag},
		{desc: "negative without carry", sp: 0x1000, offset: 0xFE, want: 0x0FFE},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _, _ := newTestCPU(0xE8, tC.offset)
			c.reg.SP = tC.sp
			c.reg.Set(F, 0xF0)

			cycles, err := c.Step()

			assert.NoError(t, err)
			assert.Equal(t, 16, cycles)
			assert.Equal(t, tC.want, c.reg.SP)
			assert.Equal(t, uint8(tC.flags), c.reg.Get(F))
		})
	}
}

func TestCPU_daa(t *testing.T) {
	testCases := []struct {
		desc  string
		a     uint8
		flags Flag
		want  uint8
		wantF Flag
	}{
		{desc: "after 15+27", a: 0x3C, want: 0x42},
		{desc: "after 99+01", a: 0x9A, want: 0x00, wantF: zeroFlag | carryFlag},
		{desc: "after 09+09 half carry", a: 0x12, flags: halfCarryFlag, want: 0x18},
		{desc: "after 42-15", a: 0x2D, flags: subFlag | halfCarryFlag, want: 0x27, wantF: subFlag},
		{desc: "after 10-20", a: 0xF0, flags: subFlag | carryFlag, want: 0x90, wantF: subFlag | carryFlag},
		{desc: "already valid", a: 0x45, want: 0x45},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.reg.Set(A, tC.a)
			c.reg.Set(F, uint8(tC.flags))

			c.daa()

			assert.Equal(t, tC.want, c.reg.Get(A))
			assert.Equal(t, uint8(tC.wantF), c.reg.Get(F))
		})
	}
}

func TestCPU_shifts(t *testing.T) {
	testCases := []struct {
		op      string
		arg     uint8
		carryIn bool
		want    uint8
		flags   Flag
	}{
		{op: "RLC", arg: 0x85, want: 0x0B, flags: carryFlag},
		{op: "RLC", arg: 0x00, want: 0x00, flags: zeroFlag},
		{op: "RRC", arg: 0x01, want: 0x80, flags: carryFlag},
		{op: "RL", arg: 0x80, want: 0x00, flags: zeroFlag | carryFlag},
		{op: "RL", arg: 0x11, carryIn: true, want: 0x23},
		{op: "RR", arg: 0x01, want: 0x00, flags: zeroFlag | carryFlag},
		{op: "RR", arg: 0x8A, carryIn: true, want: 0xC5},
		{op: "SLA", arg: 0xFF, want: 0xFE, flags: carryFlag},
		{op: "SRA", arg: 0x8A, want: 0xC5},
		{op: "SRA", arg: 0x01, want: 0x00, flags: zeroFlag | carryFlag},
		{op: "SWAP", arg: 0xF0, carryIn: true, want: 0x0F},
		{op: "SWAP", arg: 0x00, want: 0x00, flags: zeroFlag},
		{op: "SRL", arg: 0xFF, want: 0x7F, flags: carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.op, func(t *testing.T) {
			var op shift
			for _, s := range shifts {
				if s.name == tC.op {
					op = s.op
				}
			}

			c, _, _ := newTestCPU()
			c.reg.Set(B, tC.arg)
			c.reg.setFlag(carryFlag, tC.carryIn)

			c.shiftOperand(op, 0)

			assert.Equal(t, tC.want, c.reg.Get(B))
			assert.Equal(t, uint8(tC.flags), c.reg.Get(F))
		})
	}
}

func TestCPU_rotateAResetsZero(t *testing.T) {
	c, _, _ := newTestCPU(0x07) // RLCA
	c.reg.Set(A, 0x00)
	c.reg.Set(F, 0x80)

	_, err := c.Step()

	assert.NoError(t, err)
	assert.Equal(t, uint8(0), c.reg.Get(F))
}

func TestCPU_flagOps(t *testing.T) {
	c, _, _ := newTestCPU(0x2F, 0x37, 0x3F) // CPL, SCF, CCF
	c.reg.Set(A, 0x35)
	c.reg.Set(F, 0x80)

	c.Step()
	assert.Equal(t, uint8(0xCA), c.reg.Get(A))
	assert.Equal(t, "ZNH-", c.reg.FlagString())

	c.Step()
	assert.Equal(t, "Z--C", c.reg.FlagString())

	c.Step()
	assert.Equal(t, "Z---", c.reg.FlagString())
}
