package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisters_pairRoundTrip(t *testing.T) {
	pairs := []struct {
		pair      Pair
		high, low Reg8
	}{
		{BC, B, C},
		{DE, D, E},
		{HL, H, L},
	}

	for _, p := range pairs {
		t.Run(p.pair.String(), func(t *testing.T) {
			var r Registers
			for v := 0; v <= 0xFFFF; v++ {
				r.SetPair(p.pair, uint16(v))
				if !assert.Equal(t, uint16(v), r.GetPair(p.pair)) ||
					!assert.Equal(t, uint8(v>>8), r.Get(p.high)) ||
					!assert.Equal(t, uint8(v), r.Get(p.low)) {
					return
				}
			}
		})
	}
}

func TestRegisters_flagLowNibble(t *testing.T) {
	var r Registers

	r.Set(F, 0xFF)
	assert.Equal(t, uint8(0xF0), r.Get(F))

	r.SetPair(AF, 0x12FF)
	assert.Equal(t, uint16(0x12F0), r.GetPair(AF))
	assert.Equal(t, uint8(0x12), r.Get(A))
}

func TestRegisters_unknownNames(t *testing.T) {
	var r Registers
	assert.Panics(t, func() { r.Get(Reg8(8)) })
	assert.Panics(t, func() { r.Set(Reg8(42), 1) })
	assert.Panics(t, func() { r.GetPair(Pair(4)) })
	assert.Panics(t, func() { r.Test(Condition(9)) })
}

func TestRegisters_conditions(t *testing.T) {
	testCases := []struct {
		desc  string
		flags uint8
		want  map[Condition]bool
	}{
		{"no flags", 0x00, map[Condition]bool{CondNZ: true, CondZ: false, CondNC: true, CondC: false}},
		{"zero", 0x80, map[Condition]bool{CondNZ: false, CondZ: true, CondNC: true, CondC: false}},
		{"carry", 0x10, map[Condition]bool{CondNZ: true, CondZ: false, CondNC: false, CondC: true}},
		{"all", 0xF0, map[Condition]bool{CondNZ: false, CondZ: true, CondNC: false, CondC: true}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			var r Registers
			r.Set(F, tC.flags)
			for cond, want := range tC.want {
				assert.Equal(t, want, r.Test(cond), cond.String())
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	p, err := ParseFlags("Z0H-")
	require.NoError(t, err)
	assert.Equal(t, FlagPattern{flagCompute, flagReset, flagCompute, flagKeep}, p)

	p, err = ParseFlags("-11C")
	require.NoError(t, err)
	assert.Equal(t, FlagPattern{flagKeep, flagSet, flagSet, flagCompute}, p)

	for _, invalid := range []string{"", "Z0H", "Z0HCX", "C0HZ", "Z2HC", "z0hc"} {
		_, err := ParseFlags(invalid)
		assert.Error(t, err, invalid)
	}

	assert.Panics(t, func() { MustFlags("nope") })
}

func TestRegisters_SetFlags(t *testing.T) {
	testCases := []struct {
		desc    string
		initial uint8
		pattern string
		values  FlagValues
		want    uint8
	}{
		{"forced bits", 0x00, "1010", FlagValues{}, 0xA0},
		{"keep leaves bits alone", 0xF0, "----", FlagValues{}, 0xF0},
		{"computed set", 0x00, "ZNHC", FlagValues{Z: true, N: true, H: true, C: true}, 0xF0},
		{"computed clear", 0xF0, "ZNHC", FlagValues{}, 0x00},
		{"mixed", 0x50, "Z0H-", FlagValues{Z: true, H: false, C: false}, 0x90},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			var r Registers
			r.Set(F, tC.initial)
			r.SetFlags(MustFlags(tC.pattern), tC.values)
			assert.Equal(t, tC.want, r.Get(F))
		})
	}
}

func TestRegisters_FlagString(t *testing.T) {
	var r Registers
	r.Set(F, 0xA0)
	assert.Equal(t, "Z-H-", r.FlagString())
}
