package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/dmgcore/dmg/addr"
)

type recorder struct {
	requests []addr.Interrupt
}

func (r *recorder) Request(i addr.Interrupt) {
	r.requests = append(r.requests, i)
}

func TestDivider(t *testing.T) {
	tm := New(nil)

	tm.Tick(255)
	assert.Equal(t, uint8(0), tm.Read(addr.DIV))

	tm.Tick(1)
	assert.Equal(t, uint8(1), tm.Read(addr.DIV))

	tm.Tick(256 * 10)
	assert.Equal(t, uint8(11), tm.Read(addr.DIV))

	tm.Write(addr.DIV, 0x42)
	assert.Equal(t, uint8(0), tm.Read(addr.DIV))

	tm.SetSeed(0xABCC)
	assert.Equal(t, uint8(0xAB), tm.Read(addr.DIV))
}

func TestTimerDisabled(t *testing.T) {
	tm := New(nil)
	tm.Write(addr.TAC, 0x01)

	tm.Tick(10000)
	assert.Equal(t, uint8(0), tm.Read(addr.TIMA))
}

func TestTimerFrequencies(t *testing.T) {
	tests := []struct {
		tac    byte
		period int
	}{
		{0x04, 1024},
		{0x05, 16},
		{0x06, 64},
		{0x07, 256},
	}

	for _, tt := range tests {
		tm := New(nil)
		tm.Write(addr.TAC, tt.tac)

		tm.Tick(tt.period - 1)
		assert.Equal(t, uint8(0), tm.Read(addr.TIMA), "TAC=0x%02X before one period", tt.tac)

		tm.Tick(1)
		assert.Equal(t, uint8(1), tm.Read(addr.TIMA), "TAC=0x%02X after one period", tt.tac)
	}
}

func TestTimerMultipleIncrementsPerTick(t *testing.T) {
	tm := New(nil)
	tm.Write(addr.TAC, 0x05)

	tm.Tick(16*5 + 3)
	assert.Equal(t, uint8(5), tm.Read(addr.TIMA))

	tm.Tick(13)
	assert.Equal(t, uint8(6), tm.Read(addr.TIMA))
}

func TestTimerOverflow(t *testing.T) {
	irq := &recorder{}
	tm := New(irq)
	tm.Write(addr.TMA, 0xAB)
	tm.Write(addr.TAC, 0x05)
	tm.Write(addr.TIMA, 0xFF)

	tm.Tick(16)

	assert.Equal(t, uint8(0xAB), tm.Read(addr.TIMA))
	assert.Equal(t, []addr.Interrupt{addr.TimerInterrupt}, irq.requests)
}

func TestTimerOverflowTwiceInOneTick(t *testing.T) {
	irq := &recorder{}
	tm := New(irq)
	tm.Write(addr.TMA, 0xFF)
	tm.Write(addr.TAC, 0x05)
	tm.Write(addr.TIMA, 0xFF)

	tm.Tick(32)

	assert.Equal(t, uint8(0xFF), tm.Read(addr.TIMA))
	assert.Len(t, irq.requests, 2)
}

func TestTACReadsUnusedBitsHigh(t *testing.T) {
	tm := New(nil)
	tm.Write(addr.TAC, 0xFD)
	assert.Equal(t, uint8(0xFD), tm.Read(addr.TAC))
	assert.Equal(t, uint8(0xFF), tm.Read(0xFF08))
}
