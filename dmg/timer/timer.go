// Package timer implements the DIV/TIMA/TMA/TAC timer block.
package timer

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// periods maps TAC input clock select (bits 1-0) to the number of cycles
// between two TIMA increments.
//
//	00 -> 1024 (4096 Hz)
//	01 -> 16   (262144 Hz)
//	10 -> 64   (65536 Hz)
//	11 -> 256  (16384 Hz)
var periods = [4]int{1024, 16, 64, 256}

const tacUnusedBits = 0xF8

// Interrupter is what the timer raises its overflow interrupt through.
type Interrupter interface {
	Request(i addr.Interrupt)
}

// Timer encapsulates the Game Boy timer/DIV/TIMA/TMA/TAC behavior.
type Timer struct {
	divider uint16 // free running, DIV is the upper 8 bits
	counter int    // cycles accumulated towards the next TIMA increment

	tima byte
	tma  byte
	tac  byte

	irq Interrupter
}

func New(irq Interrupter) *Timer {
	return &Timer{irq: irq}
}

// SetSeed initializes the internal divider counter, which sets DIV accordingly.
func (t *Timer) SetSeed(seed uint16) {
	t.divider = seed
}

// Tick advances the timer by the given amount of cycles. Several TIMA increments
// (and overflows) can happen in a single call.
func (t *Timer) Tick(cycles int) {
	t.divider += uint16(cycles)

	if !t.enabled() {
		return
	}

	period := periods[t.tac&0x03]
	t.counter += cycles
	for t.counter >= period {
		t.counter -= period
		t.increment()
	}
}

func (t *Timer) enabled() bool {
	return bit.IsSet(2, t.tac)
}

func (t *Timer) increment() {
	if t.tima == 0xFF {
		t.tima = t.tma
		if t.irq != nil {
			t.irq.Request(addr.TimerInterrupt)
		}
		return
	}
	t.tima++
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return bit.High(t.divider)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | tacUnusedBits
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		// any write resets the whole divider
		t.divider = 0
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		if value&0x03 != t.tac&0x03 {
			t.counter = 0
		}
		t.tac = value & 0x07
	}
}
