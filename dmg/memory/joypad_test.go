package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/dmgcore/dmg/addr"
)

func TestJoypad_selection(t *testing.T) {
	j := NewJoypad(nil)
	j.Press(JoypadStart)
	j.Press(JoypadUp)

	testCases := []struct {
		desc string
		sel  uint8
		want uint8
	}{
		{"nothing selected", 0x30, 0xFF},
		{"buttons", 0x10, 0xD7},
		{"dpad", 0x20, 0xEB},
		{"both", 0x00, 0xC3},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			j.Write(tC.sel | 0x0F)
			assert.Equal(t, tC.want, j.Read())
		})
	}
}

func TestJoypad_release(t *testing.T) {
	j := NewJoypad(nil)
	j.Write(0x10)

	j.Press(JoypadA)
	assert.Equal(t, uint8(0xDE), j.Read())

	j.Release(JoypadA)
	assert.Equal(t, uint8(0xDF), j.Read())
}

func TestJoypad_interrupt(t *testing.T) {
	irq := &irqRecorder{}
	j := NewJoypad(irq)

	j.Press(JoypadB)
	j.Press(JoypadB)
	j.Release(JoypadB)
	j.Press(JoypadDown)

	assert.Equal(t, []addr.Interrupt{addr.JoypadInterrupt, addr.JoypadInterrupt}, irq.requests)
}

func TestMMU_joypadRegister(t *testing.T) {
	irq := &irqRecorder{}
	m := New(nil, Devices{}, irq)

	m.Write(addr.P1, 0x20)
	m.Joypad().Press(JoypadLeft)

	assert.Equal(t, byte(0xED), m.Read(addr.P1))
	assert.Len(t, irq.requests, 1)
}
