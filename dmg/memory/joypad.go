package memory

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

var joypadKeyNames = [...]string{"Right", "Left", "Up", "Down", "A", "B", "Select", "Start"}

func (k JoypadKey) String() string {
	if int(k) < len(joypadKeyNames) {
		return joypadKeyNames[k]
	}
	return "Unknown"
}

// Interrupter receives interrupt requests from devices owned by the MMU.
type Interrupter interface {
	Request(i addr.Interrupt)
}

// Joypad is the P1 register and the button state behind it.
//
// In real hw, P1 is actually just a selector (bits 4-5) that control
// to which set of buttons the low bits (0-3) are mapped to:
//   - if bit 4 is reset, bits 0-3 are mapped to the 4 d-pad directions
//   - if bit 5 is reset, bits 0-3 are mapped to A, B, Select, Start
//   - if both are reset, hw does an AND of both button sets
//   - if neither are reset, return 0x0F (high impedance state)
//
// Note that 1 -> button released, 0 -> button pressed.
// Bits 6-7 are unused, they always read as 1 on real hardware.
type Joypad struct {
	buttons uint8
	dpad    uint8
	selects uint8 // bits 4-5 as last written

	irq Interrupter
}

// NewJoypad creates a joypad with every key released. irq may be nil.
func NewJoypad(irq Interrupter) *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		selects: 0x30,
		irq:     irq,
	}
}

// Read returns the P1 register value.
func (j *Joypad) Read() uint8 {
	result := uint8(0b11000000) | j.selects

	selectDpad := !bit.IsSet(4, j.selects)
	selectButtons := !bit.IsSet(5, j.selects)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons
	case selectDpad && !selectButtons:
		result |= j.dpad
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad
	default:
		result |= 0x0F
	}

	return result
}

// Write sets the selection bits, the only writable part of P1.
func (j *Joypad) Write(value uint8) {
	j.selects = value & 0b00110000
}

// Press marks key as held. A newly pressed key raises the joypad interrupt.
func (j *Joypad) Press(key JoypadKey) {
	oldButtons, oldDpad := j.buttons, j.dpad

	index, isDpad := keyBit(key)
	if isDpad {
		j.dpad = bit.Reset(index, j.dpad)
	} else {
		j.buttons = bit.Reset(index, j.buttons)
	}

	transitions := (oldButtons &^ j.buttons) | (oldDpad &^ j.dpad)
	if transitions != 0 && j.irq != nil {
		j.irq.Request(addr.JoypadInterrupt)
	}
}

// Release marks key as no longer held.
func (j *Joypad) Release(key JoypadKey) {
	index, isDpad := keyBit(key)
	if isDpad {
		j.dpad = bit.Set(index, j.dpad)
	} else {
		j.buttons = bit.Set(index, j.buttons)
	}
}

// keyBit returns the P1 bit a key drives and whether it is on the d-pad line.
func keyBit(key JoypadKey) (uint8, bool) {
	switch key {
	case JoypadRight, JoypadLeft, JoypadUp, JoypadDown:
		return uint8(key - JoypadRight), true
	default:
		return uint8(key-JoypadA) & 0x03, false
	}
}
