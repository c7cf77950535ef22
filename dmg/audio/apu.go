// Package audio models the APU as seen by the CPU: its register file, power
// control and the frame sequencer that runs the length counters. No samples
// are synthesized.
package audio

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// channel holds the state of a channel that software can observe through NR52.
type channel struct {
	enabled       bool
	lengthCounter uint16
	lengthEnabled bool
}

// per-channel register layout, as offsets from FF10
type channelRegs struct {
	length  uint16 // NRx1
	dac     uint16 // NRx2, NR30 for the wave channel
	control uint16 // NRx4
	// maxLength is 256 for the wave channel and 64 for the others
	maxLength uint16
}

var channelLayout = [channelCount]channelRegs{
	{length: 0x01, dac: 0x02, control: 0x04, maxLength: 64},
	{length: 0x06, dac: 0x07, control: 0x09, maxLength: 64},
	{length: 0x0B, dac: 0x0A, control: 0x0E, maxLength: 256},
	{length: 0x10, dac: 0x11, control: 0x13, maxLength: 64},
}

// APU implements the Game Boy's Audio Processing Unit registers
// Reference: https://gbdev.io/pandocs/Audio.html
type APU struct {
	enabled   bool // Master audio enable (NR52 bit 7)
	registers [registerCount]byte
	waveRAM   [waveRAMSize]byte

	// Frame sequencer state
	// Runs at 512 Hz, advances every cyclesPerStep CPU cycles
	frameCounter int // Current step (0-7) in frame sequence
	frameCycles  int // CPU cycles since last frame sequencer tick

	channels [channelCount]channel
}

// New creates a powered on APU with zeroed registers.
func New() *APU {
	return &APU{enabled: true}
}

// Enabled reports whether the APU is powered on.
func (a *APU) Enabled() bool { return a.enabled }

// Tick advances the frame sequencer by the given amount of cycles.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.frameCycles += cycles
	for a.frameCycles >= cyclesPerStep {
		a.frameCycles -= cyclesPerStep
		a.stepFrameSequencer()
	}
}

// stepFrameSequencer runs one step of the 8 step sequence.
// Frame sequencer step actions:
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Sweep and envelope only change the generated waveform, so only the length
// counters are clocked.
// Reference: https://gbdev.io/pandocs/Audio_details.html#div-apu
func (a *APU) stepFrameSequencer() {
	if a.frameCounter%2 == 0 {
		a.clockLengthCounters()
	}
	a.frameCounter = (a.frameCounter + 1) & 7
}

func (a *APU) clockLengthCounters() {
	for i := range a.channels {
		ch := &a.channels[i]
		if !ch.lengthEnabled || ch.lengthCounter == 0 {
			continue
		}
		ch.lengthCounter--
		if ch.lengthCounter == 0 {
			ch.enabled = false
		}
	}
}

func (a *APU) Read(address uint16) byte {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	if address < addr.AudioStart || address > addr.AudioEnd {
		return 0xFF
	}

	if address == addr.NR52 {
		status := byte(nr52UnusedMask)
		if a.enabled {
			status = bit.Set(nr52PowerBit, status)
		}
		for i, ch := range a.channels {
			if ch.enabled {
				status = bit.Set(uint8(i), status)
			}
		}
		return status
	}

	index := address - addr.AudioStart
	return a.registers[index] | readMasks[index]
}

func (a *APU) Write(address uint16, value byte) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.waveRAM[address-addr.WaveRAMStart] = value
		return
	}
	if address < addr.AudioStart || address > addr.AudioEnd {
		return
	}

	if address == addr.NR52 {
		a.writePower(bit.IsSet(nr52PowerBit, value))
		return
	}

	// while powered off registers are read only
	if !a.enabled {
		return
	}

	index := address - addr.AudioStart
	a.registers[index] = value

	for i, layout := range channelLayout {
		switch index {
		case layout.length:
			a.loadLength(i, value)
		case layout.dac:
			if !a.dacEnabled(i) {
				a.channels[i].enabled = false
			}
		case layout.control:
			a.channels[i].lengthEnabled = bit.IsSet(lengthEnableBit, value)
			if bit.IsSet(triggerBit, value) {
				a.trigger(i)
			}
		}
	}
}

func (a *APU) writePower(on bool) {
	wasEnabled := a.enabled
	a.enabled = on

	if wasEnabled && !on {
		// power off clears every register except wave RAM
		a.registers = [registerCount]byte{}
		a.channels = [channelCount]channel{}
	}
	if !wasEnabled && on {
		a.frameCounter = 0
		a.frameCycles = 0
	}
}

func (a *APU) loadLength(ch int, value byte) {
	maxLength := channelLayout[ch].maxLength
	// the wave channel uses the whole byte, the others the low 6 bits
	length := uint16(value) & (maxLength - 1)
	a.channels[ch].lengthCounter = maxLength - length
}

// dacEnabled reports whether the channel's DAC is on. The wave channel has an
// explicit bit in NR30, the others are on when NRx2 bits 7-3 are not all zero.
func (a *APU) dacEnabled(ch int) bool {
	value := a.registers[channelLayout[ch].dac]
	if ch == 2 {
		return bit.IsSet(7, value)
	}
	return value&0xF8 != 0
}

func (a *APU) trigger(ch int) {
	c := &a.channels[ch]
	if c.lengthCounter == 0 {
		c.lengthCounter = channelLayout[ch].maxLength
	}
	c.enabled = a.dacEnabled(ch)
}
