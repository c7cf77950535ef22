package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// cyclesPerStep is the number of CPU cycles per frame sequencer tick.
	// The frame sequencer runs at 512 Hz: 4194304 Hz / 512 Hz = 8192 t-cycles
	cyclesPerStep = 8192
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16

	channelCount = 4

	// registerCount covers FF10-FF2F, wave RAM is kept separately
	registerCount = 0x20
)

// NR52 bits
const (
	nr52PowerBit   = 7
	nr52UnusedMask = 0x70
)

// NRx4 bits
const (
	triggerBit      = 7
	lengthEnableBit = 6
)

// readMasks are OR-ed into register reads: unused and write-only bits read
// back as 1.
// Reference: https://gbdev.io/pandocs/Audio_details.html#register-reading
var readMasks = [registerCount]byte{
	// NR10-NR14
	0x80, 0x3F, 0x00, 0xFF, 0xBF,
	// unused, NR21-NR24
	0xFF, 0x3F, 0x00, 0xFF, 0xBF,
	// NR30-NR34
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF,
	// unused, NR41-NR44
	0xFF, 0xFF, 0x00, 0x00, 0xBF,
	// NR50-NR52
	0x00, 0x00, 0x70,
	// FF27-FF2F
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}
