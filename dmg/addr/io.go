package addr

// memory map
const (
	ROMBank0Start uint16 = 0x0000
	ROMBank0End   uint16 = 0x3FFF
	ROMBankNStart uint16 = 0x4000
	ROMBankNEnd   uint16 = 0x7FFF
	VRAMStart     uint16 = 0x8000
	VRAMEnd       uint16 = 0x9FFF
	ExtRAMStart   uint16 = 0xA000
	ExtRAMEnd     uint16 = 0xBFFF
	WRAMStart     uint16 = 0xC000
	WRAMEnd       uint16 = 0xDFFF
	EchoStart     uint16 = 0xE000
	EchoEnd       uint16 = 0xFDFF
	UnusedStart   uint16 = 0xFEA0
	UnusedEnd     uint16 = 0xFEFF
	IOStart       uint16 = 0xFF00
	IOEnd         uint16 = 0xFF7F
	HRAMStart     uint16 = 0xFF80
	HRAMEnd       uint16 = 0xFFFE
)

// gpu registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LCDC Y-Coordinate (readonly) register.
	LY uint16 = 0xFF44
	// LY Compare register.
	LYC uint16 = 0xFF45
	// DMA Transfer and Start register.
	DMA uint16 = 0xFF46
	// BG Palette register.
	BGP uint16 = 0xFF47
	// Object Palette 0 register.
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register.
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register.
	WX uint16 = 0xFF4B
)

// Audio registers live in 0xFF10-0xFF3F, wave RAM is the top 16 bytes of it.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR34 uint16 = 0xFF1E
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23
	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// OAM (Object Attribute Memory) - sprite data
const (
	// OAMStart is the start of OAM memory (40 sprites * 4 bytes each)
	OAMStart uint16 = 0xFE00
	// OAMEnd is the end of OAM memory
	OAMEnd uint16 = 0xFE9F
)

// tile data and tile maps
const (
	// TileData0 is the base of unsigned tile data (tiles 0-255)
	TileData0 uint16 = 0x8000
	// TileData2 is the base of signed tile data (tile 0, -128 is at 0x8800)
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 is used to read the Joypad state.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB holds the byte to transmit; after a transfer it holds the received byte.
	SB uint16 = 0xFF01
	// SC is the serial control register. Bit 7 starts a transfer, bit 0 selects the internal clock.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register. Incremented 16384 times/s, writing to it resets it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter register. Generates an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo register. When TIMA overflows, this data will be loaded.
	TMA uint16 = 0xFF06
	// TAC is the timer control register. Used to start/stop and control the timer clock.
	TAC uint16 = 0xFF07
)

// Interrupt identifies one of the five interrupt sources by its bit index in IE/IF.
// Lower values have higher priority.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the PPU has completed a frame.
	VBlankInterrupt Interrupt = iota
	// LCDSTATInterrupt is fired based on one of the conditions in the STAT register.
	LCDSTATInterrupt
	// TimerInterrupt is fired when the timer register (TIMA) overflows.
	TimerInterrupt
	// SerialInterrupt is fired when a serial transfer has completed on the link port.
	SerialInterrupt
	// JoypadInterrupt is fired when any of the keypad inputs goes from high to low.
	JoypadInterrupt
)

// InterruptCount is the number of interrupt sources.
const InterruptCount = 5

const baseInterruptVector uint16 = 0x40

// Mask returns the IE/IF bit for the interrupt.
func (i Interrupt) Mask() uint8 {
	return 1 << uint8(i)
}

// Vector returns the fixed handler address, 0x40 + 8*index.
func (i Interrupt) Vector() uint16 {
	return baseInterruptVector + uint16(i)*8
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "VBlank"
	case LCDSTATInterrupt:
		return "LCDSTAT"
	case TimerInterrupt:
		return "Timer"
	case SerialInterrupt:
		return "Serial"
	case JoypadInterrupt:
		return "Joypad"
	default:
		return "Unknown"
	}
}
