package memory

import "github.com/valerio/dmgcore/dmg/addr"

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	// MBC1 control registers, written through the ROM window
	ramEnableEnd  uint16 = 0x1FFF
	romBankLowEnd uint16 = 0x3FFF
	upperBitsEnd  uint16 = 0x5FFF
)

// MBC represents a Memory Bank Controller: it serves reads from the cartridge
// ROM (0x0000-0x7FFF) and external RAM (0xA000-0xBFFF) windows, and receives
// writes to both. Writes to the ROM window are bank control, never data.
type MBC interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// NoMBC represents cartridges with no memory banking capabilities.
// These are typically smaller games (32KB or less) that fit entirely in the
// base memory region. The cartridge ROM is directly mapped to 0x0000-0x7FFF
// and cannot be banked/switched. These cartridges cannot have external RAM.
type NoMBC struct {
	rom []uint8
}

func NewNoMBC(romData []uint8) *NoMBC {
	return &NoMBC{
		rom: romData,
	}
}

func (m *NoMBC) Read(address uint16) uint8 {
	if address <= addr.ROMBankNEnd && int(address) < len(m.rom) {
		return m.rom[address]
	}
	return 0xFF
}

// Write is ignored, there is nothing to switch and no RAM to store into.
func (m *NoMBC) Write(address uint16, value uint8) {}

// MBC1 is the first and most common MBC chip. Features include:
// - Supports up to 2MB ROM (128 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Bank 0 always mapped to 0x0000-0x3FFF
// - Switchable ROM bank at 0x4000-0x7FFF
// - Optional RAM banking at 0xA000-0xBFFF
// - Two banking modes:
//   - Mode 0 (ROM): Allows access to full ROM but only 8KB RAM
//   - Mode 1 (RAM): Restricts ROM banking but allows full RAM access
type MBC1 struct {
	rom         []uint8
	ram         []uint8
	romBank     uint8 // 7 bits: low 5 from 0x2000-0x3FFF, upper 2 from 0x4000-0x5FFF in mode 0
	ramBank     uint8
	ramEnabled  bool
	bankingMode uint8
}

// NewMBC1 creates a new MBC1 controller with ramBankCount banks of 8KB external RAM.
func NewMBC1(romData []uint8, ramBankCount int) *MBC1 {
	return &MBC1{
		rom:     romData,
		ram:     make([]uint8, ramBankCount*ramBankSize),
		romBank: 1,
	}
}

// ROMBank returns the bank currently mapped at 0x4000-0x7FFF, before wrapping
// to the cartridge size. It is never 0.
func (m *MBC1) ROMBank() uint8 { return m.romBank }

// RAMBank returns the external RAM bank currently mapped at 0xA000-0xBFFF.
func (m *MBC1) RAMBank() uint8 { return m.ramBank }

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= addr.ROMBank0End:
		return m.romAt(int(address))
	case address >= addr.ROMBankNStart && address <= addr.ROMBankNEnd:
		offset := int(m.romBank) * romBankSize
		if len(m.rom) > 0 {
			// banks past the end of the image wrap around
			offset %= len(m.rom)
		}
		return m.romAt(offset + int(address-addr.ROMBankNStart))
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		i, ok := m.ramIndex(address)
		if !ok {
			return 0xFF
		}
		return m.ram[i]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= ramEnableEnd:
		// only 0xA and 0x0 in the low nibble change the enable state
		switch value & 0x0F {
		case 0x0A:
			m.ramEnabled = true
		case 0x00:
			m.ramEnabled = false
		}
	case address <= romBankLowEnd:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
	case address <= upperBitsEnd:
		if m.bankingMode == 0 {
			m.romBank = (m.romBank & 0x1F) | ((value & 0x03) << 5)
		} else {
			m.ramBank = value & 0x03
		}
	case address <= addr.ROMBankNEnd:
		m.bankingMode = value & 0x01
		if m.bankingMode == 0 {
			m.ramBank = 0
		} else {
			m.romBank &= 0x1F
		}
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		if i, ok := m.ramIndex(address); ok {
			m.ram[i] = value
		}
	}
}

func (m *MBC1) romAt(i int) uint8 {
	if i < len(m.rom) {
		return m.rom[i]
	}
	return 0xFF
}

// ramIndex maps an external RAM address to an offset in m.ram. It fails when
// RAM is disabled or the cartridge has none.
func (m *MBC1) ramIndex(address uint16) (int, bool) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0, false
	}
	offset := (int(m.ramBank) * ramBankSize) % len(m.ram)
	return offset + int(address-addr.ExtRAMStart), true
}
