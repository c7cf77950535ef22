package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/dmgcore/dmg/bit"
)

var (
	// ErrROMTooLarge is returned for images bigger than MaxROMSize.
	ErrROMTooLarge = errors.New("rom image too large")
	// ErrROMTooSmall is returned for images that end before the header does.
	ErrROMTooSmall = errors.New("rom image too small")
	// ErrUnsupportedMBC is returned for cartridge types other than ROM only and MBC1.
	ErrUnsupportedMBC = errors.New("unsupported cartridge type")
	// ErrUnsupportedRAMSize is returned for an unknown RAM size code.
	ErrUnsupportedRAMSize = errors.New("unsupported ram size")
)

// MaxROMSize is the largest image MBC1 can address: 128 banks of 16KB.
const MaxROMSize = 2 << 20

const (
	titleAddress          = 0x134
	titleLength           = 16
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
	headerEnd             = 0x150
)

// MBCType is the bank controller family a cartridge uses.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
)

func (t MBCType) String() string {
	switch t {
	case NoMBCType:
		return "ROM ONLY"
	case MBC1Type:
		return "MBC1"
	default:
		return fmt.Sprintf("MBCType(%d)", uint8(t))
	}
}

// ramBanks maps the header RAM size code to the number of 8KB banks.
// Code 1 is 2KB on real carts, a full bank backs it here.
var ramBanks = map[uint8]int{
	0x00: 0,
	0x01: 1,
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// Cartridge is a validated cartridge image with its parsed header.
type Cartridge struct {
	data []byte

	Title          string
	Type           uint8 // raw header byte 0x147
	MBC            MBCType
	ROMBanks       int
	RAMBanks       int
	HasBattery     bool
	Version        uint8
	HeaderChecksum uint8
	GlobalChecksum uint16
}

// NewCartridge validates the image and parses its header. The slice is copied.
func NewCartridge(data []byte) (*Cartridge, error) {
	if len(data) > MaxROMSize {
		return nil, fmt.Errorf("%w: %d bytes, maximum is %d", ErrROMTooLarge, len(data), MaxROMSize)
	}
	if len(data) < headerEnd {
		return nil, fmt.Errorf("%w: %d bytes, header ends at 0x%X", ErrROMTooSmall, len(data), headerEnd)
	}

	cart := &Cartridge{
		data:           make([]byte, len(data)),
		Type:           data[cartridgeTypeAddress],
		ROMBanks:       (len(data) + romBankSize - 1) / romBankSize,
		Version:        data[versionNumberAddress],
		HeaderChecksum: data[headerChecksumAddress],
		GlobalChecksum: bit.Combine(data[globalChecksumAddress], data[globalChecksumAddress+1]),
	}
	copy(cart.data, data)

	switch cart.Type {
	case 0x00:
		cart.MBC = NoMBCType
	case 0x01, 0x02:
		cart.MBC = MBC1Type
	case 0x03:
		cart.MBC = MBC1Type
		cart.HasBattery = true
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMBC, cart.Type)
	}

	banks, ok := ramBanks[data[ramSizeAddress]]
	if !ok {
		return nil, fmt.Errorf("%w: code 0x%02X", ErrUnsupportedRAMSize, data[ramSizeAddress])
	}
	cart.RAMBanks = banks

	titleEnd := titleAddress + titleLength
	if data[cgbFlagAddress]&0x80 != 0 {
		// the last title byte is the CGB flag on color-aware carts
		titleEnd--
	}
	cart.Title = cleanGameboyTitle(data[titleAddress:titleEnd])

	return cart, nil
}

// HeaderChecksumValid reports whether the header checksum at 0x14D matches
// bytes 0x134-0x14C. The boot ROM refuses to start carts that fail it.
func (c *Cartridge) HeaderChecksumValid() bool {
	var sum uint8
	for _, b := range c.data[titleAddress:headerChecksumAddress] {
		sum = sum - b - 1
	}
	return sum == c.HeaderChecksum
}

// Size returns the image size in bytes.
func (c *Cartridge) Size() int { return len(c.data) }

// newMBC returns a fresh controller for the cartridge, owning its own RAM.
func (c *Cartridge) newMBC() MBC {
	if c.MBC == MBC1Type {
		return NewMBC1(c.data, c.RAMBanks)
	}
	return NewNoMBC(c.data)
}
