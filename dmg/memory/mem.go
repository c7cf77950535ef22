package memory

import (
	"fmt"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// Device is a peripheral owning a set of addresses. The MMU forwards reads and
// writes to it and never touches its storage directly.
type Device interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Devices are the peripherals mapped into the address space. A nil device
// leaves its registers backed by plain I/O memory.
type Devices struct {
	// Video owns VRAM, OAM and the LCD registers 0xFF40-0xFF4B except DMA.
	Video Device
	// Timer owns DIV, TIMA, TMA and TAC.
	Timer Device
	// Interrupts owns IF and IE.
	Interrupts Device
	// Audio owns 0xFF10-0xFF3F.
	Audio Device
	// Serial owns SB and SC.
	Serial Device
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	mbc       MBC
	regionMap [256]memRegion

	vram [addr.VRAMEnd - addr.VRAMStart + 1]byte // only used without a video device
	oam  [addr.OAMEnd - addr.OAMStart + 1]byte   // only used without a video device
	wram [addr.WRAMEnd - addr.WRAMStart + 1]byte
	io   [addr.IOEnd - addr.IOStart + 1]byte // registers no device claims
	hram [addr.HRAMEnd - addr.HRAMStart + 1]byte
	ie   byte // only used without an interrupt device

	devices Devices
	joypad  *Joypad
}

// New creates a memory unit with the given cartridge inserted. A nil cartridge
// is equivalent to turning on a Gameboy without a cartridge in: the cartridge
// windows read 0xFF.
func New(cart *Cartridge, devices Devices, irq Interrupter) *MMU {
	m := &MMU{
		devices: devices,
		joypad:  NewJoypad(irq),
	}
	if cart != nil {
		m.mbc = cart.newMBC()
	}
	initRegionMap(m)
	return m
}

func initRegionMap(m *MMU) {
	regions := []struct {
		start, end uint16
		region     memRegion
	}{
		{addr.ROMBank0Start, addr.ROMBankNEnd, regionROM},
		{addr.VRAMStart, addr.VRAMEnd, regionVRAM},
		{addr.ExtRAMStart, addr.ExtRAMEnd, regionExtRAM},
		{addr.WRAMStart, addr.WRAMEnd, regionWRAM},
		{addr.EchoStart, addr.EchoEnd, regionEcho},
		// OAM shares its page with the unused area
		{addr.OAMStart, addr.UnusedEnd, regionOAM},
		// I/O, HRAM and IE
		{addr.IOStart, addr.IE, regionIO},
	}

	for _, r := range regions {
		for page := int(r.start >> 8); page <= int(r.end>>8); page++ {
			m.regionMap[page] = r.region
		}
	}
}

// MBC returns the cartridge bank controller, nil without a cartridge.
func (m *MMU) MBC() MBC { return m.mbc }

// Joypad returns the P1 register owner, used by frontends to feed input.
func (m *MMU) Joypad() *Joypad { return m.joypad }

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM:
		if m.devices.Video != nil {
			return m.devices.Video.Read(address)
		}
		return m.vram[address-addr.VRAMStart]
	case regionWRAM:
		return m.wram[address-addr.WRAMStart]
	case regionEcho:
		return m.wram[address-addr.EchoStart]
	case regionOAM:
		if address >= addr.UnusedStart {
			return 0xFF
		}
		if m.devices.Video != nil {
			return m.devices.Video.Read(address)
		}
		return m.oam[address-addr.OAMStart]
	case regionIO:
		return m.readIO(address)
	default:
		panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		// bank control or external RAM, both up to the controller
		if m.mbc != nil {
			m.mbc.Write(address, value)
		}
	case regionVRAM:
		if m.devices.Video != nil {
			m.devices.Video.Write(address, value)
			return
		}
		m.vram[address-addr.VRAMStart] = value
	case regionWRAM:
		m.wram[address-addr.WRAMStart] = value
	case regionEcho:
		m.wram[address-addr.EchoStart] = value
	case regionOAM:
		if address >= addr.UnusedStart {
			return
		}
		if m.devices.Video != nil {
			m.devices.Video.Write(address, value)
			return
		}
		m.oam[address-addr.OAMStart] = value
	case regionIO:
		m.writeIO(address, value)
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}

// ReadWord reads a little-endian 16 bit value.
func (m *MMU) ReadWord(address uint16) uint16 {
	low := m.Read(address)
	high := m.Read(address + 1)
	return bit.Combine(high, low)
}

// WriteWord writes a little-endian 16 bit value.
func (m *MMU) WriteWord(address uint16, value uint16) {
	m.Write(address, bit.Low(value))
	m.Write(address+1, bit.High(value))
}

// deviceFor returns the peripheral owning an I/O register, if any.
func (m *MMU) deviceFor(address uint16) Device {
	switch {
	case address == addr.SB || address == addr.SC:
		return m.devices.Serial
	case address >= addr.DIV && address <= addr.TAC:
		return m.devices.Timer
	case address == addr.IF || address == addr.IE:
		return m.devices.Interrupts
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.devices.Audio
	case address >= addr.LCDC && address <= addr.WX && address != addr.DMA:
		return m.devices.Video
	default:
		return nil
	}
}

func (m *MMU) readIO(address uint16) byte {
	if address == addr.P1 {
		return m.joypad.Read()
	}
	if dev := m.deviceFor(address); dev != nil {
		return dev.Read(address)
	}

	switch {
	case address == addr.IE:
		return m.ie
	case address == addr.IF:
		return m.io[address-addr.IOStart] | 0xE0
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		return m.hram[address-addr.HRAMStart]
	default:
		return m.io[address-addr.IOStart]
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	if address == addr.P1 {
		m.joypad.Write(value)
		return
	}
	if address == addr.DMA {
		m.dma(value)
		return
	}
	if dev := m.deviceFor(address); dev != nil {
		dev.Write(address, value)
		return
	}

	switch {
	case address == addr.IE:
		m.ie = value
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		m.hram[address-addr.HRAMStart] = value
	default:
		m.io[address-addr.IOStart] = value
	}
}

// dma copies 160 bytes from value<<8 into OAM. The transfer completes
// immediately, the CPU is not locked out of memory meanwhile.
func (m *MMU) dma(value byte) {
	m.io[addr.DMA-addr.IOStart] = value
	source := uint16(value) << 8
	for i := range uint16(addr.OAMEnd - addr.OAMStart + 1) {
		m.Write(addr.OAMStart+i, m.Read(source+i))
	}
}
