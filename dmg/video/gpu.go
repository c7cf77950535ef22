package video

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// GpuMode is the PPU mode as reported in the low two bits of STAT.
type GpuMode int

const (
	hblank GpuMode = iota
	vblank
	oamRead
	vramRead
)

func (m GpuMode) String() string {
	switch m {
	case hblank:
		return "HBlank"
	case vblank:
		return "VBlank"
	case oamRead:
		return "OAM"
	case vramRead:
		return "VRAM"
	default:
		return "Unknown"
	}
}

const (
	hblankCycles       = 204
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles

	visibleLines = 144
	lastLine     = 153

	vramSize = 0x2000
	oamSize  = 0xA0
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
type lcdcFlag uint8

const (
	bgDisplay lcdcFlag = iota
	spriteDisplayEnable
	spriteSize
	bgTileMapDisplaySelect
	bgWindowTileDataSelect
	windowDisplayEnable
	windowTileMapSelect
	lcdDisplayEnable
)

// STAT bits
const (
	statCoincidence   uint8 = 2
	statHBlankIRQ     uint8 = 3
	statVBlankIRQ     uint8 = 4
	statOAMIRQ        uint8 = 5
	statLYCIRQ        uint8 = 6

	statWritableMask uint8 = 0x78
)

// Interrupter is what the GPU raises VBlank and STAT interrupts through.
type Interrupter interface {
	Request(i addr.Interrupt)
}

// GPU is the pixel processing unit. It owns VRAM, OAM and the LCD registers
// and draws one scanline at a time into its framebuffer.
type GPU struct {
	irq         Interrupter
	framebuffer *FrameBuffer
	oam         *OAM

	vram    [vramSize]byte
	oamData [oamSize]byte

	lcdc byte
	stat byte // interrupt enables and the coincidence flag, the mode is added on read
	scy  byte
	scx  byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	line       uint8
	windowLine int
	mode       GpuMode
	cycles     int
	frameReady bool

	// background color index (0-3) of each pixel of the line being drawn,
	// used to resolve sprites behind the background
	bgIndex [FramebufferWidth]int
}

func NewGpu(irq Interrupter) *GPU {
	g := &GPU{
		irq:         irq,
		framebuffer: NewFrameBuffer(),
		mode:        hblank,
	}
	g.oam = NewOAM(g)
	return g
}

// FrameBuffer returns the buffer the GPU draws into.
func (g *GPU) FrameBuffer() *FrameBuffer { return g.framebuffer }

// Mode returns the current PPU mode (0-3).
func (g *GPU) Mode() GpuMode { return g.mode }

// Line returns the current scanline, LY.
func (g *GPU) Line() uint8 { return g.line }

// FrameReady reports whether a frame was completed since the last call and
// clears the flag.
func (g *GPU) FrameReady() bool {
	ready := g.frameReady
	g.frameReady = false
	return ready
}

// Tick simulates gpu behaviour for a certain amount of clock cycles. Several
// mode transitions can happen in a single call.
func (g *GPU) Tick(cycles int) {
	if !g.lcdcSet(lcdDisplayEnable) {
		return
	}

	g.cycles += cycles

	for {
		switch g.mode {
		case oamRead:
			if g.cycles < oamScanlineCycles {
				return
			}
			g.cycles -= oamScanlineCycles
			g.setMode(vramRead)
		case vramRead:
			if g.cycles < vramScanlineCycles {
				return
			}
			g.cycles -= vramScanlineCycles
			g.drawScanline()
			g.setMode(hblank)
		case hblank:
			if g.cycles < hblankCycles {
				return
			}
			g.cycles -= hblankCycles
			g.setLine(g.line + 1)

			if g.line == visibleLines {
				g.setMode(vblank)
				g.request(addr.VBlankInterrupt)
				g.frameReady = true
				g.windowLine = 0
			} else {
				g.setMode(oamRead)
			}
		case vblank:
			if g.cycles < scanlineCycles {
				return
			}
			g.cycles -= scanlineCycles

			if g.line == lastLine {
				g.setLine(0)
				g.setMode(oamRead)
			} else {
				g.setLine(g.line + 1)
			}
		}
	}
}

func (g *GPU) request(i addr.Interrupt) {
	if g.irq != nil {
		g.irq.Request(i)
	}
}

// setMode switches mode, raising a STAT interrupt when the new mode's source
// is enabled. Pixel transfer has no interrupt source.
func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode

	var source uint8
	switch mode {
	case hblank:
		source = statHBlankIRQ
	case vblank:
		source = statVBlankIRQ
	case oamRead:
		source = statOAMIRQ
	default:
		return
	}

	if bit.IsSet(source, g.stat) {
		g.request(addr.LCDSTATInterrupt)
	}
}

func (g *GPU) setLine(line uint8) {
	g.line = line
	g.compareLYC()
}

func (g *GPU) compareLYC() {
	match := g.line == g.lyc
	g.stat = bit.SetTo(statCoincidence, g.stat, match)
	if match && bit.IsSet(statLYCIRQ, g.stat) {
		g.request(addr.LCDSTATInterrupt)
	}
}

func (g *GPU) lcdcSet(flag lcdcFlag) bool {
	return bit.IsSet(uint8(flag), g.lcdc)
}

func (g *GPU) writeLCDC(value byte) {
	wasOn := g.lcdcSet(lcdDisplayEnable)
	g.lcdc = value
	isOn := g.lcdcSet(lcdDisplayEnable)

	switch {
	case wasOn && !isOn:
		g.mode = hblank
		g.line = 0
		g.cycles = 0
		g.windowLine = 0
	case !wasOn && isOn:
		g.mode = oamRead
		g.cycles = 0
		g.compareLYC()
	}
}

func (g *GPU) Read(address uint16) byte {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return g.vram[address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return g.oamData[address-addr.OAMStart]
	}

	switch address {
	case addr.LCDC:
		return g.lcdc
	case addr.STAT:
		return 0x80 | g.stat | byte(g.mode)
	case addr.SCY:
		return g.scy
	case addr.SCX:
		return g.scx
	case addr.LY:
		return g.line
	case addr.LYC:
		return g.lyc
	case addr.BGP:
		return g.bgp
	case addr.OBP0:
		return g.obp0
	case addr.OBP1:
		return g.obp1
	case addr.WY:
		return g.wy
	case addr.WX:
		return g.wx
	default:
		return 0xFF
	}
}

func (g *GPU) Write(address uint16, value byte) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		g.vram[address-addr.VRAMStart] = value
		return
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		g.oamData[address-addr.OAMStart] = value
		return
	}

	switch address {
	case addr.LCDC:
		g.writeLCDC(value)
	case addr.STAT:
		g.stat = g.stat&^statWritableMask | value&statWritableMask
	case addr.SCY:
		g.scy = value
	case addr.SCX:
		g.scx = value
	case addr.LY:
		// read only
	case addr.LYC:
		g.lyc = value
		if g.lcdcSet(lcdDisplayEnable) {
			g.compareLYC()
		}
	case addr.BGP:
		g.bgp = value
	case addr.OBP0:
		g.obp0 = value
	case addr.OBP1:
		g.obp1 = value
	case addr.WY:
		g.wy = value
	case addr.WX:
		g.wx = value
	}
}

func (g *GPU) drawScanline() {
	if int(g.line) >= visibleLines {
		return
	}

	g.drawBackground()

	if g.lcdcSet(spriteDisplayEnable) {
		g.drawSprites()
	}
}

// paletteShade maps a 2 bit color index through a palette register.
func paletteShade(palette byte, colorIndex int) byte {
	return (palette >> (uint(colorIndex) * 2)) & 0x03
}

func (g *GPU) tileRow(tileAddress uint16, row int) TileRow {
	offset := tileAddress - addr.VRAMStart + uint16(row*2)
	return TileRow{Low: g.vram[offset], High: g.vram[offset+1]}
}

func (g *GPU) drawBackground() {
	y := uint(g.line)

	if !g.lcdcSet(bgDisplay) {
		for x := range FramebufferWidth {
			g.bgIndex[x] = 0
			g.framebuffer.SetPixel(uint(x), y, WhiteColor)
		}
		return
	}

	unsigned := g.lcdcSet(bgWindowTileDataSelect)

	bgMap := addr.TileMap0
	if g.lcdcSet(bgTileMapDisplaySelect) {
		bgMap = addr.TileMap1
	}
	windowMap := addr.TileMap0
	if g.lcdcSet(windowTileMapSelect) {
		windowMap = addr.TileMap1
	}

	windowVisible := g.lcdcSet(windowDisplayEnable) && g.line >= g.wy && g.wx <= 166
	usedWindow := false

	for x := range FramebufferWidth {
		var mapAddress uint16
		var px, py int

		if windowVisible && x+7 >= int(g.wx) {
			usedWindow = true
			mapAddress = windowMap
			px = x + 7 - int(g.wx)
			py = g.windowLine
		} else {
			mapAddress = bgMap
			px = (x + int(g.scx)) & 0xFF
			py = (int(g.line) + int(g.scy)) & 0xFF
		}

		tileIndex := g.vram[mapAddress-addr.VRAMStart+uint16((py/8)*32+px/8)]
		row := g.tileRow(tileDataAddress(tileIndex, unsigned), py%8)
		colorIndex := row.GetPixel(px % 8)

		g.bgIndex[x] = colorIndex
		g.framebuffer.SetPixel(uint(x), y, ByteToColor(paletteShade(g.bgp, colorIndex)))
	}

	if usedWindow {
		g.windowLine++
	}
}

func (g *GPU) drawSprites() {
	y := uint(g.line)

	for _, sprite := range g.oam.GetSpritesForScanline(int(g.line)) {
		palette := g.obp0
		if sprite.PaletteOBP1 {
			palette = g.obp1
		}

		// the owner of a pixel is opaque there, and hides every other sprite
		for px := range 8 {
			x := sprite.X + px
			if x < 0 || x >= FramebufferWidth || !sprite.HasPriorityForPixel(px) {
				continue
			}
			if sprite.BehindBG && g.bgIndex[x] != 0 {
				continue
			}

			g.framebuffer.SetPixel(uint(x), y, ByteToColor(paletteShade(palette, sprite.ColorAt(px))))
		}
	}
}
