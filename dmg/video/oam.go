package video

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

const (
	spriteCount         = 40
	maxSpritesPerLine   = 10
	spriteYOffset       = 16
	spriteXOffset       = 8
	spriteAttributeSize = 4
)

// Sprite represents a single sprite/object in OAM memory.
// The Game Boy has 40 sprites stored in OAM (Object Attribute Memory) from 0xFE00-0xFE9F.
type Sprite struct {
	Y         int   // screen position, without the +16 offset (may be negative)
	X         int   // screen position, without the +8 offset (may be negative)
	TileIndex uint8 // Tile/pattern number (0-255)
	Flags     uint8 // Attribute flags byte
	OAMIndex  int   // OAM index (0-39)
	Height    int   // Sprite height (8 or 16 pixels, from LCDC bit 2)

	// parsed attribute flags for convenience
	PaletteOBP1 bool // false = OBP0, true = OBP1
	FlipX       bool // horizontally flip the sprite
	FlipY       bool // vertically flip the sprite
	BehindBG    bool // true = sprite is behind background colors 1-3

	// Row is the pattern row crossing the scanline, vertical flip applied
	Row TileRow

	// pixel priority mask - bit 7 is leftmost pixel, bit 0 is rightmost.
	// A bit is set if this sprite is the highest priority opaque sprite for
	// that pixel.
	PixelMask uint8
}

// ColorAt returns the color index (0-3) of pixel pixelX, 0 being the
// leftmost pixel on screen. Horizontal flip is applied.
func (s *Sprite) ColorAt(pixelX int) int {
	if s.FlipX {
		return s.Row.GetPixelFlipped(pixelX)
	}
	return s.Row.GetPixel(pixelX)
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// HasPriorityForPixel returns true if this sprite has priority for the pixel at the given X position (0-7).
// Pixel 0 is the leftmost pixel, pixel 7 is the rightmost.
func (s *Sprite) HasPriorityForPixel(pixelX int) bool {
	if pixelX < 0 || pixelX > 7 {
		return false
	}
	pixelBit := uint8(1 << (7 - pixelX))
	return s.PixelMask&pixelBit != 0
}

// OAMBus is the interface OAM needs for memory access: the attribute table,
// the sprite patterns in VRAM and LCDC for the sprite size.
type OAMBus interface {
	Read(address uint16) byte
}

// OAM selects the sprites of a scanline.
type OAM struct {
	bus            OAMBus
	priorityBuffer SpritePriorityBuffer
	spriteBuffer   [maxSpritesPerLine]Sprite
}

func NewOAM(bus OAMBus) *OAM {
	return &OAM{
		bus: bus,
	}
}

// GetSpritesForScanline returns sprites that overlap the given scanline.
// Returns up to 10 sprites (hardware limit per scanline) with pre-resolved
// pixel priority. Selection only looks at Y: sprites off screen horizontally
// still count towards the limit.
//
// Priority is essentially sorting pixels by (X pos, OAM index), see priority
// buffer for a more thorough explanation. Only opaque pixels take part, so a
// transparent pixel of a higher priority sprite shows the sprite below it.
func (o *OAM) GetSpritesForScanline(scanline int) []Sprite {
	sprites := o.spriteBuffer[:0]
	o.priorityBuffer.Clear()

	spriteHeight := 8
	if bit.IsSet(2, o.bus.Read(addr.LCDC)) {
		spriteHeight = 16
	}

	// phase 1: scan through OAM and collect sprites
	for i := range spriteCount {
		baseAddr := addr.OAMStart + uint16(i*spriteAttributeSize)

		spriteY := int(o.bus.Read(baseAddr)) - spriteYOffset

		// sprite is visible if: spriteY <= scanline < spriteY + height
		if spriteY > scanline || scanline >= spriteY+spriteHeight {
			continue
		}

		sprite := Sprite{
			Y:         spriteY,
			X:         int(o.bus.Read(baseAddr+1)) - spriteXOffset,
			TileIndex: o.bus.Read(baseAddr + 2),
			Flags:     o.bus.Read(baseAddr + 3),
			OAMIndex:  i,
			Height:    spriteHeight,
		}
		sprite.parseFlags()
		sprite.Row = o.patternRow(&sprite, scanline)

		sprites = append(sprites, sprite)

		if len(sprites) >= maxSpritesPerLine {
			break
		}
	}

	// phase 2: opaque pixels compete for ownership
	for i := range sprites {
		for pixelX := range 8 {
			if sprites[i].ColorAt(pixelX) != 0 {
				o.priorityBuffer.TryClaimPixel(sprites[i].X+pixelX, sprites[i].OAMIndex, sprites[i].X)
			}
		}
	}

	// phase 3: set pixel priority masks based on priority resolution
	for i := range sprites {
		var mask uint8
		for pixelX := range 8 {
			if o.priorityBuffer.GetOwner(sprites[i].X+pixelX) == sprites[i].OAMIndex {
				mask |= 1 << (7 - pixelX) // bit 7 is leftmost pixel
			}
		}
		sprites[i].PixelMask = mask
	}

	return sprites
}

// patternRow fetches the row of the sprite's pattern that crosses scanline.
// 8x16 sprites ignore bit 0 of the tile index and continue into the next
// tile, which is adjacent in memory.
func (o *OAM) patternRow(s *Sprite, scanline int) TileRow {
	row := scanline - s.Y
	if s.FlipY {
		row = s.Height - 1 - row
	}

	index := s.TileIndex
	if s.Height == 16 {
		index &= 0xFE
	}

	address := tileDataAddress(index, true) + uint16(row*2)
	return TileRow{Low: o.bus.Read(address), High: o.bus.Read(address + 1)}
}
