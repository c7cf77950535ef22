package snapshot

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/video"
)

const (
	tileDataStart = 0x8000
	tileBytes     = 16
	tileCount     = 384
	tilesPerRow   = 16
	tileSheetRows = tileCount / tilesPerRow
)

// MemoryReader reads the address space as the CPU sees it.
type MemoryReader interface {
	Read(address uint16) byte
}

// TileSheet draws every tile stored in VRAM, 16 per row, shaded with the
// current background palette.
func TileSheet(mem MemoryReader) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, tilesPerRow*8, tileSheetRows*8))
	palette := mem.Read(addr.BGP)

	for tile := 0; tile < tileCount; tile++ {
		base := uint16(tileDataStart + tile*tileBytes)
		originX, originY := (tile%tilesPerRow)*8, (tile/tilesPerRow)*8

		for y := 0; y < 8; y++ {
			row := video.TileRow{
				Low:  mem.Read(base + uint16(y*2)),
				High: mem.Read(base + uint16(y*2+1)),
			}
			for x := 0; x < 8; x++ {
				shade := palette >> (row.GetPixel(x) * 2)
				offset := img.PixOffset(originX+x, originY+y)
				binary.BigEndian.PutUint32(img.Pix[offset:], uint32(video.ByteToColor(shade)))
			}
		}
	}
	return img
}

// WriteTileSheet encodes the VRAM tile sheet as a PNG image.
func WriteTileSheet(w io.Writer, mem MemoryReader) error {
	if err := png.Encode(w, TileSheet(mem)); err != nil {
		return fmt.Errorf("failed to encode tile sheet: %w", err)
	}
	return nil
}
