package snapshot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/video"
)

type fakeMemory map[uint16]byte

func (m fakeMemory) Read(address uint16) byte { return m[address] }

func TestTileSheet(t *testing.T) {
	mem := fakeMemory{
		addr.BGP: 0xE4,
		// tile 0, first row: colors 0 2 3 3 3 3 2 0
		0x8000: 0x3C,
		0x8001: 0x7E,
		// tile 17 (second row, second column), first row all color 1
		0x8110: 0xFF,
	}

	img := TileSheet(mem)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 192, img.Bounds().Dy())

	tests := []struct {
		x, y int
		want video.GBColor
	}{
		{0, 0, video.WhiteColor},
		{1, 0, video.DarkGreyColor},
		{2, 0, video.BlackColor},
		{7, 0, video.WhiteColor},
		{0, 1, video.WhiteColor},
		{8, 8, video.LightGreyColor},
		{15, 8, video.LightGreyColor},
		{8, 9, video.WhiteColor},
	}
	for _, tt := range tests {
		r, g, b, a := img.At(tt.x, tt.y).RGBA()
		got := uint32(r>>8)<<24 | uint32(g>>8)<<16 | uint32(b>>8)<<8 | uint32(a>>8)
		assert.Equal(t, uint32(tt.want), got, "pixel (%d,%d)", tt.x, tt.y)
	}
}

func TestTileSheet_palette(t *testing.T) {
	// inverted palette, color 0 is black
	mem := fakeMemory{addr.BGP: 0x1B}

	img := TileSheet(mem)
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestWriteTileSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTileSheet(&buf, fakeMemory{addr.BGP: 0xE4}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
