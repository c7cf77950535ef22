package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileRow_GetPixel(t *testing.T) {
	row := TileRow{Low: 0x3C, High: 0x7E}

	expected := []int{0, 2, 3, 3, 3, 3, 2, 0}
	for x, want := range expected {
		assert.Equal(t, want, row.GetPixel(x), "pixel %d", x)
	}
}

func TestTileRow_GetPixelFlipped(t *testing.T) {
	// leftmost pixel is color 1, rightmost is color 2
	row := TileRow{Low: 0x80, High: 0x01}

	assert.Equal(t, 1, row.GetPixel(0))
	assert.Equal(t, 2, row.GetPixel(7))
	assert.Equal(t, 2, row.GetPixelFlipped(0))
	assert.Equal(t, 1, row.GetPixelFlipped(7))
}

func TestTileDataAddress(t *testing.T) {
	testCases := []struct {
		desc     string
		index    uint8
		unsigned bool
		want     uint16
	}{
		{"unsigned 0", 0, true, 0x8000},
		{"unsigned 1", 1, true, 0x8010},
		{"unsigned 255", 255, true, 0x8FF0},
		{"signed 0", 0, false, 0x9000},
		{"signed 127", 127, false, 0x97F0},
		{"signed -128", 128, false, 0x8800},
		{"signed -1", 255, false, 0x8FF0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, tileDataAddress(tC.index, tC.unsigned))
		})
	}
}

func TestFrameBuffer(t *testing.T) {
	fb := NewFrameBuffer()
	assert.Equal(t, FramebufferWidth, fb.Width())
	assert.Equal(t, FramebufferHeight, fb.Height())
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(0, 0))

	fb.SetPixel(159, 143, BlackColor)
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(159, 143))
	assert.Equal(t, uint32(BlackColor), fb.ToSlice()[len(fb.ToSlice())-1])

	fb.Clear(DarkGreyColor)
	assert.Equal(t, uint32(DarkGreyColor), fb.GetPixel(159, 143))
}

func TestByteToColor(t *testing.T) {
	assert.Equal(t, WhiteColor, ByteToColor(0))
	assert.Equal(t, LightGreyColor, ByteToColor(1))
	assert.Equal(t, DarkGreyColor, ByteToColor(2))
	assert.Equal(t, BlackColor, ByteToColor(3))
	assert.Equal(t, WhiteColor, ByteToColor(4), "only the low two bits count")
}

func TestPaletteShade(t *testing.T) {
	// BGP 0xE4 is the identity mapping
	for i := range 4 {
		assert.Equal(t, byte(i), paletteShade(0xE4, i))
	}
	// inverted
	for i := range 4 {
		assert.Equal(t, byte(3-i), paletteShade(0x1B, i))
	}
}
