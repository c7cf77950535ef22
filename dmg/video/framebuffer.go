package video

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// GBColor is an RGBA color, red in the most significant byte.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

var shades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// ByteToColor converts a 2 bit shade (0 lightest, 3 darkest) into a color.
func ByteToColor(shade byte) GBColor {
	return shades[shade&0x03]
}

// FrameBuffer holds one full screen of pixels.
type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

// NewFrameBuffer creates a white frame buffer with the screen size.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferWidth*FramebufferHeight),
	}
	fb.Clear(WhiteColor)
	return fb
}

func (fb *FrameBuffer) Width() int  { return int(fb.width) }
func (fb *FrameBuffer) Height() int { return int(fb.height) }

func (fb *FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

// Clear fills the whole buffer with color.
func (fb *FrameBuffer) Clear(color GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(color)
	}
}

// ToSlice returns the pixels in row-major order. The slice is live, it
// changes as the GPU draws.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}
