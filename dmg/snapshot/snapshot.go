// Package snapshot exports frames for inspection and comparison: PNG images,
// text renderings and a checksum.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/valerio/dmgcore/dmg/video"
)

// shadeChars maps a shade, 0 black to 3 white, to a character.
var shadeChars = []rune{'█', '▓', '▒', '░'}

// Metadata is written in the header of text snapshots.
type Metadata struct {
	Frame        int
	Instructions uint64
}

// Shade converts a pixel value to a shade level, 0 black to 3 white.
// Unknown colors count as white.
func Shade(pixel uint32) int {
	switch video.GBColor(pixel) {
	case video.BlackColor:
		return 0
	case video.DarkGreyColor:
		return 1
	case video.LightGreyColor:
		return 2
	default:
		return 3
	}
}

// Hash returns a 64 bit checksum of the frame contents. Frames that look the
// same hash the same.
func Hash(frame *video.FrameBuffer) uint64 {
	pixels := frame.ToSlice()
	buf := make([]byte, len(pixels)*4)
	for i, p := range pixels {
		binary.BigEndian.PutUint32(buf[i*4:], p)
	}
	return xxhash.Sum64(buf)
}

// Image converts the frame to an RGBA image.
func Image(frame *video.FrameBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width(), frame.Height()))
	for i, p := range frame.ToSlice() {
		binary.BigEndian.PutUint32(img.Pix[i*4:], p)
	}
	return img
}

// WritePNG encodes the frame as a PNG image.
func WritePNG(w io.Writer, frame *video.FrameBuffer) error {
	if err := png.Encode(w, Image(frame)); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// WriteText writes the frame with one character per pixel, after a short
// commented header.
func WriteText(w io.Writer, frame *video.FrameBuffer, meta Metadata) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Game Boy Frame Snapshot\n")
	fmt.Fprintf(&sb, "# Frame: %d, Instructions: %d\n", meta.Frame, meta.Instructions)
	fmt.Fprintf(&sb, "# Resolution: %dx%d pixels\n", frame.Width(), frame.Height())
	fmt.Fprintf(&sb, "# Legend: █=black ▓=dark ▒=light ░=white\n")
	fmt.Fprintf(&sb, "#\n")

	pixels := frame.ToSlice()
	for y := 0; y < frame.Height(); y++ {
		for x := 0; x < frame.Width(); x++ {
			sb.WriteRune(shadeChars[Shade(pixels[y*frame.Width()+x])])
		}
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Save writes a snapshot to path, as a PNG image when the extension is .png
// and as text otherwise.
func Save(path string, frame *video.FrameBuffer, meta Metadata) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = WritePNG(file, frame)
	} else {
		err = WriteText(file, frame, meta)
	}

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// halfBlock returns the character drawing two vertically stacked pixels in
// one cell, with the foreground as the top pixel.
func halfBlock(topShade, bottomShade int) rune {
	switch {
	case topShade == bottomShade:
		return '█'
	case topShade == 3:
		return '▄'
	default:
		return '▀'
	}
}

// HalfBlocks renders the frame two pixel rows per line, for terminals.
// Each cell is paired with the shades of its top and bottom pixel.
func HalfBlocks(frame *video.FrameBuffer) []Cell {
	width, height := frame.Width(), frame.Height()
	pixels := frame.ToSlice()

	rows := (height + 1) / 2
	cells := make([]Cell, 0, rows*width)

	for row := 0; row < rows; row++ {
		for x := 0; x < width; x++ {
			top := Shade(pixels[row*2*width+x])
			bottom := 3
			if row*2+1 < height {
				bottom = Shade(pixels[(row*2+1)*width+x])
			}
			cells = append(cells, Cell{
				X:      x,
				Y:      row,
				Char:   halfBlock(top, bottom),
				Top:    top,
				Bottom: bottom,
			})
		}
	}
	return cells
}

// Cell is one character of a half block rendering.
type Cell struct {
	X, Y        int
	Char        rune
	Top, Bottom int
}
