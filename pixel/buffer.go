// Package pixel holds the frame-scoped buffers the pipeline works on and the pure
// per-pixel stages that transform them.
package pixel

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Channels is the number of bytes per pixel in a Buffer.
const Channels = 3

// RGB is a single pixel.
type RGB struct {
	R, G, B uint8
}

// Black is the replacement color used by Suppress and the default background.
var Black = RGB{}

// A Channel names one of the three color channels of an RGB pixel.
type Channel int

// The channels in their in-memory order.
const (
	Red Channel = iota
	Green
	Blue
)

// String returns the lowercase channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "unknown"
	}
}

// ParseChannel parses a channel name as produced by Channel.String.
func ParseChannel(name string) (Channel, error) {
	switch name {
	case "red", "r":
		return Red, nil
	case "green", "g":
		return Green, nil
	case "blue", "b":
		return Blue, nil
	default:
		return 0, errors.Errorf("unknown channel %q", name)
	}
}

// A Buffer is a fixed-size, row-major, tightly packed RGB image. Its byte length is
// always Width*Height*3. All coordinate math goes through offset.
type Buffer struct {
	width, height int
	pix           []byte
}

// New allocates a black buffer. Negative dimensions are treated as zero.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*Channels),
	}
}

// FromImage copies any image into a new buffer, dropping alpha without
// premultiplication.
func FromImage(img image.Image) *Buffer {
	nrgba := imaging.Clone(img)
	b := New(nrgba.Rect.Dx(), nrgba.Rect.Dy())
	dst := 0
	for y := 0; y < b.height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.width*4]
		for x := 0; x < len(row); x += 4 {
			b.pix[dst] = row[x]
			b.pix[dst+1] = row[x+1]
			b.pix[dst+2] = row[x+2]
			dst += Channels
		}
	}
	return b
}

// Width returns the width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the height in pixels.
func (b *Buffer) Height() int { return b.height }

// Bytes returns the underlying pixel bytes in row-major R,G,B order. The slice
// aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.pix }

// Len returns the byte length of the buffer.
func (b *Buffer) Len() int { return len(b.pix) }

// offset returns the index of the first byte of (x, y) and whether the coordinate
// lies inside the buffer.
func (b *Buffer) offset(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, false
	}
	return (y*b.width + x) * Channels, true
}

// RGBAt returns the pixel at (x, y). ok is false outside the buffer.
func (b *Buffer) RGBAt(x, y int) (c RGB, ok bool) {
	i, ok := b.offset(x, y)
	if !ok {
		return RGB{}, false
	}
	return RGB{b.pix[i], b.pix[i+1], b.pix[i+2]}, true
}

// SetRGB sets the pixel at (x, y) and reports whether it was inside the buffer.
func (b *Buffer) SetRGB(x, y int, c RGB) bool {
	i, ok := b.offset(x, y)
	if !ok {
		return false
	}
	b.pix[i] = c.R
	b.pix[i+1] = c.G
	b.pix[i+2] = c.B
	return true
}

// SetChannel replaces a single channel of the pixel at (x, y), leaving the other
// two alone. It reports whether the pixel was inside the buffer.
func (b *Buffer) SetChannel(x, y int, ch Channel, v uint8) bool {
	i, ok := b.offset(x, y)
	if !ok || ch < Red || ch > Blue {
		return false
	}
	b.pix[i+int(ch)] = v
	return true
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c RGB) {
	for i := 0; i < len(b.pix); i += Channels {
		b.pix[i] = c.R
		b.pix[i+1] = c.G
		b.pix[i+2] = c.B
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]byte, len(b.pix))
	copy(pix, b.pix)
	return &Buffer{width: b.width, height: b.height, pix: pix}
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.width, b.height) }

// At implements image.Image. Pixels are fully opaque.
func (b *Buffer) At(x, y int) color.Color {
	c, ok := b.RGBAt(x, y)
	if !ok {
		return color.RGBA{}
	}
	return color.RGBA{c.R, c.G, c.B, 0xff}
}
