package pixel

// A Range is a closed interval per channel. A pixel is in the range only if all
// three of its channels are.
type Range struct {
	Lo, Hi RGB
}

// BlueMask is the default filter range, a loose match for saturated blues.
var BlueMask = Range{
	Lo: RGB{0, 0, 100},
	Hi: RGB{120, 100, 255},
}

// Contains reports whether c falls inside r, boundaries included.
func (r Range) Contains(c RGB) bool {
	return c.R >= r.Lo.R && c.R <= r.Hi.R &&
		c.G >= r.Lo.G && c.G <= r.Hi.G &&
		c.B >= r.Lo.B && c.B <= r.Hi.B
}

// Suppress blacks out, in place, every pixel of b that lies in r.
func Suppress(b *Buffer, r Range) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if c, _ := b.RGBAt(x, y); r.Contains(c) {
				b.SetRGB(x, y, Black)
			}
		}
	}
}

// Resample returns a width x height copy of src using nearest-neighbor selection:
// destination (x, y) reads source (x*srcW/width, y*srcH/height), rounded down.
func Resample(src *Buffer, width, height int) *Buffer {
	dst := New(width, height)
	if src.width == 0 || src.height == 0 {
		return dst
	}
	for y := 0; y < dst.height; y++ {
		sy := y * src.height / dst.height
		for x := 0; x < dst.width; x++ {
			c, _ := src.RGBAt(x*src.width/dst.width, sy)
			dst.SetRGB(x, y, c)
		}
	}
	return dst
}

// Rec. 709 luma weights scaled by lumaScale.
const (
	lumaR     = 2126
	lumaG     = 7152
	lumaB     = 722
	lumaScale = lumaR + lumaG + lumaB
)

// Luma returns the perceptual luminance of c rounded to the nearest integer.
func Luma(c RGB) uint8 {
	return uint8((lumaR*uint32(c.R) + lumaG*uint32(c.G) + lumaB*uint32(c.B) + lumaScale/2) / lumaScale)
}

// Luminance maps every pixel of b to its Luma.
func Luminance(b *Buffer) *Intensity {
	out := NewIntensity(b.width, b.height)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c, _ := b.RGBAt(x, y)
			out.Set(x, y, Luma(c))
		}
	}
	return out
}
