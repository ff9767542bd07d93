package pixel

// Intensity is a single-channel, row-major buffer of 0-255 values.
type Intensity struct {
	width, height int
	pix           []uint8
}

// NewIntensity allocates a zeroed intensity buffer.
func NewIntensity(width, height int) *Intensity {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Intensity{width: width, height: height, pix: make([]uint8, width*height)}
}

// Width returns the width in pixels.
func (in *Intensity) Width() int { return in.width }

// Height returns the height in pixels.
func (in *Intensity) Height() int { return in.height }

// Bytes returns the underlying values. The slice aliases the buffer.
func (in *Intensity) Bytes() []uint8 { return in.pix }

func (in *Intensity) offset(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= in.width || y >= in.height {
		return 0, false
	}
	return y*in.width + x, true
}

// At returns the value at (x, y). ok is false outside the buffer.
func (in *Intensity) At(x, y int) (v uint8, ok bool) {
	i, ok := in.offset(x, y)
	if !ok {
		return 0, false
	}
	return in.pix[i], true
}

// Set stores v at (x, y) and reports whether the coordinate was inside the buffer.
func (in *Intensity) Set(x, y int, v uint8) bool {
	i, ok := in.offset(x, y)
	if !ok {
		return false
	}
	in.pix[i] = v
	return true
}
