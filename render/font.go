// Package render rasterizes text and character grids onto RGB canvases.
package render

import (
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"

	"github.com/edaniels/asciistream"
)

// A FontAsset is a loaded face at a fixed pixel size plus the metrics the renderer
// lays glyphs out with. It is created once at startup and never changed. The face
// itself is only ever queried through a Renderer, which serializes access to it.
type FontAsset struct {
	face       font.Face
	size       float64
	ascent     int
	cellWidth  int
	cellHeight int
}

// NewFontAsset wraps an already constructed face. cellWidth is the horizontal
// pitch of one grid cell.
func NewFontAsset(face font.Face, size float64, cellWidth int) *FontAsset {
	m := face.Metrics()
	return &FontAsset{
		face:       face,
		size:       size,
		ascent:     m.Ascent.Ceil(),
		cellWidth:  cellWidth,
		cellHeight: (m.Ascent + m.Descent).Ceil(),
	}
}

// ParseFont parses TrueType or OpenType data and sizes it so that size is the
// em height in pixels. Grid cells are size pixels wide.
func ParseFont(data []byte, size float64) (*FontAsset, error) {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "font size %v must be positive", size)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, asciistream.Wrap(asciistream.ErrConfig, err, "parsing font")
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, asciistream.Wrap(asciistream.ErrConfig, err, "creating font face")
	}
	return NewFontAsset(face, size, int(math.Round(size))), nil
}

// LoadFont reads and parses a font file.
func LoadFont(path string, size float64) (*FontAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, err, "reading font %q", path)
	}
	return ParseFont(data, size)
}

// DefaultFont returns the embedded Go Mono face at the given size.
func DefaultFont(size float64) (*FontAsset, error) {
	return ParseFont(gomono.TTF, size)
}

// BasicFont returns the fixed 7x13 bitmap face. It ignores scaling.
func BasicFont() *FontAsset {
	face := basicfont.Face7x13
	return NewFontAsset(face, float64(face.Height), face.Advance)
}

// Size returns the pixel size the face was created at.
func (f *FontAsset) Size() float64 { return f.size }

// Ascent returns the distance in pixels from the top of a cell to the baseline.
func (f *FontAsset) Ascent() int { return f.ascent }

// CellSize returns the monospace cell used when rendering a grid. Rows are
// ascent+descent apart, rounded up once.
func (f *FontAsset) CellSize() (width, height int) {
	return f.cellWidth, f.cellHeight
}
