package render

import (
	"image"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/math/fixed"

	"github.com/edaniels/asciistream/glyph"
	"github.com/edaniels/asciistream/pixel"
)

// glyphMask is a rasterized glyph copied out of the face. rect is relative to the
// baseline dot.
type glyphMask struct {
	rect image.Rectangle
	cov  []uint8
}

// A Renderer draws glyphs from a single FontAsset. Rasterized glyphs are cached
// per rune for the life of the renderer.
type Renderer struct {
	font *FontAsset

	mu     sync.Mutex
	glyphs map[rune]*glyphMask
}

// NewRenderer returns a renderer for the given font.
func NewRenderer(font *FontAsset) *Renderer {
	return &Renderer{
		font:   font,
		glyphs: map[rune]*glyphMask{},
	}
}

// Font returns the font the renderer draws with.
func (r *Renderer) Font() *FontAsset { return r.font }

// NewCanvas allocates a width x height canvas filled with bg.
func (r *Renderer) NewCanvas(width, height int, bg pixel.RGB) *pixel.Buffer {
	canvas := pixel.New(width, height)
	canvas.Fill(bg)
	return canvas
}

// DrawText lays text out left to right with a fixed advance. The i-th glyph has its
// baseline at (origin.X + i*advance, origin.Y + ascent). Inside each glyph's box,
// channel ch is replaced by the glyph coverage, zero included; the other two
// channels keep whatever the canvas had.
func (r *Renderer) DrawText(canvas *pixel.Buffer, text string, origin image.Point, advance int, ch pixel.Channel) {
	dot := image.Pt(origin.X, origin.Y+r.font.ascent)
	for _, c := range text {
		r.drawGlyph(canvas, dot, c, ch)
		dot.X += advance
	}
}

// DrawGrid renders every cell of grid as a glyph at (col*cellWidth,
// row*cellHeight + ascent), writing coverage into channel ch.
func (r *Renderer) DrawGrid(canvas *pixel.Buffer, grid *glyph.Grid, ch pixel.Channel) {
	cellW, cellH := r.font.CellSize()
	for row := 0; row < grid.Rows(); row++ {
		y := row*cellH + r.font.ascent
		for col := 0; col < grid.Cols(); col++ {
			r.drawGlyph(canvas, image.Pt(col*cellW, y), grid.At(row, col), ch)
		}
	}
}

// drawGlyph writes the coverage of c into channel ch with its baseline at dot.
// Pixels outside the canvas are dropped.
func (r *Renderer) drawGlyph(canvas *pixel.Buffer, dot image.Point, c rune, ch pixel.Channel) {
	g := r.glyph(c)
	if g == nil {
		return
	}
	w := g.rect.Dx()
	for y := 0; y < g.rect.Dy(); y++ {
		py := dot.Y + g.rect.Min.Y + y
		if py < 0 || py >= canvas.Height() {
			continue
		}
		for x := 0; x < w; x++ {
			canvas.SetChannel(dot.X+g.rect.Min.X+x, py, ch, g.cov[y*w+x])
		}
	}
}

// glyph returns the cached mask for c, rasterizing it on first use. A nil result
// means the face has nothing to draw for c and the cell stays blank.
func (r *Renderer) glyph(c rune) *glyphMask {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.glyphs[c]; ok {
		return g
	}
	g := r.rasterize(c)
	r.glyphs[c] = g
	return g
}

// rasterize copies the mask out of the face, which may reuse its buffer between
// calls.
func (r *Renderer) rasterize(c rune) *glyphMask {
	dr, mask, maskp, _, ok := r.font.face.Glyph(fixed.Point26_6{}, c)
	if !ok || mask == nil || dr.Empty() {
		return nil
	}
	g := &glyphMask{
		rect: dr,
		cov:  make([]uint8, dr.Dx()*dr.Dy()),
	}
	for y := 0; y < dr.Dy(); y++ {
		for x := 0; x < dr.Dx(); x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			g.cov[y*dr.Dx()+x] = uint8(a >> 8)
		}
	}
	return g
}

// ParseColor parses a hex color such as "#00ff00".
func ParseColor(hex string) (pixel.RGB, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return pixel.RGB{}, errors.Wrapf(err, "parsing color %q", hex)
	}
	r, g, b := c.RGB255()
	return pixel.RGB{R: r, G: g, B: b}, nil
}
