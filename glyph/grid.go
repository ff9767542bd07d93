package glyph

import (
	"strings"

	"github.com/edaniels/asciistream/pixel"
)

// A Grid is a rows x cols matrix of symbols, one per pixel of the intensity buffer
// it was built from.
type Grid struct {
	rows, cols int
	cells      []rune
}

// BuildGrid maps every value of in through the ramp, keeping row and column order.
func BuildGrid(in *pixel.Intensity, ramp *Ramp) *Grid {
	g := &Grid{
		rows:  in.Height(),
		cols:  in.Width(),
		cells: make([]rune, in.Width()*in.Height()),
	}
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			v, _ := in.At(col, row)
			g.cells[row*g.cols+col] = ramp.Symbol(v)
		}
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// At returns the symbol in the given cell, or a space outside the grid.
func (g *Grid) At(row, col int) rune {
	if row < 0 || col < 0 || row >= g.rows || col >= g.cols {
		return ' '
	}
	return g.cells[row*g.cols+col]
}

// String renders the grid as text, one line per row.
func (g *Grid) String() string {
	var sb strings.Builder
	for row := 0; row < g.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(g.cells[row*g.cols : (row+1)*g.cols]))
	}
	return sb.String()
}
