// Package glyph maps intensities onto an ordered ramp of symbols and builds the
// character grid that gets rendered for each frame.
package glyph

import (
	"strings"

	"github.com/edaniels/asciistream"
)

// DefaultRamp runs from sparsest to densest.
const DefaultRamp = " .',:;clxokXdO0KN"

// A Ramp is an immutable, ordered set of distinct symbols. Index 0 stands for
// intensity 0 and the last index for intensity 255.
type Ramp struct {
	symbols []rune
}

// NewRamp builds a ramp from the runes of s. It needs at least two symbols and
// rejects duplicates.
func NewRamp(s string) (*Ramp, error) {
	symbols := []rune(s)
	if len(symbols) < 2 {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "ramp %q needs at least 2 symbols", s)
	}
	seen := make(map[rune]struct{}, len(symbols))
	for _, r := range symbols {
		if _, ok := seen[r]; ok {
			return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "ramp %q repeats %q", s, r)
		}
		seen[r] = struct{}{}
	}
	return &Ramp{symbols: symbols}, nil
}

// Len returns the number of symbols.
func (r *Ramp) Len() int { return len(r.symbols) }

// Index returns intensity*(N-1)/255 rounded down, so 0 maps to the first symbol,
// 255 to the last, and the result never decreases as intensity grows.
func (r *Ramp) Index(intensity uint8) int {
	return int(intensity) * (len(r.symbols) - 1) / 255
}

// Symbol maps an intensity to its symbol.
func (r *Ramp) Symbol(intensity uint8) rune {
	return r.symbols[r.Index(intensity)]
}

// At returns the symbol at index i.
func (r *Ramp) At(i int) rune { return r.symbols[i] }

// String returns the ramp as it was given to NewRamp.
func (r *Ramp) String() string {
	var sb strings.Builder
	for _, s := range r.symbols {
		sb.WriteRune(s)
	}
	return sb.String()
}
