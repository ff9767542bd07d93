package glyph

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/pixel"
)

func TestNewRamp(t *testing.T) {
	for _, bad := range []string{"", "x", "aba"} {
		_, err := NewRamp(bad)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, asciistream.ErrConfig), test.ShouldBeTrue)
	}

	r, err := NewRamp(DefaultRamp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Len(), test.ShouldEqual, 17)
	test.That(t, r.String(), test.ShouldEqual, DefaultRamp)
	test.That(t, r.At(0), test.ShouldEqual, ' ')
	test.That(t, r.At(16), test.ShouldEqual, 'N')
}

func TestRampMonotonicWithFixedEnds(t *testing.T) {
	for _, s := range []string{"ab", "abc", " .:-=+*#%@", DefaultRamp, "0123456789abcdefghijklmnopqrstuvwxyz"} {
		r, err := NewRamp(s)
		test.That(t, err, test.ShouldBeNil)
		symbols := []rune(s)

		test.That(t, r.Symbol(0), test.ShouldEqual, symbols[0])
		test.That(t, r.Symbol(255), test.ShouldEqual, symbols[len(symbols)-1])

		prev := r.Index(0)
		for i := 1; i <= 255; i++ {
			idx := r.Index(uint8(i))
			test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, prev)
			test.That(t, idx, test.ShouldBeLessThan, r.Len())
			prev = idx
		}
	}
}

func TestDefaultRampIndices(t *testing.T) {
	r, err := NewRamp(DefaultRamp)
	test.That(t, err, test.ShouldBeNil)
	// 16 steps over 255
	test.That(t, r.Index(15), test.ShouldEqual, 0)
	test.That(t, r.Index(16), test.ShouldEqual, 1)
	test.That(t, r.Index(128), test.ShouldEqual, 8)
	test.That(t, r.Index(254), test.ShouldEqual, 15)
}

func TestBuildGrid(t *testing.T) {
	r, err := NewRamp("abc")
	test.That(t, err, test.ShouldBeNil)

	in := pixel.NewIntensity(3, 2)
	in.Set(0, 0, 0)
	in.Set(1, 0, 128)
	in.Set(2, 0, 255)
	in.Set(0, 1, 255)
	in.Set(1, 1, 127)
	in.Set(2, 1, 0)

	g := BuildGrid(in, r)
	test.That(t, g.Rows(), test.ShouldEqual, in.Height())
	test.That(t, g.Cols(), test.ShouldEqual, in.Width())
	test.That(t, g.String(), test.ShouldEqual, "abc\ncaa")
	test.That(t, g.At(1, 0), test.ShouldEqual, 'c')
	test.That(t, g.At(2, 0), test.ShouldEqual, ' ')
}

func TestGridDimensionsFollowIntensity(t *testing.T) {
	r, err := NewRamp(DefaultRamp)
	test.That(t, err, test.ShouldBeNil)
	for _, dims := range [][2]int{{0, 0}, {1, 1}, {80, 45}, {7, 13}} {
		g := BuildGrid(pixel.NewIntensity(dims[0], dims[1]), r)
		test.That(t, g.Cols(), test.ShouldEqual, dims[0])
		test.That(t, g.Rows(), test.ShouldEqual, dims[1])
	}
}
