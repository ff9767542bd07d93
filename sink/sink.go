// Package sink delivers rendered canvases to their destination: still image files
// or the stdin of an external encoder.
package sink

import (
	"context"

	"github.com/edaniels/asciistream/pixel"
)

// Format is what a sink is told about the frames it will receive.
type Format struct {
	Width     int
	Height    int
	FrameRate int
}

// FrameSize returns the byte length of one frame.
func (f Format) FrameSize() int {
	return f.Width * f.Height * pixel.Channels
}

// A Sink consumes rendered canvases in order. Open must be called before Write and
// Close releases whatever Open acquired.
type Sink interface {
	Open(ctx context.Context, format Format) error
	Write(ctx context.Context, index int, canvas *pixel.Buffer) error
	Close(ctx context.Context) error
}
