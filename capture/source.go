// Package capture pulls encoded frames from a device or from disk and decodes them
// into pixel buffers.
package capture

import (
	"context"
	"sort"
	"strings"

	"github.com/pion/mediadevices/pkg/frame"

	"github.com/edaniels/asciistream"
)

// A FrameSource produces one encoded frame per call to Next. Next blocks until a
// frame is available and introduces no rate limiting of its own.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}

// A FrameSourceFunc is a helper to turn a function into a FrameSource.
type FrameSourceFunc func(ctx context.Context) ([]byte, error)

// Next calls the underlying function.
func (fsf FrameSourceFunc) Next(ctx context.Context) ([]byte, error) {
	return fsf(ctx)
}

// Close does nothing.
func (fsf FrameSourceFunc) Close(ctx context.Context) error {
	return nil
}

// A Format identifies a compressed pixel format on both sides of the capture
// boundary: the FourCC the device is asked for and the decoder that reads it.
type Format struct {
	Name    string
	FourCC  string
	Decoder frame.Format
}

// Code returns the little-endian FourCC code used by V4L2.
func (f Format) Code() uint32 {
	if len(f.FourCC) != 4 {
		return 0
	}
	return uint32(f.FourCC[0]) | uint32(f.FourCC[1])<<8 | uint32(f.FourCC[2])<<16 | uint32(f.FourCC[3])<<24
}

var formats = map[string]Format{
	"mjpeg": {Name: "mjpeg", FourCC: "MJPG", Decoder: frame.FormatMJPEG},
	"yuyv":  {Name: "yuyv", FourCC: "YUYV", Decoder: frame.FormatYUY2},
}

// MJPEG is the default capture format.
var MJPEG = formats["mjpeg"]

// LookupFormat finds a supported format by name, ignoring case. "mjpg" is accepted
// as an alias for "mjpeg".
func LookupFormat(name string) (Format, error) {
	key := strings.ToLower(name)
	if key == "mjpg" {
		key = "mjpeg"
	}
	if f, ok := formats[key]; ok {
		return f, nil
	}
	return Format{}, asciistream.Wrapf(asciistream.ErrConfig, nil,
		"unsupported capture format %q (supported: %s)", name, strings.Join(FormatNames(), ", "))
}

// FormatNames lists the supported format names.
func FormatNames() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
