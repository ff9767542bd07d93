package capture

import (
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pkg/errors"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/pixel"
)

// A Decoder turns encoded frames of one format and size into pixel buffers.
type Decoder struct {
	format        Format
	width, height int
	dec           frame.Decoder
}

// NewDecoder returns a decoder for frames of the given format and dimensions.
func NewDecoder(format Format, width, height int) (*Decoder, error) {
	if width <= 0 || height <= 0 {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "invalid frame size %dx%d", width, height)
	}
	dec, err := frame.NewDecoder(format.Decoder)
	if err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, err, "no decoder for %s", format.Name)
	}
	return &Decoder{format: format, width: width, height: height, dec: dec}, nil
}

// Decode decodes one frame. Malformed data and frames of the wrong size fail with
// asciistream.ErrDecode.
func (d *Decoder) Decode(encoded []byte) (*pixel.Buffer, error) {
	if len(encoded) == 0 {
		return nil, asciistream.Wrap(asciistream.ErrDecode, errors.New("empty frame"), d.format.Name)
	}
	img, release, err := d.dec.Decode(encoded, d.width, d.height)
	if release != nil {
		defer release()
	}
	if err != nil {
		return nil, asciistream.Wrap(asciistream.ErrDecode, err, d.format.Name)
	}
	if b := img.Bounds(); b.Dx() != d.width || b.Dy() != d.height {
		return nil, asciistream.Wrapf(asciistream.ErrDecode, nil,
			"%s frame is %dx%d, expected %dx%d", d.format.Name, b.Dx(), b.Dy(), d.width, d.height)
	}
	return pixel.FromImage(img), nil
}
