//go:build linux

package capture

import (
	"context"
	"strings"

	"github.com/blackjack/webcam"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/edaniels/asciistream"
)

// waitTimeout is how long a single WaitForFrame blocks, in seconds. Timeouts are
// retried so that cancellation is noticed between waits.
const waitTimeout = 1

// A WebcamSource streams encoded frames from a V4L2 device.
type WebcamSource struct {
	path   string
	cam    *webcam.Webcam
	logger golog.Logger
}

// OpenWebcam opens the device at path and starts streaming in the given format and
// size. Devices that lack the format or negotiate a different size are rejected
// with asciistream.ErrConfig.
func OpenWebcam(path string, format Format, width, height int, logger golog.Logger) (_ *WebcamSource, err error) {
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrCapture, err, "opening %q", path)
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, cam.Close())
		}
	}()

	supported := cam.GetSupportedFormats()
	want := webcam.PixelFormat(format.Code())
	if _, ok := supported[want]; !ok {
		names := make([]string, 0, len(supported))
		for _, desc := range supported {
			names = append(names, desc)
		}
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil,
			"%q does not support %s (has: %s)", path, format.FourCC, strings.Join(names, "; "))
	}

	got, w, h, err := cam.SetImageFormat(want, uint32(width), uint32(height))
	if err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, err, "setting %s %dx%d on %q", format.FourCC, width, height, path)
	}
	if got != want || int(w) != width || int(h) != height {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil,
			"%q negotiated %dx%d, expected %s %dx%d", path, w, h, format.FourCC, width, height)
	}

	if err := cam.StartStreaming(); err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrCapture, err, "starting stream on %q", path)
	}
	logger.Infow("webcam streaming", "device", path, "format", format.FourCC, "width", w, "height", h)
	return &WebcamSource{path: path, cam: cam, logger: logger}, nil
}

// Next blocks until the device delivers a frame and returns a copy of it, since the
// driver's buffer is reused by the next read.
func (ws *WebcamSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := ws.cam.WaitForFrame(waitTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			ws.logger.Debugw("timed out waiting for frame", "device", ws.path)
			continue
		default:
			return nil, asciistream.Wrapf(asciistream.ErrCapture, err, "waiting for frame on %q", ws.path)
		}

		data, err := ws.cam.ReadFrame()
		if err != nil {
			return nil, asciistream.Wrapf(asciistream.ErrCapture, err, "reading frame from %q", ws.path)
		}
		if len(data) == 0 {
			continue
		}
		frame := make([]byte, len(data))
		copy(frame, data)
		return frame, nil
	}
}

// Close stops streaming and releases the device.
func (ws *WebcamSource) Close(ctx context.Context) error {
	return multierr.Combine(ws.cam.StopStreaming(), ws.cam.Close())
}
