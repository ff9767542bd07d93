//go:build !linux

package capture

import (
	"context"
	"runtime"

	"github.com/edaniels/golog"

	"github.com/edaniels/asciistream"
)

// A WebcamSource is unavailable off Linux.
type WebcamSource struct{}

// OpenWebcam always fails; V4L2 capture needs Linux. Use a ReplaySource instead.
func OpenWebcam(path string, format Format, width, height int, logger golog.Logger) (*WebcamSource, error) {
	return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "webcam capture is not supported on %s", runtime.GOOS)
}

// Next always fails.
func (ws *WebcamSource) Next(ctx context.Context) ([]byte, error) {
	return nil, asciistream.ErrCapture
}

// Close does nothing.
func (ws *WebcamSource) Close(ctx context.Context) error {
	return nil
}
