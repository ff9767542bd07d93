// Package asciistream turns a live camera feed into character art and emits it as
// still images or as a raw video stream piped into an encoder.
package asciistream

import (
	"fmt"

	"github.com/pkg/errors"
)

// The error kinds a pipeline stage can fail with. Callers check for them with
// errors.Is.
var (
	// ErrConfig is an invalid startup configuration. Nothing has been started yet.
	ErrConfig = errors.New("invalid configuration")
	// ErrCapture means the device failed to deliver a frame and is assumed gone.
	ErrCapture = errors.New("capture failed")
	// ErrDecode means a single frame was malformed; the next frame may be fine.
	ErrDecode = errors.New("decode failed")
	// ErrSinkUnavailable means the output consumer could not be started.
	ErrSinkUnavailable = errors.New("sink unavailable")
	// ErrBrokenPipe means the output consumer went away mid-stream.
	ErrBrokenPipe = errors.New("broken pipe")
	// ErrIO is a failed still-image write.
	ErrIO = errors.New("i/o failure")
)

// KindError tags an underlying cause with one of the error kinds above.
type KindError struct {
	Kind  error
	Cause error
	msg   string
}

// Wrap attaches kind to cause. The result matches both kind and cause under
// errors.Is. A nil cause yields an error carrying only the kind and message.
func Wrap(kind, cause error, msg string) error {
	return &KindError{Kind: kind, Cause: cause, msg: msg}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind, cause error, format string, args ...interface{}) error {
	return Wrap(kind, cause, fmt.Sprintf(format, args...))
}

func (e *KindError) Error() string {
	s := e.Kind.Error()
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap exposes both the kind and the cause.
func (e *KindError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
