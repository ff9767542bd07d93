package sink

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/pixel"
)

// StreamConfig describes the encoder process a StreamSink feeds.
type StreamConfig struct {
	Binary string
	Output string
	Codec  string
	Preset string
	PixFmt string
	// ExtraArgs are inserted before the output path.
	ExtraArgs []string
	// Args replaces the generated argument list entirely. The consumer must still
	// read raw rgb24 frames from stdin.
	Args []string
	// KillGrace is how long Close waits for the encoder to exit before killing it.
	KillGrace time.Duration
}

// DefaultStreamConfig encodes H.264 into an MP4 with ffmpeg.
func DefaultStreamConfig(output string) StreamConfig {
	return StreamConfig{
		Binary:    "ffmpeg",
		Output:    output,
		Codec:     "libx264",
		Preset:    "ultrafast",
		PixFmt:    "yuv420p",
		KillGrace: 5 * time.Second,
	}
}

// Argv returns the encoder arguments for frames of the given format.
func (cfg StreamConfig) Argv(format Format) []string {
	if len(cfg.Args) != 0 {
		return append([]string(nil), cfg.Args...)
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", format.Width, format.Height),
		"-framerate", strconv.Itoa(format.FrameRate),
		"-i", "pipe:0",
	}
	if cfg.Codec != "" {
		args = append(args, "-c:v", cfg.Codec)
	}
	if cfg.Preset != "" {
		args = append(args, "-preset", cfg.Preset)
	}
	if cfg.PixFmt != "" {
		args = append(args, "-pix_fmt", cfg.PixFmt)
	}
	args = append(args, cfg.ExtraArgs...)
	return append(args, cfg.Output)
}

type streamState int

const (
	streamIdle streamState = iota
	streamStreaming
	streamClosed
)

// stderrTailSize bounds how much encoder stderr is kept for error reports.
const stderrTailSize = 4096

// A StreamSink pipes raw rgb24 canvases into the stdin of an encoder process. It
// moves from idle to streaming on Open and to closed on Close or on the first
// failed write; it never reopens.
type StreamSink struct {
	cfg    StreamConfig
	logger golog.Logger

	mu      sync.Mutex
	state   streamState
	format  Format
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *tailBuffer
	written int
}

// NewStreamSink returns an idle sink; nothing is spawned until Open.
func NewStreamSink(cfg StreamConfig, logger golog.Logger) *StreamSink {
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = 5 * time.Second
	}
	return &StreamSink{cfg: cfg, logger: logger}
}

// Open spawns the encoder declaring format.
func (ss *StreamSink) Open(ctx context.Context, format Format) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.state != streamIdle {
		return errors.New("stream sink already opened")
	}
	if format.Width <= 0 || format.Height <= 0 || format.FrameRate <= 0 {
		return asciistream.Wrapf(asciistream.ErrConfig, nil,
			"invalid stream format %dx%d@%d", format.Width, format.Height, format.FrameRate)
	}

	argv := ss.cfg.Argv(format)
	//nolint:gosec
	cmd := exec.Command(ss.cfg.Binary, argv...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return asciistream.Wrapf(asciistream.ErrSinkUnavailable, err, "starting %s", ss.cfg.Binary)
	}
	ss.stderr = &tailBuffer{max: stderrTailSize}
	cmd.Stderr = ss.stderr
	cmd.WaitDelay = ss.cfg.KillGrace
	if err := cmd.Start(); err != nil {
		return asciistream.Wrapf(asciistream.ErrSinkUnavailable, err, "starting %s", ss.cfg.Binary)
	}

	ss.cmd = cmd
	ss.stdin = stdin
	ss.format = format
	ss.state = streamStreaming
	ss.logger.Infow("encoder started", "binary", ss.cfg.Binary, "pid", cmd.Process.Pid, "args", strings.Join(argv, " "))
	return nil
}

// Write sends the canvas bytes verbatim and blocks while the encoder applies
// backpressure. A canvas of the wrong size is rejected before anything is written.
// Any write failure closes the sink and fails with asciistream.ErrBrokenPipe.
func (ss *StreamSink) Write(ctx context.Context, index int, canvas *pixel.Buffer) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	switch ss.state {
	case streamIdle:
		return errors.New("stream sink not opened")
	case streamClosed:
		return asciistream.Wrapf(asciistream.ErrBrokenPipe, nil, "writing frame %d: sink closed", index)
	case streamStreaming:
	}
	if canvas.Width() != ss.format.Width || canvas.Height() != ss.format.Height {
		return errors.Errorf("frame %d is %dx%d but the stream was opened at %dx%d",
			index, canvas.Width(), canvas.Height(), ss.format.Width, ss.format.Height)
	}
	if _, err := ss.stdin.Write(canvas.Bytes()); err != nil {
		ss.logger.Errorw("encoder stopped accepting frames", "frame", index, "error", err)
		return multierr.Combine(
			asciistream.Wrapf(asciistream.ErrBrokenPipe, err, "writing frame %d to %s", index, ss.cfg.Binary),
			ss.closeLocked(),
		)
	}
	ss.written++
	return nil
}

// Written returns the number of frames fully handed to the encoder.
func (ss *StreamSink) Written() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.written
}

// Close ends the stream and waits for the encoder, killing it if it outlives the
// grace period. A nonzero exit is returned wrapping *exec.ExitError along with the
// tail of the encoder's stderr. Only the first call does anything.
func (ss *StreamSink) Close(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	switch ss.state {
	case streamIdle:
		ss.state = streamClosed
		return nil
	case streamClosed:
		return nil
	case streamStreaming:
	}
	return ss.closeLocked()
}

func (ss *StreamSink) closeLocked() error {
	ss.state = streamClosed
	// a broken pipe fails to close as well; the exit status is what matters
	//nolint:errcheck
	ss.stdin.Close()

	done := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		done <- ss.cmd.Wait()
	})

	var waitErr error
	select {
	case waitErr = <-done:
	case <-time.After(ss.cfg.KillGrace):
		ss.logger.Warnw("encoder did not exit in time; killing", "pid", ss.cmd.Process.Pid, "grace", ss.cfg.KillGrace)
		if err := ss.cmd.Process.Kill(); err != nil {
			ss.logger.Debugw("error killing encoder", "error", err)
		}
		waitErr = <-done
	}

	if waitErr != nil {
		if tail := ss.stderr.String(); tail != "" {
			return errors.Wrapf(waitErr, "%s exited after %d frames; stderr: %s", ss.cfg.Binary, ss.written, tail)
		}
		return errors.Wrapf(waitErr, "%s exited after %d frames", ss.cfg.Binary, ss.written)
	}
	ss.logger.Infow("encoder finished", "binary", ss.cfg.Binary, "frames", ss.written)
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (tb *tailBuffer) Write(p []byte) (int, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.buf = append(tb.buf, p...)
	if over := len(tb.buf) - tb.max; over > 0 {
		tb.buf = append(tb.buf[:0], tb.buf[over:]...)
	}
	return len(p), nil
}

func (tb *tailBuffer) String() string {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return strings.TrimSpace(string(tb.buf))
}
