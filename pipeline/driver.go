package pipeline

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/capture"
	"github.com/edaniels/asciistream/glyph"
	"github.com/edaniels/asciistream/pixel"
	"github.com/edaniels/asciistream/render"
	"github.com/edaniels/asciistream/sink"
)

// progressInterval is how often, in rendered frames, progress is logged at info.
const progressInterval = 30

// NewSource opens the frame source the configuration asks for.
func NewSource(cfg Config, logger golog.Logger) (capture.FrameSource, error) {
	if cfg.Capture.Replay != "" {
		src, err := capture.NewReplaySource(cfg.Capture.Replay, cfg.Capture.Loop)
		if err != nil {
			return nil, err
		}
		logger.Infow("replaying frames", "pattern", cfg.Capture.Replay, "frames", src.Len(), "loop", cfg.Capture.Loop)
		return src, nil
	}
	format, err := capture.LookupFormat(cfg.Capture.Format)
	if err != nil {
		return nil, err
	}
	cam, err := capture.OpenWebcam(cfg.Capture.Device, format, cfg.Capture.Width, cfg.Capture.Height, logger.Named("webcam"))
	if err != nil {
		return nil, err
	}
	return cam, nil
}

// NewSink returns an unopened sink for the configured output mode.
func NewSink(cfg Config, logger golog.Logger) (sink.Sink, error) {
	switch cfg.Output.Mode {
	case OutputFile:
		fs, err := sink.NewFileSink(cfg.Output.Path, logger.Named("file"))
		if err != nil {
			return nil, err
		}
		return fs, nil
	case OutputStream:
		return sink.NewStreamSink(cfg.streamConfig(), logger.Named("encoder")), nil
	default:
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "unknown output mode %q", cfg.Output.Mode)
	}
}

// A Driver runs frames from a source through decoding and rendering into a sink,
// one at a time.
type Driver struct {
	cfg      Config
	settings settings
	source   capture.FrameSource
	sink     sink.Sink
	decoder  *capture.Decoder
	renderer *render.Renderer
	logger   golog.Logger
	stats    Stats
}

// NewDriver validates cfg and loads the font. The driver takes ownership of source
// and out; Run closes both. If NewDriver fails, closing them is up to the caller.
func NewDriver(cfg Config, source capture.FrameSource, out sink.Sink, logger golog.Logger) (*Driver, error) {
	s, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	decoder, err := capture.NewDecoder(s.format, cfg.Capture.Width, cfg.Capture.Height)
	if err != nil {
		return nil, err
	}
	font, err := cfg.font()
	if err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:      cfg,
		settings: s,
		source:   source,
		sink:     out,
		decoder:  decoder,
		renderer: render.NewRenderer(font),
		logger:   logger,
	}
	if cfg.Render.Mode == RenderASCII {
		cw, ch := font.CellSize()
		if w, h := cfg.Grid.Width*cw, cfg.Grid.Height*ch; w > cfg.Output.Width || h > cfg.Output.Height {
			logger.Warnw("character grid is larger than the output and will be clipped",
				"grid_width", w, "grid_height", h, "output_width", cfg.Output.Width, "output_height", cfg.Output.Height)
		}
	}
	return d, nil
}

// Stats returns the counters of the last run.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Grid reduces a decoded frame to its character grid. The frame is filtered in
// place.
func (d *Driver) Grid(frame *pixel.Buffer) *glyph.Grid {
	if d.settings.filter != nil {
		pixel.Suppress(frame, *d.settings.filter)
	}
	small := pixel.Resample(frame, d.cfg.Grid.Width, d.cfg.Grid.Height)
	return glyph.BuildGrid(pixel.Luminance(small), d.settings.ramp)
}

// Render produces the output canvas for one decoded frame.
func (d *Driver) Render(frame *pixel.Buffer) *pixel.Buffer {
	out := d.cfg.Output
	if d.cfg.Render.Mode == RenderOverlay {
		canvas := frame
		if frame.Width() != out.Width || frame.Height() != out.Height {
			canvas = pixel.Resample(frame, out.Width, out.Height)
		}
		r := d.cfg.Render
		d.renderer.DrawText(canvas, r.Text, image.Pt(r.TextX, r.TextY), r.TextAdvance, d.settings.textChannel)
		return canvas
	}
	grid := d.Grid(frame)
	canvas := d.renderer.NewCanvas(out.Width, out.Height, d.settings.background)
	d.renderer.DrawGrid(canvas, grid, d.settings.glyphChannel)
	return canvas
}

// Run opens the sink and loops until the frame limit is reached, the source is
// exhausted, ctx is cancelled or a fatal error occurs. The source and sink are
// closed on every path and their close errors are part of the result; for a
// stream this includes the encoder's exit status.
func (d *Driver) Run(ctx context.Context) (err error) {
	d.stats = Stats{}
	logger := d.logger.With("run", uuid.New().String())

	defer func() {
		err = multierr.Combine(err, d.source.Close(ctx))
	}()
	format := sink.Format{Width: d.cfg.Output.Width, Height: d.cfg.Output.Height, FrameRate: d.cfg.Output.FrameRate}
	if err := d.sink.Open(ctx, format); err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, d.sink.Close(ctx))
		if err != nil {
			logger.Errorw("run failed", append(d.stats.Fields(), "error", err)...)
		} else {
			logger.Infow("run finished", d.stats.Fields()...)
		}
	}()

	logger.Infow("run started",
		"render", d.cfg.Render.Mode,
		"output", d.cfg.Output.Mode,
		"width", format.Width,
		"height", format.Height,
		"frame_rate", format.FrameRate,
		"max_frames", d.cfg.Output.MaxFrames)

	var interval time.Duration
	if d.cfg.Output.Pace && d.cfg.Output.FrameRate > 0 {
		interval = time.Second / time.Duration(d.cfg.Output.FrameRate)
	}
	var backoff errorBackoff
	for {
		if limit := d.cfg.Output.MaxFrames; limit > 0 && d.stats.Rendered >= limit {
			logger.Debugw("frame limit reached", "frames", limit)
			return nil
		}
		if ctx.Err() != nil {
			logger.Infow("stopping", "reason", ctx.Err())
			return nil
		}
		start := time.Now()

		encoded, err := d.source.Next(ctx)
		d.stats.CaptureTime += time.Since(start)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				logger.Infow("source exhausted")
				return nil
			case ctx.Err() != nil && errors.Is(err, ctx.Err()):
				logger.Infow("stopping", "reason", err)
				return nil
			default:
				return err
			}
		}
		d.stats.Captured++

		decodeStart := time.Now()
		frame, err := d.decoder.Decode(encoded)
		d.stats.DecodeTime += time.Since(decodeStart)
		if err != nil {
			d.stats.DecodeErrors++
			d.stats.Dropped++
			wait := backoff.next(err)
			logger.Warnw("dropping frame", "error", err, "backoff", wait)
			if wait > 0 && !goutils.SelectContextOrWait(ctx, wait) {
				return nil
			}
			continue
		}
		backoff.reset()

		renderStart := time.Now()
		canvas := d.Render(frame)
		d.stats.RenderTime += time.Since(renderStart)
		index := d.stats.Rendered
		d.stats.Rendered++

		writeStart := time.Now()
		err = d.sink.Write(ctx, index, canvas)
		d.stats.WriteTime += time.Since(writeStart)
		if err != nil {
			if !errors.Is(err, asciistream.ErrIO) || !d.cfg.Output.ContinueOnWriteError {
				return err
			}
			d.stats.WriteErrors++
			logger.Errorw("failed to write frame; continuing", "frame", index, "error", err)
		} else {
			d.stats.Written++
		}

		if d.stats.Rendered%progressInterval == 0 {
			logger.Infow("progress", "frames", d.stats.Rendered, "dropped", d.stats.Dropped)
		} else {
			logger.Debugw("frame done", "frame", index, "elapsed", time.Since(start))
		}

		if interval > 0 {
			if remaining := interval - time.Since(start); remaining > 0 && !goutils.SelectContextOrWait(ctx, remaining) {
				return nil
			}
		}
	}
}
