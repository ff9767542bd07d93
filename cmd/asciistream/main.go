// Package main runs the camera to character-art pipeline.
package main

import (
	"context"
	"os"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/pipeline"
)

// defaultStill is the output used when switching to file mode without naming one.
const defaultStill = "frame.png"

func main() {
	goutils.ContextualMain(mainWithArgs, asciistream.Logger)
}

// Arguments for the command. Anything set here overrides the config file.
type Arguments struct {
	Config      string `flag:"config,usage=YAML, JSON or TOML config file"`
	Device      string `flag:"device,usage=V4L2 capture device"`
	Replay      string `flag:"replay,usage=glob of encoded frames to replay instead of a device"`
	Loop        bool   `flag:"loop,usage=loop the replayed frames"`
	Mode        string `flag:"mode,usage=output mode (file or stream)"`
	Render      string `flag:"render,usage=render mode (ascii or overlay)"`
	Output      string `flag:"output,usage=output file; file patterns may contain a frame index verb"`
	Frames      int    `flag:"frames,usage=stop after this many frames"`
	FPS         int    `flag:"fps,usage=output frame rate"`
	Font        string `flag:"font,usage=TTF/OTF font file or 'basic'"`
	PrintConfig bool   `flag:"print_config,usage=print the effective config and exit"`
	Debug       bool   `flag:"debug,usage=enable debug logging"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger = golog.NewDebugLogger("asciistream")
	}

	cfg, err := pipeline.LoadConfig(argsParsed.Config)
	if err != nil {
		return err
	}
	applyArguments(&cfg, argsParsed)

	if argsParsed.PrintConfig {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = os.Stdout.WriteString(out)
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return run(ctx, cfg, logger)
}

func applyArguments(cfg *pipeline.Config, args Arguments) {
	if args.Device != "" {
		cfg.Capture.Device = args.Device
	}
	if args.Replay != "" {
		cfg.Capture.Replay = args.Replay
	}
	if args.Loop {
		cfg.Capture.Loop = true
	}
	if args.Render != "" {
		cfg.Render.Mode = args.Render
	}
	if args.Mode != "" {
		cfg.Output.Mode = args.Mode
		if args.Mode == pipeline.OutputFile && args.Output == "" && cfg.Output.Path == pipeline.DefaultConfig().Output.Path {
			cfg.Output.Path = defaultStill
		}
	}
	if args.Output != "" {
		cfg.Output.Path = args.Output
	}
	if args.Frames > 0 {
		cfg.Output.MaxFrames = args.Frames
	}
	if args.FPS > 0 {
		cfg.Output.FrameRate = args.FPS
	}
	if args.Font != "" {
		cfg.Render.Font = args.Font
	}
}

func run(ctx context.Context, cfg pipeline.Config, logger golog.Logger) error {
	source, err := pipeline.NewSource(cfg, logger)
	if err != nil {
		return err
	}
	out, err := pipeline.NewSink(cfg, logger)
	if err != nil {
		return multierr.Combine(err, source.Close(ctx))
	}
	driver, err := pipeline.NewDriver(cfg, source, out, logger.Named("pipeline"))
	if err != nil {
		return multierr.Combine(err, source.Close(ctx))
	}
	return driver.Run(ctx)
}
