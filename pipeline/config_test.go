package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/pixel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.Capture.Device, test.ShouldEqual, "/dev/video0")
	test.That(t, cfg.Capture.Width, test.ShouldEqual, 320)
	test.That(t, cfg.Capture.Height, test.ShouldEqual, 180)
	test.That(t, cfg.Grid.Width, test.ShouldEqual, 80)
	test.That(t, cfg.Grid.Height, test.ShouldEqual, 45)
	test.That(t, cfg.Output.Width, test.ShouldEqual, 1280)
	test.That(t, cfg.Output.Height, test.ShouldEqual, 720)
	test.That(t, cfg.Output.FrameRate, test.ShouldEqual, 10)
	test.That(t, cfg.Output.MaxFrames, test.ShouldEqual, 150)
	test.That(t, cfg.Render.Scale, test.ShouldEqual, 16.0)
	test.That(t, cfg.Render.TextScale, test.ShouldEqual, 20.0)

	s, err := cfg.compile()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *s.filter, test.ShouldResemble, pixel.BlueMask)
	test.That(t, s.glyphChannel, test.ShouldEqual, pixel.Green)
	test.That(t, s.textChannel, test.ShouldEqual, pixel.Red)
	test.That(t, s.background, test.ShouldResemble, pixel.Black)
	test.That(t, s.ramp.Len(), test.ShouldEqual, 17)
}

func TestFontFollowsRenderMode(t *testing.T) {
	cfg := DefaultConfig()
	f, err := cfg.font()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Size(), test.ShouldEqual, 16.0)

	cfg.Render.Mode = RenderOverlay
	f, err = cfg.font()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Size(), test.ShouldEqual, 20.0)

	cfg.Render.Font = BasicFontName
	f, err = cfg.font()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Size(), test.ShouldEqual, 13.0)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"no source", func(cfg *Config) { cfg.Capture.Device = "" }},
		{"capture format", func(cfg *Config) { cfg.Capture.Format = "h264" }},
		{"capture size", func(cfg *Config) { cfg.Capture.Width = 0 }},
		{"filter color", func(cfg *Config) { cfg.Filter.Low = "blue" }},
		{"grid size", func(cfg *Config) { cfg.Grid.Height = -1 }},
		{"short ramp", func(cfg *Config) { cfg.Grid.Ramp = "#" }},
		{"repeated ramp", func(cfg *Config) { cfg.Grid.Ramp = " ..#" }},
		{"render mode", func(cfg *Config) { cfg.Render.Mode = "braille" }},
		{"scale", func(cfg *Config) { cfg.Render.Scale = 0 }},
		{"text scale", func(cfg *Config) { cfg.Render.TextScale = -1 }},
		{"channel", func(cfg *Config) { cfg.Render.Channel = "alpha" }},
		{"text channel", func(cfg *Config) { cfg.Render.TextChannel = "" }},
		{"background", func(cfg *Config) { cfg.Render.Background = "#12" }},
		{"output size", func(cfg *Config) { cfg.Output.Height = 0 }},
		{"frame rate", func(cfg *Config) { cfg.Output.FrameRate = -1 }},
		{"stream without frame rate", func(cfg *Config) { cfg.Output.FrameRate = 0 }},
		{"max frames", func(cfg *Config) { cfg.Output.MaxFrames = -5 }},
		{"output mode", func(cfg *Config) { cfg.Output.Mode = "window" }},
		{"empty path", func(cfg *Config) { cfg.Output.Path = "" }},
		{"no encoder", func(cfg *Config) { cfg.Output.Encoder.Binary = "" }},
		{"file not an image", func(cfg *Config) { cfg.Output.Mode = OutputFile }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, asciistream.ErrConfig), test.ShouldBeTrue)
		})
	}

	cfg := DefaultConfig()
	cfg.Filter.Enabled = false
	cfg.Filter.Low = "not a color"
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	cfg = DefaultConfig()
	cfg.Output.Mode = OutputFile
	cfg.Output.Path = "frame.png"
	cfg.Output.FrameRate = 0
	test.That(t, cfg.Validate(), test.ShouldBeNil)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	test.That(t, err, test.ShouldBeNil)
	def := DefaultConfig()
	test.That(t, cfg.Capture, test.ShouldResemble, def.Capture)
	test.That(t, cfg.Filter, test.ShouldResemble, def.Filter)
	test.That(t, cfg.Grid, test.ShouldResemble, def.Grid)
	test.That(t, cfg.Render, test.ShouldResemble, def.Render)
	test.That(t, cfg.Output.MaxFrames, test.ShouldEqual, def.Output.MaxFrames)
	test.That(t, cfg.Output.Encoder.KillGrace, test.ShouldEqual, def.Output.Encoder.KillGrace)
	test.That(t, cfg.Output.Encoder.Args, test.ShouldBeEmpty)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asciistream.yaml")
	test.That(t, os.WriteFile(path, []byte(`
capture:
  replay: "frames/*.jpg"
grid:
  ramp: " #"
output:
  mode: file
  path: out/frame_%04d.png
  max_frames: 5
  encoder:
    kill_grace: 2s
`), 0o600), test.ShouldBeNil)

	cfg, err := LoadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Capture.Replay, test.ShouldEqual, "frames/*.jpg")
	test.That(t, cfg.Capture.Width, test.ShouldEqual, 320)
	test.That(t, cfg.Grid.Ramp, test.ShouldEqual, " #")
	test.That(t, cfg.Grid.Width, test.ShouldEqual, 80)
	test.That(t, cfg.Output.Mode, test.ShouldEqual, OutputFile)
	test.That(t, cfg.Output.Path, test.ShouldEqual, "out/frame_%04d.png")
	test.That(t, cfg.Output.MaxFrames, test.ShouldEqual, 5)
	test.That(t, cfg.Output.Encoder.KillGrace, test.ShouldEqual, 2*time.Second)
	test.That(t, cfg.Output.Encoder.Binary, test.ShouldEqual, "ffmpeg")
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asciistream.json")
	test.That(t, os.WriteFile(path, []byte(`{"capture": {"width": 640, "height": 360}}`), 0o600), test.ShouldBeNil)

	cfg, err := LoadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Capture.Width, test.ShouldEqual, 640)
	test.That(t, cfg.Capture.Height, test.ShouldEqual, 360)
	test.That(t, cfg.Output.Width, test.ShouldEqual, 1280)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("ASCIISTREAM_OUTPUT_FRAME_RATE", "25")
	t.Setenv("ASCIISTREAM_RENDER_CHANNEL", "blue")
	t.Setenv("ASCIISTREAM_OUTPUT_PACE", "false")

	cfg, err := LoadConfig("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Output.FrameRate, test.ShouldEqual, 25)
	test.That(t, cfg.Render.Channel, test.ShouldEqual, "blue")
	test.That(t, cfg.Output.Pace, test.ShouldBeFalse)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	test.That(t, errors.Is(err, asciistream.ErrConfig), test.ShouldBeTrue)

	bad := filepath.Join(dir, "bad.yaml")
	test.That(t, os.WriteFile(bad, []byte("grid:\n  ramp: \"x\"\n"), 0o600), test.ShouldBeNil)
	_, err = LoadConfig(bad)
	test.That(t, errors.Is(err, asciistream.ErrConfig), test.ShouldBeTrue)

	malformed := filepath.Join(dir, "malformed.yaml")
	test.That(t, os.WriteFile(malformed, []byte("grid: [\n"), 0o600), test.ShouldBeNil)
	_, err = LoadConfig(malformed)
	test.That(t, errors.Is(err, asciistream.ErrConfig), test.ShouldBeTrue)
}

func TestConfigYAML(t *testing.T) {
	out, err := DefaultConfig().YAML()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "device: /dev/video0")
	test.That(t, out, test.ShouldContainSubstring, "max_frames: 150")
	test.That(t, out, test.ShouldContainSubstring, "kill_grace: 5s")
}
