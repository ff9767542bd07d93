// Package pipeline wires capture, the per-frame stages and a sink into a single
// synchronous loop.
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/capture"
	"github.com/edaniels/asciistream/glyph"
	"github.com/edaniels/asciistream/pixel"
	"github.com/edaniels/asciistream/render"
	"github.com/edaniels/asciistream/sink"
)

// Render modes.
const (
	RenderASCII   = "ascii"
	RenderOverlay = "overlay"
)

// Output modes.
const (
	OutputFile   = "file"
	OutputStream = "stream"
)

// BasicFontName selects the built in 7x13 bitmap face instead of a font file.
const BasicFontName = "basic"

// EnvPrefix prefixes environment overrides, e.g. ASCIISTREAM_OUTPUT_MAX_FRAMES.
const EnvPrefix = "asciistream"

// Config is everything a Driver needs. It is built once at startup and not
// changed afterwards.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Filter  FilterConfig  `mapstructure:"filter" yaml:"filter"`
	Grid    GridConfig    `mapstructure:"grid" yaml:"grid"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// CaptureConfig selects the frame source. A non-empty Replay glob takes
// precedence over Device.
type CaptureConfig struct {
	Device string `mapstructure:"device" yaml:"device"`
	Replay string `mapstructure:"replay" yaml:"replay"`
	Loop   bool   `mapstructure:"loop" yaml:"loop"`
	Format string `mapstructure:"format" yaml:"format"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
}

// FilterConfig is the color range blacked out before downsampling. Bounds are hex
// colors and inclusive.
type FilterConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Low     string `mapstructure:"low" yaml:"low"`
	High    string `mapstructure:"high" yaml:"high"`
}

// GridConfig is the character grid each frame is reduced to.
type GridConfig struct {
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
	Ramp   string `mapstructure:"ramp" yaml:"ramp"`
}

// RenderConfig controls how frames are drawn onto the output canvas.
type RenderConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Font is a TTF/OTF path, BasicFontName, or empty for Go Mono.
	Font       string  `mapstructure:"font" yaml:"font"`
	Scale      float64 `mapstructure:"scale" yaml:"scale"`
	Channel    string  `mapstructure:"channel" yaml:"channel"`
	Background string  `mapstructure:"background" yaml:"background"`

	Text string `mapstructure:"text" yaml:"text"`
	// TextScale sizes the overlay text; Scale only applies to grid glyphs.
	TextScale   float64 `mapstructure:"text_scale" yaml:"text_scale"`
	TextX       int     `mapstructure:"text_x" yaml:"text_x"`
	TextY       int     `mapstructure:"text_y" yaml:"text_y"`
	TextAdvance int     `mapstructure:"text_advance" yaml:"text_advance"`
	TextChannel string  `mapstructure:"text_channel" yaml:"text_channel"`
}

// OutputConfig selects and sizes the sink.
type OutputConfig struct {
	Mode      string `mapstructure:"mode" yaml:"mode"`
	Path      string `mapstructure:"path" yaml:"path"`
	Width     int    `mapstructure:"width" yaml:"width"`
	Height    int    `mapstructure:"height" yaml:"height"`
	FrameRate int    `mapstructure:"frame_rate" yaml:"frame_rate"`
	// Pace sleeps out the rest of each frame interval.
	Pace bool `mapstructure:"pace" yaml:"pace"`
	// MaxFrames stops the run after this many rendered frames; 0 runs until the
	// source ends or the context is cancelled.
	MaxFrames            int           `mapstructure:"max_frames" yaml:"max_frames"`
	ContinueOnWriteError bool          `mapstructure:"continue_on_write_error" yaml:"continue_on_write_error"`
	Encoder              EncoderConfig `mapstructure:"encoder" yaml:"encoder"`
}

// EncoderConfig describes the process a stream output is piped into.
type EncoderConfig struct {
	Binary    string        `mapstructure:"binary" yaml:"binary"`
	Codec     string        `mapstructure:"codec" yaml:"codec"`
	Preset    string        `mapstructure:"preset" yaml:"preset"`
	PixFmt    string        `mapstructure:"pix_fmt" yaml:"pix_fmt"`
	ExtraArgs []string      `mapstructure:"extra_args" yaml:"extra_args"`
	Args      []string      `mapstructure:"args" yaml:"args"`
	KillGrace time.Duration `mapstructure:"kill_grace" yaml:"kill_grace"`
}

// DefaultConfig captures 320x180 MJPEG from /dev/video0 and streams 150 frames of
// green 80x45 character art at 1280x720 and 10fps into ascii_output.mp4.
func DefaultConfig() Config {
	return Config{
		Capture: CaptureConfig{
			Device: "/dev/video0",
			Format: capture.MJPEG.Name,
			Width:  320,
			Height: 180,
		},
		Filter: FilterConfig{
			Enabled: true,
			Low:     "#000064",
			High:    "#7864ff",
		},
		Grid: GridConfig{
			Width:  80,
			Height: 45,
			Ramp:   glyph.DefaultRamp,
		},
		Render: RenderConfig{
			Mode:        RenderASCII,
			Scale:       16,
			Channel:     pixel.Green.String(),
			Background:  "#000000",
			Text:        "Hello Rust!",
			TextScale:   20,
			TextX:       10,
			TextY:       30,
			TextAdvance: 15,
			TextChannel: pixel.Red.String(),
		},
		Output: OutputConfig{
			Mode:      OutputStream,
			Path:      "ascii_output.mp4",
			Width:     1280,
			Height:    720,
			FrameRate: 10,
			Pace:      true,
			MaxFrames: 150,
			Encoder: EncoderConfig{
				Binary:    "ffmpeg",
				Codec:     "libx264",
				Preset:    "ultrafast",
				PixFmt:    "yuv420p",
				KillGrace: 5 * time.Second,
			},
		},
	}
}

// LoadConfig layers an optional config file and ASCIISTREAM_* environment
// variables over DefaultConfig and validates the result. Nested keys use
// underscores in the environment: output.max_frames is ASCIISTREAM_OUTPUT_MAX_FRAMES.
func LoadConfig(path string) (Config, error) {
	defaults, err := DefaultConfig().YAML()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaults)); err != nil {
		return Config{}, asciistream.Wrap(asciistream.ErrConfig, err, "loading defaults")
	}
	if path != "" {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == "" {
			ext = "yaml"
		}
		v.SetConfigType(ext)
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, asciistream.Wrapf(asciistream.ErrConfig, err, "reading %q", path)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, asciistream.Wrap(asciistream.ErrConfig, err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// YAML renders the configuration as YAML.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", asciistream.Wrap(asciistream.ErrConfig, err, "encoding configuration")
	}
	return string(out), nil
}

// Validate checks the configuration without touching any device, file or process.
// Every failure is asciistream.ErrConfig.
func (c Config) Validate() error {
	_, err := c.compile()
	return err
}

// settings is the parsed form of a Config.
type settings struct {
	format       capture.Format
	ramp         *glyph.Ramp
	filter       *pixel.Range
	glyphChannel pixel.Channel
	textChannel  pixel.Channel
	background   pixel.RGB
}

func configErrorf(cause error, format string, args ...interface{}) error {
	return asciistream.Wrapf(asciistream.ErrConfig, cause, format, args...)
}

func (c Config) compile() (settings, error) {
	var s settings
	var err error

	if c.Capture.Replay == "" && c.Capture.Device == "" {
		return s, configErrorf(nil, "capture needs a device or a replay pattern")
	}
	if s.format, err = capture.LookupFormat(c.Capture.Format); err != nil {
		return s, err
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return s, configErrorf(nil, "invalid capture size %dx%d", c.Capture.Width, c.Capture.Height)
	}

	if c.Filter.Enabled {
		lo, err := render.ParseColor(c.Filter.Low)
		if err != nil {
			return s, configErrorf(err, "filter.low")
		}
		hi, err := render.ParseColor(c.Filter.High)
		if err != nil {
			return s, configErrorf(err, "filter.high")
		}
		s.filter = &pixel.Range{Lo: lo, Hi: hi}
	}

	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return s, configErrorf(nil, "invalid grid size %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if s.ramp, err = glyph.NewRamp(c.Grid.Ramp); err != nil {
		return s, err
	}

	switch c.Render.Mode {
	case RenderASCII, RenderOverlay:
	default:
		return s, configErrorf(nil, "unknown render mode %q", c.Render.Mode)
	}
	if c.Render.Scale <= 0 {
		return s, configErrorf(nil, "render scale %v must be positive", c.Render.Scale)
	}
	if c.Render.TextScale <= 0 {
		return s, configErrorf(nil, "text scale %v must be positive", c.Render.TextScale)
	}
	if s.glyphChannel, err = pixel.ParseChannel(c.Render.Channel); err != nil {
		return s, configErrorf(err, "render.channel")
	}
	if s.textChannel, err = pixel.ParseChannel(c.Render.TextChannel); err != nil {
		return s, configErrorf(err, "render.text_channel")
	}
	if s.background, err = render.ParseColor(c.Render.Background); err != nil {
		return s, configErrorf(err, "render.background")
	}

	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return s, configErrorf(nil, "invalid output size %dx%d", c.Output.Width, c.Output.Height)
	}
	if c.Output.FrameRate < 0 {
		return s, configErrorf(nil, "frame rate %d must not be negative", c.Output.FrameRate)
	}
	if c.Output.MaxFrames < 0 {
		return s, configErrorf(nil, "max frames %d must not be negative", c.Output.MaxFrames)
	}
	if c.Output.Path == "" && len(c.Output.Encoder.Args) == 0 {
		return s, configErrorf(nil, "output path is empty")
	}
	switch c.Output.Mode {
	case OutputFile:
		if _, err := imaging.FormatFromFilename(c.Output.Path); err != nil {
			return s, configErrorf(err, "output %q is not an image file", c.Output.Path)
		}
	case OutputStream:
		if c.Output.FrameRate == 0 {
			return s, configErrorf(nil, "stream output needs a frame rate")
		}
		if c.Output.Encoder.Binary == "" {
			return s, configErrorf(nil, "stream output needs an encoder binary")
		}
	default:
		return s, configErrorf(nil, "unknown output mode %q", c.Output.Mode)
	}
	return s, nil
}

// font loads the configured face at the size the render mode draws with.
func (c Config) font() (*render.FontAsset, error) {
	scale := c.Render.Scale
	if c.Render.Mode == RenderOverlay {
		scale = c.Render.TextScale
	}
	switch c.Render.Font {
	case "":
		return render.DefaultFont(scale)
	case BasicFontName:
		return render.BasicFont(), nil
	default:
		return render.LoadFont(c.Render.Font, scale)
	}
}

// streamConfig maps the encoder settings onto the sink.
func (c Config) streamConfig() sink.StreamConfig {
	enc := c.Output.Encoder
	return sink.StreamConfig{
		Binary:    enc.Binary,
		Output:    c.Output.Path,
		Codec:     enc.Codec,
		Preset:    enc.Preset,
		PixFmt:    enc.PixFmt,
		ExtraArgs: enc.ExtraArgs,
		Args:      enc.Args,
		KillGrace: enc.KillGrace,
	}
}
