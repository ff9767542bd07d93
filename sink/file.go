package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"

	"github.com/edaniels/asciistream"
	"github.com/edaniels/asciistream/pixel"
)

// indexVerb matches an integer verb such as %d or %06d.
var indexVerb = regexp.MustCompile(`%[-+ #0]*[0-9]*d`)

// A FileSink writes each canvas as a still image. If the pattern contains an
// integer verb it is formatted with the frame index (frame_%06d.png), and a literal
// percent sign must then be written as %%. Otherwise the pattern is used verbatim
// and every frame overwrites the same file.
type FileSink struct {
	pattern string
	indexed bool
	logger  golog.Logger
}

// NewFileSink returns a sink writing to pattern. The image format follows the file
// extension.
func NewFileSink(pattern string, logger golog.Logger) (*FileSink, error) {
	if _, err := imaging.FormatFromFilename(pattern); err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, err, "output %q", pattern)
	}
	indexed := indexVerb.MatchString(strings.ReplaceAll(pattern, "%%", ""))
	return &FileSink{pattern: pattern, indexed: indexed, logger: logger}, nil
}

// Open creates the output directory.
func (fs *FileSink) Open(ctx context.Context, format Format) error {
	dir := filepath.Dir(fs.pattern)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return asciistream.Wrapf(asciistream.ErrIO, err, "creating %q", dir)
	}
	fs.logger.Debugw("writing stills", "pattern", fs.pattern, "width", format.Width, "height", format.Height)
	return nil
}

// Name returns the file name used for frame index.
func (fs *FileSink) Name(index int) string {
	if !fs.indexed {
		return fs.pattern
	}
	return fmt.Sprintf(fs.pattern, index)
}

// Write encodes canvas to the file for index.
func (fs *FileSink) Write(ctx context.Context, index int, canvas *pixel.Buffer) error {
	return WriteFile(canvas, fs.Name(index))
}

// Close does nothing; every Write is complete on return.
func (fs *FileSink) Close(ctx context.Context) error {
	return nil
}

// WriteFile encodes canvas to name. The file is written to a temporary name in the
// same directory and renamed so readers never see a partial image.
func WriteFile(canvas *pixel.Buffer, name string) (err error) {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return asciistream.Wrapf(asciistream.ErrIO, err, "writing %q", name)
	}
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return asciistream.Wrapf(asciistream.ErrIO, err, "writing %q", name)
	}
	defer func() {
		if err != nil {
			//nolint:errcheck
			os.Remove(f.Name())
		}
	}()
	if err := imaging.Encode(f, canvas, format); err != nil {
		//nolint:errcheck
		f.Close()
		return asciistream.Wrapf(asciistream.ErrIO, err, "encoding %q", name)
	}
	if err := f.Close(); err != nil {
		return asciistream.Wrapf(asciistream.ErrIO, err, "writing %q", name)
	}
	if err := os.Rename(f.Name(), name); err != nil {
		return asciistream.Wrapf(asciistream.ErrIO, err, "writing %q", name)
	}
	return nil
}
