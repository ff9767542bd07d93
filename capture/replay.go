package capture

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/edaniels/asciistream"
)

// A ReplaySource serves previously recorded encoded frames from disk, one file per
// frame, in lexical order. Once exhausted it returns io.EOF unless it loops.
type ReplaySource struct {
	paths []string
	idx   int
	loop  bool
}

// NewReplaySource matches pattern with filepath.Glob.
func NewReplaySource(pattern string, loop bool) (*ReplaySource, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, err, "bad replay pattern %q", pattern)
	}
	if len(paths) == 0 {
		return nil, asciistream.Wrapf(asciistream.ErrConfig, nil, "no frames match %q", pattern)
	}
	sort.Strings(paths)
	return &ReplaySource{paths: paths, loop: loop}, nil
}

// Len returns the number of frames in one pass.
func (rs *ReplaySource) Len() int { return len(rs.paths) }

// Next reads the next frame file.
func (rs *ReplaySource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rs.idx >= len(rs.paths) {
		if !rs.loop {
			return nil, io.EOF
		}
		rs.idx = 0
	}
	path := rs.paths[rs.idx]
	rs.idx++
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, asciistream.Wrapf(asciistream.ErrCapture, err, "reading %q", path)
	}
	return data, nil
}

// Close does nothing; files are read whole.
func (rs *ReplaySource) Close(ctx context.Context) error {
	return nil
}
