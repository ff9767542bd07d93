package pipeline

import "time"

// Stats counts what happened during a run. Durations are totals per stage.
type Stats struct {
	Captured     int
	Rendered     int
	Written      int
	Dropped      int
	DecodeErrors int
	WriteErrors  int

	CaptureTime time.Duration
	DecodeTime  time.Duration
	RenderTime  time.Duration
	WriteTime   time.Duration
}

func mean(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

// Fields returns the stats as structured logging key/value pairs.
func (s Stats) Fields() []interface{} {
	return []interface{}{
		"captured", s.Captured,
		"rendered", s.Rendered,
		"written", s.Written,
		"dropped", s.Dropped,
		"decode_errors", s.DecodeErrors,
		"write_errors", s.WriteErrors,
		"mean_capture", mean(s.CaptureTime, s.Captured),
		"mean_decode", mean(s.DecodeTime, s.Captured),
		"mean_render", mean(s.RenderTime, s.Rendered),
		"mean_write", mean(s.WriteTime, s.Rendered),
	}
}
