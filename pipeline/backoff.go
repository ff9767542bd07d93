package pipeline

import (
	"math"
	"time"
)

// maxErrorSleep caps the exponential backoff determined by sleepTimeFromErrorCount.
const maxErrorSleep = 2 * time.Second

const maxSleepAttempts = 20

func sleepTimeFromErrorCount(errCount int) time.Duration {
	expBackoff := math.Pow(6.0, float64(errCount)) * float64(time.Millisecond)
	return time.Duration(math.Min(expBackoff, float64(maxErrorSleep)))
}

// errorBackoff slows the loop down while the same error keeps repeating. The
// first occurrence of an error costs nothing.
type errorBackoff struct {
	prev  string
	count int
}

func (eb *errorBackoff) next(err error) time.Duration {
	msg := err.Error()
	if msg != eb.prev {
		eb.prev = msg
		eb.count = 0
		return 0
	}
	if eb.count < maxSleepAttempts {
		eb.count++
	}
	return sleepTimeFromErrorCount(eb.count)
}

func (eb *errorBackoff) reset() {
	eb.prev = ""
	eb.count = 0
}
