package effects

import (
	"time"

	"github.com/rickb777/date/v2/timespan"
)

type TimeSpan = timespan.TimeSpan

func NewTimeSpan(from, to time.Time) TimeSpan {
	return timespan.BetweenTimes(from, to)
}

// Measure runs fn and returns the span it took.
func Measure(fn func()) TimeSpan {
	start := time.Now()
	fn()
	return timespan.BetweenTimes(start, time.Now())
}
