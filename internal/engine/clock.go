package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The resolver uses it to pin the calendar year, the exporter for DTSTAMP.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
