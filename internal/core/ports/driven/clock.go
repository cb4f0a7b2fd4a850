package driven

import "time"

// Clock provides the current time. The session service derives every
// Eastern-date and idle-time decision from this single source so tests can
// pin the clock instead of racing wall time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
