package clock

import "time"

// Clock is the time source injected into services, so history timestamps
// can be pinned in tests
type Clock interface {
	Now() time.Time
}

// RealClock is the system-clock implementation used outside tests
type RealClock struct{}

// New creates a RealClock
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
