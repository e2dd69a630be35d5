package notify

import "time"

// Clock abstracts timer creation so the poll interval and the reconnect
// delay can be driven deterministically in tests.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}
