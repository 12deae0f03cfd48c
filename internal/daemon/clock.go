package daemon

import "time"

// Clock abstracts time for the scheduling loop.
type Clock struct {
	Now   func() time.Time
	After func(d time.Duration) <-chan time.Time
}

// SystemClock uses the real wall clock.
func SystemClock() Clock {
	return Clock{Now: time.Now, After: time.After}
}

func (c Clock) normalized() Clock {
	sys := SystemClock()
	if c.Now == nil {
		c.Now = sys.Now
	}
	if c.After == nil {
		c.After = sys.After
	}
	return c
}
