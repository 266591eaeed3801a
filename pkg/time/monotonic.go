package time

import "time"

// clock provides monotonic time since server start
// time.Since reads the monotonic clock, so wall clock jumps never make a
// hold appear negative or huge
type Clock struct {
	startTime time.Time
}

func NewClock() *Clock {
	return &Clock{
		startTime: time.Now(),
	}
}

// duration since server start
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// time elapsed since a point previously read from Elapsed
func (c *Clock) Since(mark time.Duration) time.Duration {
	d := c.Elapsed() - mark
	if d < 0 {
		return 0
	}
	return d
}
