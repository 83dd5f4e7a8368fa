package core

import "time"

// Clock measures elapsed time between updates using the monotonic clock.
type Clock struct {
	startTime time.Time
	lastTime  time.Time
	elapsed   float64
	delta     float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Starts the clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.lastTime = c.startTime
	c.elapsed = 0
	c.delta = 0
}

// Updates the clock. Should be called just before checking elapsed or delta time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.startTime.IsZero() {
		return
	}
	now := time.Now()
	c.elapsed = now.Sub(c.startTime).Seconds()
	c.delta = now.Sub(c.lastTime).Seconds()
	c.lastTime = now
}

// Stops the clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

// Elapsed returns the seconds since Start, as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta returns the seconds between the two most recent Updates.
func (c *Clock) Delta() float64 {
	return c.delta
}
