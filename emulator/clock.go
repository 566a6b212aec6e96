package emulator

import (
	"time"
)

// Clock converts elapsed wall time into whole cycles at Hz.
type Clock struct {
	Hz int // Cycles per second.

	elapsed time.Duration // Accumulated wall time, scaled by Hz.
	stopped bool
}

// Advance accounts for elapsed wall time, returning the cycles now due.
func (c *Clock) Advance(elapsed time.Duration) (cycles int) {
	if c.stopped || c.Hz <= 0 || elapsed <= 0 {
		return
	}

	c.elapsed += elapsed * time.Duration(c.Hz)
	cycles = int(c.elapsed / time.Second)
	c.elapsed %= time.Second
	return
}

// Start resumes counting.
func (c *Clock) Start() {
	c.stopped = false
}

// Stop pauses counting. Partial cycles are kept.
func (c *Clock) Stop() {
	c.stopped = true
}

// Running reports if the clock is counting.
func (c *Clock) Running() bool {
	return !c.stopped
}

// Reset drops any partial cycle.
func (c *Clock) Reset() {
	c.elapsed = 0
}
