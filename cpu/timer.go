package cpu

import (
	"sync"
	"time"
)

const (
	TIMER_HZ = 60 // Countdown rate of the delay and sound timers.
)

// Timer is an 8-bit counter that counts down to zero at TIMER_HZ.
//
// The counter is guarded by a mutex, so the clock may be driven from a
// different goroutine than the one stepping the CPU.
type Timer struct {
	OnZero func() // Called once each time a tick brings the counter to zero.

	mutex   sync.Mutex
	value   uint8
	stopped bool
	elapsed time.Duration // Accumulated wall time, scaled by TIMER_HZ.
}

// Set the counter, replacing any pending count.
func (t *Timer) Set(value uint8) {
	t.mutex.Lock()
	t.value = value
	t.mutex.Unlock()
}

// Get the counter.
func (t *Timer) Get() uint8 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.value
}

// Tick decrements a non-zero counter.
func (t *Timer) Tick() {
	t.mutex.Lock()
	var zero bool
	if t.value > 0 {
		t.value--
		zero = t.value == 0
	}
	onZero := t.OnZero
	t.mutex.Unlock()

	if zero && onZero != nil {
		onZero()
	}
}

// Advance accounts for elapsed wall time, calling Tick once per 1/TIMER_HZ
// second. Nothing accumulates while the timer is stopped.
func (t *Timer) Advance(elapsed time.Duration) (ticks int) {
	t.mutex.Lock()
	if t.stopped || elapsed <= 0 {
		t.mutex.Unlock()
		return
	}
	t.elapsed += elapsed * TIMER_HZ
	ticks = int(t.elapsed / time.Second)
	t.elapsed %= time.Second
	t.mutex.Unlock()

	for range ticks {
		t.Tick()
	}

	return
}

// Start resumes the clock subscription.
func (t *Timer) Start() {
	t.mutex.Lock()
	t.stopped = false
	t.mutex.Unlock()
}

// Stop pauses the clock subscription. The counter is unchanged.
func (t *Timer) Stop() {
	t.mutex.Lock()
	t.stopped = true
	t.mutex.Unlock()
}

// Running reports if the clock subscription is active.
func (t *Timer) Running() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return !t.stopped
}

// Reset zeros the counter and any partial tick.
func (t *Timer) Reset() {
	t.mutex.Lock()
	t.value = 0
	t.elapsed = 0
	t.mutex.Unlock()
}
