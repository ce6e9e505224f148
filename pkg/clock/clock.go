// Package clock provides the microsecond time base used for pulse timing.
package clock

import "time"

// spinThreshold is the shortest delay handed over to the go scheduler.
// Shorter delays are busy-waited, because time.Sleep can't resolve microseconds.
const spinThreshold = time.Millisecond

// Clock is a monotonic microsecond counter with blocking delays.
type Clock interface {
	// Micros returns the current timestamp in microseconds.
	// The counter wraps around, use Elapsed to compare timestamps.
	Micros() uint32
	// Sleep blocks for the duration d.
	Sleep(d time.Duration)
}

// Elapsed returns the microseconds between start and now.
// The unsigned subtraction is correct even if the counter wrapped in between.
func Elapsed(start, now uint32) uint32 {
	return now - start
}

// Micros converts d to whole microseconds, saturated to the counter range.
func Micros(d time.Duration) uint32 {
	us := d / time.Microsecond
	switch {
	case us <= 0:
		return 0
	case us > 1<<32-1:
		return 1<<32 - 1
	}
	return uint32(us)
}

// Monotonic is the clock of the host, based on the monotonic reading of time.Time.
type Monotonic struct {
	epoch time.Time
}

// New returns a Monotonic clock starting at zero.
func New() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Micros returns the microseconds since the clock was created (mod 2^32).
func (c *Monotonic) Micros() uint32 {
	return uint32(time.Since(c.epoch) / time.Microsecond)
}

// Sleep busy-waits delays below one millisecond and sleeps otherwise.
func (c *Monotonic) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	if d >= spinThreshold {
		time.Sleep(d)
		return
	}

	for start := time.Now(); time.Since(start) < d; {
	}
}
