package hcsr04

import (
	"time"

	"hcsr04/pkg/clock"
	"hcsr04/pkg/port"
)

// Echo fires one trigger pulse of the given width and returns the width of
// the echo pulse in microseconds.
//
// A width <= 0 uses DefaultTriggerPulseWidth, a timeout <= 0 uses DefaultTimeout.
// The timeout applies to waiting for the start of the pulse (counted from the
// end of the trigger pulse) and to the pulse itself (counted from the rising edge).
// The returned error wraps ErrTimeout.
//
// Echo polls the echo line without yielding. It returns after at most
// 2*timeout plus the trigger time.
func (s *Sensor) Echo(width, timeout time.Duration) (uint32, error) {
	if width <= 0 {
		width = DefaultTriggerPulseWidth
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := clock.Micros(timeout)

	// a clean rising edge needs a low trigger
	s.trigger.Write(port.Low)
	s.clock.Sleep(s.config.TriggerSettle)

	s.trigger.Write(port.High)
	s.clock.Sleep(width)
	s.trigger.Write(port.Low)

	t0 := s.clock.Micros()

	// the line may still be high from a previous cycle
	for s.echo.Read() == port.High {
		if clock.Elapsed(t0, s.clock.Micros()) > limit {
			return 0, ErrEchoStuck
		}
	}

	for s.echo.Read() != port.High {
		if clock.Elapsed(t0, s.clock.Micros()) > limit {
			return 0, ErrNoEchoStart
		}
	}
	t1 := s.clock.Micros()

	for s.echo.Read() == port.High {
		if clock.Elapsed(t1, s.clock.Micros()) > limit {
			return 0, ErrNoEchoEnd
		}
	}
	t2 := s.clock.Micros()

	return clock.Elapsed(t1, t2), nil
}
