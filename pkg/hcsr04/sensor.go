// Package hcsr04 measures distances with an HC-SR04 ultrasonic ranging module.
//
// The module is triggered by a 10µs high pulse on the trigger line and answers
// with a high pulse on the echo line, whose width is the round trip time of
// the ultrasonic burst. The echo is timed by polling the echo line, so every
// measurement blocks the calling goroutine until the echo has ended or the
// timeout is reached.
//
// A Sensor is not safe for concurrent use. Firing a trigger while another
// echo is still polled on the same pins corrupts both readings, callers
// sharing a Sensor must serialize the calls.
package hcsr04

import (
	"errors"
	"fmt"
	"time"

	"hcsr04/pkg/clock"
	"hcsr04/pkg/port"

	"github.com/womat/debug"
)

const (
	// DefaultTriggerPulseWidth is the minimum trigger width of the data sheet.
	DefaultTriggerPulseWidth = 10 * time.Microsecond
	// DefaultTriggerSettle is the time the trigger is held low before the trigger pulse.
	DefaultTriggerSettle = 5 * time.Microsecond
	// DefaultTimeout bounds each phase of the echo measurement.
	DefaultTimeout = time.Second
	// DefaultTemperature gives a speed of sound of 343 m/s.
	DefaultTemperature = 19.3
	// DefaultAttemptsDelay is the pause between two averaged attempts.
	DefaultAttemptsDelay = 5 * time.Millisecond
	// DefaultMinDistance is the exclusive lower bound of a valid distance (mm).
	DefaultMinDistance = 0.0
	// DefaultMaxDistance is the inclusive upper bound of a valid distance (mm),
	// the specified range of the module. At 343 m/s it equals an echo of about 23324µs.
	DefaultMaxDistance = 4000.0
)

var (
	// ErrTimeout is wrapped by every echo timeout.
	ErrTimeout = errors.New("echo timeout")
	// ErrEchoStuck indicates that the echo line didn't go low after the trigger.
	ErrEchoStuck = fmt.Errorf("%w: waiting for pulse to clear", ErrTimeout)
	// ErrNoEchoStart indicates that the echo line didn't go high.
	ErrNoEchoStart = fmt.Errorf("%w: waiting for pulse start", ErrTimeout)
	// ErrNoEchoEnd indicates that the echo line didn't go low at the end of the pulse.
	ErrNoEchoEnd = fmt.Errorf("%w: waiting for pulse end", ErrTimeout)
	// ErrOutOfRange indicates a distance outside of MinDistance and MaxDistance.
	ErrOutOfRange = errors.New("distance out of range")
	// ErrInvalidPin is returned if trigger and echo share the same pin.
	ErrInvalidPin = errors.New("trigger and echo must use different pins")
)

// Config holds the timing and plausibility parameters of a Sensor.
// Zero durations, a zero MaxDistance and a nil Clock are replaced by the defaults.
// Temperature and Pull are used as given, 0°C and port.PullNone are valid settings,
// so start from DefaultConfig to get 19.3°C and a pulled up echo line.
//
// A Timeout shorter than the echo of MaxDistance is raised to that echo width,
// otherwise objects inside the range would always time out.
type Config struct {
	TriggerPulseWidth time.Duration
	TriggerSettle     time.Duration
	Timeout           time.Duration
	// Temperature is the air temperature (°C) used by Distance and DistanceAvg.
	Temperature float64
	// AttemptsDelay is used by DistanceAvg if the caller passes a delay <= 0.
	AttemptsDelay time.Duration
	MinDistance   float64
	MaxDistance   float64
	// Pull is the bias of the echo line, the zero value is port.PullNone.
	Pull  port.PullType
	Clock clock.Clock
}

// DefaultConfig returns the configuration of a stock HC-SR04 with a pulled up echo line.
func DefaultConfig() Config {
	return Config{
		TriggerPulseWidth: DefaultTriggerPulseWidth,
		TriggerSettle:     DefaultTriggerSettle,
		Timeout:           DefaultTimeout,
		Temperature:       DefaultTemperature,
		AttemptsDelay:     DefaultAttemptsDelay,
		MinDistance:       DefaultMinDistance,
		MaxDistance:       DefaultMaxDistance,
		Pull:              port.PullUp,
	}
}

func (c *Config) setDefaults() {
	if c.TriggerPulseWidth <= 0 {
		c.TriggerPulseWidth = DefaultTriggerPulseWidth
	}
	if c.TriggerSettle <= 0 {
		c.TriggerSettle = DefaultTriggerSettle
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.AttemptsDelay <= 0 {
		c.AttemptsDelay = DefaultAttemptsDelay
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = DefaultMaxDistance
	}
	if c.MinDistance < 0 || c.MinDistance >= c.MaxDistance {
		c.MinDistance = DefaultMinDistance
	}
	if w := EchoWidth(c.MaxDistance, c.Temperature); c.Timeout < w {
		debug.WarningLog.Printf("hcsr04 timeout %v is shorter than the echo of %vmm, timeout set to %v", c.Timeout, c.MaxDistance, w)
		c.Timeout = w
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// Sensor is the handle of one HC-SR04 module.
type Sensor struct {
	trigger port.OutputPin
	echo    port.InputPin
	clock   clock.Clock
	config  Config
}

// New configures the trigger and echo pins with the default configuration.
func New(gpio port.GPIO, trigger, echo int) (*Sensor, error) {
	return NewWithConfig(gpio, trigger, echo, DefaultConfig())
}

// NewWithConfig configures the trigger pin as output (low) and the echo pin as input.
// No Sensor is returned, if one of the pins can't be configured.
func NewWithConfig(gpio port.GPIO, trigger, echo int, config Config) (*Sensor, error) {
	if trigger == echo {
		return nil, ErrInvalidPin
	}

	config.setDefaults()

	t, err := gpio.Output(trigger, port.Low)
	if err != nil {
		return nil, fmt.Errorf("can't configure trigger pin %v: %w", trigger, err)
	}

	e, err := gpio.Input(echo, config.Pull)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("can't configure echo pin %v: %w", echo, err)
	}

	debug.DebugLog.Printf("hcsr04 trigger pin %v, echo pin %v, timeout %v", trigger, echo, config.Timeout)

	return &Sensor{
		trigger: t,
		echo:    e,
		clock:   config.Clock,
		config:  config,
	}, nil
}

// Config returns the effective configuration.
func (s *Sensor) Config() Config {
	return s.config
}

// Close releases both pins. The Sensor must not be used afterwards.
func (s *Sensor) Close() error {
	errT := s.trigger.Close()
	errE := s.echo.Close()

	if errT != nil {
		return errT
	}
	return errE
}
