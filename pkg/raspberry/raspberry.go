// Package raspberry provides the gpio controllers used to drive the sensor lines.
package raspberry

import (
	"errors"
	"fmt"

	"hcsr04/pkg/port"

	"github.com/womat/debug"
)

var (
	ErrInvalidParam = errors.New("invalid parameters")
	ErrInvalidPin   = errors.New("invalid pin")
	ErrPinUsed      = errors.New("pin already used")
	ErrUnsupported  = errors.New("gpio backend not supported on this platform")
)

const (
	// BackendMem accesses the gpio registers via /dev/gpiomem.
	BackendMem = "gpiomem"
	// BackendGpiod requests lines from the gpio character device.
	BackendGpiod = "gpiod"
	// BackendPeriph uses the periph.io host drivers.
	BackendPeriph = "periph"
	// BackendEmu is a software HC-SR04 without any hardware.
	BackendEmu = "emu"
)

// GPIO is a gpio controller. Close releases the controller.
// Lines requested from the controller have to be closed independently.
type GPIO interface {
	port.GPIO
	Close() error
}

// Config selects and parametrizes the gpio controller.
type Config struct {
	Backend string
	// Chip is the gpio character device used by BackendGpiod.
	Chip string
	// Distance is the distance (mm) of the object emulated by BackendEmu.
	Distance float64
}

// Open opens the gpio controller defined by the backend.
func Open(c Config) (GPIO, error) {
	debug.DebugLog.Printf("open gpio backend %q", c.Backend)

	switch c.Backend {
	case BackendMem, "":
		return openMem()
	case BackendGpiod:
		if c.Chip == "" {
			c.Chip = "gpiochip0"
		}
		return openChip(c.Chip)
	case BackendPeriph:
		return openPeriph()
	case BackendEmu:
		return NewEmulator(c.Distance), nil
	default:
		return nil, fmt.Errorf("%w: unknown gpio backend %q", ErrInvalidParam, c.Backend)
	}
}

// pinSet tracks the pins requested from a controller.
type pinSet map[int]struct{}

func (s pinSet) acquire(p int) error {
	if _, ok := s[p]; ok {
		return fmt.Errorf("%w: %v", ErrPinUsed, p)
	}
	s[p] = struct{}{}
	return nil
}

func (s pinSet) release(p int) {
	delete(s, p)
}
