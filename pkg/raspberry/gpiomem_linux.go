//go:build linux
// +build linux

package raspberry

import (
	"fmt"

	"hcsr04/pkg/port"

	"github.com/warthog618/gpio"
)

// memPins is the number of gpio lines of the bcm283x register bank.
const memPins = 54

// MemGPIO accesses the gpio registers mapped from /dev/gpiomem.
// Reading a line is a single register load, which makes it the backend of
// choice for the busy polling of the echo line.
type MemGPIO struct {
	pins pinSet
}

// MemPin is a line of MemGPIO.
type MemPin struct {
	gpioPin *gpio.Pin
	owner   *MemGPIO
}

// openMem maps the gpio memory range from /dev/gpiomem.
func openMem() (GPIO, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}
	return &MemGPIO{pins: pinSet{}}, nil
}

// Close unmaps the gpio memory.
func (c *MemGPIO) Close() error {
	return gpio.Close()
}

func (c *MemGPIO) newPin(p int) (*MemPin, error) {
	if p < 0 || p >= memPins {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPin, p)
	}
	if err := c.pins.acquire(p); err != nil {
		return nil, err
	}
	return &MemPin{gpioPin: gpio.NewPin(p), owner: c}, nil
}

// Output sets the level before the line is switched to output, so the line doesn't glitch.
// The pin number provided is the BCM GPIO number.
func (c *MemGPIO) Output(p int, initial port.StateType) (port.OutputPin, error) {
	pin, err := c.newPin(p)
	if err != nil {
		return nil, err
	}

	pin.Write(initial)
	pin.gpioPin.Output()
	return pin, nil
}

// Input sets the line as input and configures the pull resistor.
func (c *MemGPIO) Input(p int, pull port.PullType) (port.InputPin, error) {
	pin, err := c.newPin(p)
	if err != nil {
		return nil, err
	}

	pin.gpioPin.Input()
	switch pull {
	case port.PullUp:
		pin.gpioPin.PullUp()
	case port.PullDown:
		pin.gpioPin.PullDown()
	default:
		pin.gpioPin.PullNone()
	}
	return pin, nil
}

// Pin returns the BCM GPIO number.
func (p *MemPin) Pin() int {
	return p.gpioPin.Pin()
}

// Read pin state (high/low)
func (p *MemPin) Read() port.StateType {
	if p.gpioPin.Read() == gpio.High {
		return port.High
	}
	return port.Low
}

func (p *MemPin) Write(s port.StateType) {
	if s == port.High {
		p.gpioPin.High()
		return
	}
	p.gpioPin.Low()
}

// Close releases the pin number, the mode of the line is kept.
func (p *MemPin) Close() error {
	p.owner.pins.release(p.Pin())
	return nil
}
