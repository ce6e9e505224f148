package raspberry

import (
	"fmt"
	"sync"

	"hcsr04/pkg/port"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphGPIO uses the gpio drivers registered by periph.io/x/host.
type PeriphGPIO struct {
	mu   sync.Mutex
	pins pinSet
}

// PeriphPin is a line of PeriphGPIO.
type PeriphPin struct {
	gpioPin gpio.PinIO
	number  int
	owner   *PeriphGPIO
}

// openPeriph initializes the periph host drivers.
// host.Init may be called more than once, subsequent calls are no-ops.
func openPeriph() (GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return &PeriphGPIO{pins: pinSet{}}, nil
}

// Close is a no-op, periph drivers can't be unloaded.
func (c *PeriphGPIO) Close() error {
	return nil
}

// newPin looks up the line by its BCM name, e.g. GPIO23.
func (c *PeriphGPIO) newPin(p int) (*PeriphPin, error) {
	name := fmt.Sprintf("GPIO%d", p)
	g := gpioreg.ByName(name)
	if g == nil {
		return nil, fmt.Errorf("%w: no gpio named %v", ErrInvalidPin, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.pins.acquire(p); err != nil {
		return nil, err
	}
	return &PeriphPin{gpioPin: g, number: p, owner: c}, nil
}

func (c *PeriphGPIO) Output(p int, initial port.StateType) (port.OutputPin, error) {
	pin, err := c.newPin(p)
	if err != nil {
		return nil, err
	}

	if err = pin.gpioPin.Out(toLevel(initial)); err != nil {
		_ = pin.Close()
		return nil, err
	}
	return pin, nil
}

func (c *PeriphGPIO) Input(p int, pull port.PullType) (port.InputPin, error) {
	pin, err := c.newPin(p)
	if err != nil {
		return nil, err
	}

	gp := gpio.Float
	switch pull {
	case port.PullUp:
		gp = gpio.PullUp
	case port.PullDown:
		gp = gpio.PullDown
	}

	if err = pin.gpioPin.In(gp, gpio.NoEdge); err != nil {
		_ = pin.Close()
		return nil, err
	}
	return pin, nil
}

func (p *PeriphPin) Pin() int {
	return p.number
}

func (p *PeriphPin) Read() port.StateType {
	if p.gpioPin.Read() == gpio.High {
		return port.High
	}
	return port.Low
}

// Write ignores driver errors, the line was already configured as output.
func (p *PeriphPin) Write(s port.StateType) {
	_ = p.gpioPin.Out(toLevel(s))
}

// Close halts the line and releases the pin number.
func (p *PeriphPin) Close() error {
	p.owner.mu.Lock()
	p.owner.pins.release(p.number)
	p.owner.mu.Unlock()
	return p.gpioPin.Halt()
}

func toLevel(s port.StateType) gpio.Level {
	if s == port.High {
		return gpio.High
	}
	return gpio.Low
}
