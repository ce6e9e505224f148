//go:build linux
// +build linux

package raspberry

import (
	"fmt"

	"hcsr04/pkg/port"

	"github.com/warthog618/gpiod"
)

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	gpiodChip *gpiod.Chip
	pins      pinSet
}

// Line represents a single requested line.
type Line struct {
	gpiodLine *gpiod.Line
	offset    int
	owner     *Chip
}

// openChip opens a GPIO character device, e.g. gpiochip0.
func openChip(name string) (GPIO, error) {
	c, err := gpiod.NewChip(name)
	if err != nil {
		return nil, err
	}
	return &Chip{gpiodChip: c, pins: pinSet{}}, nil
}

func (c *Chip) acquire(offset int) error {
	if offset < 0 || offset >= c.gpiodChip.Lines() {
		return fmt.Errorf("%w: %v", ErrInvalidPin, offset)
	}
	return c.pins.acquire(offset)
}

// Output requests control of a line as output, driven to the initial level.
// If granted, control is maintained until the Line is closed.
func (c *Chip) Output(offset int, initial port.StateType) (port.OutputPin, error) {
	if err := c.acquire(offset); err != nil {
		return nil, err
	}

	l, err := c.gpiodChip.RequestLine(offset, gpiod.AsOutput(int(initial)))
	if err != nil {
		c.pins.release(offset)
		return nil, err
	}
	return &Line{gpiodLine: l, offset: offset, owner: c}, nil
}

// Input requests control of a line as input with the defined bias.
func (c *Chip) Input(offset int, pull port.PullType) (port.InputPin, error) {
	if err := c.acquire(offset); err != nil {
		return nil, err
	}

	var l *gpiod.Line
	var err error

	switch pull {
	case port.PullUp:
		l, err = c.gpiodChip.RequestLine(offset, gpiod.AsInput, gpiod.WithPullUp)
	case port.PullDown:
		l, err = c.gpiodChip.RequestLine(offset, gpiod.AsInput, gpiod.WithPullDown)
	case port.PullNone:
		l, err = c.gpiodChip.RequestLine(offset, gpiod.AsInput, gpiod.WithBiasDisabled)
	default:
		err = ErrInvalidParam
	}

	if err != nil {
		c.pins.release(offset)
		return nil, err
	}
	return &Line{gpiodLine: l, offset: offset, owner: c}, nil
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be closed
// independently.
func (c *Chip) Close() error {
	return c.gpiodChip.Close()
}

// Pin returns the line offset.
func (l *Line) Pin() int {
	return l.offset
}

// Read returns port.Invalid, if the line value can't be read.
func (l *Line) Read() port.StateType {
	v, err := l.gpiodLine.Value()
	if err != nil {
		return port.Invalid
	}
	return port.StateType(v)
}

func (l *Line) Write(s port.StateType) {
	_ = l.gpiodLine.SetValue(int(s))
}

// Close releases all resources held by the requested line.
func (l *Line) Close() error {
	l.owner.pins.release(l.offset)
	return l.gpiodLine.Close()
}
