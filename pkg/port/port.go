// Package port holds the definition of a physical port
package port

import "fmt"

type StateType int

const (
	// High indicates a logical 1.
	High StateType = 1
	// Low indicates a logical 0.
	Low StateType = 0
	// Invalid indicates an unknown or invalid state.
	Invalid StateType = -1
)

func (s StateType) String() string {
	switch s {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "invalid"
	}
}

// PullType is the bias applied to an input line.
type PullType int

const (
	PullNone PullType = iota
	PullUp
	PullDown
)

// ParsePull converts the configuration string (pullup|pulldown|none) to a PullType.
func ParsePull(s string) (PullType, error) {
	switch s {
	case "pullup":
		return PullUp, nil
	case "pulldown":
		return PullDown, nil
	case "none", "":
		return PullNone, nil
	default:
		return PullNone, fmt.Errorf("invalid pull mode %q", s)
	}
}

// OutputPin is a line driven by the host.
type OutputPin interface {
	// Pin returns the pin number that this OutputPin represents.
	Pin() int
	// Write sets the line level. Write is called inside timing critical
	// sections and must not block.
	Write(StateType)
	// Close releases the line.
	Close() error
}

// InputPin is a line sampled by the host.
type InputPin interface {
	// Pin returns the pin number that this InputPin represents.
	Pin() int
	// Read returns the instantaneous level, without any debouncing.
	Read() StateType
	// Close releases the line.
	Close() error
}

// GPIO configures lines of one gpio controller.
type GPIO interface {
	// Output configures pin as output and drives it to the initial level.
	Output(pin int, initial StateType) (OutputPin, error)
	// Input configures pin as input with the given bias.
	Input(pin int, pull PullType) (InputPin, error)
}
