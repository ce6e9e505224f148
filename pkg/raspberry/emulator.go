package raspberry

import (
	"fmt"
	"math"
	"sync"
	"time"

	"hcsr04/pkg/port"
)

const (
	// emuLatency is the time between the trigger and the rising echo edge,
	// the module sends a burst of eight 40kHz cycles first.
	emuLatency = 250 * time.Microsecond
	// emuSpeedOfSound is the speed of sound (mm/µs) at 19.3°C.
	emuSpeedOfSound = 0.343
)

// Emulator emulates a HC-SR04 module facing an object at Distance mm.
// It answers every falling edge of an output line with an echo pulse on all
// input lines. A distance <= 0 emulates a missing object, the echo never rises.
// Emulator is safe for concurrent use.
type Emulator struct {
	mu       sync.Mutex
	pins     pinSet
	distance float64

	triggerLevel port.StateType
	fired        bool
	firedAt      time.Time
	echoWidth    time.Duration
}

// EmuPin is a line of the Emulator.
type EmuPin struct {
	number int
	emu    *Emulator
}

// NewEmulator returns an emulator facing an object at distance mm.
func NewEmulator(distance float64) *Emulator {
	return &Emulator{pins: pinSet{}, distance: distance}
}

// SetDistance moves the emulated object.
func (e *Emulator) SetDistance(distance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.distance = distance
}

// Distance returns the distance of the emulated object.
func (e *Emulator) Distance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distance
}

func (e *Emulator) Close() error {
	return nil
}

func (e *Emulator) newPin(p int) (*EmuPin, error) {
	if p < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPin, p)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.pins.acquire(p); err != nil {
		return nil, err
	}
	return &EmuPin{number: p, emu: e}, nil
}

func (e *Emulator) Output(p int, initial port.StateType) (port.OutputPin, error) {
	pin, err := e.newPin(p)
	if err != nil {
		return nil, err
	}
	pin.Write(initial)
	return pin, nil
}

// Input ignores the pull mode, the emulated echo line is always driven.
func (e *Emulator) Input(p int, _ port.PullType) (port.InputPin, error) {
	pin, err := e.newPin(p)
	if err != nil {
		return nil, err
	}
	return pin, nil
}

// write handles the trigger line, a falling edge starts a new echo cycle.
func (e *Emulator) write(s port.StateType) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.triggerLevel == port.High && s == port.Low {
		e.fired = true
		e.firedAt = time.Now()
		e.echoWidth = 0
		if e.distance > 0 {
			e.echoWidth = time.Duration(math.Round(e.distance*2/emuSpeedOfSound)) * time.Microsecond
		}
	}
	e.triggerLevel = s
}

// read returns the echo level at the current time.
func (e *Emulator) read() port.StateType {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.fired || e.echoWidth == 0 {
		return port.Low
	}

	if dt := time.Since(e.firedAt); dt >= emuLatency && dt < emuLatency+e.echoWidth {
		return port.High
	}
	return port.Low
}

func (p *EmuPin) Pin() int {
	return p.number
}

func (p *EmuPin) Read() port.StateType {
	return p.emu.read()
}

func (p *EmuPin) Write(s port.StateType) {
	p.emu.write(s)
}

func (p *EmuPin) Close() error {
	p.emu.mu.Lock()
	defer p.emu.mu.Unlock()
	p.emu.pins.release(p.number)
	return nil
}
