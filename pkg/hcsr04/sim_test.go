package hcsr04

import (
	"errors"
	"time"

	"hcsr04/pkg/port"
)

var errPinBusy = errors.New("pin busy")

// simEcho is one scripted answer of the simulated module.
// A width of 0 means the module doesn't answer.
type simEcho struct {
	latency uint32
	width   uint32
}

// sim is a simulated HC-SR04 wired to a simulated clock.
// Every read of the echo line advances the clock by step microseconds.
type sim struct {
	now  uint32
	step uint32

	// echoes are consumed by the trigger pulses, the last one is repeated.
	echoes  []simEcho
	current simEcho
	fired   bool
	firedAt uint32

	// staleUntil keeps the echo line high until the timestamp.
	staleUntil uint32
	stuck      bool
	// script replaces the simulation by a fixed sequence of levels, the last level is repeated.
	script []port.StateType

	triggerLevel port.StateType
	writes       []simWrite
	sleeps       []time.Duration
	triggers     int

	outputErr, inputErr error
	closed              []int
}

type simWrite struct {
	at    uint32
	level port.StateType
}

func newSim(echoes ...simEcho) *sim {
	return &sim{step: 1, echoes: echoes}
}

func (s *sim) Micros() uint32 {
	return s.now
}

func (s *sim) Sleep(d time.Duration) {
	s.sleeps = append(s.sleeps, d)
	s.now += uint32(d / time.Microsecond)
}

func (s *sim) Output(pin int, initial port.StateType) (port.OutputPin, error) {
	if s.outputErr != nil {
		return nil, s.outputErr
	}
	s.triggerLevel = initial
	return &simTrigger{sim: s, pin: pin}, nil
}

func (s *sim) Input(pin int, _ port.PullType) (port.InputPin, error) {
	if s.inputErr != nil {
		return nil, s.inputErr
	}
	return &simEchoPin{sim: s, pin: pin}, nil
}

func (s *sim) fire() {
	s.triggers++
	s.fired = true
	s.firedAt = s.now

	if len(s.echoes) > 0 {
		s.current = s.echoes[0]
		if len(s.echoes) > 1 {
			s.echoes = s.echoes[1:]
		}
	}
}

func (s *sim) level() port.StateType {
	if s.script != nil {
		l := s.script[0]
		if len(s.script) > 1 {
			s.script = s.script[1:]
		}
		return l
	}

	if s.stuck || s.now < s.staleUntil {
		return port.High
	}

	if !s.fired || s.current.width == 0 {
		return port.Low
	}

	dt := s.now - s.firedAt
	if dt >= s.current.latency && dt < s.current.latency+s.current.width {
		return port.High
	}
	return port.Low
}

type simTrigger struct {
	sim *sim
	pin int
}

func (p *simTrigger) Pin() int { return p.pin }

func (p *simTrigger) Write(l port.StateType) {
	s := p.sim
	s.writes = append(s.writes, simWrite{at: s.now, level: l})
	if s.triggerLevel == port.High && l == port.Low {
		s.fire()
	}
	s.triggerLevel = l
}

func (p *simTrigger) Close() error {
	p.sim.closed = append(p.sim.closed, p.pin)
	return nil
}

type simEchoPin struct {
	sim *sim
	pin int
}

func (p *simEchoPin) Pin() int { return p.pin }

func (p *simEchoPin) Read() port.StateType {
	p.sim.now += p.sim.step
	return p.sim.level()
}

func (p *simEchoPin) Close() error {
	p.sim.closed = append(p.sim.closed, p.pin)
	return nil
}
