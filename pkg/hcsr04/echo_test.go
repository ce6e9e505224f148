package hcsr04

import (
	"errors"
	"testing"
	"time"

	"hcsr04/pkg/clock"
	"hcsr04/pkg/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSensor(t *testing.T, s *sim, timeout time.Duration) *Sensor {
	t.Helper()

	c := DefaultConfig()
	c.Clock = s
	c.Timeout = timeout

	sensor, err := NewWithConfig(s, 23, 24, c)
	require.NoError(t, err)
	return sensor
}

func TestNewConfiguresPins(t *testing.T) {
	s := newSim()
	s.triggerLevel = port.High

	sensor, err := New(s, 23, 24)
	require.NoError(t, err)
	assert.Equal(t, port.Low, s.triggerLevel)
	assert.Equal(t, DefaultTimeout, sensor.Config().Timeout)
	assert.Equal(t, port.PullUp, sensor.Config().Pull)

	require.NoError(t, sensor.Close())
	assert.ElementsMatch(t, []int{23, 24}, s.closed)
}

func TestNewFails(t *testing.T) {
	s := newSim()
	_, err := New(s, 4, 4)
	assert.ErrorIs(t, err, ErrInvalidPin)

	s.outputErr = errPinBusy
	sensor, err := New(s, 23, 24)
	assert.Nil(t, sensor)
	assert.ErrorIs(t, err, errPinBusy)

	// the trigger pin is released, if the echo pin can't be configured
	s.outputErr = nil
	s.inputErr = errPinBusy
	sensor, err = New(s, 23, 24)
	assert.Nil(t, sensor)
	assert.ErrorIs(t, err, errPinBusy)
	assert.Equal(t, []int{23}, s.closed)
}

func TestNewDefaults(t *testing.T) {
	s := newSim()
	sensor, err := NewWithConfig(s, 1, 2, Config{MinDistance: 5000})
	require.NoError(t, err)

	c := sensor.Config()
	assert.Equal(t, DefaultTriggerPulseWidth, c.TriggerPulseWidth)
	assert.Equal(t, DefaultTriggerSettle, c.TriggerSettle)
	assert.Equal(t, DefaultAttemptsDelay, c.AttemptsDelay)
	assert.Equal(t, DefaultMaxDistance, c.MaxDistance)
	assert.Equal(t, DefaultMinDistance, c.MinDistance)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.NotNil(t, c.Clock)

	// temperature and pull are taken as given
	assert.Equal(t, 0.0, c.Temperature)
	assert.Equal(t, port.PullNone, c.Pull)
}

func TestEchoTriggerPulse(t *testing.T) {
	s := newSim(simEcho{latency: 200, width: 1000})
	sensor := newTestSensor(t, s, 50*time.Millisecond)

	_, err := sensor.Echo(0, 0)
	require.NoError(t, err)

	require.Len(t, s.writes, 3)
	assert.Equal(t, port.Low, s.writes[0].level)
	assert.Equal(t, port.High, s.writes[1].level)
	assert.Equal(t, port.Low, s.writes[2].level)
	assert.Equal(t, uint32(5), s.writes[1].at-s.writes[0].at)
	assert.Equal(t, uint32(10), s.writes[2].at-s.writes[1].at)
	assert.Equal(t, 1, s.triggers)

	s.writes = nil
	_, err = sensor.Echo(20*time.Microsecond, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), s.writes[2].at-s.writes[1].at)
}

func TestEchoWidth(t *testing.T) {
	s := newSim(simEcho{latency: 250, width: 2000})
	sensor := newTestSensor(t, s, 50*time.Millisecond)

	d, err := sensor.Echo(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), d)
}

func TestEchoClearsStalePulse(t *testing.T) {
	s := newSim(simEcho{latency: 400, width: 1500})
	s.staleUntil = 300
	sensor := newTestSensor(t, s, 50*time.Millisecond)

	d, err := sensor.Echo(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1500), d)
}

func TestEchoTimeouts(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*sim)
		want    error
	}{
		{"stuck high", func(s *sim) { s.stuck = true }, ErrEchoStuck},
		{"no pulse", func(s *sim) { s.echoes = []simEcho{{latency: 200}} }, ErrNoEchoStart},
		{"pulse too long", func(s *sim) { s.echoes = []simEcho{{latency: 200, width: 5000}} }, ErrNoEchoEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSim()
			tt.prepare(s)
			sensor := newTestSensor(t, s, 0)

			start := s.Micros()
			_, err := sensor.Echo(0, time.Millisecond)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.Is(err, ErrTimeout))

			// settle + trigger + timeout (+ one poll), the pulse phase restarts the timeout
			bound := uint32(5 + 10 + 1000 + 1)
			if tt.want == ErrNoEchoEnd {
				bound += 200 + 1000
			}
			assert.LessOrEqual(t, clock.Elapsed(start, s.Micros()), bound)
		})
	}
}

func TestEchoDefaultTimeout(t *testing.T) {
	s := newSim(simEcho{latency: 200})
	sensor := newTestSensor(t, s, 0)

	start := s.Micros()
	_, err := sensor.Echo(0, -time.Second)
	assert.ErrorIs(t, err, ErrNoEchoStart)

	elapsed := clock.Elapsed(start, s.Micros())
	assert.Greater(t, elapsed, uint32(1000000))
	assert.LessOrEqual(t, elapsed, uint32(1000000+5+10+1))
}

func TestEchoClockWrapAround(t *testing.T) {
	s := newSim(simEcho{latency: 200, width: 2000})
	s.now = 0xFFFFFFFF - 1000
	sensor := newTestSensor(t, s, 50*time.Millisecond)

	d, err := sensor.Echo(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), d)
}

func TestEchoAfterFailure(t *testing.T) {
	s := newSim(simEcho{latency: 200}, simEcho{latency: 200, width: 700})
	sensor := newTestSensor(t, s, 10*time.Millisecond)

	_, err := sensor.Echo(0, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoEchoStart)

	d, err := sensor.Echo(0, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint32(700), d)
}
