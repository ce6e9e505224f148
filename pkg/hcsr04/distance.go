package hcsr04

import (
	"math"
	"time"

	"github.com/womat/debug"
)

// Measurement is the result of an averaged reading.
type Measurement struct {
	TimeStamp time.Time
	// Distance is the mean of the valid attempts in mm, NaN if no attempt was valid.
	Distance    float64
	Temperature float64
	Attempts    int
	Valid       int
}

// SpeedOfSound returns the speed of sound in air (m/s) at the temperature (°C).
//  Cair ≈ (331.3 + 0.606 ⋅ ϑ) m/s
func SpeedOfSound(celsius float64) float64 {
	return 331.3 + 0.606*celsius
}

// ToMillimeters converts the round trip time of an echo (µs) to the distance (mm)
// of the reflecting object. The sound travels the distance twice.
// m/s equals mm/ms, so the speed is divided by 1000 to get mm/µs.
func ToMillimeters(duration uint32, celsius float64) float64 {
	return float64(duration) / 2 * SpeedOfSound(celsius) / 1000
}

// EchoWidth is the inverse of ToMillimeters, the round trip time of the echo
// of an object at distance mm, rounded up to the next µs.
func EchoWidth(distance, celsius float64) time.Duration {
	return time.Duration(math.Ceil(distance*2*1000/SpeedOfSound(celsius))) * time.Microsecond
}

// Distance returns the distance in mm at the configured temperature or NaN on failure.
func (s *Sensor) Distance() float64 {
	return s.DistanceWithTemperature(s.config.Temperature)
}

// DistanceWithTemperature returns the distance in mm, compensated for the air temperature (°C).
// It returns NaN if the echo timed out or the distance is out of range.
func (s *Sensor) DistanceWithTemperature(celsius float64) float64 {
	d, err := s.distance(celsius)
	if err != nil {
		debug.DebugLog.Printf("hcsr04 echo pin %v: %v", s.echo.Pin(), err)
		return math.NaN()
	}
	return d
}

// DistanceAvg returns the mean distance of count attempts at the configured temperature.
func (s *Sensor) DistanceAvg(count int, delay time.Duration) float64 {
	return s.DistanceAvgWithTemperature(count, delay, s.config.Temperature)
}

// DistanceAvgWithTemperature performs count attempts, waits delay between two attempts
// and returns the mean of the valid distances in mm. Failed attempts are ignored.
// If delay <= 0, the configured AttemptsDelay is used.
// It returns NaN if no attempt was valid.
func (s *Sensor) DistanceAvgWithTemperature(count int, delay time.Duration, celsius float64) float64 {
	return s.Read(count, delay, celsius).Distance
}

// Read is DistanceAvgWithTemperature, but also reports how many attempts were valid.
func (s *Sensor) Read(count int, delay time.Duration, celsius float64) Measurement {
	if delay <= 0 {
		delay = s.config.AttemptsDelay
	}

	m := Measurement{Temperature: celsius, Attempts: count}
	sum := 0.0

	for i := 0; i < count; i++ {
		if i > 0 {
			s.clock.Sleep(delay)
		}

		d, err := s.distance(celsius)
		if err != nil {
			debug.TraceLog.Printf("hcsr04 echo pin %v attempt %v/%v: %v", s.echo.Pin(), i+1, count, err)
			continue
		}

		sum += d
		m.Valid++
	}

	m.TimeStamp = time.Now()
	if m.Valid == 0 {
		m.Distance = math.NaN()
		debug.DebugLog.Printf("hcsr04 echo pin %v: no valid reading in %v attempts", s.echo.Pin(), count)
		return m
	}

	m.Distance = sum / float64(m.Valid)
	return m
}

// distance performs one echo measurement and checks the plausibility of the result.
func (s *Sensor) distance(celsius float64) (float64, error) {
	duration, err := s.Echo(s.config.TriggerPulseWidth, s.config.Timeout)
	if err != nil {
		return 0, err
	}

	d := ToMillimeters(duration, celsius)
	if math.IsNaN(d) || d <= s.config.MinDistance || d > s.config.MaxDistance {
		return 0, ErrOutOfRange
	}

	return d, nil
}
