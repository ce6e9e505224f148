package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"hcsr04/pkg/hcsr04"
	"hcsr04/pkg/mqtt"

	"github.com/womat/debug"
)

// reading is the json representation of a measurement.
// Distance is null if no attempt was valid.
type reading struct {
	TimeStamp   time.Time
	Distance    *float64 // mm
	Temperature float64  // °C
	Attempts    int
	Valid       int
}

func newReading(m hcsr04.Measurement) reading {
	r := reading{
		TimeStamp:   m.TimeStamp,
		Temperature: m.Temperature,
		Attempts:    m.Attempts,
		Valid:       m.Valid,
	}
	if !math.IsNaN(m.Distance) {
		d := math.Round(m.Distance*10) / 10
		r.Distance = &d
	}
	return r
}

// measure reads the sensor in the configured interval until shutdown.
func (app *App) measure() {
	ticker := time.NewTicker(app.config.Sensor.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-app.shutdown:
			return
		case <-ticker.C:
		}

		m, ok := app.read(app.config.Sensor.Attempts, app.getTemperature())
		if !ok {
			return
		}

		debug.TraceLog.Printf("distance: %.1f mm (%v/%v valid)", m.Distance, m.Valid, m.Attempts)

		app.measurement.Lock()
		app.measurement.data = m
		app.measurement.Unlock()

		app.validateMeasurement(m)
	}
}

// read performs an averaged measurement. Calls are serialized, ok is false if the sensor is closed.
func (app *App) read(attempts int, temperature float64) (m hcsr04.Measurement, ok bool) {
	app.sensorLock.Lock()
	defer app.sensorLock.Unlock()

	if app.sensor == nil {
		return m, false
	}
	return app.sensor.Read(attempts, app.config.Sensor.AttemptsDelay, temperature), true
}

// validateMeasurement checks the measurement by interval and distance delta
// and sends the measurement to mqtt if the interval is expired, the delta distance is exceeded
// or the validity of the measurement has changed.
func (app *App) validateMeasurement(m hcsr04.Measurement) {
	app.published.Lock()
	defer app.published.Unlock()

	last := app.published.data

	deltaT := m.TimeStamp.Sub(last.TimeStamp)
	deltaValid := math.IsNaN(m.Distance) != math.IsNaN(last.Distance)
	deltaD := math.Abs(m.Distance - last.Distance)

	if last.TimeStamp.IsZero() || deltaT >= app.config.MQTT.Interval || deltaValid || deltaD >= app.config.MQTT.DeltaDistance {
		app.sendMQTT(app.config.MQTT.Topic, newReading(m))
		app.published.data = m
	}
}

// sendMQTT send message struct to the mqtt broker.
func (app *App) sendMQTT(topic string, message interface{}) {
	go func(t string, r interface{}) {
		debug.TraceLog.Printf("prepare mqtt message %v %v", t, r)

		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
			return
		}

		app.mqtt.C <- mqtt.Message{
			Qos:      0,
			Retained: true,
			Topic:    t,
			Payload:  b,
		}
	}(topic, message)
}

// handleTemperature receives the air temperature, either as plain number
// or as json object {"Temperature": 21.5}.
func (app *App) handleTemperature(payload []byte) {
	t, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		var v struct {
			Temperature *float64
		}
		if err = json.Unmarshal(payload, &v); err != nil || v.Temperature == nil {
			debug.ErrorLog.Printf("invalid temperature %q", payload)
			return
		}
		t = *v.Temperature
	}

	if math.IsNaN(t) || t < -50 || t > 80 {
		debug.ErrorLog.Printf("temperature %v out of range", t)
		return
	}

	debug.DebugLog.Printf("air temperature %v°C", t)

	app.temperature.Lock()
	app.temperature.value = t
	app.temperature.Unlock()
}

func (app *App) getTemperature() float64 {
	app.temperature.RLock()
	defer app.temperature.RUnlock()
	return app.temperature.value
}
