package app

import (
	"fmt"
	"math"
	"net/url"
	"sync"

	"hcsr04/pkg/app/config"
	"hcsr04/pkg/hcsr04"
	"hcsr04/pkg/mqtt"
	"hcsr04/pkg/raspberry"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// gpio is the handler to the gpio controller
	gpio raspberry.GPIO

	// sensor is the handle of the HC-SR04 module.
	// sensorLock serializes the measurements, the sensor can't measure concurrently.
	sensor     *hcsr04.Sensor
	sensorLock sync.Mutex

	// measurement is the last measurement of the measuring loop
	measurement struct {
		sync.RWMutex
		data hcsr04.Measurement
	}

	// published is the last measurement sent to the mqtt broker
	published struct {
		sync.Mutex
		data hcsr04.Measurement
	}

	// temperature is the air temperature used to compensate the speed of sound
	temperature struct {
		sync.RWMutex
		value float64
	}

	// shutdown signals application shutdown
	shutdown chan struct{}
	once     sync.Once
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	a := &App{
		config:    config,
		urlParsed: u,

		web:  fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt: mqtt.New(),

		shutdown: make(chan struct{}),
	}
	a.temperature.value = config.Sensor.Temperature

	return a, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.measure()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if err = app.initSensor(); err != nil {
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, app.config.MQTT.ClientID); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	if err = app.mqtt.Subscribe(app.config.MQTT.TemperatureTopic, app.handleTemperature); err != nil {
		debug.ErrorLog.Printf("can't subscribe topic %v: %v", app.config.MQTT.TemperatureTopic, err)
		return err
	}

	// initDefaultRoutes should be always called last because it may access things like app.sensor
	// which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// initSensor opens the gpio controller and configures the sensor lines.
func (app *App) initSensor() (err error) {
	app.gpio, err = raspberry.Open(raspberry.Config{
		Backend:  app.config.Gpio.Backend,
		Chip:     app.config.Gpio.Chip,
		Distance: app.config.Gpio.EmuDistance,
	})
	if err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	c := hcsr04.DefaultConfig()
	c.TriggerPulseWidth = app.config.Sensor.TriggerWidth
	c.Timeout = app.config.Sensor.Timeout
	c.Temperature = app.config.Sensor.Temperature
	c.AttemptsDelay = app.config.Sensor.AttemptsDelay
	c.MinDistance = app.config.Sensor.MinDistance
	c.MaxDistance = app.config.Sensor.MaxDistance
	c.Pull = app.config.Gpio.Pull

	if app.sensor, err = hcsr04.NewWithConfig(app.gpio, app.config.Gpio.Trigger, app.config.Gpio.Echo, c); err != nil {
		debug.ErrorLog.Printf("can't open sensor: %v", err)
		return fmt.Errorf("sensor (trigger %v, echo %v): %w", app.config.Gpio.Trigger, app.config.Gpio.Echo, err)
	}

	debug.InfoLog.Printf("sensor ready (backend %v, trigger %v, echo %v)",
		app.config.Gpio.Backend, app.config.Gpio.Trigger, app.config.Gpio.Echo)
	return nil
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown.
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// Close stops the measuring loop and releases the sensor, the gpio controller and the mqtt connection.
func (app *App) Close() error {
	if app.shutdown != nil {
		app.once.Do(func() { close(app.shutdown) })
	}

	if app.web != nil {
		_ = app.web.Shutdown()
	}

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	app.sensorLock.Lock()
	defer app.sensorLock.Unlock()

	if app.sensor != nil {
		_ = app.sensor.Close()
		app.sensor = nil
	}

	if app.gpio == nil {
		return nil
	}

	err := app.gpio.Close()
	app.gpio = nil
	return err
}

// MeasureOnce opens the sensor and performs one averaged measurement with the configured values.
// It is used without Run, the web server and mqtt aren't started.
func (app *App) MeasureOnce() (float64, error) {
	if err := app.initSensor(); err != nil {
		return math.NaN(), err
	}

	m, _ := app.read(app.config.Sensor.Attempts, app.config.Sensor.Temperature)
	debug.InfoLog.Printf("%v of %v attempts valid", m.Valid, m.Attempts)
	return m.Distance, nil
}
