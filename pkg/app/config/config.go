package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"hcsr04/pkg/port"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Config holds the application configuration. Attention!
// Durations are configured as integers (the unit is named at each field)
// and converted to time.Duration by LoadConfig.
// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Flag      FlagConfig      `yaml:"-"`
	Gpio      GpioConfig      `yaml:"gpio"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Debug     DebugConfig     `yaml:"debug"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	ConfigFile string
	LogLevel   string
}

// GpioConfig defines the gpio controller and the lines of the sensor.
type GpioConfig struct {
	// Backend is gpiomem, gpiod, periph or emu.
	Backend string `yaml:"backend"`
	// Chip is the character device of the gpiod backend.
	Chip       string        `yaml:"chip"`
	Trigger    int           `yaml:"trigger"`
	Echo       int           `yaml:"echo"`
	Pull       port.PullType `yaml:"-"`
	PullString string        `yaml:"pull"`
	// EmuDistance is the distance (mm) of the object emulated by the emu backend.
	EmuDistance float64 `yaml:"emudistance"`
}

// SensorConfig defines the measurement parameters.
type SensorConfig struct {
	// Temperature (°C) is used until a temperature is received via mqtt.
	Temperature      float64       `yaml:"temperature"`
	Attempts         int           `yaml:"attempts"`
	AttemptsDelay    time.Duration `yaml:"-"`
	AttemptsDelayInt int           `yaml:"attemptsdelay"` // ms
	Timeout          time.Duration `yaml:"-"`
	TimeoutInt       int           `yaml:"timeout"` // µs
	TriggerWidth     time.Duration `yaml:"-"`
	TriggerWidthInt  int           `yaml:"triggerwidth"` // µs
	MinDistance      float64       `yaml:"mindistance"`
	MaxDistance      float64       `yaml:"maxdistance"`
	Interval         time.Duration `yaml:"-"`
	IntervalInt      int           `yaml:"interval"` // ms
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection  string        `yaml:"connection"`
	ClientID    string        `yaml:"clientid"`
	Interval    time.Duration `yaml:"-"`
	IntervalInt int           `yaml:"interval"` // s
	// DeltaDistance (mm) forces a publication before the interval has expired.
	DeltaDistance    float64 `yaml:"deltadistance"`
	Topic            string  `yaml:"topic"`
	TemperatureTopic string  `yaml:"temperaturetopic"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Flag: FlagConfig{},
		Gpio: GpioConfig{
			Backend:     "gpiomem",
			Chip:        "gpiochip0",
			Trigger:     23,
			Echo:        24,
			PullString:  "pullup",
			EmuDistance: 1000,
		},
		Sensor: SensorConfig{
			Temperature:      19.3,
			Attempts:         5,
			AttemptsDelayInt: 5,
			TimeoutInt:       1000000,
			TriggerWidthInt:  10,
			MinDistance:      0,
			MaxDistance:      4000,
			IntervalInt:      1000,
		},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
				"measure": true,
			},
		},
		MQTT: MQTTConfig{
			Connection:    "",
			ClientID:      "hcsr04",
			IntervalInt:   60,
			DeltaDistance: 10,
			Topic:         "/hcsr04/distance",
		},
	}
}

// LoadConfig reads the configuration file and converts the configured values.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	pull, err := port.ParsePull(c.Gpio.PullString)
	if err != nil {
		return err
	}
	c.Gpio.Pull = pull

	if c.Sensor.Attempts < 1 {
		return fmt.Errorf("invalid number of attempts %v", c.Sensor.Attempts)
	}

	c.Sensor.AttemptsDelay = time.Duration(c.Sensor.AttemptsDelayInt) * time.Millisecond
	c.Sensor.Timeout = time.Duration(c.Sensor.TimeoutInt) * time.Microsecond
	c.Sensor.TriggerWidth = time.Duration(c.Sensor.TriggerWidthInt) * time.Microsecond
	c.Sensor.Interval = time.Duration(c.Sensor.IntervalInt) * time.Millisecond
	c.MQTT.Interval = time.Duration(c.MQTT.IntervalInt) * time.Second

	if c.Sensor.Interval <= 0 {
		return fmt.Errorf("invalid measuring interval %v", c.Sensor.Interval)
	}

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	default:
		return fmt.Errorf("invalid log level %q", c.Debug.FlagString)
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
