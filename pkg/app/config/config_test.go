package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hcsr04/pkg/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "hcsr04.yaml")
	require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
	return name
}

func TestLoadConfig(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, `
gpio:
  backend: emu
  trigger: 17
  echo: 27
  pull: pulldown
  emudistance: 750
sensor:
  temperature: 22.5
  attempts: 3
  attemptsdelay: 20
  timeout: 30000
  interval: 500
mqtt:
  connection: tcp://127.0.0.1:1883
  interval: 30
  topic: /garage/distance
  temperaturetopic: /garage/temperature
debug:
  flag: debug
`)

	require.NoError(t, c.LoadConfig())

	assert.Equal(t, "emu", c.Gpio.Backend)
	assert.Equal(t, 17, c.Gpio.Trigger)
	assert.Equal(t, 27, c.Gpio.Echo)
	assert.Equal(t, port.PullDown, c.Gpio.Pull)
	assert.Equal(t, 750.0, c.Gpio.EmuDistance)
	assert.Equal(t, 22.5, c.Sensor.Temperature)
	assert.Equal(t, 3, c.Sensor.Attempts)
	assert.Equal(t, 20*time.Millisecond, c.Sensor.AttemptsDelay)
	assert.Equal(t, 30*time.Millisecond, c.Sensor.Timeout)
	assert.Equal(t, 10*time.Microsecond, c.Sensor.TriggerWidth)
	assert.Equal(t, 500*time.Millisecond, c.Sensor.Interval)
	assert.Equal(t, 4000.0, c.Sensor.MaxDistance)
	assert.Equal(t, 30*time.Second, c.MQTT.Interval)
	assert.Equal(t, "/garage/temperature", c.MQTT.TemperatureTopic)
	assert.Equal(t, os.Stderr, c.Debug.File)
	assert.True(t, c.Webserver.Webservices["measure"])
}

func TestLoadConfigLogLevelFlag(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "debug:\n  flag: standard\n")
	c.Flag.LogLevel = "trace"

	require.NoError(t, c.LoadConfig())
	assert.Equal(t, "trace", c.Debug.FlagString)
}

func TestLoadConfigErrors(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, c.LoadConfig())

	tests := map[string]string{
		"pull":      "gpio:\n  pull: floating\n",
		"attempts":  "sensor:\n  attempts: 0\n",
		"interval":  "sensor:\n  interval: 0\n",
		"log level": "debug:\n  flag: verbose\n",
		"yaml":      "gpio: [\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			c := NewConfig()
			c.Flag.ConfigFile = writeConfig(t, content)
			assert.Error(t, c.LoadConfig())
		})
	}
}
