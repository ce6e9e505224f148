package app

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// HandleHealth returns data about the health of myself and the sensor.
// output example:
//  {"NumGoroutines":11,"HeapAllocatedBytes":332256360,"HeapAllocatedMB":316,"SysMemoryBytes":360290312,
//   "SysMemoryMB":343,"Version":"0.1.0+20261016","ProgLang":"go1.16.2","Backend":"gpiomem",
//   "LastMeasurement":"2026-10-16T10:00:00+02:00","SensorOK":true,"MQTTConnected":true}
func (app *App) HandleHealth() fiber.Handler {
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}

	host, _ := os.Hostname()

	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		app.measurement.RLock()
		last := app.measurement.data
		app.measurement.RUnlock()

		hab := m.Alloc
		smb := m.Sys

		healthData := struct {
			NumGoroutines      int
			NumCPU             int
			HeapAllocatedBytes uint64
			HeapAllocatedMB    uint64
			SysMemoryBytes     uint64
			SysMemoryMB        uint64
			Version            string
			ProgLang           string
			HostName           string
			Time               string
			Backend            string
			LastMeasurement    time.Time
			SensorOK           bool
			MQTTConnected      bool
		}{
			NumGoroutines:      runtime.NumGoroutine(),
			NumCPU:             runtime.NumCPU(),
			HeapAllocatedBytes: hab,
			HeapAllocatedMB:    bToMb(hab),
			SysMemoryBytes:     smb,
			SysMemoryMB:        bToMb(smb),
			ProgLang:           runtime.Version(),
			Version:            VERSION,
			HostName:           host,
			Time:               time.Now().Format(time.RFC3339),
			Backend:            app.config.Gpio.Backend,
			LastMeasurement:    last.TimeStamp,
			SensorOK:           last.Valid > 0,
			MQTTConnected:      app.mqtt.IsConnected(),
		}
		ctx.Status(http.StatusOK)
		return ctx.JSON(healthData)
	}
}
