package app

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleData returns the last measurement of the measuring loop.
func (app *App) HandleData() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request data")

		app.measurement.RLock()
		m := app.measurement.data
		app.measurement.RUnlock()

		if m.TimeStamp.IsZero() {
			return fiber.NewError(http.StatusServiceUnavailable, "no measurement available")
		}
		return ctx.JSON(newReading(m))
	}
}

// HandleMeasure performs a new measurement.
// The query parameters attempts and temperature override the configured values.
//  e.g.: /measure?attempts=10&temperature=25
func (app *App) HandleMeasure() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request measure")

		attempts := app.config.Sensor.Attempts
		if q := ctx.Query("attempts"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 1 || n > 100 {
				return fiber.NewError(http.StatusBadRequest, "invalid attempts")
			}
			attempts = n
		}

		temperature := app.getTemperature()
		if q := ctx.Query("temperature"); q != "" {
			t, err := strconv.ParseFloat(q, 64)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, "invalid temperature")
			}
			temperature = t
		}

		m, ok := app.read(attempts, temperature)
		if !ok {
			return fiber.NewError(http.StatusServiceUnavailable, "sensor closed")
		}
		return ctx.JSON(newReading(m))
	}
}
