package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"hcsr04/pkg/app"
	"hcsr04/pkg/app/config"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Distance meter for HC-SR04 ultrasonic ranging modules",
		Version: app.VERSION,
		Description: "Measure the distance with a HC-SR04 module connected to two gpio lines (trigger and echo)" +
			"\n and provide the measurements by web services and mqtt." +
			"\n The speed of sound is compensated by the configured air temperature or a temperature received via mqtt.",
		UsageText: "hcsr04 [--config <file>] [--log standard|debug|trace] [command]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the distance meter and use the configuration file hcsr04.yaml" +
			"\n\t\thcsr04 --config /opt/womat/hcsr04.yaml" +
			"\n\tmeasure once with 10 attempts at 25°C" +
			"\n\t\thcsr04 --config /opt/womat/hcsr04.yaml measure --attempts 10 --temperature 25",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Value: "standard", Usage: "`LEVEL` defines the log level (standard|debug|trace)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "measure",
				Usage: "measure the distance once and print it",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "attempts", Aliases: []string{"n"}, Usage: "number of averaged `ATTEMPTS` (default from config)"},
					&cli.Float64Flag{Name: "temperature", Aliases: []string{"t"}, Usage: "air temperature in `°C` (default from config)"},
				},
				Action: func(ctx *cli.Context) error {
					if err := cfg.LoadConfig(); err != nil {
						return err
					}
					debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
					defer closeDebugFile(cfg)

					if ctx.IsSet("attempts") {
						cfg.Sensor.Attempts = ctx.Int("attempts")
					}
					if ctx.IsSet("temperature") {
						cfg.Sensor.Temperature = ctx.Float64("temperature")
					}

					a, err := app.New(cfg)
					defer func() { _ = a.Close() }()
					if err != nil {
						return err
					}

					d, err := a.MeasureOnce()
					if err != nil {
						return err
					}
					if math.IsNaN(d) {
						return fmt.Errorf("no valid reading in %v attempts", cfg.Sensor.Attempts)
					}

					fmt.Printf("%.1f mm\n", d)
					return nil
				},
			},
		},
		Action: func(ctx *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
			defer closeDebugFile(cfg)

			a, err := app.New(cfg)
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			if err != nil {
				return err
			}

			debug.InfoLog.Printf("starting app %s", app.Version())
			if err = a.Run(); err != nil {
				return err
			}

			// capture exit signals to ensure resources are released on exit.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			// wait for am os.Interrupt signal (CTRL C)
			sig := <-quit
			debug.InfoLog.Printf("Got %s signal. Aborting...", sig)

			return nil
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
	return
}

func closeDebugFile(cfg *config.Config) {
	debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
	_ = cfg.Debug.File.Close()
}
