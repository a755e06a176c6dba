package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sense360/zone-configurator/cmd"
)

func main() {
	app := &cli.App{
		Name:   "zone-configurator",
		Usage:  "zone configurator for mmWave presence sensors",
		Action: cmd.ConfiguratorCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ha-url",
				EnvVars: []string{"HA_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "ha-token",
				EnvVars: []string{"HA_TOKEN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "supervisor-token",
				EnvVars: []string{"SUPERVISOR_TOKEN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "device",
				EnvVars: []string{"DEVICE"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "reconnect-base",
				EnvVars: []string{"RECONNECT_BASE"},
				Value:   2 * time.Second,
			},
			&cli.IntFlag{
				Name:    "max-reconnects",
				EnvVars: []string{"MAX_RECONNECTS"},
				Value:   5,
			},
			&cli.Float64Flag{
				Name:    "surface-width",
				EnvVars: []string{"SURFACE_WIDTH"},
				Value:   800,
			},
			&cli.Float64Flag{
				Name:    "surface-height",
				EnvVars: []string{"SURFACE_HEIGHT"},
				Value:   600,
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
