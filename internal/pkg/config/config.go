package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HassCfg *HassConfig
	MqttCfg *MqttConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// HassConfig points the client at a Home-Assistant-compatible platform.
// When running as an add-on the supervisor token and internal URL are
// used; otherwise URL and Token must be provided.
type HassConfig struct {
	URL             string        `env:"HA_URL"`
	Token           string        `env:"HA_TOKEN"`
	SupervisorToken string        `env:"SUPERVISOR_TOKEN"`
	ReconnectBase   time.Duration `env:"RECONNECT_BASE" envDefault:"2s"`
	MaxReconnects   int           `env:"MAX_RECONNECTS" envDefault:"5"`

	// Device pins the initially selected sensor; empty means the first
	// discovered device.
	Device string `env:"DEVICE"`

	// Drawing surface dimensions used for gesture hit-testing.
	SurfaceWidth  float64 `env:"SURFACE_WIDTH" envDefault:"800"`
	SurfaceHeight float64 `env:"SURFACE_HEIGHT" envDefault:"600"`
}

type MqttConfig struct {
	Host     string `env:"MQTT_HOST"`
	Username string `env:"MQTT_USER"`
	Password string `env:"MQTT_PASS"`
}

const supervisorURL = "http://supervisor/core"

var ErrNoCredentials = errors.New("no SUPERVISOR_TOKEN and no HA_URL/HA_TOKEN provided")

// FromEnv builds a config from environment variables. On
// ErrNoCredentials the parsed config is still returned so callers can
// overlay another source (CLI flags) and normalize again.
func FromEnv() (*Config, error) {
	cfg := &Config{HassCfg: &HassConfig{}, MqttCfg: &MqttConfig{}}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.HassCfg.Normalize()
}

// Normalize resolves the supervisor/token split and trims the base URL.
func (c *HassConfig) Normalize() error {
	if c.SupervisorToken != "" {
		c.URL = supervisorURL
		c.Token = c.SupervisorToken
		return nil
	}
	if c.URL == "" || c.Token == "" {
		return ErrNoCredentials
	}
	c.URL = strings.TrimRight(c.URL, "/")
	return nil
}
