package cmd

import (
	"context"
	"errors"
	"fmt"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sense360/zone-configurator/internal/pkg/channel"
	"github.com/sense360/zone-configurator/internal/pkg/config"
	"github.com/sense360/zone-configurator/internal/pkg/hass"
	"github.com/sense360/zone-configurator/internal/pkg/model"
	"github.com/sense360/zone-configurator/internal/pkg/mqtt"
	"github.com/sense360/zone-configurator/internal/pkg/publisher"
	"github.com/sense360/zone-configurator/internal/pkg/session"
	"github.com/sense360/zone-configurator/internal/pkg/surface"
	"github.com/sense360/zone-configurator/internal/pkg/syncer"
)

func ConfiguratorCommand(ctx *cli.Context) error {
	// The environment is the base source; explicit flags override it.
	cfg, err := config.FromEnv()
	if err != nil && !errors.Is(err, config.ErrNoCredentials) {
		return err
	}
	overrideFromFlags(ctx, cfg)
	if err := cfg.HassCfg.Normalize(); err != nil {
		return err
	}

	return run(ctx.Context, cfg)
}

func overrideFromFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("ha-url") {
		cfg.HassCfg.URL = ctx.String("ha-url")
	}
	if ctx.IsSet("ha-token") {
		cfg.HassCfg.Token = ctx.String("ha-token")
	}
	if ctx.IsSet("supervisor-token") {
		cfg.HassCfg.SupervisorToken = ctx.String("supervisor-token")
	}
	if ctx.IsSet("reconnect-base") {
		cfg.HassCfg.ReconnectBase = ctx.Duration("reconnect-base")
	}
	if ctx.IsSet("max-reconnects") {
		cfg.HassCfg.MaxReconnects = ctx.Int("max-reconnects")
	}
	if ctx.IsSet("device") {
		cfg.HassCfg.Device = ctx.String("device")
	}
	if ctx.IsSet("surface-width") {
		cfg.HassCfg.SurfaceWidth = ctx.Float64("surface-width")
	}
	if ctx.IsSet("surface-height") {
		cfg.HassCfg.SurfaceHeight = ctx.Float64("surface-height")
	}
	if ctx.IsSet("mqtt-host") {
		cfg.MqttCfg.Host = ctx.String("mqtt-host")
	}
	if ctx.IsSet("mqtt-user") {
		cfg.MqttCfg.Username = ctx.String("mqtt-user")
	}
	if ctx.IsSet("mqtt-pass") {
		cfg.MqttCfg.Password = ctx.String("mqtt-pass")
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	haClient := hass.New(cfg.HassCfg)
	if err := haClient.Health(ctx); err != nil {
		// Degraded start is fine; the channel keeps retrying and the
		// user can refresh once the platform is reachable.
		logger.Warn("platform health check failed", zap.Error(err))
	}

	if cfg.MqttCfg.Host != "" {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.MqttCfg.Host).
			SetUsername(cfg.MqttCfg.Username).
			SetPassword(cfg.MqttCfg.Password).
			SetAutoReconnect(true)
		mqttSvc := mqtt.New(paho_mqtt.NewClient(opts))
		if err := mqttSvc.Connect(); err != nil {
			logger.Warn("mqtt connect failed, continuing without mirror", zap.Error(err))
		} else if err := publisher.Register("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	events := make(chan model.Event, 256)
	tf := surface.NewTransform(cfg.HassCfg.SurfaceWidth, cfg.HassCfg.SurfaceHeight)
	sess := session.New(haClient, syncer.New(haClient), tf, events)
	liveChannel := channel.New(cfg.HassCfg, events)

	// A device reselect or manual refresh revives a channel that burned
	// its reconnect budget.
	sess.OnChannelDown(func() {
		if liveChannel.State() == model.ChannelDisconnected {
			go liveChannel.Restart()
		}
	})

	eg.Go(func() error {
		return sess.Run(ctx)
	})

	eg.Go(func() error {
		return liveChannel.Start(ctx)
	})

	eg.Go(func() error {
		return selectInitialDevice(ctx, cfg.HassCfg, haClient, events)
	})

	eg.Go(func() error {
		return periodicResync(ctx, events)
	})

	return eg.Wait()
}

var errNoDevices = errors.New("no zone-capable devices discovered")

func selectInitialDevice(ctx context.Context, cfg *config.HassConfig, haClient *hass.Client, events chan<- model.Event) error {
	devices, err := haClient.Devices(ctx)
	if err != nil {
		return fmt.Errorf("device discovery: %w", err)
	}
	zap.L().Info("discovered devices", zap.Strings("devices", devices))

	deviceID := cfg.Device
	if deviceID == "" {
		if len(devices) == 0 {
			return errNoDevices
		}
		deviceID = devices[0]
	}

	select {
	case events <- model.DeviceSelected{DeviceID: deviceID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// periodicResync refreshes the bulk snapshot so drift from dropped
// channel events is bounded.
func periodicResync(ctx context.Context, events chan<- model.Event) error {
	c := cron.New()
	if _, err := c.AddFunc("@every 5m", func() {
		select {
		case events <- model.RefreshRequested{}:
		default:
		}
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()
	<-ctx.Done()
	return ctx.Err()
}
