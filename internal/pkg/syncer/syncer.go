// Package syncer translates local zone and setting edits into bounded
// sets of idempotent service calls against the platform.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

type platform interface {
	SetNumber(ctx context.Context, entityID string, value float64) error
	TurnOn(ctx context.Context, entityID string) error
	TurnOff(ctx context.Context, entityID string) error
	SelectOption(ctx context.Context, entityID, option string) error
}

type Engine struct {
	ha     platform
	logger *zap.Logger
}

func New(ha platform) *Engine {
	return &Engine{ha: ha, logger: zap.L()}
}

type fieldWrite struct {
	suffix string
	value  float64
}

// WriteZone pushes all five zone fields concurrently and settles them
// into one aggregated result. A partial failure is reported as a single
// error; the local model is never rolled back, and the next snapshot
// reconciliation reveals whatever state the platform actually holds.
func (e *Engine) WriteZone(ctx context.Context, deviceID string, z model.Zone) error {
	writes := []fieldWrite{
		{model.ZoneSuffix(z.ID, "begin_x"), float64(z.X1)},
		{model.ZoneSuffix(z.ID, "begin_y"), float64(z.Y1)},
		{model.ZoneSuffix(z.ID, "end_x"), float64(z.X2)},
		{model.ZoneSuffix(z.ID, "end_y"), float64(z.Y2)},
		{model.ZoneSuffix(z.ID, "off_delay"), float64(z.OffDelay)},
	}
	if err := e.writeFields(ctx, deviceID, writes); err != nil {
		return fmt.Errorf("write zone %d: %w", z.ID, err)
	}
	e.logger.Debug("zone written", zap.String("device", deviceID), zap.Int("zone", z.ID))
	return nil
}

// ClearZone zeroes the four coordinate fields. The off-delay is left
// untouched on purpose: a cleared slot keeps its delay for reuse.
func (e *Engine) ClearZone(ctx context.Context, deviceID string, id int) error {
	writes := []fieldWrite{
		{model.ZoneSuffix(id, "begin_x"), 0},
		{model.ZoneSuffix(id, "begin_y"), 0},
		{model.ZoneSuffix(id, "end_x"), 0},
		{model.ZoneSuffix(id, "end_y"), 0},
	}
	if err := e.writeFields(ctx, deviceID, writes); err != nil {
		return fmt.Errorf("clear zone %d: %w", id, err)
	}
	e.logger.Debug("zone cleared", zap.String("device", deviceID), zap.Int("zone", id))
	return nil
}

// Field writes are independent and may complete out of order; the
// engine waits for all of them but never serializes them.
func (e *Engine) writeFields(ctx context.Context, deviceID string, writes []fieldWrite) error {
	errs := make([]error, len(writes))
	g := new(errgroup.Group)
	for i, w := range writes {
		i, w := i, w
		g.Go(func() error {
			if err := e.ha.SetNumber(ctx, deviceID+"_"+w.suffix, w.value); err != nil {
				errs[i] = fmt.Errorf("%s: %w", w.suffix, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// WriteSetting dispatches on the setting's kind resolved at load time.
// One call per field, fire and report, no batching, no retry.
func (e *Engine) WriteSetting(ctx context.Context, s model.Setting, value string) error {
	switch s.Kind {
	case model.SettingSwitch, model.SettingLight:
		on, err := strconv.ParseBool(value)
		if err != nil {
			on = value == "on"
		}
		if on {
			return e.ha.TurnOn(ctx, s.EntityID)
		}
		return e.ha.TurnOff(ctx, s.EntityID)
	case model.SettingNumber:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("setting %s: %w", s.EntityID, err)
		}
		return e.ha.SetNumber(ctx, s.EntityID, v)
	case model.SettingSelect:
		return e.ha.SelectOption(ctx, s.EntityID, value)
	}
	return fmt.Errorf("setting %s: unknown kind %d", s.EntityID, s.Kind)
}
