// Package publisher fans target and connection-status updates out to
// registered adapters (MQTT today), with change suppression so that
// unchanged values are not republished.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	registeredPublishers = make(map[string]publisher)
	lastPayloads         sync.Map
)

type publisher interface {
	PublishTargets(ctx context.Context, deviceID string, targets []model.Target) error
	PublishStatus(ctx context.Context, deviceID string, state model.ChannelState) error
}

func Register(name string, p publisher) error {
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// PublishTargets mirrors the current target set for a device to every
// registered adapter. Unchanged sets are suppressed.
func PublishTargets(ctx context.Context, deviceID string, targets []model.Target) {
	payload, err := json.Marshal(targets)
	if err != nil {
		zap.L().Error("failed to marshal targets", zap.Error(err))
		return
	}
	if !shouldUpdate("targets_"+deviceID, string(payload)) {
		return
	}
	for name, p := range registeredPublishers {
		if err := p.PublishTargets(ctx, deviceID, targets); err != nil {
			zap.L().Error("failed to publish targets", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("published targets", zap.String("device", deviceID),
			zap.Int("count", len(targets)), zap.String("publisher", name))
	}
}

// PublishStatus mirrors channel state transitions.
func PublishStatus(ctx context.Context, deviceID string, state model.ChannelState) {
	if !shouldUpdate("status_"+deviceID, state.String()) {
		return
	}
	for name, p := range registeredPublishers {
		if err := p.PublishStatus(ctx, deviceID, state); err != nil {
			zap.L().Error("failed to publish status", zap.Error(err), zap.String("publisher", name))
		}
	}
}

func shouldUpdate(key, newValue string) bool {
	oldValue, exists := lastPayloads.Load(key)
	if exists && oldValue.(string) == newValue {
		return false
	}
	lastPayloads.Store(key, newValue)
	return true
}

// Reset clears registrations and suppression state. Test hook.
func Reset() {
	registeredPublishers = make(map[string]publisher)
	lastPayloads = sync.Map{}
}
