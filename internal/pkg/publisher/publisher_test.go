package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

type mockAdapter struct {
	targetCalls []string
	statusCalls []model.ChannelState
	err         error
}

func (m *mockAdapter) PublishTargets(_ context.Context, deviceID string, _ []model.Target) error {
	m.targetCalls = append(m.targetCalls, deviceID)
	return m.err
}

func (m *mockAdapter) PublishStatus(_ context.Context, _ string, state model.ChannelState) error {
	m.statusCalls = append(m.statusCalls, state)
	return m.err
}

func TestRegister_Duplicate(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	require.NoError(t, Register("mqtt", &mockAdapter{}))
	assert.Error(t, Register("mqtt", &mockAdapter{}))
}

func TestPublishTargets_Suppression(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	adapter := &mockAdapter{}
	require.NoError(t, Register("mqtt", adapter))

	ctx := context.Background()
	targets := []model.Target{{ID: 1, X: 100, Y: 2000}}

	PublishTargets(ctx, "sensorA", targets)
	PublishTargets(ctx, "sensorA", targets)
	assert.Len(t, adapter.targetCalls, 1, "identical payload must be suppressed")

	targets[0].X = 150
	PublishTargets(ctx, "sensorA", targets)
	assert.Len(t, adapter.targetCalls, 2)

	// Suppression is per device.
	PublishTargets(ctx, "sensorB", targets)
	assert.Len(t, adapter.targetCalls, 3)
}

func TestPublishStatus_Suppression(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	adapter := &mockAdapter{}
	require.NoError(t, Register("mqtt", adapter))

	ctx := context.Background()
	PublishStatus(ctx, "sensorA", model.ChannelSubscribed)
	PublishStatus(ctx, "sensorA", model.ChannelSubscribed)
	PublishStatus(ctx, "sensorA", model.ChannelDisconnected)

	assert.Equal(t, []model.ChannelState{model.ChannelSubscribed, model.ChannelDisconnected}, adapter.statusCalls)
}

func TestPublish_AdapterErrorNonFatal(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	failing := &mockAdapter{err: assert.AnError}
	require.NoError(t, Register("mqtt", failing))

	PublishTargets(context.Background(), "sensorA", nil)
	assert.Len(t, failing.targetCalls, 1)
}

func TestPublish_NoAdaptersIsNoop(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	PublishTargets(context.Background(), "sensorA", []model.Target{{ID: 1}})
	PublishStatus(context.Background(), "sensorA", model.ChannelConnecting)
}
