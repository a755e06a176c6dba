package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

func TestSettingsFromSnapshot_KindResolution(t *testing.T) {
	tests := map[string]struct {
		entityID string
		state    model.EntityState
		want     model.SettingKind
	}{
		"switch domain": {
			entityID: "switch.dev1_bluetooth_switch",
			state:    model.EntityState{State: "on"},
			want:     model.SettingSwitch,
		},
		"light domain": {
			entityID: "light.dev1_status_led",
			state:    model.EntityState{State: "off"},
			want:     model.SettingLight,
		},
		"select domain": {
			entityID: "select.dev1_baud_rate",
			state: model.EntityState{
				State:      "256000",
				Attributes: map[string]any{"options": []any{"9600", "256000"}},
			},
			want: model.SettingSelect,
		},
		"number domain": {
			entityID: "number.dev1_timeout",
			state:    model.EntityState{State: "5"},
			want:     model.SettingNumber,
		},
		"bare numeric state": {
			entityID: "dev1_timeout",
			state:    model.EntityState{State: "5"},
			want:     model.SettingNumber,
		},
		"bare on/off state": {
			entityID: "dev1_bluetooth_switch",
			state:    model.EntityState{State: "off"},
			want:     model.SettingSwitch,
		},
		"bare text state": {
			entityID: "dev1_install_mode",
			state:    model.EntityState{State: "ceiling"},
			want:     model.SettingSelect,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			snap := model.Snapshot{}
			snap.Apply(tc.entityID, tc.state)

			settings := SettingsFromSnapshot(snap, "dev1")
			require.Len(t, settings, 1)
			assert.Equal(t, tc.want, settings[0].Kind)
			assert.Equal(t, tc.entityID, settings[0].EntityID)
		})
	}
}

func TestSettingsFromSnapshot_ExcludesZoneAndTargetFields(t *testing.T) {
	snap := model.Snapshot{}
	for id, st := range merge(
		zoneStates("dev1", 1, "0", "0", "100", "100", "5"),
		targetStates("dev1", 1, "on", "100", "2000"),
		map[string]model.EntityState{
			"switch.dev1_bluetooth_switch": {State: "on"},
			"number.dev2_timeout":          {State: "5"},
		},
	) {
		snap.Apply(id, st)
	}

	settings := SettingsFromSnapshot(snap, "dev1")
	require.Len(t, settings, 1)
	assert.Equal(t, "switch.dev1_bluetooth_switch", settings[0].EntityID)
}

func TestSettingsFromSnapshot_NumberBounds(t *testing.T) {
	snap := model.Snapshot{}
	snap.Apply("number.dev1_max_distance", model.EntityState{
		State: "6000",
		Attributes: map[string]any{
			"friendly_name": "Max distance",
			"min":           float64(0),
			"max":           float64(8000),
			"step":          float64(10),
		},
	})

	settings := SettingsFromSnapshot(snap, "dev1")
	require.Len(t, settings, 1)
	s := settings[0]
	assert.Equal(t, model.SettingNumber, s.Kind)
	assert.Equal(t, "Max distance", s.Name)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 8000.0, s.Max)
	assert.Equal(t, 10.0, s.Step)
}

func TestSettingsFromSnapshot_SelectOptions(t *testing.T) {
	snap := model.Snapshot{}
	snap.Apply("select.dev1_install_mode", model.EntityState{
		State:      "wall",
		Attributes: map[string]any{"options": []any{"wall", "ceiling"}},
	})

	settings := SettingsFromSnapshot(snap, "dev1")
	require.Len(t, settings, 1)
	assert.Equal(t, []string{"wall", "ceiling"}, settings[0].Options)
}

func TestSettingsFromSnapshot_SortedByEntityID(t *testing.T) {
	snap := model.Snapshot{}
	snap.Apply("switch.dev1_b_switch", model.EntityState{State: "on"})
	snap.Apply("number.dev1_a_number", model.EntityState{State: "1"})

	settings := SettingsFromSnapshot(snap, "dev1")
	require.Len(t, settings, 2)
	assert.Equal(t, "number.dev1_a_number", settings[0].EntityID)
	assert.Equal(t, "switch.dev1_b_switch", settings[1].EntityID)
}

func TestUpdateSettingState(t *testing.T) {
	loader := &mockLoader{states: map[string]model.EntityState{
		"switch.dev1_bluetooth_switch": {State: "on"},
	}}
	s := newTestSession(t, nil, loader)
	selectDevice(t, s, "dev1")
	require.Len(t, s.Settings(), 1)

	s.updateSettingState("switch.dev1_bluetooth_switch", "off")
	assert.Equal(t, "off", s.Settings()[0].State)
	assert.Equal(t, model.SettingSwitch, s.Settings()[0].Kind, "kind is not re-resolved")

	// Unknown entity is a no-op.
	s.updateSettingState("switch.dev1_other", "on")
}
