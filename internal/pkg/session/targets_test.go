package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

func targetStates(device string, id int, active, x, y string) map[string]model.EntityState {
	prefix := device + "_target_" + string(rune('0'+id)) + "_"
	return map[string]model.EntityState{
		prefix + "active": {State: active},
		prefix + "x":      {State: x},
		prefix + "y":      {State: y},
	}
}

func TestTargetsFromSnapshot(t *testing.T) {
	tests := map[string]struct {
		states  map[string]model.EntityState
		wantIDs []int
	}{
		"active targets only": {
			states: merge(
				targetStates("dev1", 1, "on", "100", "2000"),
				targetStates("dev1", 2, "off", "300", "2500"),
				targetStates("dev1", 3, "on", "-500", "4000"),
			),
			wantIDs: []int{1, 3},
		},
		"active without coordinates is degenerate": {
			states: map[string]model.EntityState{
				"dev1_target_1_active": {State: "on"},
				"dev1_target_1_x":      {State: "100"},
			},
			wantIDs: nil,
		},
		"unavailable coordinate drops the target": {
			states: targetStates("dev1", 1, "on", "100", "unavailable"),
			wantIDs: nil,
		},
		"numeric truthiness": {
			states: merge(
				targetStates("dev1", 1, "1", "100", "2000"),
				targetStates("dev1", 2, "0", "300", "2500"),
			),
			wantIDs: []int{1},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			snap := model.Snapshot{}
			for id, st := range tc.states {
				snap.Apply(id, st)
			}
			targets := TargetsFromSnapshot(snap, "dev1")
			ids := make([]int, 0, len(targets))
			for _, tgt := range targets {
				ids = append(ids, tgt.ID)
			}
			if tc.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tc.wantIDs, ids)
			}
		})
	}
}

func TestTargetsFromSnapshot_AuxiliaryFields(t *testing.T) {
	snap := model.Snapshot{}
	for id, st := range merge(targetStates("dev1", 1, "on", "100", "2000"), map[string]model.EntityState{
		"dev1_target_1_speed":    {State: "12.5"},
		"dev1_target_1_angle":    {State: "-30"},
		"dev1_target_1_distance": {State: "2002"},
	}) {
		snap.Apply(id, st)
	}

	targets := TargetsFromSnapshot(snap, "dev1")
	require.Len(t, targets, 1)
	tgt := targets[0]
	assert.Equal(t, 100.0, tgt.X)
	assert.Equal(t, 2000.0, tgt.Y)
	assert.Equal(t, 12.5, tgt.Speed)
	assert.Equal(t, -30.0, tgt.Angle)
	assert.Equal(t, 2002.0, tgt.Distance)
	assert.Zero(t, tgt.Resolution, "missing auxiliary fields default to zero")
}
