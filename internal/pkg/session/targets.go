package session

import (
	"github.com/sense360/zone-configurator/internal/pkg/model"
)

// TargetsFromSnapshot derives the active target set for a device in
// ascending id order. Fully recomputed on every call; a target exists
// iff its active entity is truthy and both coordinates resolve. The
// auxiliary fields are optional on older firmware and default to zero.
func TargetsFromSnapshot(snap model.Snapshot, deviceID string) []model.Target {
	targets := make([]model.Target, 0, model.MaxTargets)
	for id := 1; id <= model.MaxTargets; id++ {
		if !snap.Truthy(deviceID, model.TargetSuffix(id, "active")) {
			continue
		}
		x, okX := snap.Number(deviceID, model.TargetSuffix(id, "x"))
		y, okY := snap.Number(deviceID, model.TargetSuffix(id, "y"))
		if !okX || !okY {
			continue
		}
		t := model.Target{ID: id, X: x, Y: y}
		t.Speed, _ = snap.Number(deviceID, model.TargetSuffix(id, "speed"))
		t.Angle, _ = snap.Number(deviceID, model.TargetSuffix(id, "angle"))
		t.Distance, _ = snap.Number(deviceID, model.TargetSuffix(id, "distance"))
		t.Resolution, _ = snap.Number(deviceID, model.TargetSuffix(id, "resolution"))
		targets = append(targets, t)
	}
	return targets
}
