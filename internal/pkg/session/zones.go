package session

import (
	"context"
	"fmt"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

// ZonesFromSnapshot derives the zone list for a device. A zone is
// present iff all four corner entities resolve to non-null values; an
// all-zero zone is the cleared-slot sentinel and is treated as pending
// deletion, not a zone. Deterministic and side-effect free.
func ZonesFromSnapshot(snap model.Snapshot, deviceID string) []model.Zone {
	zones := make([]model.Zone, 0, model.MaxZones)
	for id := 1; id <= model.MaxZones; id++ {
		x1, ok1 := snap.Number(deviceID, model.ZoneSuffix(id, "begin_x"))
		y1, ok2 := snap.Number(deviceID, model.ZoneSuffix(id, "begin_y"))
		x2, ok3 := snap.Number(deviceID, model.ZoneSuffix(id, "end_x"))
		y2, ok4 := snap.Number(deviceID, model.ZoneSuffix(id, "end_y"))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		z := model.Zone{
			ID:   id,
			Name: fmt.Sprintf("Zone %d", id),
			X1:   int(x1), Y1: int(y1),
			X2: int(x2), Y2: int(y2),
		}
		if z.Zero() {
			continue
		}
		if d, ok := snap.Number(deviceID, model.ZoneSuffix(id, "off_delay")); ok && d >= 0 {
			z.OffDelay = int(d)
		}
		zones = append(zones, z)
	}
	return zones
}

// CreateZone adds a zone with the lowest unused id. Bounds must already
// be normalized by the caller. The new zone exists locally only; the
// session schedules the remote write separately.
func (s *Session) CreateZone(x1, y1, x2, y2 int) (model.Zone, error) {
	for id := 1; id <= model.MaxZones; id++ {
		if _, taken := s.zoneByID(id); taken {
			continue
		}
		z := model.Zone{
			ID:       id,
			Name:     fmt.Sprintf("Zone %d", id),
			X1:       x1,
			Y1:       y1,
			X2:       x2,
			Y2:       y2,
			OffDelay: defaultOffDelay,
		}
		s.insertZone(z)
		s.markDirty(id)
		return z, nil
	}
	return model.Zone{}, ErrMaxZones
}

// ZonePatch is a partial zone update; nil fields are left alone.
type ZonePatch struct {
	Name     *string
	X1, Y1   *int
	X2, Y2   *int
	OffDelay *int
}

// UpdateZone mutates local fields only. Pushing the change to the
// platform is the caller's job via the sync engine.
func (s *Session) UpdateZone(id int, p ZonePatch) error {
	for i := range s.zones {
		if s.zones[i].ID != id {
			continue
		}
		z := &s.zones[i]
		if p.Name != nil {
			z.Name = *p.Name
		}
		if p.X1 != nil {
			z.X1 = *p.X1
		}
		if p.Y1 != nil {
			z.Y1 = *p.Y1
		}
		if p.X2 != nil {
			z.X2 = *p.X2
		}
		if p.Y2 != nil {
			z.Y2 = *p.Y2
		}
		if p.OffDelay != nil {
			z.OffDelay = *p.OffDelay
		}
		s.markDirty(id)
		return nil
	}
	return fmt.Errorf("zone %d not found", id)
}

// DeleteZone removes the zone locally and schedules the zero-write.
// The entities themselves live on; deletion writes the cleared-slot
// sentinel to their values.
func (s *Session) DeleteZone(ctx context.Context, id int) error {
	if _, ok := s.zoneByID(id); !ok {
		return fmt.Errorf("zone %d not found", id)
	}
	kept := s.zones[:0]
	for _, z := range s.zones {
		if z.ID != id {
			kept = append(kept, z)
		}
	}
	s.zones = kept
	s.markDirty(id)
	if s.selected == id {
		s.selected = 0
	}

	deviceID := s.deviceID
	go func() {
		err := s.engine.ClearZone(ctx, deviceID, id)
		s.post(ctx, model.WriteResult{Op: "clear_zone", DeviceID: deviceID, ZoneID: id, Err: err})
	}()
	return nil
}

// SelectZone points the selection at an existing zone; id 0 clears it.
func (s *Session) SelectZone(id int) error {
	if id == 0 {
		s.selected = 0
		return nil
	}
	if _, ok := s.zoneByID(id); !ok {
		return fmt.Errorf("zone %d not found", id)
	}
	s.selected = id
	return nil
}

// insertZone keeps the list in ascending id order so hit-testing and
// rendering are stable.
func (s *Session) insertZone(z model.Zone) {
	at := len(s.zones)
	for i, existing := range s.zones {
		if existing.ID > z.ID {
			at = i
			break
		}
	}
	s.zones = append(s.zones[:at], append([]model.Zone{z}, s.zones[at:]...)...)
}
