package model

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	MaxZones   = 4
	MaxTargets = 3
)

// ChannelState is the live state channel's connection state machine.
type ChannelState string

const (
	ChannelDisconnected ChannelState = "disconnected"
	ChannelConnecting   ChannelState = "connecting"
	ChannelSubscribed   ChannelState = "subscribed"
)

func (c ChannelState) String() string {
	return string(c)
}

// Connected reports the coarse status exposed upward for display.
func (c ChannelState) Connected() bool {
	return c == ChannelSubscribed
}

// Zone is a rectangular detection region in sensor space, in
// millimetres. Bounds are not necessarily normalized at rest.
type Zone struct {
	ID       int
	Name     string
	X1, Y1   int
	X2, Y2   int
	OffDelay int // seconds until the zone reports clear
}

var zonePalette = []string{"#4fc3f7", "#ffb74d", "#81c784", "#e57373"}

// Color derives the display colour deterministically from the zone id.
func (z Zone) Color() string {
	return zonePalette[(z.ID-1)%len(zonePalette)]
}

// Zero reports whether all four corners are zero, which the platform
// uses as the cleared-zone sentinel. A zero zone is pending deletion,
// not a valid zone.
func (z Zone) Zero() bool {
	return z.X1 == 0 && z.Y1 == 0 && z.X2 == 0 && z.Y2 == 0
}

// Normalized returns the zone with corners ordered so X1<=X2 and Y1<=Y2.
func (z Zone) Normalized() Zone {
	if z.X1 > z.X2 {
		z.X1, z.X2 = z.X2, z.X1
	}
	if z.Y1 > z.Y2 {
		z.Y1, z.Y2 = z.Y2, z.Y1
	}
	return z
}

// Target is one tracked point reported by the sensor. Speed, angle,
// distance and resolution are zero when the sensor does not expose the
// matching entity.
type Target struct {
	ID         int
	X, Y       float64
	Speed      float64
	Angle      float64
	Distance   float64
	Resolution float64
}

// SettingKind tags a device setting with its write behaviour, resolved
// once at snapshot load instead of re-parsing the entity domain on
// every render.
type SettingKind int

const (
	SettingSwitch SettingKind = iota
	SettingNumber
	SettingSelect
	SettingLight
)

// Setting is one free-form device setting entity.
type Setting struct {
	EntityID string
	Name     string
	Kind     SettingKind
	State    string

	// SettingNumber only.
	Min, Max, Step float64

	// SettingSelect only.
	Options []string
}

// ZoneSuffix builds the entity suffix for one zone field, e.g.
// ZoneSuffix(1, "begin_x") -> "zone_1_begin_x".
func ZoneSuffix(id int, field string) string {
	return fmt.Sprintf("zone_%d_%s", id, field)
}

// TargetSuffix builds the entity suffix for one target field.
func TargetSuffix(id int, field string) string {
	return fmt.Sprintf("target_%d_%s", id, field)
}

var zoneFields = []string{"begin_x", "begin_y", "end_x", "end_y", "off_delay"}

var targetFields = []string{"x", "y", "active", "speed", "angle", "distance", "resolution"}

var settingSuffixes = []string{
	"max_distance",
	"zone_type",
	"sensitivity",
	"custom_mode",
	"end_delay",
	"distance_resolution",
	"angle_resolution",
	"bluetooth_switch",
	"inverse_mounting",
	"installation_angle",
	"any_target_active",
	"zone_1_occupancy", "zone_2_occupancy", "zone_3_occupancy", "zone_4_occupancy",
	"max_distance_gate", "max_movement_distance_gate", "max_still_distance_gate",
	"timeout", "light_function", "out_pin_level",
}

// watchedSuffixes is every suffix the live channel forwards into the
// snapshot. Device filtering happens later, at the model layer, so a
// non-selected device's updates are retained for a future switch.
var watchedSuffixes = buildWatchedSuffixes()

func buildWatchedSuffixes() []string {
	out := make([]string, 0, 64)
	for id := 1; id <= MaxZones; id++ {
		for _, f := range zoneFields {
			out = append(out, ZoneSuffix(id, f))
		}
	}
	for id := 1; id <= MaxTargets; id++ {
		for _, f := range targetFields {
			out = append(out, TargetSuffix(id, f))
		}
	}
	return append(out, settingSuffixes...)
}

// IsWatchedEntity reports whether an entity id ends in one of the fixed
// suffixes relevant to zones, targets or settings for some device.
func IsWatchedEntity(entityID string) bool {
	if entityID == "" {
		return false
	}
	return lo.SomeBy(watchedSuffixes, func(suffix string) bool {
		return strings.HasSuffix(entityID, suffix)
	})
}
