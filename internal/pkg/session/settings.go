package session

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

// Zone coordinates and target fields have their own models; everything
// else under a device prefix is a free-form setting.
var (
	zoneFieldPattern   = regexp.MustCompile(`^zone_[1-4]_(begin_x|begin_y|end_x|end_y|off_delay)$`)
	targetFieldPattern = regexp.MustCompile(`^target_[1-3]_`)
)

// SettingsFromSnapshot resolves each device setting into a tagged
// variant once, at load time. Render and write paths dispatch on the
// resolved kind instead of re-parsing the entity domain every time.
func SettingsFromSnapshot(snap model.Snapshot, deviceID string) []model.Setting {
	settings := make([]model.Setting, 0)
	for entityID, st := range snap {
		if !belongsTo(entityID, deviceID) {
			continue
		}
		_, object := model.SplitEntityID(entityID)
		suffix := strings.TrimPrefix(object, deviceID+"_")
		if zoneFieldPattern.MatchString(suffix) || targetFieldPattern.MatchString(suffix) {
			continue
		}
		settings = append(settings, resolveSetting(entityID, suffix, st))
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].EntityID < settings[j].EntityID })
	return settings
}

func resolveSetting(entityID, suffix string, st model.EntityState) model.Setting {
	s := model.Setting{
		EntityID: entityID,
		Name:     settingName(suffix, st),
		State:    st.State,
	}
	domain, _ := model.SplitEntityID(entityID)
	switch domain {
	case "switch":
		s.Kind = model.SettingSwitch
	case "light":
		s.Kind = model.SettingLight
	case "select":
		s.Kind = model.SettingSelect
		s.Options = selectOptions(st)
	case "number":
		s.Kind = model.SettingNumber
		s.Min, _ = st.NumberAttr("min")
		s.Max, _ = st.NumberAttr("max")
		s.Step, _ = st.NumberAttr("step")
	default:
		// Bare ids carry no domain; fall back on the state's shape.
		if _, err := strconv.ParseFloat(st.State, 64); err == nil {
			s.Kind = model.SettingNumber
		} else if st.State == "on" || st.State == "off" {
			s.Kind = model.SettingSwitch
		} else {
			s.Kind = model.SettingSelect
			s.Options = selectOptions(st)
		}
	}
	return s
}

func settingName(suffix string, st model.EntityState) string {
	if name, ok := st.Attributes["friendly_name"].(string); ok && name != "" {
		return name
	}
	return strings.ReplaceAll(suffix, "_", " ")
}

func selectOptions(st model.EntityState) []string {
	raw, ok := st.Attributes["options"].([]any)
	if !ok {
		return nil
	}
	options := make([]string, 0, len(raw))
	for _, o := range raw {
		if s, ok := o.(string); ok {
			options = append(options, s)
		}
	}
	return options
}

// updateSettingState patches the cached state of one setting after a
// channel update without re-resolving its kind.
func (s *Session) updateSettingState(entityID, state string) {
	for i := range s.settings {
		if s.settings[i].EntityID == entityID {
			s.settings[i].State = state
			return
		}
	}
	// Unknown settings appear when the registry grows at runtime; pick
	// them up on the next full load rather than resolving kinds here.
}
