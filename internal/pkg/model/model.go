package model

import (
	"strconv"
	"strings"
)

// EntityState is the value half of an entity as reported by the
// automation platform: a state string plus free-form attributes.
type EntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Snapshot is the client-side cache of entity states. It is the single
// source of truth for zones, targets and settings; those are derived
// views and are never written into the snapshot directly.
type Snapshot map[string]EntityState

// Domains the platform exposes sensor entities under. Resolve tries the
// bare id first so snapshots keyed without a domain prefix also work.
var knownDomains = []string{"number", "sensor", "binary_sensor", "switch", "select", "light"}

func (s Snapshot) Apply(entityID string, state EntityState) {
	s[entityID] = state
}

// Resolve looks up the entity for a device/suffix pair. Entity ids are
// the device id plus "_" plus a fixed suffix, optionally behind a
// domain prefix such as "number.".
func (s Snapshot) Resolve(deviceID, suffix string) (EntityState, bool) {
	bare := deviceID + "_" + suffix
	if st, ok := s[bare]; ok {
		return st, true
	}
	for _, domain := range knownDomains {
		if st, ok := s[domain+"."+bare]; ok {
			return st, true
		}
	}
	return EntityState{}, false
}

// Number resolves a device/suffix pair to a numeric state. Unknown and
// unavailable states count as unresolvable, not as zero.
func (s Snapshot) Number(deviceID, suffix string) (float64, bool) {
	st, ok := s.Resolve(deviceID, suffix)
	if !ok || st.Unavailable() {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(st.State), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Truthy resolves a device/suffix pair to a boolean state.
func (s Snapshot) Truthy(deviceID, suffix string) bool {
	st, ok := s.Resolve(deviceID, suffix)
	if !ok {
		return false
	}
	switch strings.ToLower(st.State) {
	case "on", "true", "1", "detected":
		return true
	}
	return false
}

func (e EntityState) Unavailable() bool {
	switch e.State {
	case "", "unknown", "unavailable", "none":
		return true
	}
	return false
}

// NumberAttr reads a numeric attribute, tolerating both float and
// integer JSON decodings.
func (e EntityState) NumberAttr(key string) (float64, bool) {
	raw, ok := e.Attributes[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// SplitEntityID splits an entity id into its domain prefix and object
// id. Ids without a dot have an empty domain.
func SplitEntityID(entityID string) (domain, object string) {
	if i := strings.Index(entityID, "."); i > 0 {
		return entityID[:i], entityID[i+1:]
	}
	return "", entityID
}
