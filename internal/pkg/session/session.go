// Package session owns the per-client state for one configurator
// session: the entity snapshot, the derived zone/target/setting models
// and the single-threaded event loop that mutates them.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/sense360/zone-configurator/internal/pkg/contxt"
	"github.com/sense360/zone-configurator/internal/pkg/model"
	"github.com/sense360/zone-configurator/internal/pkg/publisher"
	"github.com/sense360/zone-configurator/internal/pkg/surface"
)

var ErrMaxZones = errors.New("maximum number of zones reached")

// localEditWindow is how long a locally edited zone resists being
// clobbered by remote-origin reconciliation. Long enough to cover the
// write round-trip and its echo, short enough not to hide real remote
// edits.
const localEditWindow = 3 * time.Second

const defaultOffDelay = 5

type syncEngine interface {
	WriteZone(ctx context.Context, deviceID string, z model.Zone) error
	ClearZone(ctx context.Context, deviceID string, id int) error
	WriteSetting(ctx context.Context, s model.Setting, value string) error
}

type stateLoader interface {
	States(ctx context.Context) (map[string]model.EntityState, error)
}

// Session is one client session. All fields below the event queue are
// owned by the Run goroutine; no two handlers ever touch them
// concurrently. There is no shared state across sessions.
type Session struct {
	id     string
	logger *zap.Logger
	events chan model.Event
	loader stateLoader
	engine syncEngine

	tf      surface.Transform
	gesture surface.Gesture

	deviceID     string
	generation   uint64
	snapshot     model.Snapshot
	zones        []model.Zone
	targets      []model.Target
	settings     []model.Setting
	selected     int // zone id, 0 = none
	dirty        map[int]time.Time
	channelState model.ChannelState
	channelDown  func()

	now func() time.Time
}

func New(loader stateLoader, engine syncEngine, tf surface.Transform, events chan model.Event) *Session {
	return &Session{
		id:           uuid.NewString(),
		logger:       zap.L(),
		events:       events,
		loader:       loader,
		engine:       engine,
		tf:           tf,
		snapshot:     model.Snapshot{},
		dirty:        make(map[int]time.Time),
		channelState: model.ChannelDisconnected,
		now:          time.Now,
	}
}

// Events is the queue producers (channel, gestures, timers) feed.
func (s *Session) Events() chan<- model.Event {
	return s.events
}

// OnChannelDown registers a hook fired when a device selection or
// manual refresh happens while the live channel is disconnected. The
// command layer uses it to restart the channel once its reconnect
// budget is burned.
func (s *Session) OnChannelDown(fn func()) {
	s.channelDown = fn
}

// Run dispatches events one at a time until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started", zap.String("session_id", s.id))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", zap.String("session_id", s.id))
			return ctx.Err()
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, ev model.Event) {
	switch ev := ev.(type) {
	case model.DeviceSelected:
		s.selectDevice(ctx, ev.DeviceID)
	case model.SnapshotLoaded:
		s.applyLoad(ev)
	case model.StateChanged:
		s.applyStateChange(ev)
	case model.RefreshRequested:
		s.reload(ctx)
	case model.ChannelStatus:
		s.channelState = ev.State
		s.logger.Info("channel status", zap.String("state", ev.State.String()))
		if s.deviceID != "" {
			publisher.PublishStatus(contxt.NewContext(5*time.Second), s.deviceID, ev.State)
		}
	case model.PointerDown:
		s.gesture.Down(ev.X, ev.Y)
	case model.PointerMove:
		s.gesture.Move(ev.X, ev.Y)
	case model.PointerUp:
		s.finishGesture(ctx, ev.X, ev.Y)
	case model.WriteResult:
		s.recordWrite(ev)
	}
}

// selectDevice atomically discards all zone/target state for the old
// device and starts a full reload. The snapshot is kept: it already
// holds updates for other devices, ready for the switch back.
func (s *Session) selectDevice(ctx context.Context, deviceID string) {
	s.deviceID = deviceID
	s.zones = nil
	s.targets = nil
	s.settings = nil
	s.selected = 0
	s.dirty = make(map[int]time.Time)
	s.gesture = surface.Gesture{}
	s.logger.Info("device selected", zap.String("device", deviceID))
	s.reload(ctx)
}

// reload bumps the load generation and fetches a fresh bulk snapshot.
// The generation is captured at request time so a response that lands
// after another device switch is dropped, not applied.
func (s *Session) reload(ctx context.Context) {
	if s.deviceID == "" {
		return
	}
	if s.channelDown != nil && s.channelState == model.ChannelDisconnected {
		s.channelDown()
	}
	s.generation++
	gen := s.generation
	go func() {
		states, err := s.loader.States(ctx)
		s.post(ctx, model.SnapshotLoaded{Generation: gen, States: states, Err: err})
	}()
}

func (s *Session) applyLoad(ev model.SnapshotLoaded) {
	if ev.Generation != s.generation {
		s.logger.Debug("dropping stale snapshot load",
			zap.Uint64("got", ev.Generation), zap.Uint64("want", s.generation))
		return
	}
	if ev.Err != nil {
		// Non-fatal: the user can retry via reselect or refresh.
		s.logger.Warn("snapshot load failed", zap.Error(ev.Err))
		return
	}
	for id, st := range ev.States {
		if model.IsWatchedEntity(id) {
			s.snapshot.Apply(id, st)
		}
	}
	// A full load replaces the entire derived state, selection included
	// if its zone vanished.
	s.zones = ZonesFromSnapshot(s.snapshot, s.deviceID)
	s.targets = TargetsFromSnapshot(s.snapshot, s.deviceID)
	s.settings = SettingsFromSnapshot(s.snapshot, s.deviceID)
	s.validateSelection()
	s.publishTargets()
	s.logger.Info("snapshot loaded",
		zap.String("device", s.deviceID),
		zap.Int("zones", len(s.zones)),
		zap.Int("targets", len(s.targets)),
		zap.Int("settings", len(s.settings)))
}

func (s *Session) applyStateChange(ev model.StateChanged) {
	// Updates for non-selected devices are captured too, so they are
	// ready if the user switches devices.
	s.snapshot.Apply(ev.EntityID, ev.State)
	if !belongsTo(ev.EntityID, s.deviceID) {
		return
	}
	s.reconcile()
	s.updateSettingState(ev.EntityID, ev.State.State)
}

// reconcile merges remote-derived zones into the local model. A zone
// edited locally within the suppression window keeps its local value
// (presence or absence); everything else takes the remote state
// unconditionally.
func (s *Session) reconcile() {
	remote := ZonesFromSnapshot(s.snapshot, s.deviceID)
	merged := make([]model.Zone, 0, len(remote))
	for id := 1; id <= model.MaxZones; id++ {
		local, hasLocal := s.zoneByID(id)
		if s.locallyDirty(id) {
			if hasLocal {
				merged = append(merged, local)
			}
			continue
		}
		if rz, ok := zoneWithID(remote, id); ok {
			// Local-only fields survive reconciliation.
			if hasLocal {
				rz.Name = local.Name
			}
			merged = append(merged, rz)
		}
	}
	s.zones = merged
	s.validateSelection()

	s.targets = TargetsFromSnapshot(s.snapshot, s.deviceID)
	s.publishTargets()
}

func (s *Session) recordWrite(ev model.WriteResult) {
	if ev.Err != nil {
		// Aggregated failure per zone/setting; the local model stays as
		// the user's intent and the next reconciliation reveals drift.
		s.logger.Error("write failed",
			zap.String("op", ev.Op),
			zap.String("device", ev.DeviceID),
			zap.Int("zone", ev.ZoneID),
			zap.Error(ev.Err))
		return
	}
	s.logger.Debug("write settled", zap.String("op", ev.Op), zap.Int("zone", ev.ZoneID))
}

func (s *Session) finishGesture(ctx context.Context, x, y float64) {
	act := s.gesture.Up(x, y)
	switch act.Kind {
	case surface.ActionCreate:
		s.createFromDrag(ctx, act)
	case surface.ActionClick:
		s.selectAt(act.X, act.Y)
	}
}

func (s *Session) createFromDrag(ctx context.Context, act surface.Action) {
	ax, ay := s.tf.ToSensor(act.X1, act.Y1)
	bx, by := s.tf.ToSensor(act.X2, act.Y2)
	z, err := s.CreateZone(min(ax, bx), min(ay, by), max(ax, bx), max(ay, by))
	if err != nil {
		s.logger.Warn("zone create rejected", zap.Error(err))
		return
	}
	s.selected = z.ID
	s.writeZone(ctx, z)
}

// selectAt hit-tests in zone list order, ascending id; first match wins
// when zones overlap. A miss leaves the selection unchanged.
func (s *Session) selectAt(x, y float64) {
	for _, z := range s.zones {
		px, py, w, h := s.tf.RectToSurface(float64(z.X1), float64(z.Y1), float64(z.X2), float64(z.Y2))
		if x >= px && x <= px+w && y >= py && y <= py+h {
			s.selected = z.ID
			s.logger.Debug("zone selected", zap.Int("zone", z.ID))
			return
		}
	}
}

// CommitZone pushes the zone's current local fields to the platform.
// UpdateZone only mutates locally; callers commit when the edit is done.
func (s *Session) CommitZone(ctx context.Context, id int) error {
	z, ok := s.zoneByID(id)
	if !ok {
		return fmt.Errorf("zone %d not found", id)
	}
	s.markDirty(id)
	s.writeZone(ctx, z)
	return nil
}

// WriteSetting fires one write for a settings entity and reports the
// outcome through the event queue.
func (s *Session) WriteSetting(ctx context.Context, entityID, value string) error {
	setting, ok := lo.Find(s.settings, func(st model.Setting) bool { return st.EntityID == entityID })
	if !ok {
		return fmt.Errorf("setting %s not found", entityID)
	}
	deviceID := s.deviceID
	go func() {
		err := s.engine.WriteSetting(ctx, setting, value)
		s.post(ctx, model.WriteResult{Op: "write_setting", DeviceID: deviceID, Err: err})
	}()
	return nil
}

func (s *Session) writeZone(ctx context.Context, z model.Zone) {
	deviceID := s.deviceID
	go func() {
		err := s.engine.WriteZone(ctx, deviceID, z)
		s.post(ctx, model.WriteResult{Op: "write_zone", DeviceID: deviceID, ZoneID: z.ID, Err: err})
	}()
}

// post re-enters the single-threaded event queue from a completion
// goroutine.
func (s *Session) post(ctx context.Context, ev model.Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func (s *Session) publishTargets() {
	if s.deviceID == "" {
		return
	}
	publisher.PublishTargets(contxt.NewContext(5*time.Second), s.deviceID, s.targets)
}

func (s *Session) markDirty(id int) {
	s.dirty[id] = s.now()
}

func (s *Session) locallyDirty(id int) bool {
	t, ok := s.dirty[id]
	return ok && s.now().Sub(t) < localEditWindow
}

func (s *Session) validateSelection() {
	if s.selected == 0 {
		return
	}
	if _, ok := s.zoneByID(s.selected); !ok {
		s.selected = 0
	}
}

func (s *Session) zoneByID(id int) (model.Zone, bool) {
	return lo.Find(s.zones, func(z model.Zone) bool { return z.ID == id })
}

func zoneWithID(zones []model.Zone, id int) (model.Zone, bool) {
	return lo.Find(zones, func(z model.Zone) bool { return z.ID == id })
}

func belongsTo(entityID, deviceID string) bool {
	if deviceID == "" {
		return false
	}
	_, object := model.SplitEntityID(entityID)
	return strings.HasPrefix(object, deviceID+"_")
}

// Read accessors for the render layer. Only safe from the Run
// goroutine, same as every other model operation.

func (s *Session) Device() string                   { return s.deviceID }
func (s *Session) Zones() []model.Zone              { return s.zones }
func (s *Session) Targets() []model.Target          { return s.targets }
func (s *Session) Settings() []model.Setting        { return s.settings }
func (s *Session) SelectedID() int                  { return s.selected }
func (s *Session) ChannelState() model.ChannelState { return s.channelState }
