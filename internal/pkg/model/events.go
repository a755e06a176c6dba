package model

// Event is one unit of work for a session's dispatch loop. Gestures,
// channel messages and write completions all arrive as events so that
// no two handlers ever run concurrently against the same models.
type Event interface {
	event()
}

// DeviceSelected switches the active sensor. All zone and target state
// for the previous device is discarded and a full reload starts.
type DeviceSelected struct {
	DeviceID string
}

// StateChanged is one entity update pushed by the live state channel.
type StateChanged struct {
	EntityID string
	State    EntityState
}

// SnapshotLoaded delivers the result of a bulk entity load. Generation
// identifies the device selection that issued the request; stale
// results are dropped by the session.
type SnapshotLoaded struct {
	Generation uint64
	States     map[string]EntityState
	Err        error
}

// RefreshRequested asks the session to re-run the bulk load for the
// current device.
type RefreshRequested struct{}

// ChannelStatus reports a live channel state transition.
type ChannelStatus struct {
	State ChannelState
}

// Pointer events carry drawing-surface pixel coordinates.
type (
	PointerDown struct{ X, Y float64 }
	PointerMove struct{ X, Y float64 }
	PointerUp   struct{ X, Y float64 }
)

// WriteResult reports the settled outcome of an outbound write batch.
type WriteResult struct {
	Op       string
	DeviceID string
	ZoneID   int
	Err      error
}

func (DeviceSelected) event()   {}
func (StateChanged) event()     {}
func (SnapshotLoaded) event()   {}
func (RefreshRequested) event() {}
func (ChannelStatus) event()    {}
func (PointerDown) event()      {}
func (PointerMove) event()      {}
func (PointerUp) event()        {}
func (WriteResult) event()      {}
