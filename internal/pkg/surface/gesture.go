package surface

import "math"

// DragThresholdPx is the minimum net displacement, in both axes, for a
// press-move-release sequence to commit a new zone. Anything smaller is
// treated as a click.
const DragThresholdPx = 20

// ActionKind classifies the outcome of a completed gesture.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClick
	ActionCreate
)

// Action is the result of a press-release sequence. Click carries the
// release point; Create carries the drag rectangle. All coordinates are
// surface pixels.
type Action struct {
	Kind ActionKind

	// ActionClick only.
	X, Y float64

	// ActionCreate only, normalized so X1<=X2 and Y1<=Y2.
	X1, Y1, X2, Y2 float64
}

// Gesture tracks one in-progress pointer interaction. It is driven from
// the session's single-threaded event loop and holds no locks.
type Gesture struct {
	active         bool
	startX, startY float64
	curX, curY     float64
}

func (g *Gesture) Down(x, y float64) {
	g.active = true
	g.startX, g.startY = x, y
	g.curX, g.curY = x, y
}

func (g *Gesture) Move(x, y float64) {
	if !g.active {
		return
	}
	g.curX, g.curY = x, y
}

// Up completes the gesture and reports what it amounted to. A release
// without a preceding press yields ActionNone.
func (g *Gesture) Up(x, y float64) Action {
	if !g.active {
		return Action{Kind: ActionNone}
	}
	g.active = false
	g.curX, g.curY = x, y

	dx := math.Abs(g.curX - g.startX)
	dy := math.Abs(g.curY - g.startY)
	if dx > DragThresholdPx && dy > DragThresholdPx {
		return Action{
			Kind: ActionCreate,
			X1:   math.Min(g.startX, g.curX),
			Y1:   math.Min(g.startY, g.curY),
			X2:   math.Max(g.startX, g.curX),
			Y2:   math.Max(g.startY, g.curY),
		}
	}
	return Action{Kind: ActionClick, X: g.curX, Y: g.curY}
}

// Active reports whether a press is currently being tracked.
func (g *Gesture) Active() bool {
	return g.active
}
