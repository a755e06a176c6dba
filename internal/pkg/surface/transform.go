// Package surface maps between sensor space (millimetres, origin at the
// sensor, Y increasing away from it) and a 2-D drawing surface (pixels,
// Y increasing downward).
package surface

import "math"

// SensorSpanMM is the fixed radius of the visual range circle. Scaling
// uses this constant rather than the device's configured max_distance.
const SensorSpanMM = 6000

// originBottomOffsetPx keeps the sensor origin clear of the bottom edge
// so targets right at the sensor stay visible.
const originBottomOffsetPx = 30

// Transform is a bidirectional mapping parameterized by surface size.
type Transform struct {
	Width  float64
	Height float64
}

func NewTransform(width, height float64) Transform {
	return Transform{Width: width, Height: height}
}

// Scale is pixels per millimetre across the full sensor span.
func (t Transform) Scale() float64 {
	return math.Min(t.Width, t.Height) / (2 * SensorSpanMM)
}

// ToSurface converts a sensor-space point to surface pixels. The origin
// sits at the horizontal centre, a fixed offset up from the bottom edge.
func (t Transform) ToSurface(mmX, mmY float64) (px, py float64) {
	s := t.Scale()
	px = t.Width/2 + mmX*s
	py = (t.Height - originBottomOffsetPx) - mmY*s
	return px, py
}

// RectToSurface converts an axis-aligned sensor-space rectangle given by
// two corners in any order. Width and height are always non-negative.
func (t Transform) RectToSurface(mmX1, mmY1, mmX2, mmY2 float64) (px, py, w, h float64) {
	ax, ay := t.ToSurface(mmX1, mmY1)
	bx, by := t.ToSurface(mmX2, mmY2)
	px = math.Min(ax, bx)
	py = math.Min(ay, by)
	w = math.Abs(bx - ax)
	h = math.Abs(by - ay)
	return px, py, w, h
}

// ToSensor converts a surface pixel back to integer millimetres. It is
// the exact inverse of ToSurface for points, within integer rounding.
func (t Transform) ToSensor(px, py float64) (mmX, mmY int) {
	s := t.Scale()
	mmX = int(math.Round((px - t.Width/2) / s))
	mmY = int(math.Round(((t.Height - originBottomOffsetPx) - py) / s))
	return mmX, mmY
}
