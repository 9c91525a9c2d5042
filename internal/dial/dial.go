// Package dial maps clock time onto the widget's 24-hour circular face:
// angle conversion, sector derivation and polar hit-testing. Angles are
// degrees clockwise from the 0h (12 o'clock) reference.
package dial

import (
	"math"
	"time"
)

// Visible horizon around "now" for the actual-events view: sectors are
// clipped to it and the actuality window is derived from it.
const (
	PastHorizon   = 2 * time.Hour
	FutureHorizon = 10 * time.Hour
)

// TimeToAngle maps a clock time onto the dial. One hour is 15 degrees
// (a full day covers 360), so each minute is 0.5 degrees.
func TimeToAngle(t time.Time) float64 {
	deg := float64(t.Hour()*60+t.Minute()) * 0.5
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// SectorAngles derives the display sector for an event. When the raw
// start angle exceeds the end angle the sector crosses the 0 boundary;
// the start is shifted below zero so the sector is drawn through
// midnight rather than the long way around.
func SectorAngles(start, end time.Time) (startAngle, endAngle float64) {
	startAngle = TimeToAngle(start)
	endAngle = TimeToAngle(end)
	if startAngle > endAngle {
		startAngle -= 360
	}
	return startAngle, endAngle
}

// ClippedSectorAngles bounds the sector to the dial's visible horizon:
// a start more than PastHorizon before now is clamped to now-PastHorizon
// and an end more than FutureHorizon after now to now+FutureHorizon.
func ClippedSectorAngles(start, end, now time.Time) (startAngle, endAngle float64) {
	startAngle, endAngle = SectorAngles(start, end)
	if start.Before(now.Add(-PastHorizon)) {
		startAngle = TimeToAngle(now.Add(-PastHorizon))
	}
	if end.After(now.Add(FutureHorizon)) {
		endAngle = TimeToAngle(now.Add(FutureHorizon))
	}
	return startAngle, endAngle
}

// PointInSector reports whether the point (x, y) falls inside the sector
// of the circle centered at (cx, cy): within radius, and between
// startAngle and endAngle as produced by SectorAngles.
func PointInSector(x, y, cx, cy, radius, startAngle, endAngle float64) bool {
	dx := x - cx
	dy := y - cy
	if math.Hypot(dx, dy) > radius {
		return false
	}

	// Polar angle with 0 at 12 o'clock, increasing clockwise. Screen
	// coordinates grow downward, hence the negated dy.
	angle := math.Atan2(dx, -dy) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}

	if startAngle <= endAngle {
		// A negative start comes from the wrap normalization in
		// SectorAngles; points just left of 0h must be compared on the
		// same negative branch.
		if startAngle < 0 && angle > 270 {
			angle -= 360
		}
		return startAngle <= angle && angle <= endAngle
	}

	// Wrapping sector: inside when past the start or before the end.
	return angle >= startAngle || angle <= endAngle
}
