// Package render draws the actual-events view as an SVG dial: a 24-hour
// face with one arc sector per occurrence and a hand at the current
// time.
package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"dialcal/internal/dial"
	"dialcal/internal/model"
)

// DefaultSize is the widget's canvas edge in pixels. FaceRadius derives
// the dial radius used for both drawing and hit-testing.
const (
	DefaultSize = 480
	faceRatio   = 0.45
)

// FaceRadius returns the dial radius for a given canvas size.
func FaceRadius(size int) float64 {
	return faceRatio * float64(size)
}

// Dial renders occurrences onto a size x size SVG canvas. Sectors are
// drawn from StartAngle-90 to EndAngle-90: the dial's angles measure
// from the 0h (top) reference while SVG measures from 3 o'clock, hence
// the fixed shift at this boundary.
func Dial(occs []model.Occurrence, now time.Time, size int) []byte {
	if size <= 0 {
		size = DefaultSize
	}
	c := float64(size) / 2
	r := FaceRadius(size)

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		size, size, size, size)
	fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#444" stroke-width="2"/>`+"\n", c, c, r)

	// Hour ticks every 15 degrees.
	for h := 0; h < 24; h++ {
		a := float64(h) * 15
		outer := pointAt(c, c, r, a)
		inner := pointAt(c, c, r*0.94, a)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#666" stroke-width="1"/>`+"\n",
			outer[0], outer[1], inner[0], inner[1])
	}

	for _, occ := range occs {
		b.Write(sectorPath(c, c, r, occ))
	}

	// Hand marking "now".
	tip := pointAt(c, c, r, dial.TimeToAngle(now))
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#d33" stroke-width="2"/>`+"\n",
		c, c, tip[0], tip[1])

	b.WriteString("</svg>\n")
	return b.Bytes()
}

// sectorPath emits one filled pie sector for an occurrence.
func sectorPath(cx, cy, r float64, occ model.Occurrence) []byte {
	span := occ.EndAngle - occ.StartAngle
	if span <= 0 {
		return nil
	}
	if span >= 360 {
		span = 359.999
	}

	start := pointAt(cx, cy, r, occ.StartAngle)
	end := pointAt(cx, cy, r, occ.StartAngle+span)
	large := 0
	if span > 180 {
		large = 1
	}
	color := occ.Color
	if color == "" {
		color = "#4f8df5"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b,
		`<path d="M %.1f %.1f L %.1f %.1f A %.1f %.1f 0 %d 1 %.1f %.1f Z" fill="%s" fill-opacity="0.55"/>`+"\n",
		cx, cy, start[0], start[1], r, r, large, end[0], end[1], color)
	return b.Bytes()
}

// pointAt converts a dial angle into canvas coordinates. The -90 shift
// moves SVG's 3 o'clock zero to the dial's 12 o'clock zero.
func pointAt(cx, cy, r, angle float64) [2]float64 {
	rad := (angle - 90) * math.Pi / 180
	return [2]float64{cx + r*math.Cos(rad), cy + r*math.Sin(rad)}
}
