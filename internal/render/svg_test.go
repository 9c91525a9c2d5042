package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dialcal/internal/model"
)

func TestDialEmitsOneSectorPerOccurrence(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	occs := []model.Occurrence{
		{Event: model.Event{Description: "a", Color: "#ff8800"}, StartAngle: 150, EndAngle: 195},
		{Event: model.Event{Description: "b"}, StartAngle: -30, EndAngle: 30},
	}

	out := string(Dial(occs, now, DefaultSize))

	require.True(t, strings.HasPrefix(out, "<svg"))
	require.Contains(t, out, "</svg>")
	require.Equal(t, 2, strings.Count(out, "<path"))
	require.Contains(t, out, `fill="#ff8800"`)
	// 24 hour ticks plus the hand.
	require.Equal(t, 25, strings.Count(out, "<line"))
}

func TestDialSkipsDegenerateSectors(t *testing.T) {
	occs := []model.Occurrence{
		{Event: model.Event{Description: "zero span"}, StartAngle: 90, EndAngle: 90},
	}

	out := string(Dial(occs, time.Now(), 0))
	require.Zero(t, strings.Count(out, "<path"))
}

func TestFaceRadius(t *testing.T) {
	require.InDelta(t, 216.0, FaceRadius(480), 1e-9)
}
