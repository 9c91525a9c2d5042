package dial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, 8, 25, h, m, 0, 0, time.UTC)
}

func TestTimeToAngle(t *testing.T) {
	tests := []struct {
		name string
		h, m int
		want float64
	}{
		{name: "midnight", h: 0, m: 0, want: 0},
		{name: "six is a half turn", h: 6, m: 0, want: 180},
		{name: "noon wraps to zero", h: 12, m: 0, want: 0},
		{name: "half a degree per minute", h: 1, m: 30, want: 45},
		{name: "last minute of the day", h: 23, m: 59, want: 359.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, TimeToAngle(at(tc.h, tc.m)), 1e-9)
		})
	}
}

func TestSectorAngles(t *testing.T) {
	t.Run("plain daytime sector", func(t *testing.T) {
		sa, ea := SectorAngles(at(9, 0), at(17, 0))
		require.InDelta(t, 135, sa, 1e-9)
		require.InDelta(t, 255, ea, 1e-9)
	})

	t.Run("overnight sector wraps below zero", func(t *testing.T) {
		sa, ea := SectorAngles(at(22, 0), at(2, 0))
		require.InDelta(t, -30, sa, 1e-9)
		require.InDelta(t, 30, ea, 1e-9)
	})
}

func TestClippedSectorAngles(t *testing.T) {
	now := at(12, 0)

	t.Run("long-running start clamps to the past horizon", func(t *testing.T) {
		sa, _ := ClippedSectorAngles(at(5, 0), at(13, 0), now)
		require.InDelta(t, TimeToAngle(now.Add(-PastHorizon)), sa, 1e-9)
	})

	t.Run("distant end clamps to the future horizon", func(t *testing.T) {
		_, ea := ClippedSectorAngles(at(11, 0), at(23, 30), now)
		require.InDelta(t, TimeToAngle(now.Add(FutureHorizon)), ea, 1e-9)
	})

	t.Run("in-horizon sector is untouched", func(t *testing.T) {
		sa, ea := ClippedSectorAngles(at(11, 0), at(13, 0), now)
		require.InDelta(t, 165, sa, 1e-9)
		require.InDelta(t, 195, ea, 1e-9)
	})
}

func TestPointInSector(t *testing.T) {
	const cx, cy, r = 100, 100, 50

	tests := []struct {
		name   string
		x, y   float64
		sa, ea float64
		want   bool
	}{
		{name: "outside radius is never inside", x: 200, y: 100, sa: 0, ea: 360, want: false},
		{name: "bottom point in afternoon sector", x: 100, y: 140, sa: 135, ea: 255, want: true},
		{name: "top point outside afternoon sector", x: 100, y: 60, sa: 135, ea: 255, want: false},
		// Overnight sector normalized to [-30, 30]; a point at 350deg
		// sits just left of 0h and must match via the negative branch.
		{name: "wrapped point left of midnight", x: 93.054, y: 60.608, sa: -30, ea: 30, want: true},
		{name: "wrapped point right of midnight", x: 106.946, y: 60.608, sa: -30, ea: 30, want: true},
		{name: "point at 3h outside overnight sector", x: 140, y: 100, sa: -30, ea: 30, want: false},
		// Wrapping sector expressed the raw way (start > end).
		{name: "wrapping sector past start", x: 93.054, y: 60.608, sa: 350, ea: 10, want: true},
		{name: "wrapping sector before end", x: 106.946, y: 60.608, sa: 350, ea: 10, want: true},
		{name: "wrapping sector bottom excluded", x: 100, y: 140, sa: 350, ea: 10, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PointInSector(tc.x, tc.y, cx, cy, r, tc.sa, tc.ea)
			require.Equal(t, tc.want, got)
		})
	}
}
