package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dialcal/internal/model"
)

func TestWeekOf(t *testing.T) {
	// Wednesday 2026-08-26.
	w := WeekOf(time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC))

	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), w.End)

	require.True(t, w.Contains(w.Start))
	require.True(t, w.Contains(time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)))
	require.False(t, w.Contains(w.End))
	require.False(t, w.Contains(w.Start.Add(-time.Minute)))
}

func TestWeekOfOnMonday(t *testing.T) {
	w := WeekOf(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestExpandDaily(t *testing.T) {
	ev := model.Event{
		ID:          "e1",
		Description: "standup",
		Start:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Repeat:      model.RepeatDay,
	}
	w := WeekOf(ev.Start)

	occs := Expand(ev, w)

	// The original (Mon) is not re-emitted; Tue through Sun remain.
	require.Len(t, occs, 6)
	require.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), occs[0].Start)
	require.Equal(t, time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC), occs[5].Start)

	for _, occ := range occs {
		require.Equal(t, model.RepeatNever, occ.Repeat)
		require.Equal(t, model.RepeatDay, occ.CheckRepeat)
		require.Equal(t, time.Hour, occ.End.Sub(occ.Start))
		require.Equal(t, "standup", occ.Description)
	}
}

func TestExpandWeekly(t *testing.T) {
	ev := model.Event{
		Description: "review",
		Start:       time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		Repeat:      model.RepeatWeek,
	}
	w := Window{
		Start: ev.Start,
		End:   ev.Start.AddDate(0, 0, 28),
	}

	occs := Expand(ev, w)

	require.Len(t, occs, 4)
	require.Equal(t, time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC), occs[0].Start)
	require.Equal(t, time.Date(2026, 3, 30, 14, 0, 0, 0, time.UTC), occs[3].Start)
}

func TestExpandMonthlyClampsToShortMonths(t *testing.T) {
	ev := model.Event{
		Description: "rent",
		Start:       time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 1, 31, 11, 0, 0, 0, time.UTC),
		Repeat:      model.RepeatMonth,
	}
	w := Window{
		Start: ev.Start,
		End:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	occs := Expand(ev, w)

	require.Len(t, occs, 3)
	// Jan 31 clamps to Feb 28 (2026 is not a leap year); the clamped
	// day then carries forward.
	require.Equal(t, time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC), occs[0].Start)
	require.Equal(t, time.Date(2026, 3, 28, 10, 0, 0, 0, time.UTC), occs[1].Start)
	require.Equal(t, time.Date(2026, 4, 28, 10, 0, 0, 0, time.UTC), occs[2].Start)
}

func TestExpandMonthlyLeapYear(t *testing.T) {
	ev := model.Event{
		Description: "rent",
		Start:       time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 1, 31, 11, 0, 0, 0, time.UTC),
		Repeat:      model.RepeatMonth,
	}
	w := Window{
		Start: ev.Start,
		End:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	occs := Expand(ev, w)

	require.Len(t, occs, 1)
	require.Equal(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), occs[0].Start)
}

func TestExpandMonthlyDecemberRollsOver(t *testing.T) {
	ev := model.Event{
		Description: "payday",
		Start:       time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 12, 15, 9, 30, 0, 0, time.UTC),
		Repeat:      model.RepeatMonth,
	}
	w := Window{
		Start: ev.Start,
		End:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	occs := Expand(ev, w)

	require.Len(t, occs, 1)
	require.Equal(t, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), occs[0].Start)
}

func TestExpandNonRepeatingIsEmpty(t *testing.T) {
	ev := model.Event{
		Description: "one-shot",
		Start:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Repeat:      model.RepeatNever,
	}

	require.Empty(t, Expand(ev, WeekOf(ev.Start)))
}
