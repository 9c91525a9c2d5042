// Package recur expands a repeating event into concrete occurrences
// within a bounded time window.
package recur

import (
	"time"

	"dialcal/internal/model"
)

// Safety cap so a pathological window can never loop unbounded.
const maxOccurrencesPerEvent = 10000

// Window is the time range occurrences are expanded into. Expansion is
// bounded by End inclusively; Contains treats End as exclusive (the
// week window is [Monday 00:00, next Monday 00:00)).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [w.Start, w.End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WeekOf returns the Monday-start week window containing ref, in ref's
// location.
func WeekOf(ref time.Time) Window {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, ref.Location())
	// Weekday with Monday as 0.
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return Window{Start: monday, End: monday.AddDate(0, 0, 7)}
}

// Expand produces the occurrences of a repeating event up to the window
// end. The stored original is not re-emitted: the first candidate is
// the original advanced by one step, and stepping continues while the
// candidate's start does not exceed w.End. Each occurrence carries
// Repeat="never" with CheckRepeat preserving the origin rule, so an
// occurrence can never be expanded again.
//
// The monthly step is recomputed on every iteration because month
// lengths vary; a fixed interval would drift.
func Expand(ev model.Event, w Window) []model.Occurrence {
	if ev.Repeat == model.RepeatNever || !ev.Repeat.Valid() {
		return nil
	}

	var out []model.Occurrence
	start, end := ev.Start, ev.End

	for len(out) < maxOccurrencesPerEvent {
		step := stepFor(ev.Repeat, start)
		start = start.Add(step)
		end = end.Add(step)
		if start.After(w.End) {
			break
		}

		occ := model.Occurrence{Event: ev, CheckRepeat: ev.Repeat}
		occ.Repeat = model.RepeatNever
		occ.Start = start
		occ.End = end
		out = append(out, occ)
	}

	return out
}

func stepFor(r model.Repeat, start time.Time) time.Duration {
	switch r {
	case model.RepeatDay:
		return 24 * time.Hour
	case model.RepeatWeek:
		return 7 * 24 * time.Hour
	case model.RepeatMonth:
		return monthStep(start)
	}
	return 0
}

// monthStep is the distance from start to the same day-of-month in the
// following month, clamped to that month's last day (Jan 31 steps to
// Feb 28, or Feb 29 in a leap year).
func monthStep(start time.Time) time.Duration {
	y, m, d := start.Date()

	last := lastDayOfMonth(y, m+1, start.Location())
	if d > last {
		d = last
	}

	next := time.Date(y, m+1, d,
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(),
		start.Location())
	return next.Sub(start)
}

// lastDayOfMonth relies on time.Date normalizing day 0 of the following
// month to the last day of m. Month overflow past December normalizes
// the same way.
func lastDayOfMonth(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
