package event

import (
	"time"

	"dialcal/internal/model"
)

// Counts partitions a collection by tense relative to a reference
// instant. The values are cumulative: Current includes Past and Future
// includes both, which is the shape the widget's stacked summary bar
// consumes directly.
type Counts struct {
	Past    int `json:"past"`
	Current int `json:"current"`
	Future  int `json:"future"`
}

// CountByTense counts events that have ended (end before now), are in
// progress (start <= now <= end) and have not started (start after now),
// folded into the cumulative Counts convention.
func CountByTense(evs []model.Event, now time.Time) Counts {
	var past, current, future int
	for _, ev := range evs {
		switch {
		case ev.End.Before(now):
			past++
		case ev.Start.After(now):
			future++
		default:
			current++
		}
	}
	return Counts{
		Past:    past,
		Current: past + current,
		Future:  past + current + future,
	}
}

// CountAll loads the full collection and counts it against the
// service's clock.
func (s *Service) CountAll() Counts {
	return CountByTense(s.All(), s.now())
}
