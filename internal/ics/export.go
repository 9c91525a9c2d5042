package ics

import (
	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"dialcal/internal/model"
)

// Export serializes the collection as a VCALENDAR. iCalendar requires a
// globally unique UID per VEVENT; the store's short IDs are kept in a
// private property and each export gets a fresh uuid-based UID.
func Export(evs []model.Event) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//dialcal//dial calendar//EN")

	for _, ev := range evs {
		ve := cal.AddEvent(uuid.NewString())
		ve.SetSummary(ev.Description)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		if ev.Color != "" {
			ve.SetProperty(ical.ComponentProperty("COLOR"), ev.Color)
		}
		if ev.ID != "" {
			ve.SetProperty(ical.ComponentProperty("X-DIALCAL-ID"), ev.ID)
		}
		if rule := exportRRule(ev.Repeat); rule != "" {
			ve.AddRrule(rule)
		}
	}

	return []byte(cal.Serialize())
}

func exportRRule(r model.Repeat) string {
	switch r {
	case model.RepeatDay:
		return "FREQ=DAILY"
	case model.RepeatWeek:
		return "FREQ=WEEKLY"
	case model.RepeatMonth:
		return "FREQ=MONTHLY"
	}
	return ""
}
