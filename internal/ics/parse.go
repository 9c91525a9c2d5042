package ics

import (
	"bytes"
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "dialcal/internal/log"
	"dialcal/internal/model"
)

// Parsed is one VEVENT mapped onto a dial event, keyed by its iCalendar
// UID for import de-duplication.
type Parsed struct {
	UID   string
	Event model.Event
}

// Parse converts an ICS payload into dial events. RRULEs are classified
// onto the dial's repeat vocabulary; a rule the dial cannot represent
// imports the base instance as a one-shot event. VEVENTs missing a UID
// or usable times are logged and skipped.
func Parse(src Source, body []byte) ([]Parsed, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	out := make([]Parsed, 0)
	for _, ve := range cal.Events() {
		p, perr := parseVEvent(ve)
		if perr != nil {
			// Skip this VEVENT but keep parsing the rest.
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		out = append(out, p)
	}

	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (Parsed, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return Parsed{}, errors.New("missing UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return Parsed{}, errors.New("unusable DTSTART")
	}
	end, err := ve.GetEndAt()
	if err != nil || end.IsZero() {
		// DTEND is optional; default to a one-hour slot on the dial.
		end = start.Add(time.Hour)
	}

	summary := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = p.Value
	}
	if summary == "" {
		return Parsed{}, errors.New("missing SUMMARY")
	}

	repeat := model.RepeatNever
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		repeat = classifyRRule(p.Value)
	}

	return Parsed{
		UID: uidProp.Value,
		Event: model.Event{
			Description: summary,
			Start:       start,
			End:         end,
			Repeat:      repeat,
		},
	}, nil
}

// classifyRRule maps an RFC 5545 RRULE onto the dial's repeat rules.
// Only single-interval DAILY/WEEKLY/MONTHLY rules have a dial
// equivalent; everything else (YEARLY, INTERVAL>1, unparseable) falls
// back to a one-shot import. Note the RFC monthly rule skips months
// lacking the anchor day while the dial clamps to the month's last day,
// a deliberate semantic difference accepted on import.
func classifyRRule(raw string) model.Repeat {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return model.RepeatNever
	}
	if r.OrigOptions.Interval > 1 {
		return model.RepeatNever
	}
	switch r.OrigOptions.Freq {
	case rrule.DAILY:
		return model.RepeatDay
	case rrule.WEEKLY:
		return model.RepeatWeek
	case rrule.MONTHLY:
		return model.RepeatMonth
	default:
		return model.RepeatNever
	}
}
