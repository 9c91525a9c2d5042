package model

import (
	"strings"
	"time"
)

// Repeat is an event's recurrence rule. The retention policy reuses the
// same vocabulary for its grace periods, so Settings.AutoDelete shares
// this type.
type Repeat string

const (
	RepeatNever Repeat = "never"
	RepeatDay   Repeat = "day"
	RepeatWeek  Repeat = "week"
	RepeatMonth Repeat = "month"
)

// Valid reports whether r is one of the known repeat rules.
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNever, RepeatDay, RepeatWeek, RepeatMonth:
		return true
	}
	return false
}

// Event is one stored, user-authored calendar entry. IDs are assigned by
// the event service, never by callers.
//
// End may precede Start on the clock face (overnight events wrap through
// midnight); recurrence stepping assumes Start precedes End in duration
// terms.
type Event struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Color       string    `json:"color"`
	Repeat      Repeat    `json:"repeat"`
}

// Occurrence is one concrete instance of an event as it appears on the
// dial: either a stored event or an expansion of a repeating one.
// Expanded occurrences are never persisted; their Repeat is forced to
// "never" with CheckRepeat preserving the origin rule. Angles are in
// degrees clockwise from the dial's 0h reference.
type Occurrence struct {
	Event
	CheckRepeat Repeat  `json:"check_repeat"`
	StartAngle  float64 `json:"start_angle"`
	EndAngle    float64 `json:"end_angle"`
}

// FieldError identifies the field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "invalid field " + e.Field + ": " + e.Reason
}

// Validate checks the event's shape. Every stored event must pass this
// before it is written.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return &FieldError{Field: "description", Reason: "must be a non-empty string"}
	}
	if e.Start.IsZero() {
		return &FieldError{Field: "start", Reason: "must be a valid instant"}
	}
	if e.End.IsZero() {
		return &FieldError{Field: "end", Reason: "must be a valid instant"}
	}
	if !e.Repeat.Valid() {
		return &FieldError{Field: "repeat", Reason: "must be one of never|day|week|month"}
	}
	return nil
}

// Settings is the singleton user-configuration record: the retention
// rule applied by the sweep and the widget's color theme.
type Settings struct {
	AutoDelete Repeat `json:"auto_delete"`
	ColorTheme string `json:"color_theme"`
}

// Validate checks the settings' shape.
func (s Settings) Validate() error {
	if !s.AutoDelete.Valid() {
		return &FieldError{Field: "auto_delete", Reason: "must be one of never|day|week|month"}
	}
	if strings.TrimSpace(s.ColorTheme) == "" {
		return &FieldError{Field: "color_theme", Reason: "must be a non-empty string"}
	}
	return nil
}
