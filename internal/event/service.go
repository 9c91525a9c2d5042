// Package event implements the scheduler core: CRUD over the persisted
// event collection, recurrence expansion, actuality filtering and the
// retention sweep.
package event

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"dialcal/internal/dial"
	appLog "dialcal/internal/log"
	"dialcal/internal/model"
	"dialcal/internal/recur"
	"dialcal/internal/settings"
	"dialcal/internal/store"
)

const eventsBlob = "events.json"

// Grace period before a non-repeating, ended event becomes eligible for
// the retention sweep, keyed by the configured auto-delete rule. An
// event is purged only when its end is strictly older than the grace
// period; "never" keeps everything.
var retentionGrace = map[model.Repeat]time.Duration{
	model.RepeatDay:   24 * time.Hour,
	model.RepeatWeek:  7 * 24 * time.Hour,
	model.RepeatMonth: 31 * 24 * time.Hour,
}

// Service owns the persisted event collection. All collaborators are
// injected; the service holds no global state. Every mutation follows
// read-modify-write: the full next collection is built in memory before
// the single atomic store write, so the persisted blob is never
// partially written.
type Service struct {
	blobs    *store.Store
	settings *settings.Store

	// now is the service's clock; tests substitute a frozen one.
	now func() time.Time

	// mu serializes every read-modify-write against the store and
	// guards the derived view. Serialization lives here, not in the
	// callers, so the HTTP handlers and the cron maintenance goroutine
	// can never interleave a load-filter-persist cycle.
	mu sync.Mutex

	// actual is the derived actual-events view. It has no independent
	// lifecycle: it is fully rebuilt by ListActual, which every
	// mutation triggers.
	actual []model.Occurrence
}

func New(blobs *store.Store, st *settings.Store) *Service {
	return &Service{
		blobs:    blobs,
		settings: st,
		now:      time.Now,
	}
}

// All returns the full persisted collection. Read failures and corrupt
// blobs degrade to an empty collection so display paths never fail.
// The blob write is atomic, so a plain read needs no lock.
func (s *Service) All() []model.Event {
	return s.loadAll()
}

func (s *Service) loadAll() []model.Event {
	data, ok, err := s.blobs.Read(eventsBlob)
	if err != nil {
		appLog.Error("events: read failed, using empty collection", err)
		return nil
	}
	if !ok {
		return nil
	}
	var evs []model.Event
	if err := json.Unmarshal(data, &evs); err != nil {
		appLog.Error("events: corrupt collection, using empty", err)
		return nil
	}
	return evs
}

func (s *Service) persist(evs []model.Event) error {
	if evs == nil {
		evs = []model.Event{}
	}
	data, err := json.MarshalIndent(evs, "", "  ")
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	if err := s.blobs.Write(eventsBlob, data); err != nil {
		return fmt.Errorf("events: persist: %w", err)
	}
	return nil
}

// Create validates the event, assigns it a fresh collision-checked ID,
// appends it and persists the collection. Validation and persistence
// failures abort the whole operation.
func (s *Service) Create(ev model.Event) (model.Event, error) {
	if err := ev.Validate(); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evs := s.loadAll()
	ev.ID = s.newID(evs)
	evs = append(evs, ev)
	if err := s.persist(evs); err != nil {
		return model.Event{}, err
	}
	s.rebuildActualLocked()
	return ev, nil
}

// Edit replaces the stored entry whose ID matches ev.ID. Stored records
// that fail validation are passed through unchanged rather than aborting
// the edit. Editing an unknown ID is a silent no-op.
func (s *Service) Edit(ev model.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evs := s.loadAll()
	for i, cur := range evs {
		if cur.Validate() != nil {
			continue
		}
		if cur.ID == ev.ID {
			evs[i] = ev
		}
	}
	if err := s.persist(evs); err != nil {
		return err
	}
	s.rebuildActualLocked()
	return nil
}

// Delete removes entries whose ID matches and drops records that fail
// validation along the way, then returns the resulting collection.
// Deleting an unknown ID is a silent no-op.
func (s *Service) Delete(id string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evs := s.loadAll()
	next := make([]model.Event, 0, len(evs))
	for _, cur := range evs {
		if cur.Validate() != nil {
			continue
		}
		if cur.ID == id {
			continue
		}
		next = append(next, cur)
	}
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.rebuildActualLocked()
	return next, nil
}

// ClearAll persists an empty collection. Write failures propagate.
func (s *Service) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(nil); err != nil {
		return err
	}
	s.rebuildActualLocked()
	return nil
}

// Sweep applies the retention policy: valid, non-repeating events whose
// end is in the past by strictly more than the configured grace period
// are dropped. Repeating events are never auto-deleted, and records that
// fail validation are left alone. The collection is persisted even when
// nothing changed.
func (s *Service) Sweep() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Service) sweepLocked() error {
	rule := s.settings.Load().AutoDelete
	now := s.now()

	evs := s.loadAll()
	next := make([]model.Event, 0, len(evs))
	dropped := 0
	for _, cur := range evs {
		if expired(cur, rule, now) {
			dropped++
			continue
		}
		next = append(next, cur)
	}
	if dropped > 0 {
		appLog.Info("retention sweep dropped events", "count", dropped, "rule", string(rule))
	}
	return s.persist(next)
}

func expired(ev model.Event, rule model.Repeat, now time.Time) bool {
	grace, ok := retentionGrace[rule]
	if !ok {
		return false
	}
	if ev.Validate() != nil {
		return false
	}
	if ev.Repeat != model.RepeatNever {
		return false
	}
	return now.Sub(ev.End) > grace
}

// ListForWeek returns every occurrence in the Monday-start week
// containing ref, sorted ascending by start. Repeating events are
// expanded into the week window; non-repeating events are included when
// their start falls inside [Monday 00:00, next Monday 00:00). The
// retention sweep runs first; a sweep failure degrades to listing the
// unswept collection.
func (s *Service) ListForWeek(ref time.Time) []model.Occurrence {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sweepLocked(); err != nil {
		appLog.Error("week listing: retention sweep failed", err)
	}

	w := recur.WeekOf(ref)
	evs := s.loadAll()
	out := make([]model.Occurrence, 0, len(evs))
	for _, ev := range evs {
		if ev.Validate() != nil {
			continue
		}
		if ev.Repeat != model.RepeatNever {
			out = append(out, recur.Expand(ev, w)...)
			continue
		}
		if w.Contains(ev.Start) {
			out = append(out, asOccurrence(ev))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// ListActual rebuilds and returns the derived actual-events view:
// occurrences relevant to the dial's visible horizon around now.
// Occurrences produced by recurrence expansion are appended
// unconditionally, bypassing the actuality predicate; every valid event
// that passes the predicate is appended with clipped display angles.
func (s *Service) ListActual() []model.Occurrence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildActualLocked()
}

func (s *Service) rebuildActualLocked() []model.Occurrence {
	if err := s.sweepLocked(); err != nil {
		appLog.Error("actual listing: retention sweep failed", err)
	}

	now := s.now()
	w := recur.Window{Start: now.Add(-dial.PastHorizon), End: now.Add(dial.FutureHorizon)}

	evs := s.loadAll()
	out := make([]model.Occurrence, 0, len(evs))
	for _, ev := range evs {
		// Invalid records neither expand nor draw, same as the week
		// listing.
		if ev.Validate() != nil {
			continue
		}
		if ev.Repeat != model.RepeatNever {
			for _, occ := range recur.Expand(ev, w) {
				occ.StartAngle, occ.EndAngle = dial.ClippedSectorAngles(occ.Start, occ.End, now)
				out = append(out, occ)
			}
		}
		if !isActual(ev, now) {
			continue
		}
		occ := asOccurrence(ev)
		occ.StartAngle, occ.EndAngle = dial.ClippedSectorAngles(ev.Start, ev.End, now)
		out = append(out, occ)
	}

	s.actual = out
	return out
}

// Actual returns the last built actual-events view without rebuilding.
func (s *Service) Actual() []model.Occurrence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actual
}

// isActual reports whether the event belongs on the dial right now: it
// starts within the next FutureHorizon and has not started yet, ended
// within the last PastHorizon, or is in progress (now within
// [start, end] inclusive).
func isActual(ev model.Event, now time.Time) bool {
	if ev.Start.After(now) && !ev.Start.After(now.Add(dial.FutureHorizon)) {
		return true
	}
	if !ev.End.After(now) && !ev.End.Before(now.Add(-dial.PastHorizon)) {
		return true
	}
	return !ev.Start.After(now) && !ev.End.Before(now)
}

func asOccurrence(ev model.Event) model.Occurrence {
	return model.Occurrence{Event: ev, CheckRepeat: ev.Repeat}
}

// newID generates a short unique token: the current timestamp in base 36
// followed by a random base-36 suffix, re-rolled until it collides with
// nothing in the collection about to be written. Two events created in
// the same millisecond still get distinct IDs.
func (s *Service) newID(evs []model.Event) string {
	for {
		id := strconv.FormatInt(s.now().UnixMilli(), 36) +
			strconv.FormatInt(rand.Int63n(1<<31), 36)
		if !hasID(evs, id) {
			return id
		}
	}
}

func hasID(evs []model.Event, id string) bool {
	for _, ev := range evs {
		if ev.ID == id {
			return true
		}
	}
	return false
}
