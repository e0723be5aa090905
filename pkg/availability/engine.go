package availability

import (
	"sync"
	"time"

	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/timeutil"
)

// tapGridMinutes is the sub-block grid used by timeline taps. A tapped time
// is pulled down to this grid before it becomes a reservation anchor.
const tapGridMinutes = 30

// Rules are the booking constraints for one room, resolved from
// configuration before the engine is built.
type Rules struct {
	// Step is the interval between offered times, in minutes. It doubles as
	// the minimum reservation duration.
	Step int
	// MaxDuration bounds a single reservation, in minutes.
	MaxDuration int
	// EvenEndTime snaps offered end times onto the step grid instead of
	// leaving a ragged remainder.
	EvenEndTime bool
	// ExtendCap bounds a single extension, in minutes.
	ExtendCap int
}

// Engine computes the legal start, end and extend windows for a room given
// its existing bookings. The caller supplies now. Rules can be replaced at
// runtime when the bridge pushes a new settings tree; each computation works
// on the rule set it started with.
type Engine struct {
	mu    sync.RWMutex
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// SetRules replaces the booking constraints.
func (e *Engine) SetRules(rules Rules) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

func (e *Engine) snapshot() Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// Anchor resolves the reservation starting point. A tapped timeline time is
// pulled down to the tap grid; plain "reserve now" starts from the current
// minute. The anchor never lies in the past and never inside a meeting that
// already ended after it started.
func (e *Engine) Anchor(now time.Time, tapped *time.Time, events []event.Event) time.Time {
	base := now
	raw := now
	if tapped != nil {
		raw = *tapped
		base = tapped.Add(-time.Duration(tapped.Minute()%tapGridMinutes) * time.Minute)
	}

	anchor := base
	if anchor.Before(now) {
		anchor = now
	}
	// The previous meeting is resolved against the raw tap time: pulling
	// the tap down to the grid must not pull it back inside a meeting that
	// was still running at the grid point.
	if prevEnd := previousMeetingEnd(raw, now, events); anchor.Before(prevEnd) {
		anchor = prevEnd
	}
	return anchor.Truncate(time.Minute)
}

// StartOptions returns the candidate reservation start times from anchor,
// spaced rules.Step apart, strictly before the next meeting (or midnight
// tomorrow) and never more than rules.MaxDuration out. Candidates inside an
// existing booking are skipped. The result always has at least one entry;
// with nothing else bookable it degrades to the anchor alone.
func (e *Engine) StartOptions(now, anchor time.Time, events []event.Event) []time.Time {
	rules := e.snapshot()
	if rules.Step <= 0 || rules.MaxDuration <= 0 {
		return []time.Time{anchor}
	}

	endOfDay := timeutil.MidnightTomorrow(now)
	boundary := nextMeetingStartOrMax(rules, anchor, now, events)
	count := min(rules.MaxDuration, timeutil.MinutesBetween(anchor, boundary)) / rules.Step

	options := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		candidate := timeutil.AddMinutes(anchor, i*rules.Step)
		if candidate.After(endOfDay) || insideBooking(candidate, events) {
			continue
		}
		options = append(options, candidate)
	}

	if len(options) == 0 {
		options = append(options, anchor)
	}
	return options
}

// EndOptions returns the candidate end times for a reservation starting at
// start. Candidates run from start in rules.Step increments up to the next
// meeting (or midnight tomorrow), capped at rules.MaxDuration past the
// reference point. When the boundary itself is not on the grid it is
// appended as the final option so a meeting can always be booked right up to
// the next one; with even end times enabled that final option is snapped to
// the grid first.
func (e *Engine) EndOptions(now, start time.Time, events []event.Event) []time.Time {
	rules := e.snapshot()
	if rules.Step <= 0 || rules.MaxDuration <= 0 {
		return nil
	}

	// With even end times the window is measured from the chosen start so
	// the grid stays aligned to it; otherwise from the current time.
	reference := now
	if rules.EvenEndTime {
		reference = start
	}

	endOfDay := timeutil.MidnightTomorrow(now)
	boundary := nextMeetingStartOrMax(rules, reference, now, events)

	var options []time.Time
	for i := 1; ; i++ {
		candidate := timeutil.AddMinutes(start, i*rules.Step)
		if candidate.After(boundary) || candidate.After(endOfDay) {
			break
		}
		if withinBookingWindow(candidate, events) {
			continue
		}
		options = append(options, candidate)
	}

	last := boundary
	if rules.EvenEndTime {
		last = timeutil.RoundToStep(boundary, rules.Step, boundary)
	}
	if last.After(start) && (len(options) == 0 || last.After(options[len(options)-1])) {
		options = append(options, last)
	}
	return options
}

// ExtendOptions returns the minute offsets an in-progress meeting may be
// extended by: rules.Step increments up to the next meeting (or midnight
// tomorrow), never more than rules.ExtendCap. When the remaining gap is not
// a step multiple the exact remainder becomes the final offset, so the last
// option always lands on the boundary instead of overshooting it.
func (e *Engine) ExtendOptions(now, currentEnd time.Time, nextStart *time.Time) []int {
	rules := e.snapshot()
	if rules.Step <= 0 {
		return nil
	}

	maxExtend := rules.ExtendCap
	if maxExtend <= 0 {
		maxExtend = 120
	}

	upper := timeutil.MidnightTomorrow(now)
	if nextStart != nil && nextStart.Before(upper) {
		upper = *nextStart
	}
	if capped := timeutil.AddMinutes(currentEnd, maxExtend); capped.Before(upper) {
		upper = capped
	}

	var offsets []int
	minutes := 0
	for t := currentEnd; t.Before(upper); {
		t = timeutil.AddMinutes(t, rules.Step)
		if !t.After(upper) {
			minutes += rules.Step
		} else {
			minutes = timeutil.MinutesBetween(currentEnd, upper)
		}
		offsets = append(offsets, minutes)
	}
	return offsets
}

// nextMeetingStartOrMax returns the start of the first meeting at or after
// ref, falling back to midnight tomorrow, and never more than
// rules.MaxDuration past ref (or past now, when ref is already gone).
func nextMeetingStartOrMax(rules Rules, ref, now time.Time, events []event.Event) time.Time {
	base := ref
	if base.Before(now) {
		base = now
	}
	maxDate := timeutil.AddMinutes(base, rules.MaxDuration)

	boundary := timeutil.MidnightTomorrow(now)
	for i := range events {
		if !events[i].Start.Before(ref) {
			boundary = events[i].Start
			break
		}
	}

	if maxDate.Before(boundary) {
		return maxDate
	}
	return boundary
}

// previousMeetingEnd returns the end of the last meeting finishing at or
// before date, falling back to midnight today.
func previousMeetingEnd(date, now time.Time, events []event.Event) time.Time {
	for i := len(events) - 1; i >= 0; i-- {
		if !events[i].End.After(date) {
			return events[i].End
		}
	}
	return timeutil.MidnightToday(now)
}

// insideBooking reports whether t falls inside any [start, end) window.
func insideBooking(t time.Time, events []event.Event) bool {
	for i := range events {
		if !t.Before(events[i].Start) && t.Before(events[i].End) {
			return true
		}
	}
	return false
}

// withinBookingWindow rejects end-time candidates landing strictly inside an
// existing booking. Ending exactly at another meeting's start is legal.
func withinBookingWindow(t time.Time, events []event.Event) bool {
	for i := range events {
		if t.After(events[i].Start) && t.Before(events[i].End) {
			return true
		}
	}
	return false
}
