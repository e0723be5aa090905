package event

import (
	"time"

	"github.com/roomkit/panelcore/pkg/timeutil"
)

// PrivacyLevel controls how much of a booking is shown on the panel.
type PrivacyLevel string

const (
	PrivacyPublic       PrivacyLevel = "public"
	PrivacyPrivate      PrivacyLevel = "private"
	PrivacyConfidential PrivacyLevel = "confidential"
)

// RedactedPlaceholder replaces the subject (and organizer for private
// bookings) of any non-public event before it reaches a display surface.
const RedactedPlaceholder = "Private"

// State holds per-event values derived from the clock and room settings.
// It is recomputed on every tick and never arrives from the feed.
type State struct {
	Countdown         timeutil.HMS
	MaxExtend         int
	VisibleEndNow     bool
	VisibleExtendNow  bool
	VisibleCheckInNow bool
}

// Event is one calendar booking on the room timeline.
type Event struct {
	ID         string
	InstanceID string
	Subject    string
	Organizer  string
	Start      time.Time
	End        time.Time

	CheckedIn   bool
	IsRecurring bool
	Privacy     PrivacyLevel

	// Derived display state, owned by the room store.
	Finished      bool
	Active        bool
	Selected      bool
	StartPosition float64
	Size          float64
	State         State
}

// IsCurrent reports whether the event occupies the room at the given time.
func (e Event) IsCurrent(now time.Time) bool {
	return !e.Start.After(now) && now.Before(e.End)
}

// Current returns the first event occupying the room at the given time, or
// nil. The feed guarantees events do not overlap, so the result is unique.
func Current(events []Event, now time.Time) *Event {
	for i := range events {
		if events[i].IsCurrent(now) {
			return &events[i]
		}
	}
	return nil
}

// Next returns the chronologically nearest event starting after now, or nil.
// Events are assumed to arrive in ascending start order.
func Next(events []Event, now time.Time) *Event {
	for i := range events {
		if events[i].Start.After(now) {
			return &events[i]
		}
	}
	return nil
}

// ApplyPrivacy redacts the subject of any non-public event. Private events
// additionally hide the organizer; confidential (and any other non-public
// level) keeps the organizer visible.
func ApplyPrivacy(e *Event) {
	if e == nil || e.Privacy == PrivacyPublic {
		return
	}

	e.Subject = RedactedPlaceholder
	if e.Privacy == PrivacyPrivate {
		e.Organizer = RedactedPlaceholder
	}
}
