package roomstate

import (
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/timeutil"
)

// ThresholdMode selects how the end-early / extend visibility threshold is
// measured. The string form from configuration is decided once at load time.
type ThresholdMode int

const (
	ThresholdOff ThresholdMode = iota
	ThresholdMinutes
	ThresholdPercentage
)

// ParseThresholdMode maps the configuration strings "minutes", "percentage"
// and "off" (any case) onto the closed enum. Unknown values disable the rule.
func ParseThresholdMode(s string) ThresholdMode {
	switch strings.ToLower(s) {
	case "minutes":
		return ThresholdMinutes
	case "percentage":
		return ThresholdPercentage
	default:
		return ThresholdOff
	}
}

// ThresholdRule is one elapsed/remaining-time rule with its resolved mode.
type ThresholdRule struct {
	Mode    ThresholdMode
	Minutes int
	Percent int
}

// Settings are the room policies the state machine evaluates. They come out
// of configuration and are replaced wholesale when a config payload arrives.
type Settings struct {
	AvailabilityThresholdEnabled bool
	AvailabilityThresholdMin     int

	EndEarly ThresholdRule
	Extend   ThresholdRule

	ForceOrgCheckIn       bool
	ForceOrgCheckInMin    int
	ForceOrgCheckInEndMin int

	ReservedColorForCheckedIn bool

	ReadOnly                     bool
	SupportsInstanceManipulation bool
}

// CheckInTarget names which event the check-in button applies to.
type CheckInTarget int

const (
	CheckInNone CheckInTarget = iota
	CheckInCurrent
	CheckInNext
)

// Flags is the full derived button state for one room. Recomputed wholesale
// on every trigger, never incrementally maintained.
type Flags struct {
	VisibleEndNow     bool
	VisibleExtendNow  bool
	VisibleCheckInNow bool
	CheckInTarget     CheckInTarget

	DisableEnd        bool
	DisableExtend     bool
	DisableCheckIn    bool
	DisableFindRoom   bool
	DisableReserveNow bool

	// PinNext asks the store to display the next meeting as current before
	// it starts; Unpin reverts a pinned view back to Available.
	PinNext bool
	Unpin   bool
}

// Inputs is everything a recompute reads. Current and Next may be nil.
type Inputs struct {
	Now      time.Time
	Current  *event.Event
	Next     *event.Event
	Online   bool
	Settings Settings
}

// Recompute derives the complete flag set from the inputs. It is pure and
// idempotent: the same inputs always produce the same flags.
func Recompute(in Inputs) Flags {
	flags := Flags{
		VisibleEndNow:    visibleEndNow(in),
		VisibleExtendNow: visibleExtendNow(in),
	}
	flags.VisibleCheckInNow, flags.CheckInTarget = visibleCheckIn(in)

	flags.DisableEnd = disableEnd(in)
	flags.DisableExtend = disableExtend(in)
	flags.DisableCheckIn = disableCheckIn(in, flags.CheckInTarget)
	flags.DisableFindRoom = !in.Online
	flags.DisableReserveNow = !in.Online

	flags.PinNext, flags.Unpin = forcedReserved(in)
	return flags
}

// pinned reports whether the displayed current meeting is actually the next
// meeting promoted by a forced-reserved policy.
func pinned(in Inputs) bool {
	if !in.Settings.AvailabilityThresholdEnabled && !in.Settings.ReservedColorForCheckedIn {
		return false
	}
	return in.Current != nil && in.Next != nil && in.Current.ID == in.Next.ID
}

func visibleEndNow(in Inputs) bool {
	s := in.Settings
	if s.ReadOnly || in.Current == nil {
		return false
	}
	if in.Current.IsRecurring && !s.SupportsInstanceManipulation {
		return false
	}
	if pinned(in) {
		return false
	}
	if s.EndEarly.Mode == ThresholdOff {
		return false
	}

	total := timeutil.MinutesBetween(in.Current.Start, in.Current.End)
	elapsed := 0
	if in.Now.After(in.Current.Start) {
		elapsed = timeutil.MinutesBetween(in.Current.Start, in.Now)
	}

	switch s.EndEarly.Mode {
	case ThresholdMinutes:
		return elapsed >= s.EndEarly.Minutes
	case ThresholdPercentage:
		return float64(elapsed) >= float64(s.EndEarly.Percent)/100*float64(total)
	}
	return false
}

func visibleExtendNow(in Inputs) bool {
	s := in.Settings
	if s.ReadOnly || in.Current == nil {
		return false
	}
	if in.Current.IsRecurring && !s.SupportsInstanceManipulation {
		return false
	}
	if pinned(in) {
		return false
	}
	if s.Extend.Mode == ThresholdOff {
		return false
	}

	total := timeutil.MinutesBetween(in.Current.Start, in.Current.End)
	elapsed := 0
	if in.Now.After(in.Current.Start) {
		elapsed = timeutil.MinutesBetween(in.Current.Start, in.Now)
	}
	remaining := total - elapsed
	if remaining <= 0 {
		return false
	}

	threshold := 0
	switch s.Extend.Mode {
	case ThresholdMinutes:
		threshold = s.Extend.Minutes
	case ThresholdPercentage:
		threshold = int(math.Max(1, math.Round(float64(s.Extend.Percent)/100*float64(total))))
	}
	return threshold >= remaining
}

func visibleCheckIn(in Inputs) (bool, CheckInTarget) {
	s := in.Settings
	if !s.ForceOrgCheckIn {
		return false, CheckInNone
	}

	if in.Current != nil {
		// Reserved: the current meeting is checkable within the window
		// following its start; after that the next meeting takes over.
		elapsed := -1
		if in.Now.After(in.Current.Start) {
			elapsed = timeutil.MinutesBetween(in.Current.Start, in.Now)
		}
		if s.ForceOrgCheckInEndMin > 0 && elapsed >= 0 && elapsed < s.ForceOrgCheckInEndMin {
			return true, CheckInCurrent
		}
		if nextWithinCheckInWindow(in) {
			return true, CheckInNext
		}
		return false, CheckInNone
	}

	if in.Next != nil && nextWithinCheckInWindow(in) {
		return true, CheckInNext
	}
	return false, CheckInNone
}

// nextWithinCheckInWindow reports whether the next meeting starts within the
// forced check-in window. The comparison is inclusive: with a 10 minute
// window the button appears when the meeting starts in exactly 10 minutes.
func nextWithinCheckInWindow(in Inputs) bool {
	s := in.Settings
	if in.Next == nil || s.ForceOrgCheckInMin <= 0 {
		return false
	}
	return timeutil.MinutesBetween(in.Now, in.Next.Start) <= s.ForceOrgCheckInMin
}

func disableEnd(in Inputs) bool {
	if !in.Online {
		return true
	}
	return in.Current != nil && in.Current.IsRecurring && !in.Settings.SupportsInstanceManipulation
}

func disableExtend(in Inputs) bool {
	if !in.Online {
		return true
	}
	if in.Current != nil && in.Current.IsRecurring && !in.Settings.SupportsInstanceManipulation {
		return true
	}
	// Zero gap to the next meeting leaves nothing to extend into.
	if in.Current != nil && in.Next != nil && timeutil.MinutesBetween(in.Current.End, in.Next.Start) == 0 {
		return true
	}
	return false
}

func disableCheckIn(in Inputs, target CheckInTarget) bool {
	if !in.Online {
		return true
	}
	switch target {
	case CheckInCurrent:
		return in.Current.CheckedIn
	case CheckInNext:
		return in.Next.CheckedIn
	}
	return false
}

// forcedReserved decides promotion into and demotion out of the pinned
// Reserved view. Promotion applies only to an Available room (no current
// meeting, a next meeting present); demotion only to an already pinned one.
func forcedReserved(in Inputs) (pin, unpin bool) {
	s := in.Settings

	minutesToNext := 0
	if in.Next != nil {
		minutesToNext = timeutil.MinutesBetween(in.Now, in.Next.Start)
	} else {
		minutesToNext = timeutil.MinutesBetween(in.Now, timeutil.MidnightTomorrow(in.Now))
	}

	thresholdActive := s.AvailabilityThresholdEnabled && minutesToNext <= s.AvailabilityThresholdMin

	checkInActive := false
	if s.ForceOrgCheckIn && s.ReservedColorForCheckedIn &&
		minutesToNext <= s.ForceOrgCheckInMin &&
		in.Next != nil && in.Next.CheckedIn {
		checkInActive = true
	}

	if in.Current == nil && in.Next != nil {
		if thresholdActive || checkInActive {
			log.Debug("Room within forced-reserved window, promoting next meeting")
			return true, false
		}
		return false, false
	}

	if pinned(in) && !thresholdActive && !checkInActive {
		log.Debug("Forced-reserved conditions cleared, reverting to available")
		return false, true
	}
	return false, false
}
