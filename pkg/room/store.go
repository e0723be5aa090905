package room

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/roomkit/panelcore/internal/event_bus"
	"github.com/roomkit/panelcore/internal/utils"
	"github.com/roomkit/panelcore/pkg/availability"
	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/roomstate"
	"github.com/roomkit/panelcore/pkg/timeline"
	"github.com/roomkit/panelcore/pkg/timeutil"
)

// maxExtendDisplay caps the extend value shown on the current meeting.
const maxExtendDisplay = 90

// Store is the single writer of the room view-model. Feed payloads and clock
// ticks arrive through the event bus and are applied one at a time; the HTTP
// surface reads concurrent snapshots under the read lock.
type Store struct {
	mu    sync.RWMutex
	clock utils.Clock

	settings roomstate.Settings
	geometry *timeline.Geometry
	events   []event.Event
	provider ProviderStatus

	pinned  bool
	flags   roomstate.Flags
	current *event.Event
	next    *event.Event
}

func NewStore(clock utils.Clock, settings roomstate.Settings, cfg timeline.Config) *Store {
	s := &Store{
		clock:    clock,
		settings: settings,
		geometry: timeline.NewGeometry(cfg),
	}
	s.recomputeLocked(clock.Now())
	return s
}

// Register subscribes the store to the bus events that mutate it.
func (s *Store) Register(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.ClockTicked, func(e event_bus.EventT[event_bus.ClockTick]) error {
		s.RecomputeAt(e.Data.Now)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.RoomEventsUpdated, func(e event_bus.EventT[[]event.Event]) error {
		s.ApplyEvents(e.Data)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.TimelineUpdated, func(e event_bus.EventT[timeline.Config]) error {
		s.ApplyTimeline(e.Data)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.ProviderStatusUpdated, func(e event_bus.EventT[ProviderStatus]) error {
		s.ApplyProviderStatus(e.Data)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.SettingsUpdated, func(e event_bus.EventT[roomstate.Settings]) error {
		s.ApplySettings(e.Data)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.ReservationRulesUpdated, func(e event_bus.EventT[availability.Rules]) error {
		s.ApplyBookingGrid(e.Data.Step, e.Data.EvenEndTime)
		return nil
	})
}

// ApplyEvents replaces the room's bookings. Privacy redaction happens here,
// before the events can reach any snapshot.
func (s *Store) ApplyEvents(events []event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	for i := range sorted {
		event.ApplyPrivacy(&sorted[i])
	}

	s.events = sorted
	log.Debugf("Applied %d room events", len(sorted))
	s.recomputeLocked(s.clock.Now())
}

// ApplyTimeline replaces the timeline layout parameters.
func (s *Store) ApplyTimeline(cfg timeline.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.geometry = timeline.NewGeometry(cfg)
	s.recomputeLocked(s.clock.Now())
}

// ApplyBookingGrid replaces the timeline's booking grid when the bridge
// pushes new reservation durations.
func (s *Store) ApplyBookingGrid(stepMinutes int, evenEndTime bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.geometry = s.geometry.WithGrid(stepMinutes, evenEndTime)
	s.recomputeLocked(s.clock.Now())
}

// ApplyProviderStatus records the calendar provider state reported by the
// bridge, including reachability and room occupancy sensing.
func (s *Store) ApplyProviderStatus(status ProviderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider.Online != status.Online {
		log.Infof("Calendar provider online: %t", status.Online)
	}
	s.provider = status
	s.recomputeLocked(s.clock.Now())
}

// ApplySettings replaces the room policies wholesale.
func (s *Store) ApplySettings(settings roomstate.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.recomputeLocked(s.clock.Now())
}

// Recompute re-derives the view-model from the store's own clock.
func (s *Store) Recompute() {
	s.RecomputeAt(s.clock.Now())
}

// RecomputeAt re-derives the view-model for the given time.
func (s *Store) RecomputeAt(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked(now)
}

// recomputeLocked rebuilds current/next, the button flags and the per-event
// derived state. The flag pass runs at most twice: once with the previous
// pin decision and once more when that decision flips.
func (s *Store) recomputeLocked(now time.Time) {
	actual := event.Current(s.events, now)
	next := event.Next(s.events, now)

	display := actual
	if s.pinned && actual == nil && next != nil {
		display = next
	}
	if actual != nil || next == nil {
		// A genuinely occupied or empty room cannot stay pinned.
		s.pinned = false
		display = actual
	}

	flags := s.flagsFor(now, display, next)
	if flags.PinNext && !s.pinned {
		s.pinned = true
		display = next
		flags = s.flagsFor(now, display, next)
	} else if flags.Unpin && s.pinned {
		s.pinned = false
		display = actual
		flags = s.flagsFor(now, display, next)
	}
	s.flags = flags

	s.current = s.decorateCurrent(now, display, next)
	s.next = s.decorateNext(now, next)
	s.decorateBlocks(now)
}

func (s *Store) flagsFor(now time.Time, current, next *event.Event) roomstate.Flags {
	return roomstate.Recompute(roomstate.Inputs{
		Now:      now,
		Current:  current,
		Next:     next,
		Online:   s.provider.Online,
		Settings: s.settings,
	})
}

// decorateCurrent copies the displayed current meeting and fills its derived
// state: the countdown to its end, the extend allowance and the button
// visibility owned by the flag pass.
func (s *Store) decorateCurrent(now time.Time, display, next *event.Event) *event.Event {
	if display == nil {
		return nil
	}

	c := *display
	c.Active = true
	c.State = event.State{
		Countdown:         roundTimeLeftTill(now, c.End),
		MaxExtend:         s.maxExtend(&c, next),
		VisibleEndNow:     s.flags.VisibleEndNow,
		VisibleExtendNow:  s.flags.VisibleExtendNow,
		VisibleCheckInNow: s.flags.VisibleCheckInNow && s.flags.CheckInTarget == roomstate.CheckInCurrent,
	}
	return &c
}

func (s *Store) decorateNext(now time.Time, next *event.Event) *event.Event {
	if next == nil {
		return nil
	}

	n := *next
	n.State = event.State{
		Countdown:         roundTimeLeftTill(now, n.Start),
		VisibleCheckInNow: s.flags.VisibleCheckInNow && s.flags.CheckInTarget == roomstate.CheckInNext,
	}
	return &n
}

// maxExtend is the extend allowance shown on the current meeting: zero while
// pinned, up to the next meeting otherwise, never more than the display cap.
func (s *Store) maxExtend(current, next *event.Event) int {
	if s.pinned {
		return 0
	}
	if next == nil {
		return maxExtendDisplay
	}

	minutes := min(maxExtendDisplay, timeutil.MinutesBetween(current.End, next.Start))
	if minutes < 1 {
		return 0
	}
	return minutes
}

func (s *Store) decorateBlocks(now time.Time) {
	for i := range s.events {
		e := &s.events[i]
		placement := s.geometry.PositionForEvent(*e)
		e.StartPosition = placement.Start
		e.Size = placement.Size
		e.Finished = !e.End.After(now)
		e.Active = e.IsCurrent(now)
	}
}

// Snapshot returns the room view-model for the UI shell.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:       s.statusLocked(),
		Online:       s.provider.Online,
		Occupied:     s.provider.Occupied,
		CurrentEvent: eventToDTO(s.current),
		NextEvent:    eventToDTO(s.next),
		Buttons:      flagsToButtons(s.flags),
	}
	if s.current != nil {
		snap.RemainingTime = remainingTimeString(s.clock.Now(), s.current.End)
	}
	return snap
}

// Timeline returns the pixel-resolved timeline view.
func (s *Store) Timeline() TimelineView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	view := TimelineView{
		Size:            s.geometry.Size(),
		NowPosition:     s.geometry.NowIndicator(now),
		SubBlockMinutes: s.geometry.SubBlockMinutes(),
		Blocks:          make([]BlockDTO, 0, len(s.events)),
	}
	for i := range s.events {
		e := s.events[i]
		view.Blocks = append(view.Blocks, BlockDTO{
			Event:    *eventToDTO(&e),
			Start:    e.StartPosition,
			Size:     e.Size,
			Finished: e.Finished,
			Active:   e.Active,
		})
	}
	return view
}

func (s *Store) statusLocked() Status {
	switch {
	case s.current != nil:
		return StatusReserved
	case s.next != nil:
		return StatusAvailable
	default:
		return StatusAvailableAllDay
	}
}

// IsReserved reports whether a meeting occupies the displayed room.
func (s *Store) IsReserved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// IsAvailable reports whether the room is free with more bookings ahead.
func (s *Store) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == nil && s.next != nil
}

// IsAvailableForRestOfDay reports whether no bookings remain today.
func (s *Store) IsAvailableForRestOfDay() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == nil && s.next == nil
}

// CurrentEvent returns a copy of the displayed current meeting, or nil.
func (s *Store) CurrentEvent() *event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// NextEvent returns a copy of the next meeting, or nil.
func (s *Store) NextEvent() *event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.next == nil {
		return nil
	}
	n := *s.next
	return &n
}

// Events returns a copy of the room's bookings in start order.
func (s *Store) Events() []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]event.Event, len(s.events))
	copy(events, s.events)
	return events
}

// Flags returns the current button flags.
func (s *Store) Flags() roomstate.Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// Online reports whether the calendar provider is reachable.
func (s *Store) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider.Online
}

// ProviderStatus returns the latest provider state pushed by the bridge.
func (s *Store) ProviderStatus() ProviderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// Pinned reports whether the displayed meeting is a promoted next meeting.
func (s *Store) Pinned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pinned
}

// remainingTimeString formats the time left until end, rounding the minute
// up so a meeting never shows zero while it is still running.
func remainingTimeString(now, end time.Time) string {
	left := timeutil.HMSBetween(now, end)
	if left.Hours > 0 {
		return fmt.Sprintf("%dh %dm", left.Hours, left.Minutes+1)
	}
	return fmt.Sprintf("%dm", left.Minutes+1)
}
