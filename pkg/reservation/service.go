package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/roomkit/panelcore/internal/event_bus"
	"github.com/roomkit/panelcore/internal/utils"
	"github.com/roomkit/panelcore/pkg/availability"
	"github.com/roomkit/panelcore/pkg/bridge"
	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/room"
	"github.com/roomkit/panelcore/pkg/roomstate"
)

var (
	// ErrActionInProgress is returned when a panel action is already awaiting
	// a bridge acknowledgement. The second tap is a no-op.
	ErrActionInProgress = errors.New("another action is already in progress")

	// ErrRoomNotAvailable rejects reservation attempts while the room sits in
	// the forced-reserved window before the next meeting.
	ErrRoomNotAvailable = errors.New("room is not available for reservation")

	ErrNoCurrentEvent   = errors.New("no meeting is currently in progress")
	ErrNothingToCheckIn = errors.New("no meeting is awaiting check-in")
	ErrInvalidDraft     = errors.New("reservation draft is invalid")
)

// Defaults used when the panel submits a draft without text fields.
const (
	defaultSubject   = "Ad-hoc meeting"
	defaultOrganizer = "Room panel"
)

// Draft is a reservation as assembled on the panel before submission.
type Draft struct {
	Subject   string
	Organizer string
	Start     time.Time
	End       time.Time
}

// Options is the reservation window offered for one anchor point.
type Options struct {
	Anchor       time.Time
	StartOptions []time.Time
	EndOptions   []time.Time
}

// Service runs the reservation flow: option generation against the room's
// bookings and command submission through the bridge. A single in-flight
// guard covers all mutating actions.
type Service struct {
	store    *room.Store
	engine   *availability.Engine
	bridge   bridge.Client
	clock    utils.Clock
	inFlight atomic.Bool
}

func NewService(store *room.Store, engine *availability.Engine, bridgeClient bridge.Client, clock utils.Clock) *Service {
	return &Service{
		store:  store,
		engine: engine,
		bridge: bridgeClient,
		clock:  clock,
	}
}

// Register subscribes the service to rule changes pushed through the bridge
// config feed, so option generation follows the panel's current durations.
func (s *Service) Register(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.ReservationRulesUpdated, func(e event_bus.EventT[availability.Rules]) error {
		log.Infof("Updating reservation rules: step %d, max %d", e.Data.Step, e.Data.MaxDuration)
		s.engine.SetRules(e.Data)
		return nil
	})
}

// Options resolves the anchor for a reservation attempt and the start and
// end times bookable from it. A timeline tap lands on tapped; plain
// "reserve now" passes nil. Taps are rejected while the room is pinned into
// the forced-reserved window.
func (s *Service) Options(tapped *time.Time, start *time.Time) (Options, error) {
	if s.store.Pinned() {
		return Options{}, ErrRoomNotAvailable
	}

	now := s.clock.Now()
	events := s.store.Events()
	anchor := s.engine.Anchor(now, tapped, events)

	endFrom := anchor
	if start != nil {
		endFrom = *start
	}

	return Options{
		Anchor:       anchor,
		StartOptions: s.engine.StartOptions(now, anchor, events),
		EndOptions:   s.engine.EndOptions(now, endFrom, events),
	}, nil
}

// ExtendOptions returns the minute offsets the current meeting can be
// extended by.
func (s *Service) ExtendOptions() ([]int, error) {
	current := s.store.CurrentEvent()
	if current == nil {
		return nil, ErrNoCurrentEvent
	}

	var nextStart *time.Time
	if next := s.store.NextEvent(); next != nil && next.ID != current.ID {
		nextStart = &next.Start
	}
	return s.engine.ExtendOptions(s.clock.Now(), current.End, nextStart), nil
}

// Create submits a new reservation. Blank subject and organizer fall back to
// the panel defaults.
func (s *Service) Create(ctx context.Context, draft Draft) error {
	if !draft.Start.Before(draft.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidDraft, draft.Start, draft.End)
	}
	if s.store.Pinned() {
		return ErrRoomNotAvailable
	}

	if draft.Subject == "" {
		draft.Subject = defaultSubject
	}
	if draft.Organizer == "" {
		draft.Organizer = defaultOrganizer
	}

	return s.guarded(func() error {
		log.Infof("Creating reservation %s - %s", draft.Start.Format(time.RFC3339), draft.End.Format(time.RFC3339))
		return s.bridge.CreateEvent(ctx, bridge.CreateEventRequest{
			Subject:   draft.Subject,
			Organizer: draft.Organizer,
			Start:     draft.Start,
			End:       draft.End,
		})
	})
}

// ExtendCurrent pushes the end of the in-progress meeting out by the given
// number of minutes.
func (s *Service) ExtendCurrent(ctx context.Context, minutes int) error {
	current := s.store.CurrentEvent()
	if current == nil {
		return ErrNoCurrentEvent
	}
	if minutes <= 0 {
		return fmt.Errorf("%w: extend minutes must be positive", ErrInvalidDraft)
	}

	return s.guarded(func() error {
		log.Infof("Extending meeting %s by %d minutes", current.ID, minutes)
		return s.bridge.ExtendEvent(ctx, eventRef(current), minutes)
	})
}

// EndCurrent ends the in-progress meeting now.
func (s *Service) EndCurrent(ctx context.Context) error {
	current := s.store.CurrentEvent()
	if current == nil {
		return ErrNoCurrentEvent
	}

	return s.guarded(func() error {
		log.Infof("Ending meeting %s", current.ID)
		return s.bridge.EndEvent(ctx, eventRef(current))
	})
}

// CheckIn confirms attendance for whichever meeting the button currently
// targets.
func (s *Service) CheckIn(ctx context.Context) error {
	flags := s.store.Flags()
	if !flags.VisibleCheckInNow {
		return ErrNothingToCheckIn
	}

	target := s.store.CurrentEvent()
	if flags.CheckInTarget == roomstate.CheckInNext {
		target = s.store.NextEvent()
	}
	if target == nil {
		return ErrNothingToCheckIn
	}

	return s.guarded(func() error {
		log.Infof("Checking in meeting %s", target.ID)
		return s.bridge.CheckInEvent(ctx, eventRef(target))
	})
}

// SearchRoom forwards an available-room search to the bridge.
func (s *Service) SearchRoom(ctx context.Context, start time.Time, duration int) error {
	return s.guarded(func() error {
		log.Infof("Searching rooms from %s for %d minutes", start.Format(time.RFC3339), duration)
		return s.bridge.RoomSearch(ctx, bridge.SearchRequest{Start: start, Duration: duration})
	})
}

// guarded runs fn unless another action already holds the in-flight slot.
func (s *Service) guarded(fn func() error) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Debug("Dropping action, another one is in flight")
		return ErrActionInProgress
	}
	defer s.inFlight.Store(false)
	return fn()
}

func eventRef(e *event.Event) bridge.EventRef {
	return bridge.EventRef{EventID: e.ID, InstanceID: e.InstanceID}
}
