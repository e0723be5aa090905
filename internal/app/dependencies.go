package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/roomkit/panelcore/internal/config"
	"github.com/roomkit/panelcore/internal/event_bus"
	"github.com/roomkit/panelcore/internal/utils"
	"github.com/roomkit/panelcore/pkg/availability"
	"github.com/roomkit/panelcore/pkg/bridge"
	"github.com/roomkit/panelcore/pkg/reservation"
	"github.com/roomkit/panelcore/pkg/room"
	"github.com/roomkit/panelcore/pkg/roomstate"
	"github.com/roomkit/panelcore/pkg/timeline"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock  utils.Clock
	Ticker *utils.MinuteTicker
	Bus    *event_bus.EventBus

	Store       *room.Store
	RoomHandler *room.Handler
	FeedHandler *room.FeedHandler

	BridgeClient       bridge.Client
	AvailabilityEngine *availability.Engine
	ReservationService *reservation.Service
	ReservationHandler *reservation.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.Ticker = utils.NewMinuteTicker()
	deps.Bus = event_bus.NewEventBus()

	deps.Store = room.NewStore(deps.Clock, settingsFromConfig(cfg), timelineFromConfig(cfg))
	deps.Store.Register(deps.Bus)
	deps.RoomHandler = room.NewHandler(deps.Store)
	deps.FeedHandler = room.NewFeedHandler(deps.Bus)

	deps.BridgeClient = bridge.NewHTTPClient(cfg.Bridge.URL, time.Duration(cfg.Bridge.CommandTimeoutSec)*time.Second)
	deps.AvailabilityEngine = availability.NewEngine(rulesFromConfig(cfg))
	deps.ReservationService = reservation.NewService(deps.Store, deps.AvailabilityEngine, deps.BridgeClient, deps.Clock)
	deps.ReservationService.Register(deps.Bus)
	deps.ReservationHandler = reservation.NewHandler(deps.ReservationService)

	return deps
}

// StartClock publishes a bus event on every minute boundary so the store
// recomputes countdowns and button state. It returns the unsubscribe func.
func (d *Dependencies) StartClock() func() {
	return d.Ticker.Subscribe(func(now time.Time) {
		tick := event_bus.NewEvent(context.Background(), event_bus.ClockTicked, event_bus.ClockTick{Now: now})
		if err := d.Bus.Publish(tick); err != nil {
			log.Errorf("Clock tick processing failed: %v", err)
		}
	})
}

// settingsFromConfig maps the startup configuration onto the room policy
// set. The bridge may replace these at runtime through the config feed.
func settingsFromConfig(cfg config.Application) roomstate.Settings {
	return roomstate.Settings{
		AvailabilityThresholdEnabled: cfg.Room.AvailabilityThresholdRoomState,
		AvailabilityThresholdMin:     cfg.Room.AvailabilityThresholdMin,
		EndEarly: roomstate.ThresholdRule{
			Mode:    roomstate.ParseThresholdMode(cfg.Reservation.EndEarlyType),
			Minutes: cfg.Reservation.FreeUpRoomEnMin,
			Percent: cfg.Reservation.FreeUpRoomEnPer,
		},
		Extend: roomstate.ThresholdRule{
			Mode:    roomstate.ParseThresholdMode(cfg.Reservation.ExtendReservationType),
			Minutes: cfg.Reservation.ExtendReservationMinAfter,
			Percent: cfg.Reservation.ExtendReservationPerAfter,
		},
		ForceOrgCheckIn:              cfg.Automation.ForceOrgCheckIn,
		ForceOrgCheckInMin:           cfg.Automation.ForceOrgCheckInMin,
		ForceOrgCheckInEndMin:        cfg.Automation.ForceOrgCheckInEndMin,
		ReservedColorForCheckedIn:    cfg.Display.ReservedColorForCheckedIn,
		SupportsInstanceManipulation: true,
	}
}

func timelineFromConfig(cfg config.Application) timeline.Config {
	placement := timeline.PlacementHorizontal
	blockSize := cfg.Display.BlockHorizontalSize
	if cfg.Room.VerticalOrientation {
		placement = timeline.PlacementVertical
		blockSize = cfg.Display.BlockVerticalSize
	}

	return timeline.Config{
		Placement:   placement,
		BlockSize:   blockSize,
		Scale:       2,
		StartHour:   0,
		NrHours:     24,
		StepMinutes: cfg.Reservation.ReserveNowMinDur,
		EvenEndTime: cfg.Reservation.ReserveNowEvenEndTime,
	}
}

func rulesFromConfig(cfg config.Application) availability.Rules {
	return availability.Rules{
		Step:        cfg.Reservation.ReserveNowMinDur,
		MaxDuration: cfg.Reservation.ReserveNowMaxDur,
		EvenEndTime: cfg.Reservation.ReserveNowEvenEndTime,
		ExtendCap:   120,
	}
}
