package event_bus

import "time"

const (
	// TimelineUpdated is published after the bridge delivers a fresh
	// timeline layout payload.
	TimelineUpdated EventType = "timeline.updated"

	// RoomEventsUpdated is published after the bridge delivers a new set
	// of calendar events for the room.
	RoomEventsUpdated EventType = "room.events.updated"

	// ProviderStatusUpdated is published when the calendar provider's
	// online state changes.
	ProviderStatusUpdated EventType = "provider.status.updated"

	// SettingsUpdated is published after the bridge pushes panel settings.
	SettingsUpdated EventType = "settings.updated"

	// ReservationRulesUpdated is published when a settings push carries new
	// reservation durations for the booking engine.
	ReservationRulesUpdated EventType = "reservation.rules.updated"

	// ClockTicked is published once per minute with a ClockTick payload.
	ClockTicked EventType = "clock.ticked"
)

// ClockTick is the payload of ClockTicked events.
type ClockTick struct {
	Now time.Time
}
