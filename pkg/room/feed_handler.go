package room

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/roomkit/panelcore/internal/event_bus"
	"github.com/roomkit/panelcore/internal/rest"
	"github.com/roomkit/panelcore/pkg/availability"
	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/roomstate"
	"github.com/roomkit/panelcore/pkg/timeline"
)

// ConfigPayload is the room policy document the bridge pushes on connect and
// whenever the panel settings change.
type ConfigPayload struct {
	Room struct {
		AvailabilityThresholdRoomState bool `json:"availabilityThresholdRoomState"`
		AvailabilityThresholdMin       int  `json:"availabilityThresholdMin"`
	} `json:"room"`
	Reservation struct {
		ReserveNowMinDur          int    `json:"reserveNowMinDur"`
		ReserveNowMaxDur          int    `json:"reserveNowMaxDur"`
		ReserveNowEvenEndTime     bool   `json:"reserveNowEvenEndTime"`
		EndEarlyType              string `json:"endEarlyType"`
		FreeUpRoomEnMin           int    `json:"freeUpRoomEnMin"`
		FreeUpRoomEnPer           int    `json:"freeUpRoomEnPer"`
		ExtendReservationType     string `json:"extendReservationType"`
		ExtendReservationMinAfter int    `json:"extendReservationMinAfter"`
		ExtendReservationPerAfter int    `json:"extendReservationPerAfter"`
	} `json:"reservation"`
	Automation struct {
		ForceOrgCheckIn       bool `json:"forceOrgCheckIn"`
		ForceOrgCheckInMin    int  `json:"forceOrgCheckInMin"`
		ForceOrgCheckInEndMin int  `json:"forceOrgCheckInEndMin"`
	} `json:"automation"`
	Display struct {
		ReservedColorForCheckedIn bool `json:"reservedColorForCheckedIn"`
	} `json:"display"`
	ReadOnly                     bool `json:"readOnly"`
	SupportsInstanceManipulation bool `json:"supportsInstanceManipulation"`
}

// Settings maps the payload onto the room policy set the state machine uses.
// Threshold type strings are decided here, once, at the feed boundary.
func (p ConfigPayload) Settings() roomstate.Settings {
	return roomstate.Settings{
		AvailabilityThresholdEnabled: p.Room.AvailabilityThresholdRoomState,
		AvailabilityThresholdMin:     p.Room.AvailabilityThresholdMin,
		EndEarly: roomstate.ThresholdRule{
			Mode:    roomstate.ParseThresholdMode(p.Reservation.EndEarlyType),
			Minutes: p.Reservation.FreeUpRoomEnMin,
			Percent: p.Reservation.FreeUpRoomEnPer,
		},
		Extend: roomstate.ThresholdRule{
			Mode:    roomstate.ParseThresholdMode(p.Reservation.ExtendReservationType),
			Minutes: p.Reservation.ExtendReservationMinAfter,
			Percent: p.Reservation.ExtendReservationPerAfter,
		},
		ForceOrgCheckIn:              p.Automation.ForceOrgCheckIn,
		ForceOrgCheckInMin:           p.Automation.ForceOrgCheckInMin,
		ForceOrgCheckInEndMin:        p.Automation.ForceOrgCheckInEndMin,
		ReservedColorForCheckedIn:    p.Display.ReservedColorForCheckedIn,
		ReadOnly:                     p.ReadOnly,
		SupportsInstanceManipulation: p.SupportsInstanceManipulation,
	}
}

// HasRules reports whether the payload carries usable reservation durations.
// Config trees without them keep the engine's current rules.
func (p ConfigPayload) HasRules() bool {
	return p.Reservation.ReserveNowMinDur > 0 && p.Reservation.ReserveNowMaxDur > 0
}

// Rules maps the payload's reservation durations onto booking constraints.
func (p ConfigPayload) Rules() availability.Rules {
	return availability.Rules{
		Step:        p.Reservation.ReserveNowMinDur,
		MaxDuration: p.Reservation.ReserveNowMaxDur,
		EvenEndTime: p.Reservation.ReserveNowEvenEndTime,
		ExtendCap:   120,
	}
}

// TimelinePayload carries the timeline layout parameters.
type TimelinePayload struct {
	Placement   string  `json:"placement"`
	BlockSize   int     `json:"blockSize"`
	Scale       int     `json:"scale"`
	StartHour   int     `json:"startHour"`
	NrHours     int     `json:"nrHours"`
	Viewport    float64 `json:"viewport"`
	RTL         bool    `json:"rtl"`
	StepMinutes int     `json:"stepMinutes"`
	EvenEndTime bool    `json:"evenEndTime"`
}

func (p TimelinePayload) Config() timeline.Config {
	return timeline.Config{
		Placement:   timeline.Placement(p.Placement),
		BlockSize:   p.BlockSize,
		Scale:       p.Scale,
		StartHour:   p.StartHour,
		NrHours:     p.NrHours,
		Viewport:    p.Viewport,
		RTL:         p.RTL,
		StepMinutes: p.StepMinutes,
		EvenEndTime: p.EvenEndTime,
	}
}

// EventsPayload carries the room's bookings as the bridge delivers them.
type EventsPayload struct {
	Events []event.RawEvent `json:"events"`
}

// ProviderStatus carries the calendar provider state as the bridge reports
// it: reachability, pending authorization, and occupancy sensing.
type ProviderStatus struct {
	Online             bool `json:"isOnline"`
	NeedsAuthorization bool `json:"needsAuthorization"`
	OfflineLimit       int  `json:"offlineLimit"`
	Occupied           bool `json:"roomOccupied"`
}

// FeedHandler accepts bridge pushes and publishes them on the bus.
type FeedHandler struct {
	bus *event_bus.EventBus
}

func NewFeedHandler(bus *event_bus.EventBus) *FeedHandler {
	return &FeedHandler{bus: bus}
}

func (h *FeedHandler) ApplyConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Applying bridge config payload")

	var payload ConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	if payload.HasRules() {
		rules := event_bus.NewEvent(r.Context(), event_bus.ReservationRulesUpdated, payload.Rules())
		if err := h.bus.Publish(rules); err != nil {
			log.Errorf("Failed to publish %s: %v", event_bus.ReservationRulesUpdated, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	h.publish(w, r, event_bus.SettingsUpdated, payload.Settings())
}

func (h *FeedHandler) ApplyTimeline(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Applying bridge timeline payload")

	var payload TimelinePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	h.publish(w, r, event_bus.TimelineUpdated, payload.Config())
}

func (h *FeedHandler) ApplyEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Applying bridge events payload")

	var payload EventsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	h.publish(w, r, event_bus.RoomEventsUpdated, event.FromRawList(payload.Events))
}

func (h *FeedHandler) ApplyProviderStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Applying bridge provider status payload")

	var payload ProviderStatus
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body format")
		return
	}

	h.publish(w, r, event_bus.ProviderStatusUpdated, payload)
}

func (h *FeedHandler) publish(w http.ResponseWriter, r *http.Request, eventType event_bus.EventType, data any) {
	if err := h.bus.Publish(event_bus.NewEvent(r.Context(), eventType, data)); err != nil {
		log.Errorf("Failed to publish %s: %v", eventType, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func badRequest(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
		Error: message,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}
