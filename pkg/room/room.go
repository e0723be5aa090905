package room

import (
	"time"

	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/roomstate"
	"github.com/roomkit/panelcore/pkg/timeutil"
)

// Status is the room occupancy tri-state shown on the panel.
type Status string

const (
	StatusReserved        Status = "reserved"
	StatusAvailable       Status = "available"
	StatusAvailableAllDay Status = "availableAllDay"
)

type CountdownDTO struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type StateDTO struct {
	Countdown         CountdownDTO `json:"countdown"`
	MaxExtend         int          `json:"maxExtend"`
	VisibleEndNow     bool         `json:"visibleEndNow"`
	VisibleExtendNow  bool         `json:"visibleExtendNow"`
	VisibleCheckInNow bool         `json:"visibleCheckInNow"`
}

type EventDTO struct {
	ID          string    `json:"id"`
	InstanceID  string    `json:"instanceId,omitempty"`
	Subject     string    `json:"subject"`
	Organizer   string    `json:"organizer"`
	Start       time.Time `json:"dtStart"`
	End         time.Time `json:"dtEnd"`
	CheckedIn   bool      `json:"checkedIn"`
	IsRecurring bool      `json:"isRecurring"`
	Privacy     string    `json:"privacyLevel"`
	State       StateDTO  `json:"state"`
}

// ButtonsDTO is the derived button state the UI shell renders verbatim.
type ButtonsDTO struct {
	VisibleEndNow     bool   `json:"visibleEndNow"`
	VisibleExtendNow  bool   `json:"visibleExtendNow"`
	VisibleCheckInNow bool   `json:"visibleCheckInNow"`
	CheckInTarget     string `json:"checkInTarget"`

	DisableEnd        bool `json:"disableEnd"`
	DisableExtend     bool `json:"disableExtend"`
	DisableCheckIn    bool `json:"disableCheckIn"`
	DisableFindRoom   bool `json:"disableFindRoom"`
	DisableReserveNow bool `json:"disableReserveNow"`
}

// Snapshot is the full room view-model returned by GET /api/room.
type Snapshot struct {
	Status        Status     `json:"status"`
	Online        bool       `json:"online"`
	Occupied      bool       `json:"isOccupied"`
	CurrentEvent  *EventDTO  `json:"currentEvent"`
	NextEvent     *EventDTO  `json:"nextEvent"`
	RemainingTime string     `json:"remainingTime,omitempty"`
	Buttons       ButtonsDTO `json:"buttons"`
}

// BlockDTO is one event block resolved to timeline pixels.
type BlockDTO struct {
	Event    EventDTO `json:"event"`
	Start    float64  `json:"start"`
	Size     float64  `json:"size"`
	Finished bool     `json:"finished"`
	Active   bool     `json:"active"`
}

// TimelineView is the room timeline returned by GET /api/room/timeline.
type TimelineView struct {
	Size            float64    `json:"size"`
	NowPosition     float64    `json:"nowPosition"`
	SubBlockMinutes int        `json:"subBlockMinutes"`
	Blocks          []BlockDTO `json:"blocks"`
}

func eventToDTO(e *event.Event) *EventDTO {
	if e == nil {
		return nil
	}
	return &EventDTO{
		ID:          e.ID,
		InstanceID:  e.InstanceID,
		Subject:     e.Subject,
		Organizer:   e.Organizer,
		Start:       e.Start,
		End:         e.End,
		CheckedIn:   e.CheckedIn,
		IsRecurring: e.IsRecurring,
		Privacy:     string(e.Privacy),
		State: StateDTO{
			Countdown: CountdownDTO{
				Hours:   e.State.Countdown.Hours,
				Minutes: e.State.Countdown.Minutes,
				Seconds: e.State.Countdown.Seconds,
			},
			MaxExtend:         e.State.MaxExtend,
			VisibleEndNow:     e.State.VisibleEndNow,
			VisibleExtendNow:  e.State.VisibleExtendNow,
			VisibleCheckInNow: e.State.VisibleCheckInNow,
		},
	}
}

func checkInTargetString(t roomstate.CheckInTarget) string {
	switch t {
	case roomstate.CheckInCurrent:
		return "current"
	case roomstate.CheckInNext:
		return "next"
	}
	return "none"
}

func flagsToButtons(f roomstate.Flags) ButtonsDTO {
	return ButtonsDTO{
		VisibleEndNow:     f.VisibleEndNow,
		VisibleExtendNow:  f.VisibleExtendNow,
		VisibleCheckInNow: f.VisibleCheckInNow,
		CheckInTarget:     checkInTargetString(f.CheckInTarget),
		DisableEnd:        f.DisableEnd,
		DisableExtend:     f.DisableExtend,
		DisableCheckIn:    f.DisableCheckIn,
		DisableFindRoom:   f.DisableFindRoom,
		DisableReserveNow: f.DisableReserveNow,
	}
}

// roundTimeLeftTill returns the time left until target, measured from one
// minute before now, so a countdown shows 1 minute for anything between a
// fresh minute boundary and the next one.
func roundTimeLeftTill(now, target time.Time) timeutil.HMS {
	return timeutil.HMSBetween(now.Add(-time.Minute), target)
}
