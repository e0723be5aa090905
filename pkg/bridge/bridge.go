package bridge

import (
	"context"
	"errors"
	"time"
)

// ErrCommandFailed is returned when the bridge accepted the request but the
// calendar provider rejected the command.
var ErrCommandFailed = errors.New("bridge command failed")

// CreateEventRequest is a new reservation to be written to the calendar.
type CreateEventRequest struct {
	Subject   string    `json:"subject"`
	Organizer string    `json:"organizer"`
	Start     time.Time `json:"dtStart"`
	End       time.Time `json:"dtEnd"`
}

// EventRef identifies an existing event for manipulation commands. The
// instance ID is set for occurrences of recurring meetings.
type EventRef struct {
	EventID    string `json:"eventId"`
	InstanceID string `json:"instanceId,omitempty"`
}

// SearchRequest asks the bridge for other available rooms.
type SearchRequest struct {
	Start    time.Time `json:"dtStart"`
	Duration int       `json:"duration"`
}

// Client sends user actions out through the panel bridge. Every call is a
// single await point: it returns once the bridge acknowledges or rejects the
// command, or the context expires.
type Client interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) error
	ExtendEvent(ctx context.Context, ref EventRef, minutes int) error
	EndEvent(ctx context.Context, ref EventRef) error
	CheckInEvent(ctx context.Context, ref EventRef) error
	RoomSearch(ctx context.Context, req SearchRequest) error
}
