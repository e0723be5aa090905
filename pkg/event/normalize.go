package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// RawEvent is the wire shape of one booking as delivered by the panel
// communication bridge. Timestamps arrive either as epoch milliseconds or as
// RFC3339 strings depending on the provider; instanceId is only meaningful
// when it is a string.
type RawEvent struct {
	ID          string          `json:"id"`
	InstanceID  any             `json:"instanceId"`
	Subject     string          `json:"subject"`
	Organizer   string          `json:"organizer"`
	DtStart     json.RawMessage `json:"dtStart"`
	DtEnd       json.RawMessage `json:"dtEnd"`
	CheckedIn   bool            `json:"checkedIn"`
	IsRecurring bool            `json:"isRecurring"`
	Privacy     string          `json:"privacyLevel"`
}

// FromRaw converts a feed record into the internal representation.
// Events whose end does not lie after their start are rejected so geometry
// and availability never see a degenerate window.
func FromRaw(raw RawEvent) (Event, error) {
	start, err := parseTimestamp(raw.DtStart)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: invalid dtStart: %w", raw.ID, err)
	}
	end, err := parseTimestamp(raw.DtEnd)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: invalid dtEnd: %w", raw.ID, err)
	}
	if !end.After(start) {
		return Event{}, fmt.Errorf("event %s: dtEnd %s is not after dtStart %s", raw.ID, end, start)
	}

	instanceID := ""
	if s, ok := raw.InstanceID.(string); ok {
		instanceID = s
	}

	privacy := PrivacyPublic
	if raw.Privacy != "" {
		privacy = PrivacyLevel(strings.ToLower(raw.Privacy))
	}

	return Event{
		ID:          raw.ID,
		InstanceID:  instanceID,
		Subject:     raw.Subject,
		Organizer:   raw.Organizer,
		Start:       start,
		End:         end,
		CheckedIn:   raw.CheckedIn,
		IsRecurring: raw.IsRecurring,
		Privacy:     privacy,
	}, nil
}

// FromRawList normalizes a full feed, dropping malformed records with a
// warning instead of failing the whole payload.
func FromRawList(raws []RawEvent) []Event {
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		e, err := FromRaw(raw)
		if err != nil {
			log.Warnf("Dropping malformed event from feed: %v", err)
			continue
		}
		events = append(events, e)
	}
	return events
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp is neither a number nor a string")
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
