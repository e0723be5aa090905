package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func eventAt(id string, start, end time.Time) Event {
	return Event{ID: id, Subject: "Meeting " + id, Organizer: "Organizer", Start: start, End: end, Privacy: PrivacyPublic}
}

func TestCurrent(t *testing.T) {
	now := time.Date(2025, time.March, 10, 10, 30, 0, 0, time.Local)
	events := []Event{
		eventAt("a", now.Add(-2*time.Hour), now.Add(-1*time.Hour)),
		eventAt("b", now.Add(-15*time.Minute), now.Add(45*time.Minute)),
		eventAt("c", now.Add(time.Hour), now.Add(2*time.Hour)),
	}

	t.Run("returns the event containing now", func(t *testing.T) {
		current := Current(events, now)
		assert.NotNil(t, current)
		assert.Equal(t, "b", current.ID)
	})

	t.Run("start is inclusive, end is exclusive", func(t *testing.T) {
		current := Current(events, events[1].Start)
		assert.NotNil(t, current)
		assert.Equal(t, "b", current.ID)

		assert.Nil(t, Current(events[1:2], events[1].End))
	})

	t.Run("nil when nothing is running", func(t *testing.T) {
		assert.Nil(t, Current(events, now.Add(50*time.Minute)))
		assert.Nil(t, Current(nil, now))
	})
}

func TestNext(t *testing.T) {
	now := time.Date(2025, time.March, 10, 10, 30, 0, 0, time.Local)
	events := []Event{
		eventAt("a", now.Add(-2*time.Hour), now.Add(-1*time.Hour)),
		eventAt("b", now.Add(-15*time.Minute), now.Add(45*time.Minute)),
		eventAt("c", now.Add(time.Hour), now.Add(2*time.Hour)),
	}

	t.Run("returns the first future event", func(t *testing.T) {
		next := Next(events, now)
		assert.NotNil(t, next)
		assert.Equal(t, "c", next.ID)
	})

	t.Run("event starting exactly now is not next", func(t *testing.T) {
		assert.Nil(t, Next(events[2:], events[2].Start))
	})

	t.Run("nil when nothing follows", func(t *testing.T) {
		assert.Nil(t, Next(events, now.Add(3*time.Hour)))
	})
}

func TestApplyPrivacy(t *testing.T) {
	base := func(level PrivacyLevel) *Event {
		return &Event{ID: "e", Subject: "Budget review", Organizer: "Dana", Privacy: level}
	}

	t.Run("public is untouched", func(t *testing.T) {
		e := base(PrivacyPublic)
		ApplyPrivacy(e)
		assert.Equal(t, "Budget review", e.Subject)
		assert.Equal(t, "Dana", e.Organizer)
	})

	t.Run("private redacts subject and organizer", func(t *testing.T) {
		e := base(PrivacyPrivate)
		ApplyPrivacy(e)
		assert.Equal(t, RedactedPlaceholder, e.Subject)
		assert.Equal(t, RedactedPlaceholder, e.Organizer)
	})

	t.Run("confidential redacts only the subject", func(t *testing.T) {
		e := base(PrivacyConfidential)
		ApplyPrivacy(e)
		assert.Equal(t, RedactedPlaceholder, e.Subject)
		assert.Equal(t, "Dana", e.Organizer)
	})

	t.Run("unknown non-public level still redacts the subject", func(t *testing.T) {
		e := base(PrivacyLevel("restricted"))
		ApplyPrivacy(e)
		assert.Equal(t, RedactedPlaceholder, e.Subject)
		assert.Equal(t, "Dana", e.Organizer)
	})
}

func TestFromRaw(t *testing.T) {
	t.Run("accepts epoch millisecond timestamps", func(t *testing.T) {
		start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
		raw := RawEvent{
			ID:      "e1",
			Subject: "Standup",
			DtStart: json.RawMessage([]byte(jsonNumber(start.UnixMilli()))),
			DtEnd:   json.RawMessage([]byte(jsonNumber(start.Add(30 * time.Minute).UnixMilli()))),
		}

		e, err := FromRaw(raw)
		assert.NoError(t, err)
		assert.True(t, e.Start.Equal(start))
		assert.True(t, e.End.Equal(start.Add(30*time.Minute)))
		assert.Equal(t, PrivacyPublic, e.Privacy)
	})

	t.Run("accepts RFC3339 timestamps", func(t *testing.T) {
		raw := RawEvent{
			ID:      "e2",
			DtStart: json.RawMessage(`"2025-03-10T09:00:00Z"`),
			DtEnd:   json.RawMessage(`"2025-03-10T10:00:00Z"`),
			Privacy: "Private",
		}

		e, err := FromRaw(raw)
		assert.NoError(t, err)
		assert.Equal(t, PrivacyPrivate, e.Privacy)
		assert.Equal(t, 60*time.Minute, e.End.Sub(e.Start))
	})

	t.Run("non-string instanceId is dropped", func(t *testing.T) {
		raw := RawEvent{
			ID:         "e3",
			InstanceID: 42,
			DtStart:    json.RawMessage(`"2025-03-10T09:00:00Z"`),
			DtEnd:      json.RawMessage(`"2025-03-10T10:00:00Z"`),
		}

		e, err := FromRaw(raw)
		assert.NoError(t, err)
		assert.Equal(t, "", e.InstanceID)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		raw := RawEvent{
			ID:      "e4",
			DtStart: json.RawMessage(`"2025-03-10T10:00:00Z"`),
			DtEnd:   json.RawMessage(`"2025-03-10T09:00:00Z"`),
		}

		_, err := FromRaw(raw)
		assert.Error(t, err)
	})

	t.Run("list normalization drops malformed records", func(t *testing.T) {
		raws := []RawEvent{
			{ID: "ok", DtStart: json.RawMessage(`"2025-03-10T09:00:00Z"`), DtEnd: json.RawMessage(`"2025-03-10T10:00:00Z"`)},
			{ID: "bad", DtStart: json.RawMessage(`"2025-03-10T09:00:00Z"`)},
		}

		events := FromRawList(raws)
		assert.Len(t, events, 1)
		assert.Equal(t, "ok", events[0].ID)
	})
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
