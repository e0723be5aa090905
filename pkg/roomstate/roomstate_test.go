package roomstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roomkit/panelcore/pkg/event"
)

func at(h, m int) time.Time {
	return time.Date(2025, time.March, 10, h, m, 0, 0, time.Local)
}

func meeting(id string, start, end time.Time) *event.Event {
	return &event.Event{ID: id, Subject: "Meeting " + id, Start: start, End: end}
}

func onlineInputs(now time.Time, settings Settings) Inputs {
	return Inputs{Now: now, Online: true, Settings: settings}
}

func TestParseThresholdMode(t *testing.T) {
	assert.Equal(t, ThresholdMinutes, ParseThresholdMode("Minutes"))
	assert.Equal(t, ThresholdPercentage, ParseThresholdMode("PERCENTAGE"))
	assert.Equal(t, ThresholdOff, ParseThresholdMode("off"))
	assert.Equal(t, ThresholdOff, ParseThresholdMode(""))
	assert.Equal(t, ThresholdOff, ParseThresholdMode("bogus"))
}

func TestVisibleEndNow(t *testing.T) {
	current := meeting("m1", at(9, 0), at(10, 0))

	t.Run("percentage threshold flips at the configured share", func(t *testing.T) {
		settings := Settings{EndEarly: ThresholdRule{Mode: ThresholdPercentage, Percent: 50}}

		in := onlineInputs(at(9, 29), settings)
		in.Current = current
		assert.False(t, Recompute(in).VisibleEndNow)

		in.Now = at(9, 31)
		assert.True(t, Recompute(in).VisibleEndNow)
	})

	t.Run("minutes threshold counts elapsed time", func(t *testing.T) {
		settings := Settings{EndEarly: ThresholdRule{Mode: ThresholdMinutes, Minutes: 10}}

		in := onlineInputs(at(9, 9), settings)
		in.Current = current
		assert.False(t, Recompute(in).VisibleEndNow)

		in.Now = at(9, 10)
		assert.True(t, Recompute(in).VisibleEndNow)
	})

	t.Run("hidden when the rule is off", func(t *testing.T) {
		in := onlineInputs(at(9, 45), Settings{})
		in.Current = current
		assert.False(t, Recompute(in).VisibleEndNow)
	})

	t.Run("hidden in read-only mode", func(t *testing.T) {
		settings := Settings{ReadOnly: true, EndEarly: ThresholdRule{Mode: ThresholdMinutes, Minutes: 0}}
		in := onlineInputs(at(9, 45), settings)
		in.Current = current
		assert.False(t, Recompute(in).VisibleEndNow)
	})

	t.Run("hidden for a non-manipulable recurring instance", func(t *testing.T) {
		recurring := meeting("m1", at(9, 0), at(10, 0))
		recurring.IsRecurring = true
		settings := Settings{EndEarly: ThresholdRule{Mode: ThresholdMinutes, Minutes: 0}}

		in := onlineInputs(at(9, 45), settings)
		in.Current = recurring
		assert.False(t, Recompute(in).VisibleEndNow)

		in.Settings.SupportsInstanceManipulation = true
		assert.True(t, Recompute(in).VisibleEndNow)
	})

	t.Run("hidden while pinned to the next meeting", func(t *testing.T) {
		settings := Settings{
			AvailabilityThresholdEnabled: true,
			EndEarly:                     ThresholdRule{Mode: ThresholdMinutes, Minutes: 0},
		}
		in := onlineInputs(at(9, 45), settings)
		in.Current = current
		in.Next = meeting("m1", current.Start, current.End)
		assert.False(t, Recompute(in).VisibleEndNow)
	})
}

func TestVisibleExtendNow(t *testing.T) {
	current := meeting("m1", at(9, 0), at(10, 0))

	t.Run("appears once remaining minutes drop to the threshold", func(t *testing.T) {
		settings := Settings{Extend: ThresholdRule{Mode: ThresholdMinutes, Minutes: 15}}

		in := onlineInputs(at(9, 40), settings)
		in.Current = current
		assert.False(t, Recompute(in).VisibleExtendNow)

		in.Now = at(9, 45)
		assert.True(t, Recompute(in).VisibleExtendNow)
	})

	t.Run("percentage threshold uses the meeting length", func(t *testing.T) {
		settings := Settings{Extend: ThresholdRule{Mode: ThresholdPercentage, Percent: 25}}

		in := onlineInputs(at(9, 44), settings)
		in.Current = current
		assert.False(t, Recompute(in).VisibleExtendNow)

		in.Now = at(9, 45)
		assert.True(t, Recompute(in).VisibleExtendNow)
	})

	t.Run("never visible after the meeting ended", func(t *testing.T) {
		settings := Settings{Extend: ThresholdRule{Mode: ThresholdMinutes, Minutes: 15}}
		in := onlineInputs(at(10, 5), settings)
		in.Current = current
		assert.False(t, Recompute(in).VisibleExtendNow)
	})
}

func TestDisableFlags(t *testing.T) {
	current := meeting("m1", at(9, 0), at(10, 0))

	t.Run("offline disables everything", func(t *testing.T) {
		in := Inputs{Now: at(9, 30), Online: false, Current: current}
		flags := Recompute(in)
		assert.True(t, flags.DisableEnd)
		assert.True(t, flags.DisableExtend)
		assert.True(t, flags.DisableCheckIn)
		assert.True(t, flags.DisableFindRoom)
		assert.True(t, flags.DisableReserveNow)
	})

	t.Run("zero gap to next meeting disables extend regardless of anything else", func(t *testing.T) {
		in := onlineInputs(at(9, 30), Settings{SupportsInstanceManipulation: true})
		in.Current = current
		in.Next = meeting("m2", at(10, 0), at(11, 0))
		assert.True(t, Recompute(in).DisableExtend)
		assert.False(t, Recompute(in).DisableEnd)
	})

	t.Run("recurring instance disables end and extend without instance support", func(t *testing.T) {
		recurring := meeting("m1", at(9, 0), at(10, 0))
		recurring.IsRecurring = true
		in := onlineInputs(at(9, 30), Settings{})
		in.Current = recurring

		flags := Recompute(in)
		assert.True(t, flags.DisableEnd)
		assert.True(t, flags.DisableExtend)
	})
}

func TestVisibleCheckIn(t *testing.T) {
	settings := Settings{
		ForceOrgCheckIn:       true,
		ForceOrgCheckInMin:    10,
		ForceOrgCheckInEndMin: 5,
	}

	t.Run("current meeting checkable just after start", func(t *testing.T) {
		in := onlineInputs(at(9, 3), settings)
		in.Current = meeting("m1", at(9, 0), at(10, 0))

		flags := Recompute(in)
		assert.True(t, flags.VisibleCheckInNow)
		assert.Equal(t, CheckInCurrent, flags.CheckInTarget)
	})

	t.Run("window on the current meeting closes", func(t *testing.T) {
		in := onlineInputs(at(9, 6), settings)
		in.Current = meeting("m1", at(9, 0), at(10, 0))

		flags := Recompute(in)
		assert.False(t, flags.VisibleCheckInNow)
		assert.Equal(t, CheckInNone, flags.CheckInTarget)
	})

	t.Run("next meeting checkable within its window while available", func(t *testing.T) {
		in := onlineInputs(at(9, 50), settings)
		in.Next = meeting("m2", at(10, 0), at(11, 0))

		flags := Recompute(in)
		assert.True(t, flags.VisibleCheckInNow)
		assert.Equal(t, CheckInNext, flags.CheckInTarget)
	})

	t.Run("next meeting window is inclusive", func(t *testing.T) {
		// The button appears when the meeting starts in exactly 10
		// minutes, not at 11.
		in := onlineInputs(at(9, 50), settings)
		in.Next = meeting("m2", at(10, 0), at(11, 0))
		assert.True(t, Recompute(in).VisibleCheckInNow)

		in.Now = at(9, 49)
		assert.False(t, Recompute(in).VisibleCheckInNow)
	})

	t.Run("disable mirrors the target event's checked-in flag", func(t *testing.T) {
		in := onlineInputs(at(9, 50), settings)
		next := meeting("m2", at(10, 0), at(11, 0))
		next.CheckedIn = true
		in.Next = next

		flags := Recompute(in)
		assert.True(t, flags.VisibleCheckInNow)
		assert.True(t, flags.DisableCheckIn)
	})

	t.Run("nothing visible when automation is off", func(t *testing.T) {
		in := onlineInputs(at(9, 50), Settings{ForceOrgCheckInMin: 10})
		in.Next = meeting("m2", at(10, 0), at(11, 0))
		assert.False(t, Recompute(in).VisibleCheckInNow)
	})
}

func TestForcedReserved(t *testing.T) {
	settings := Settings{
		AvailabilityThresholdEnabled: true,
		AvailabilityThresholdMin:     10,
	}

	t.Run("promotes within the threshold", func(t *testing.T) {
		in := onlineInputs(at(9, 52), settings)
		in.Next = meeting("m2", at(10, 0), at(11, 0))

		flags := Recompute(in)
		assert.True(t, flags.PinNext)
		assert.False(t, flags.Unpin)
	})

	t.Run("stays available outside the threshold", func(t *testing.T) {
		in := onlineInputs(at(9, 49), settings)
		in.Next = meeting("m2", at(10, 0), at(11, 0))

		flags := Recompute(in)
		assert.False(t, flags.PinNext)
		assert.False(t, flags.Unpin)
	})

	t.Run("demotes a pinned view once conditions clear", func(t *testing.T) {
		next := meeting("m2", at(10, 0), at(11, 0))
		in := onlineInputs(at(9, 45), settings)
		in.Current = meeting("m2", next.Start, next.End)
		in.Next = next

		flags := Recompute(in)
		assert.True(t, flags.Unpin)
		assert.False(t, flags.PinNext)
	})

	t.Run("genuinely reserved room is never demoted", func(t *testing.T) {
		in := onlineInputs(at(9, 45), settings)
		in.Current = meeting("m1", at(9, 0), at(10, 0))
		in.Next = meeting("m2", at(10, 30), at(11, 0))

		flags := Recompute(in)
		assert.False(t, flags.Unpin)
		assert.False(t, flags.PinNext)
	})

	t.Run("checked-in next meeting pins under the display policy", func(t *testing.T) {
		policy := Settings{
			ForceOrgCheckIn:           true,
			ForceOrgCheckInMin:        10,
			ReservedColorForCheckedIn: true,
		}
		next := meeting("m2", at(10, 0), at(11, 0))
		next.CheckedIn = true

		in := onlineInputs(at(9, 55), policy)
		in.Next = next
		assert.True(t, Recompute(in).PinNext)

		next.CheckedIn = false
		assert.False(t, Recompute(in).PinNext)
	})
}

func TestRecomputeIsIdempotent(t *testing.T) {
	settings := Settings{
		AvailabilityThresholdEnabled: true,
		AvailabilityThresholdMin:     10,
		EndEarly:                     ThresholdRule{Mode: ThresholdPercentage, Percent: 50},
		Extend:                       ThresholdRule{Mode: ThresholdMinutes, Minutes: 15},
		ForceOrgCheckIn:              true,
		ForceOrgCheckInMin:           10,
		ForceOrgCheckInEndMin:        5,
	}

	in := onlineInputs(at(9, 40), settings)
	in.Current = meeting("m1", at(9, 0), at(10, 0))
	in.Next = meeting("m2", at(10, 15), at(11, 0))

	first := Recompute(in)
	second := Recompute(in)
	assert.Equal(t, first, second)
}
