package timeline

import (
	"math"
	"time"

	"github.com/roomkit/panelcore/pkg/event"
	"github.com/roomkit/panelcore/pkg/timeutil"
)

// Placement is the axis the timeline is laid out along.
type Placement string

const (
	PlacementHorizontal Placement = "horizontal"
	PlacementVertical   Placement = "vertical"
	PlacementPortrait   Placement = "portrait"
)

const lastHour = 24

// Config describes one timeline strip. BlockSize is the base pixels-per-hour
// for the placement; Scale is the number of sub-blocks per hour block.
type Config struct {
	Placement Placement
	BlockSize int
	Scale     int
	StartHour int
	NrHours   int
	// Viewport is the visible extent along the axis, in pixels.
	Viewport float64
	// RTL mirrors positions for right-to-left layouts. Only the horizontal
	// placement mirrors.
	RTL bool
	// StepMinutes is the booking grid, bounding both the sub-block length
	// and the even-end-time conflict window.
	StepMinutes int
	EvenEndTime bool
}

// Geometry maps wall-clock time to pixel positions along the timeline axis
// and back. Hours before StartHour produce negative positions; the caller
// is expected to clip.
type Geometry struct {
	cfg          Config
	blockSize    float64
	subBlockSize float64
	timelineSize float64
	nrHours      int
}

// TimeOfDay is a clock position on the timeline, independent of date.
type TimeOfDay struct {
	Hours   int
	Minutes int
}

// BlockPlacement is the resolved pixel geometry for one event block.
type BlockPlacement struct {
	Start float64
	Size  float64
}

func NewGeometry(cfg Config) *Geometry {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.NrHours <= 0 {
		cfg.NrHours = lastHour
	}
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = 15
	}

	nrHours := cfg.NrHours
	if available := lastHour - cfg.StartHour; available < nrHours {
		nrHours = available
	}

	// Each sub-block carries a one pixel border; half of those borders
	// widen the hour block.
	subBlockSize := math.Round(float64(cfg.BlockSize) / float64(cfg.Scale))
	blockSize := float64(cfg.BlockSize) + float64(cfg.Scale)/2

	return &Geometry{
		cfg:          cfg,
		blockSize:    blockSize,
		subBlockSize: subBlockSize,
		timelineSize: blockSize * float64(nrHours),
		nrHours:      nrHours,
	}
}

// WithGrid returns a geometry with the booking grid replaced, keeping the
// layout parameters.
func (g *Geometry) WithGrid(stepMinutes int, evenEndTime bool) *Geometry {
	cfg := g.cfg
	cfg.StepMinutes = stepMinutes
	cfg.EvenEndTime = evenEndTime
	return NewGeometry(cfg)
}

// Size returns the total pixel extent of the timeline.
func (g *Geometry) Size() float64 { return g.timelineSize }

// NrHours returns the number of hour blocks actually laid out.
func (g *Geometry) NrHours() int { return g.nrHours }

// SubBlockMinutes returns the duration one sub-block covers.
func (g *Geometry) SubBlockMinutes() int {
	return 60 / g.cfg.Scale
}

// PositionForTime maps a clock time to its pixel position.
func (g *Geometry) PositionForTime(t TimeOfDay) float64 {
	position := g.blockSize * float64(t.Hours-g.cfg.StartHour)
	position += g.blockSize / 60 * float64(t.Minutes)
	return position
}

// TimeForPosition is the inverse of PositionForTime, to minute granularity.
func (g *Geometry) TimeForPosition(position float64) TimeOfDay {
	hours := int(math.Floor(position/g.blockSize)) + g.cfg.StartHour
	minutes := int(math.Floor(math.Mod(position, g.blockSize) * 60 / g.blockSize))
	return TimeOfDay{Hours: hours, Minutes: minutes}
}

// PositionForEvent returns the pixel placement of an event block. The size
// is the event duration mapped through the same scale as positions.
func (g *Geometry) PositionForEvent(e event.Event) BlockPlacement {
	duration := timeutil.HMSBetween(e.End, e.Start)
	return BlockPlacement{
		Start: g.PositionForTime(TimeOfDay{Hours: e.Start.Hour(), Minutes: e.Start.Minute()}),
		Size:  g.PositionForTime(TimeOfDay{Hours: g.cfg.StartHour + duration.Hours, Minutes: duration.Minutes}),
	}
}

// NowIndicator returns the pixel position of the current-time marker. The
// time is truncated to the minute so the marker moves in whole-minute jumps,
// and mirrored in RTL horizontal mode.
func (g *Geometry) NowIndicator(now time.Time) float64 {
	now = now.Truncate(time.Minute)
	position := g.PositionForTime(TimeOfDay{Hours: now.Hour(), Minutes: now.Minute()})
	if g.mirrored() {
		position = g.timelineSize - position - g.cfg.Viewport
	}
	return position
}

func (g *Geometry) mirrored() bool {
	return g.cfg.RTL && g.cfg.Placement == PlacementHorizontal
}

// SubBlockUnavailable reports whether the sub-block starting at subStart can
// no longer anchor a booking: either the current time is past its end, or,
// under the even-end-time policy, another meeting starts inside it too close
// to honor the minimum duration.
func (g *Geometry) SubBlockUnavailable(now, subStart time.Time, events []event.Event) bool {
	subEnd := timeutil.AddMinutes(subStart, g.SubBlockMinutes())
	if !now.Before(subEnd) {
		return true
	}

	if !g.cfg.EvenEndTime {
		return false
	}
	for i := range events {
		start := events[i].Start
		if !start.After(now) {
			continue
		}
		if start.After(subStart) && start.Before(subEnd) &&
			timeutil.MinutesBetween(subStart, start) < g.cfg.StepMinutes {
			return true
		}
	}
	return false
}
