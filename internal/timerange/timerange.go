// Package timerange models half-open [start, end) intervals over wall-clock
// time and the midnight-crossing arithmetic the slot registry and pricing
// strategies depend on.
package timerange

import (
	"errors"
	"fmt"
	"time"
)

const day = 24 * time.Hour

// RefDay anchors windows that carry a time of day but no calendar date.
var RefDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var ErrInvalidRange = errors.New("timerange: start must be before end")

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, fmt.Errorf("%w (%s >= %s)", ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Must is New for literals known to be valid.
func Must(start, end time.Time) TimeRange {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Daily builds the window [from, to) measured from midnight of day. When to
// is not after from the window ends on the following day.
func Daily(d time.Time, from, to time.Duration) (TimeRange, error) {
	if from < 0 || from >= day || to < 0 || to > day || from == to {
		return TimeRange{}, fmt.Errorf("%w (offsets %s, %s)", ErrInvalidRange, from, to)
	}
	midnight := StartOfDay(d)
	end := midnight.Add(to)
	if to < from {
		end = midnight.AddDate(0, 0, 1).Add(to)
	}
	return New(midnight.Add(from), end)
}

// Clock is Daily anchored on RefDay.
func Clock(from, to time.Duration) (TimeRange, error) {
	return Daily(RefDay, from, to)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r TimeRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

func (r TimeRange) Equal(o TimeRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// CrossesMidnight reports whether r has any part on a day after its start day.
func (r TimeRange) CrossesMidnight() bool {
	return r.End.After(StartOfDay(r.Start).AddDate(0, 0, 1))
}

// ExpandAcrossMidnight splits r at every midnight it crosses. A range that
// stays within one day, including one ending exactly at the next midnight,
// is returned unchanged.
func (r TimeRange) ExpandAcrossMidnight() []TimeRange {
	if !r.CrossesMidnight() {
		return []TimeRange{r}
	}
	var out []TimeRange
	cur := r.Start
	for {
		next := StartOfDay(cur).AddDate(0, 0, 1)
		if !next.Before(r.End) {
			break
		}
		out = append(out, TimeRange{Start: cur, End: next})
		cur = next
	}
	if cur.Before(r.End) {
		out = append(out, TimeRange{Start: cur, End: r.End})
	}
	return out
}

func (r TimeRange) OverlapsAllowingMidnightCrossing(o TimeRange) bool {
	for _, a := range r.ExpandAcrossMidnight() {
		for _, b := range o.ExpandAcrossMidnight() {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

// OverlapsTimeOfDay compares r and o as recurring daily windows: both are
// expanded and every segment is moved onto RefDay before the overlap test.
func (r TimeRange) OverlapsTimeOfDay(o TimeRange) bool {
	for _, a := range r.folded() {
		for _, b := range o.folded() {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

// ContainsTimeOfDay reports whether the clock time of t falls inside r read
// as a recurring daily window.
func (r TimeRange) ContainsTimeOfDay(t time.Time) bool {
	p := RefDay.Add(t.Sub(StartOfDay(t)))
	for _, seg := range r.folded() {
		if seg.Contains(p) {
			return true
		}
	}
	return false
}

func (r TimeRange) folded() []TimeRange {
	segs := r.ExpandAcrossMidnight()
	out := make([]TimeRange, 0, len(segs))
	for _, s := range segs {
		start := RefDay.Add(s.Start.Sub(StartOfDay(s.Start)))
		out = append(out, TimeRange{Start: start, End: start.Add(s.Duration())})
	}
	return out
}

// CoveredDates lists the midnights of every calendar day r touches. A range
// ending exactly at midnight does not cover the day that midnight starts.
func (r TimeRange) CoveredDates() []time.Time {
	var out []time.Time
	last := StartOfDay(r.End.Add(-time.Nanosecond))
	for d := StartOfDay(r.Start); !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (r TimeRange) String() string {
	return r.Start.Format("15:04") + "-" + r.End.Format("15:04")
}

// FormatDuration renders d as "Xh Ymin".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%dh %dmin", int(d.Hours()), int(d.Minutes())%60)
}
