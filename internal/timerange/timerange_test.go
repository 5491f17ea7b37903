package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(d, h, m int) time.Time {
	return time.Date(2024, time.January, d, h, m, 0, 0, time.UTC)
}

func TestNewRejectsEmptyAndInverted(t *testing.T) {
	_, err := New(at(1, 10, 0), at(1, 10, 0))
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(at(1, 12, 0), at(1, 10, 0))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsSymmetricAndReflexive(t *testing.T) {
	ranges := []TimeRange{
		Must(at(1, 9, 0), at(1, 10, 0)),
		Must(at(1, 10, 0), at(1, 11, 0)),
		Must(at(1, 9, 30), at(1, 10, 30)),
		Must(at(1, 0, 0), at(2, 0, 0)),
		Must(at(1, 14, 0), at(1, 14, 15)),
	}
	for _, a := range ranges {
		assert.True(t, a.Overlaps(a), "%s overlaps itself", a)
		for _, b := range ranges {
			assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "%s vs %s", a, b)
		}
	}
}

func TestOverlapsHalfOpenBoundary(t *testing.T) {
	a := Must(at(1, 9, 0), at(1, 10, 0))
	b := Must(at(1, 10, 0), at(1, 11, 0))
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Contains(at(1, 9, 0)))
	assert.False(t, a.Contains(at(1, 10, 0)))
}

func TestExpandSameDayIsIdentity(t *testing.T) {
	r := Must(at(1, 10, 0), at(1, 12, 0))
	segs := r.ExpandAcrossMidnight()
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Equal(r))

	// expanding a segment again changes nothing
	again := segs[0].ExpandAcrossMidnight()
	require.Len(t, again, 1)
	assert.True(t, again[0].Equal(r))
}

func TestExpandEndingAtMidnightIsSingleSegment(t *testing.T) {
	r := Must(at(1, 23, 0), at(2, 0, 0))
	segs := r.ExpandAcrossMidnight()
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Equal(r))
}

func TestExpandAcrossMidnight(t *testing.T) {
	tests := []struct {
		name string
		r    TimeRange
		want []TimeRange
	}{
		{
			name: "overnight",
			r:    Must(at(1, 23, 0), at(2, 1, 0)),
			want: []TimeRange{
				Must(at(1, 23, 0), at(2, 0, 0)),
				Must(at(2, 0, 0), at(2, 1, 0)),
			},
		},
		{
			name: "multi day",
			r:    Must(at(1, 22, 0), at(4, 2, 30)),
			want: []TimeRange{
				Must(at(1, 22, 0), at(2, 0, 0)),
				Must(at(2, 0, 0), at(3, 0, 0)),
				Must(at(3, 0, 0), at(4, 0, 0)),
				Must(at(4, 0, 0), at(4, 2, 30)),
			},
		},
		{
			name: "multi day ending at midnight",
			r:    Must(at(1, 20, 0), at(3, 0, 0)),
			want: []TimeRange{
				Must(at(1, 20, 0), at(2, 0, 0)),
				Must(at(2, 0, 0), at(3, 0, 0)),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := tt.r.ExpandAcrossMidnight()
			require.Len(t, segs, len(tt.want))
			for i := range segs {
				assert.True(t, segs[i].Equal(tt.want[i]), "segment %d: got %s want %s", i, segs[i], tt.want[i])
				assert.Positive(t, segs[i].Duration())
			}
			// pairwise disjoint, contiguous, and reconstructs the original
			for i := range segs {
				for j := i + 1; j < len(segs); j++ {
					assert.False(t, segs[i].Overlaps(segs[j]))
				}
				if i > 0 {
					assert.True(t, segs[i-1].End.Equal(segs[i].Start))
				}
			}
			assert.True(t, segs[0].Start.Equal(tt.r.Start))
			assert.True(t, segs[len(segs)-1].End.Equal(tt.r.End))
		})
	}
}

func TestOverlapsAllowingMidnightCrossing(t *testing.T) {
	night := Must(at(1, 23, 0), at(2, 1, 0))
	assert.True(t, night.OverlapsAllowingMidnightCrossing(Must(at(2, 0, 30), at(2, 2, 0))))
	assert.True(t, night.OverlapsAllowingMidnightCrossing(Must(at(1, 22, 0), at(1, 23, 30))))
	assert.False(t, night.OverlapsAllowingMidnightCrossing(Must(at(2, 1, 0), at(2, 2, 0))))
	assert.False(t, night.OverlapsAllowingMidnightCrossing(Must(at(1, 1, 0), at(1, 2, 0))))
}

func TestDaily(t *testing.T) {
	r, err := Daily(at(5, 15, 42), 18*time.Hour, 20*time.Hour)
	require.NoError(t, err)
	assert.True(t, r.Equal(Must(at(5, 18, 0), at(5, 20, 0))))

	wrapped, err := Daily(at(5, 0, 0), 23*time.Hour, time.Hour)
	require.NoError(t, err)
	assert.True(t, wrapped.Equal(Must(at(5, 23, 0), at(6, 1, 0))))

	_, err = Daily(at(5, 0, 0), time.Hour, time.Hour)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = Daily(at(5, 0, 0), 25*time.Hour, time.Hour)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestTimeOfDayComparisons(t *testing.T) {
	offPeak, err := Clock(23*time.Hour, time.Hour)
	require.NoError(t, err)
	early, err := Clock(30*time.Minute, 2*time.Hour)
	require.NoError(t, err)
	morning, err := Clock(time.Hour, 2*time.Hour)
	require.NoError(t, err)

	assert.True(t, offPeak.OverlapsTimeOfDay(early))
	assert.True(t, early.OverlapsTimeOfDay(offPeak))
	assert.False(t, offPeak.OverlapsTimeOfDay(morning))

	assert.True(t, offPeak.ContainsTimeOfDay(time.Date(2031, time.May, 4, 0, 30, 0, 0, time.UTC)))
	assert.True(t, offPeak.ContainsTimeOfDay(time.Date(2031, time.May, 4, 23, 0, 0, 0, time.UTC)))
	assert.False(t, offPeak.ContainsTimeOfDay(time.Date(2031, time.May, 4, 1, 0, 0, 0, time.UTC)))
}

func TestCoveredDates(t *testing.T) {
	assert.Len(t, Must(at(1, 10, 0), at(1, 12, 0)).CoveredDates(), 1)
	assert.Len(t, Must(at(1, 23, 0), at(2, 0, 0)).CoveredDates(), 1)
	dates := Must(at(1, 23, 0), at(3, 1, 0)).CoveredDates()
	require.Len(t, dates, 3)
	assert.True(t, dates[2].Equal(at(3, 0, 0)))
}

func TestFormatting(t *testing.T) {
	r := Must(at(1, 23, 0), at(2, 0, 30))
	assert.Equal(t, "23:00-00:30", r.String())
	assert.Equal(t, "1h 30min", FormatDuration(r.Duration()))
}
