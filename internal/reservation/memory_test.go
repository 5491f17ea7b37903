package reservation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var day = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func booking(scope string, hours ...int) []Reservation {
	bookingID := uuid.NewString()
	out := make([]Reservation, 0, len(hours))
	for _, h := range hours {
		out = append(out, Reservation{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			Cell:      NewCell(scope, day, h),
			Status:    StatusPending,
			CreatedAt: day,
		})
	}
	return out
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCompleted))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}

func TestPrecedes(t *testing.T) {
	assert.Equal(t, []Status{StatusPending}, Precedes(StatusPending))
	assert.ElementsMatch(t, []Status{StatusCancelled, StatusPending, StatusConfirmed}, Precedes(StatusCancelled))
	assert.ElementsMatch(t, []Status{StatusCompleted, StatusConfirmed}, Precedes(StatusCompleted))
}

func TestCellKey(t *testing.T) {
	c := NewCell("venue-1", time.Date(2024, time.June, 1, 18, 45, 0, 0, time.UTC), 7)
	assert.Equal(t, "venue-1:2024-06-01:07", c.Key())
}

func TestCheckAndReserveConcurrentSameCell(t *testing.T) {
	g := NewMemoryGuard()
	var admitted, conflicted atomic.Int32

	var eg errgroup.Group
	for i := 0; i < 50; i++ {
		eg.Go(func() error {
			err := g.CheckAndReserve(context.Background(), booking("venue-1", 18))
			switch {
			case err == nil:
				admitted.Add(1)
			case apperr.CodeOf(err) == apperr.ErrBookingConflict.Code:
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.EqualValues(t, 1, admitted.Load())
	assert.EqualValues(t, 49, conflicted.Load())
}

func TestCheckAndReserveOverlappingBatchesNoDeadlock(t *testing.T) {
	g := NewMemoryGuard()
	var admitted atomic.Int32

	var eg errgroup.Group
	for i := 0; i < 40; i++ {
		hours := []int{10, 11}
		if i%2 == 1 {
			hours = []int{11, 10}
		}
		eg.Go(func() error {
			if err := g.CheckAndReserve(context.Background(), booking("venue-1", hours...)); err == nil {
				admitted.Add(1)
			} else if !assert.ErrorIs(t, err, apperr.ErrBookingConflict) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.EqualValues(t, 1, admitted.Load())
}

func TestCheckAndReserveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()
	require.NoError(t, g.CheckAndReserve(ctx, booking("venue-1", 19)))

	err := g.CheckAndReserve(ctx, booking("venue-1", 18, 19))
	require.ErrorIs(t, err, apperr.ErrBookingConflict)
	assert.Contains(t, err.Error(), "venue-1:2024-06-01:19")

	// hour 18 was not written by the rejected batch
	cf, err := g.CheckReadOnly(ctx, NewCell("venue-1", day, 18))
	require.NoError(t, err)
	assert.Nil(t, cf)
}

func TestCancelledReservationFreesCell(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()
	first := booking("venue-1", 9)
	require.NoError(t, g.CheckAndReserve(ctx, first))

	cf, err := g.CheckReadOnly(ctx, NewCell("venue-1", day, 9))
	require.NoError(t, err)
	require.NotNil(t, cf)
	assert.Equal(t, first[0].BookingID, cf.BookingID)

	rs, err := g.SetStatus(ctx, first[0].BookingID, StatusCancelled)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, StatusCancelled, rs[0].Status)

	require.NoError(t, g.CheckAndReserve(ctx, booking("venue-1", 9)))

	_, err = g.SetStatus(ctx, first[0].BookingID, StatusConfirmed)
	require.ErrorIs(t, err, apperr.ErrInvalidStatusTransition)
}

func TestOtherScopesAndDatesDoNotConflict(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()
	require.NoError(t, g.CheckAndReserve(ctx, booking("venue-1", 9)))
	require.NoError(t, g.CheckAndReserve(ctx, booking("venue-2", 9)))

	next := booking("venue-1", 9)
	next[0].Cell = NewCell("venue-1", day.AddDate(0, 0, 1), 9)
	require.NoError(t, g.CheckAndReserve(ctx, next))
}

func TestBatchValidation(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()
	require.ErrorIs(t, g.CheckAndReserve(ctx, nil), apperr.ErrBookingRequestEmpty)
	require.ErrorIs(t, g.CheckAndReserve(ctx, booking("venue-1", 24)), apperr.ErrInvalidBookingTime)
	require.ErrorIs(t, g.CheckAndReserve(ctx, booking("venue-1", 3, 3)), apperr.ErrInvalidBookingTime)
}

func TestListByBooking(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()
	b := booking("venue-1", 21, 20)
	require.NoError(t, g.CheckAndReserve(ctx, b))

	rs, err := g.ListByBooking(ctx, b[0].BookingID)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, 20, rs[0].Cell.Hour)

	_, err = g.ListByBooking(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrBookingNotFound)
}
