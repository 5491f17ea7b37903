package reservation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
)

const dateLayout = "2006-01-02"

// Cell is the unit of exclusivity: one hour of one scope on one date.
type Cell struct {
	ScopeKey string    `json:"scope_key"`
	Date     time.Time `json:"date"` // midnight UTC
	Hour     int       `json:"hour"`
}

func NewCell(scopeKey string, date time.Time, hour int) Cell {
	y, m, d := date.Date()
	return Cell{ScopeKey: scopeKey, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Hour: hour}
}

func (c Cell) Key() string {
	return fmt.Sprintf("%s:%s:%02d", c.ScopeKey, c.Date.Format(dateLayout), c.Hour)
}

func (c Cell) String() string { return c.Key() }

type Reservation struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Cell      Cell      `json:"cell"`
	Half      bool      `json:"half"`
	SubjectID string    `json:"subject_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Conflict describes an active reservation already holding a cell.
type Conflict struct {
	Cell          Cell
	ReservationID string
	BookingID     string
	Status        Status
}

// Guard admits reservations so that no cell ever holds two active ones.
//
// CheckReadOnly takes no locks and may race with concurrent writers; use it
// for early feedback only. CheckAndReserve holds every target cell for the
// whole check-then-write sequence and writes all rows or none.
type Guard interface {
	CheckReadOnly(ctx context.Context, cell Cell) (*Conflict, error)
	CheckAndReserve(ctx context.Context, batch []Reservation) error
	ListByBooking(ctx context.Context, bookingID string) ([]Reservation, error)
	SetStatus(ctx context.Context, bookingID string, to Status) ([]Reservation, error)
}

func conflictError(conflicts []Conflict) error {
	keys := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		keys = append(keys, c.Cell.Key())
	}
	return apperr.ErrBookingConflict.WithDetails("cells already reserved: %s", strings.Join(keys, ", "))
}

// sortedCells returns the distinct cells of batch in key order, the order
// in which locks are taken.
func sortedCells(batch []Reservation) []Cell {
	seen := map[string]Cell{}
	for _, r := range batch {
		seen[r.Cell.Key()] = r.Cell
	}
	out := make([]Cell, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func validateBatch(batch []Reservation) error {
	if len(batch) == 0 {
		return apperr.ErrBookingRequestEmpty
	}
	seen := map[string]bool{}
	for _, r := range batch {
		if r.Cell.Hour < 0 || r.Cell.Hour > 23 {
			return apperr.ErrInvalidBookingTime.WithDetails("hour %d out of range", r.Cell.Hour)
		}
		if seen[r.Cell.Key()] {
			return apperr.ErrInvalidBookingTime.WithDetails("cell %s requested twice", r.Cell.Key())
		}
		seen[r.Cell.Key()] = true
	}
	return nil
}

func sortByCell(rs []Reservation) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Cell.Key() < rs[j].Cell.Key() })
}
