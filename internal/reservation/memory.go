package reservation

import (
	"context"
	"sync"

	"github.com/ariefcatur/venue-booking/internal/apperr"
)

// MemoryGuard keeps reservations in process. Each cell has its own mutex;
// a batch locks its cells in key order so overlapping batches cannot
// deadlock.
type MemoryGuard struct {
	mu     sync.Mutex // guards locks, rows and byCell
	locks  map[string]*sync.Mutex
	rows   map[string]Reservation // by reservation id
	byCell map[string][]string    // cell key -> reservation ids
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		locks:  map[string]*sync.Mutex{},
		rows:   map[string]Reservation{},
		byCell: map[string][]string{},
	}
}

func (g *MemoryGuard) cellLock(key string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[key]
	if !ok {
		l = &sync.Mutex{}
		g.locks[key] = l
	}
	return l
}

func (g *MemoryGuard) activeIn(cell Cell) *Conflict {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.byCell[cell.Key()] {
		r := g.rows[id]
		if r.Status.Active() {
			return &Conflict{Cell: cell, ReservationID: r.ID, BookingID: r.BookingID, Status: r.Status}
		}
	}
	return nil
}

func (g *MemoryGuard) CheckReadOnly(ctx context.Context, cell Cell) (*Conflict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.activeIn(cell), nil
}

func (g *MemoryGuard) CheckAndReserve(ctx context.Context, batch []Reservation) error {
	if err := validateBatch(batch); err != nil {
		return err
	}
	for _, c := range sortedCells(batch) {
		l := g.cellLock(c.Key())
		l.Lock()
		defer l.Unlock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var conflicts []Conflict
	for _, c := range sortedCells(batch) {
		if cf := g.activeIn(c); cf != nil {
			conflicts = append(conflicts, *cf)
		}
	}
	if len(conflicts) > 0 {
		return conflictError(conflicts)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range batch {
		g.rows[r.ID] = r
		g.byCell[r.Cell.Key()] = append(g.byCell[r.Cell.Key()], r.ID)
	}
	return nil
}

func (g *MemoryGuard) ListByBooking(ctx context.Context, bookingID string) ([]Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Reservation
	for _, r := range g.rows {
		if r.BookingID == bookingID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, apperr.ErrBookingNotFound.WithDetails("booking %s", bookingID)
	}
	sortByCell(out)
	return out, nil
}

func (g *MemoryGuard) SetStatus(ctx context.Context, bookingID string, to Status) ([]Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []string
	for id, r := range g.rows {
		if r.BookingID != bookingID {
			continue
		}
		if !CanTransition(r.Status, to) {
			return nil, apperr.ErrInvalidStatusTransition.WithDetails("%s -> %s", r.Status, to)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apperr.ErrBookingNotFound.WithDetails("booking %s", bookingID)
	}
	out := make([]Reservation, 0, len(ids))
	for _, id := range ids {
		r := g.rows[id]
		r.Status = to
		g.rows[id] = r
		out = append(out, r)
	}
	sortByCell(out)
	return out, nil
}
