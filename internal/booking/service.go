// Package booking ties scopes, slots, pricing and the reservation guard
// together into quote, book, confirm and cancel operations.
package booking

import (
	"context"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	kafkax "github.com/ariefcatur/venue-booking/internal/kafka"
	"github.com/ariefcatur/venue-booking/internal/members"
	"github.com/ariefcatur/venue-booking/internal/pricing"
	"github.com/ariefcatur/venue-booking/internal/reservation"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/ariefcatur/venue-booking/internal/timerange"
	"github.com/ariefcatur/venue-booking/internal/venues"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Request struct {
	ExternalID string
	ScopeKey   string
	SubjectID  string
	Date       time.Time // date of the first hour
	Hours      []pricing.HourSlot
	Override   *pricing.Override
	TraceID    string
}

type Quote struct {
	ScopeKey  string              `json:"scope_key"`
	SubjectID string              `json:"subject_id"`
	Window    timerange.TimeRange `json:"window"`
	Items     []pricing.Item      `json:"items"`
	Total     decimal.Decimal     `json:"total"`
}

type Booking struct {
	ID     string             `json:"id"`
	Status reservation.Status `json:"status"`
	Quote
	Reservations []reservation.Reservation `json:"reservations"`
}

type Service struct {
	Scopes      venues.Repo
	Slots       *slots.Provider
	Guard       reservation.Guard
	Members     members.Lookup
	Strategies  []pricing.Strategy
	Events      Publisher
	Log         *zap.Logger
	Now         func() time.Time
	ServiceName string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Quote prices a request without reserving anything.
func (s *Service) Quote(ctx context.Context, req Request) (Quote, error) {
	q, _, err := s.quote(ctx, req)
	return q, err
}

func (s *Service) quote(ctx context.Context, req Request) (Quote, *pricing.Context, error) {
	if _, err := pricing.OrderHours(req.Hours); err != nil {
		return Quote{}, nil, err
	}
	if req.Date.IsZero() {
		return Quote{}, nil, apperr.ErrInvalidBookingTime.WithDetails("booking date is required")
	}
	scope, err := s.Scopes.Get(ctx, req.ScopeKey)
	if err != nil {
		return Quote{}, nil, err
	}
	if !scope.ScheduleActive {
		return Quote{}, nil, apperr.ErrInvalidBookingTime.WithDetails("scope %s is not available for booking", scope.Name)
	}
	reg, err := s.Slots.Registry(ctx, scope.ID)
	if err != nil {
		return Quote{}, nil, err
	}
	discount := decimal.Zero
	if s.Members != nil {
		if discount, err = s.Members.DiscountFor(ctx, req.SubjectID); err != nil {
			return Quote{}, nil, err
		}
	}

	pc, err := pricing.NewContext(pricing.Params{
		ScopeKey:  scope.ID,
		Subject:   pricing.Subject{ID: req.SubjectID, DiscountPct: discount},
		Date:      req.Date,
		Hours:     req.Hours,
		BasePrice: scope.BasePrice,
		Slots:     reg,
		Override:  req.Override,
	})
	if err != nil {
		return Quote{}, nil, err
	}
	res, err := pricing.Run(pc, s.strategies())
	if err != nil {
		return Quote{}, nil, err
	}
	return Quote{
		ScopeKey:  scope.ID,
		SubjectID: req.SubjectID,
		Window:    pc.Window(),
		Items:     res.Items,
		Total:     res.Total(),
	}, pc, nil
}

func (s *Service) strategies() []pricing.Strategy {
	if len(s.Strategies) == 0 {
		return pricing.DefaultStrategies()
	}
	return s.Strategies
}

// Validate runs every check Book would run before reserving and returns
// all failures instead of the first. It takes no locks.
func (s *Service) Validate(ctx context.Context, req Request) []error {
	if errs := s.requestErrors(ctx, req); len(errs) > 0 {
		return errs
	}
	_, pc, err := s.quote(ctx, req)
	if err != nil {
		return []error{err}
	}
	var errs []error
	for _, c := range cellsOf(req.ScopeKey, pc) {
		cf, err := s.Guard.CheckReadOnly(ctx, c.Cell)
		if err != nil {
			return append(errs, err)
		}
		if cf != nil {
			errs = append(errs, apperr.ErrBookingConflict.WithDetails("time slot conflict for %s", c.Cell.Key()))
		}
	}
	return errs
}

// requestErrors collects the request and scope failures that quote would
// stop at one by one.
func (s *Service) requestErrors(ctx context.Context, req Request) []error {
	var errs []error
	if len(req.Hours) == 0 {
		errs = append(errs, apperr.ErrBookingRequestEmpty)
	}
	for _, h := range req.Hours {
		if h.Hour < 0 || h.Hour > 23 {
			errs = append(errs, apperr.ErrInvalidBookingTime.WithDetails("hour %d must be between 0 and 23", h.Hour))
		}
	}
	if req.Date.IsZero() {
		errs = append(errs, apperr.ErrInvalidBookingTime.WithDetails("booking date is required"))
	}
	scope, err := s.Scopes.Get(ctx, req.ScopeKey)
	if err != nil {
		return append(errs, err)
	}
	if !scope.ScheduleActive {
		errs = append(errs, apperr.ErrInvalidBookingTime.WithDetails("scope %s is not available for booking", scope.Name))
	}
	return errs
}

// Book prices the request and reserves every cell it covers as PENDING,
// all or none.
func (s *Service) Book(ctx context.Context, req Request) (Booking, error) {
	q, pc, err := s.quote(ctx, req)
	if err != nil {
		return Booking{}, err
	}

	bookingID := uuid.NewString()
	created := s.now().UTC()
	batch := make([]reservation.Reservation, 0, len(pc.Segments()))
	for _, c := range cellsOf(q.ScopeKey, pc) {
		batch = append(batch, reservation.Reservation{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			Cell:      c.Cell,
			Half:      c.Half,
			SubjectID: req.SubjectID,
			Status:    reservation.StatusPending,
			CreatedAt: created,
		})
	}

	// early exit before taking locks; CheckAndReserve decides
	for _, r := range batch {
		cf, err := s.Guard.CheckReadOnly(ctx, r.Cell)
		if err != nil {
			return Booking{}, err
		}
		if cf != nil {
			s.log().Warn("booking conflict", zap.String("cell", r.Cell.Key()), zap.String("held_by", cf.BookingID))
			return Booking{}, apperr.ErrBookingConflict.WithDetails("time slot conflict for %s", r.Cell.Key())
		}
	}
	if err := s.Guard.CheckAndReserve(ctx, batch); err != nil {
		s.log().Warn("reserve failed", zap.String("scope", q.ScopeKey), zap.Error(err))
		return Booking{}, err
	}

	b := Booking{ID: bookingID, Status: reservation.StatusPending, Quote: q, Reservations: batch}
	s.log().Info("booking created",
		zap.String("booking_id", bookingID),
		zap.String("scope", q.ScopeKey),
		zap.Int("cells", len(batch)),
		zap.String("total", q.Total.String()))

	cells := make([]CellRef, 0, len(batch))
	for _, r := range batch {
		cells = append(cells, CellRef{Date: r.Cell.Date.Format("2006-01-02"), Hour: r.Cell.Hour, Half: r.Half})
	}
	s.publish(ctx, TopicBookingCreated, EventBookingCreated, bookingID, req.TraceID, BookingCreatedPayload{
		BookingID:  bookingID,
		ExternalID: req.ExternalID,
		ScopeKey:   q.ScopeKey,
		SubjectID:  req.SubjectID,
		Status:     string(reservation.StatusPending),
		Start:      q.Window.Start,
		End:        q.Window.End,
		Cells:      cells,
		Total:      q.Total,
	})
	return b, nil
}

// Get returns a booking as recorded by the guard. Prices are not stored, so
// Items and Total are empty.
func (s *Service) Get(ctx context.Context, bookingID string) (Booking, error) {
	rs, err := s.Guard.ListByBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, err
	}
	return fromReservations(bookingID, rs), nil
}

func (s *Service) Confirm(ctx context.Context, bookingID, traceID string) (Booking, error) {
	return s.transition(ctx, bookingID, traceID, reservation.StatusConfirmed, TopicBookingConfirmed, EventBookingConfirmed)
}

// Cancel frees every cell of the booking.
func (s *Service) Cancel(ctx context.Context, bookingID, traceID string) (Booking, error) {
	return s.transition(ctx, bookingID, traceID, reservation.StatusCancelled, TopicBookingCancelled, EventBookingCancelled)
}

func (s *Service) transition(ctx context.Context, bookingID, traceID string, to reservation.Status, topic, eventType string) (Booking, error) {
	before, err := s.Guard.ListByBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, err
	}
	rs, err := s.Guard.SetStatus(ctx, bookingID, to)
	if err != nil {
		return Booking{}, err
	}
	b := fromReservations(bookingID, rs)
	s.log().Info("booking status changed",
		zap.String("booking_id", bookingID), zap.String("from", string(before[0].Status)), zap.String("to", string(to)))
	s.publish(ctx, topic, eventType, bookingID, traceID, StatusChangedPayload{
		BookingID: bookingID,
		ScopeKey:  b.ScopeKey,
		From:      string(before[0].Status),
		Status:    string(to),
	})
	return b, nil
}

// publish is best effort: the reservation is already committed.
func (s *Service) publish(ctx context.Context, topic, eventType, bookingID, traceID string, payload any) {
	if s.Events == nil {
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    s.now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: bookingID,
		Payload:       kafkax.MustMarshal(payload),
	}
	if err := s.Events.Publish(ctx, topic, env); err != nil {
		s.log().Error("publish event failed",
			zap.String("event_type", eventType), zap.String("booking_id", bookingID), zap.Error(err))
	}
}

type cellHalf struct {
	Cell reservation.Cell
	Half bool
}

func cellsOf(scopeKey string, pc *pricing.Context) []cellHalf {
	segs := pc.Segments()
	out := make([]cellHalf, 0, len(segs))
	for _, seg := range segs {
		out = append(out, cellHalf{Cell: reservation.NewCell(scopeKey, seg.Window.Start, seg.Hour), Half: seg.Half})
	}
	return out
}

func fromReservations(bookingID string, rs []reservation.Reservation) Booking {
	b := Booking{ID: bookingID, Reservations: rs}
	if len(rs) == 0 {
		return b
	}
	b.Status = rs[0].Status
	b.ScopeKey = rs[0].Cell.ScopeKey
	b.SubjectID = rs[0].SubjectID
	for _, r := range rs {
		start := r.Cell.Date.Add(time.Duration(r.Cell.Hour) * time.Hour)
		end := start.Add(time.Hour)
		if r.Half {
			end = start.Add(30 * time.Minute)
		}
		if b.Window.IsZero() || start.Before(b.Window.Start) {
			b.Window.Start = start
		}
		if end.After(b.Window.End) {
			b.Window.End = end
		}
	}
	return b
}
