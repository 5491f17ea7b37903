package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/ariefcatur/venue-booking/internal/auth"
	"github.com/ariefcatur/venue-booking/internal/booking"
	"github.com/ariefcatur/venue-booking/internal/pricing"
	"github.com/ariefcatur/venue-booking/internal/projection"
	"github.com/ariefcatur/venue-booking/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type BookingsHandler struct {
	Service *booking.Service
	Redis   redis.Cmdable
	Cache   *projection.StatusCache
	Timeout time.Duration
	Log     *zap.Logger
}

type BookingReq struct {
	ExternalID string             `json:"external_id"`
	Date       string             `json:"date"` // 2006-01-02
	Hours      []pricing.HourSlot `json:"hours"`
	Override   *pricing.Override  `json:"override,omitempty"`
}

type CreateBookingResp struct {
	booking.Booking
	Idempotent bool `json:"idempotent"`
}

type ValidateResp struct {
	Valid  bool        `json:"valid"`
	Errors []errorBody `json:"errors,omitempty"`
}

func (h *BookingsHandler) Register(r chi.Router, c Capability) {
	r.With(Require(c, auth.PermBookingsRead)).Post("/scopes/{scope}/quotes", h.quote)
	r.With(Require(c, auth.PermBookingsRead)).Post("/scopes/{scope}/bookings/validate", h.validate)
	r.With(Require(c, auth.PermBookingsCreate)).Post("/scopes/{scope}/bookings", h.create)
	r.With(Require(c, auth.PermBookingsRead)).Get("/bookings/{id}", h.get)
	r.With(Require(c, auth.PermBookingsUpdate)).Post("/bookings/{id}/confirm", h.confirm)
	r.With(Require(c, auth.PermBookingsUpdate)).Delete("/bookings/{id}", h.cancel)
}

func (h *BookingsHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	t := h.Timeout
	if t <= 0 {
		t = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), t)
}

// decode turns the body into a service request. Only callers that may
// update bookings can set an override price.
func (h *BookingsHandler) decode(w http.ResponseWriter, r *http.Request) (booking.Request, bool) {
	var req BookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return booking.Request{}, false
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, r, h.Log, apperr.ErrInvalidBookingTime.WithDetails("date %q must be YYYY-MM-DD", req.Date))
		return booking.Request{}, false
	}
	p, _ := PrincipalFrom(r.Context())
	if req.Override != nil && !p.Has(auth.PermBookingsUpdate) {
		writeError(w, r, h.Log, apperr.ErrForbidden.WithDetails("override needs %s", auth.PermBookingsUpdate))
		return booking.Request{}, false
	}
	return booking.Request{
		ExternalID: req.ExternalID,
		ScopeKey:   chi.URLParam(r, "scope"),
		SubjectID:  p.Subject,
		Date:       date,
		Hours:      req.Hours,
		Override:   req.Override,
		TraceID:    middleware.GetReqID(r.Context()),
	}, true
}

func (h *BookingsHandler) quote(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	q, err := h.Service.Quote(ctx, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *BookingsHandler) validate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	resp := ValidateResp{Valid: true}
	for _, err := range h.Service.Validate(ctx, req) {
		if apperr.StatusOf(err) == http.StatusInternalServerError {
			writeError(w, r, h.Log, err)
			return
		}
		resp.Valid = false
		var ae *apperr.Error
		errors.As(err, &ae)
		resp.Errors = append(resp.Errors, errorBody{Error: ae.Code, Details: ae.Details})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	// The external_id is claimed before booking so concurrent retries wait
	// for the first one; the cells stay the source of truth.
	var idemKey string
	if req.ExternalID != "" {
		key := fmt.Sprintf(redisx.KeyIdemBookingCreate, req.ExternalID)
		id, claimed, err := h.claim(ctx, key)
		switch {
		case err != nil && ctx.Err() != nil:
			writeError(w, r, h.Log, apperr.ErrBookingConflict.WithDetails("external_id %s is still being booked", req.ExternalID))
			return
		case err != nil:
			h.Log.Warn("idempotency claim failed", zap.String("external_id", req.ExternalID), zap.Error(err))
		case !claimed:
			b, err := h.Service.Get(ctx, id)
			if err != nil {
				writeError(w, r, h.Log, err)
				return
			}
			writeJSON(w, http.StatusOK, CreateBookingResp{Booking: b, Idempotent: true})
			return
		default:
			idemKey = key
		}
	}

	b, err := h.Service.Book(ctx, req)
	if err != nil {
		if idemKey != "" {
			_ = h.Redis.Del(context.WithoutCancel(ctx), idemKey).Err()
		}
		writeError(w, r, h.Log, err)
		return
	}

	if idemKey != "" {
		_ = h.Redis.Set(ctx, idemKey, b.ID, redisx.TTLIdempotency).Err()
	}
	h.cacheStatus(ctx, b)
	writeJSON(w, http.StatusCreated, CreateBookingResp{Booking: b})
}

const idemPending = "pending"

// claim takes key for this request, or waits until whoever holds it has
// stored a booking id and returns that id.
func (h *BookingsHandler) claim(ctx context.Context, key string) (string, bool, error) {
	for {
		ok, err := redisx.Claim(ctx, h.Redis, key, idemPending, redisx.TTLIdemPending)
		if err != nil {
			return "", false, err
		}
		if ok {
			return "", true, nil
		}
		id, err := h.Redis.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue // released by a failed attempt
		case err != nil:
			return "", false, err
		case id != idemPending:
			return id, false, nil
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func (h *BookingsHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := h.ctx(r)
	defer cancel()

	if v, ok, err := h.Cache.Get(ctx, id); err == nil && ok {
		writeJSON(w, http.StatusOK, v)
		return
	}
	b, err := h.Service.Get(ctx, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cacheStatus(ctx, b))
}

func (h *BookingsHandler) confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Confirm)
}

func (h *BookingsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel)
}

func (h *BookingsHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, bookingID, traceID string) (booking.Booking, error)) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	b, err := fn(ctx, chi.URLParam(r, "id"), middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cacheStatus(ctx, b))
}

func (h *BookingsHandler) cacheStatus(ctx context.Context, b booking.Booking) projection.StatusView {
	v := projection.StatusView{BookingID: b.ID, ScopeKey: b.ScopeKey, Status: string(b.Status), UpdatedAt: time.Now().UTC()}
	if _, err := h.Cache.Advance(ctx, v); err != nil {
		h.Log.Warn("status cache write failed", zap.String("booking_id", b.ID), zap.Error(err))
	}
	return v
}
