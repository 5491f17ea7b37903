package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a caller-visible domain error. Two errors match under errors.Is
// when their codes are equal, so sentinels stay comparable after WithDetails.
type Error struct {
	Code    string
	Status  int
	Details string
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Code
	}
	return e.Code + ": " + e.Details
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy of e carrying a formatted detail message.
func (e *Error) WithDetails(format string, args ...any) *Error {
	cp := *e
	cp.Details = fmt.Sprintf(format, args...)
	return &cp
}

func newErr(code string, status int) *Error {
	return &Error{Code: code, Status: status}
}

var (
	// 400
	ErrInvalidBookingTime              = newErr("InvalidBookingTime", http.StatusBadRequest)
	ErrBookingRequestEmpty             = newErr("BookingRequestEmpty", http.StatusBadRequest)
	ErrBookingMustBeInConsecutiveHours = newErr("BookingMustBeInConsecutiveHours", http.StatusBadRequest)
	ErrInvalidSlotDuration             = newErr("InvalidSlotDuration", http.StatusBadRequest)
	ErrInvalidSlot                     = newErr("InvalidSlot", http.StatusBadRequest)

	// 401 / 403
	ErrUnauthorized = newErr("Unauthorized", http.StatusUnauthorized)
	ErrForbidden    = newErr("Forbidden", http.StatusForbidden)

	// 404
	ErrScopeNotFound   = newErr("ScopeNotFound", http.StatusNotFound)
	ErrBookingNotFound = newErr("BookingNotFound", http.StatusNotFound)

	// 409
	ErrSlotOverlap             = newErr("SlotOverlap", http.StatusConflict)
	ErrBookingConflict         = newErr("BookingConflict", http.StatusConflict)
	ErrInvalidStatusTransition = newErr("InvalidStatusTransition", http.StatusConflict)

	// 422
	ErrBasePriceNotSet = newErr("BasePriceNotSet", http.StatusUnprocessableEntity)
)

// StatusOf maps err to an HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the domain code of err, or "Internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "Internal"
}
