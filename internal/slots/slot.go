package slots

import (
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/ariefcatur/venue-booking/internal/timerange"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SlotType string

const (
	SlotOffPeak SlotType = "OFF_PEAK"
	SlotRegular SlotType = "REGULAR"
	SlotPeak    SlotType = "PEAK"
)

func (t SlotType) Valid() bool {
	switch t {
	case SlotOffPeak, SlotRegular, SlotPeak:
		return true
	}
	return false
}

// Label is the human form used in pricing descriptions.
func (t SlotType) Label() string {
	switch t {
	case SlotOffPeak:
		return "off-peak"
	case SlotPeak:
		return "peak"
	default:
		return "regular"
	}
}

// Slot is a priced time-of-day window. Multiplier 1.0 is the base price,
// 1.5 a 50% markup, 0.8 a 20% discount.
type Slot struct {
	ID            string              `json:"id"`
	ScopeKey      string              `json:"scope_key"`
	Type          SlotType            `json:"slot_type"`
	Window        timerange.TimeRange `json:"window"`
	Multiplier    decimal.Decimal     `json:"price_multiplier"`
	AdditionalFee decimal.Decimal     `json:"additional_fee"`
}

// NewSlot validates and builds a slot for the clock window [from, to).
// A window with to <= from runs past midnight.
func NewSlot(scopeKey string, typ SlotType, from, to time.Duration, multiplier, fee decimal.Decimal) (Slot, error) {
	if !typ.Valid() {
		return Slot{}, apperr.ErrInvalidSlot.WithDetails("unknown slot type %q", typ)
	}
	if multiplier.IsNegative() {
		return Slot{}, apperr.ErrInvalidSlot.WithDetails("price multiplier cannot be negative")
	}
	if fee.IsNegative() {
		return Slot{}, apperr.ErrInvalidSlot.WithDetails("additional fee cannot be negative")
	}
	w, err := timerange.Clock(from, to)
	if err != nil {
		return Slot{}, apperr.ErrInvalidSlot.WithDetails("%v", err)
	}
	return Slot{
		ID:            uuid.NewString(),
		ScopeKey:      scopeKey,
		Type:          typ,
		Window:        w,
		Multiplier:    multiplier,
		AdditionalFee: fee,
	}, nil
}
