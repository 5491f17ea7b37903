package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/ariefcatur/venue-booking/internal/timerange"
	"github.com/shopspring/decimal"
)

// HourSlot is one requested hour; Half books only its first 30 minutes.
type HourSlot struct {
	Hour int  `json:"hour"`
	Half bool `json:"half"`
}

// Subject is who is booking. DiscountPct is a fraction, 0.2 for 20% off.
type Subject struct {
	ID          string          `json:"id"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// Override replaces the computed price, e.g. a negotiated rate.
type Override struct {
	Price  decimal.Decimal `json:"price"`
	Reason string          `json:"reason"`
}

type SlotLookup interface {
	FindCovering(t time.Time) (slots.Slot, bool)
}

type Params struct {
	ScopeKey  string
	Subject   Subject
	Date      time.Time // date of the first requested hour
	Hours     []HourSlot
	BasePrice decimal.NullDecimal
	Slots     SlotLookup
	Override  *Override
}

// Segment is a requested hour placed on the calendar.
type Segment struct {
	HourSlot
	Window timerange.TimeRange
}

// Context is the read-only input of one pricing run.
type Context struct {
	ScopeKey  string
	Subject   Subject
	BasePrice decimal.NullDecimal
	Slots     SlotLookup
	Override  *Override

	segments []Segment
}

func NewContext(p Params) (*Context, error) {
	hours, err := OrderHours(p.Hours)
	if err != nil {
		return nil, err
	}
	if p.Subject.DiscountPct.IsNegative() || p.Subject.DiscountPct.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("pricing: discount %s outside [0, 1]", p.Subject.DiscountPct)
	}
	if p.Override != nil && p.Override.Price.IsNegative() {
		return nil, fmt.Errorf("pricing: override price %s is negative", p.Override.Price)
	}

	start := timerange.StartOfDay(p.Date)
	first := hours[0].Hour
	segs := make([]Segment, 0, len(hours))
	for i, h := range hours {
		n := first + i
		from := start.AddDate(0, 0, n/24).Add(time.Duration(n%24) * time.Hour)
		length := time.Hour
		if h.Half {
			length = 30 * time.Minute
		}
		segs = append(segs, Segment{HourSlot: h, Window: timerange.TimeRange{Start: from, End: from.Add(length)}})
	}
	return &Context{
		ScopeKey:  p.ScopeKey,
		Subject:   p.Subject,
		BasePrice: p.BasePrice,
		Slots:     p.Slots,
		Override:  p.Override,
		segments:  segs,
	}, nil
}

// Segments lists the requested hours in booking order. Hours after 23
// land on the following date.
func (c *Context) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

// Window is the combined booked range.
func (c *Context) Window() timerange.TimeRange {
	return timerange.TimeRange{Start: c.segments[0].Window.Start, End: c.segments[len(c.segments)-1].Window.End}
}

// OrderHours validates a request and returns its hours in booking order.
// Hours are consecutive modulo 24, so {23, 0} starts at 23. Only the last
// hour may be a half slot.
func OrderHours(in []HourSlot) ([]HourSlot, error) {
	if len(in) == 0 {
		return nil, apperr.ErrBookingRequestEmpty
	}
	byHour := map[int]HourSlot{}
	for _, h := range in {
		if h.Hour < 0 || h.Hour > 23 {
			return nil, apperr.ErrInvalidBookingTime.WithDetails("hour %d must be between 0 and 23", h.Hour)
		}
		if prev, ok := byHour[h.Hour]; ok && prev.Half != h.Half {
			return nil, apperr.ErrInvalidBookingTime.WithDetails("hour %d requested as both full and half", h.Hour)
		}
		byHour[h.Hour] = h
	}

	var starts []int
	for h := range byHour {
		if _, ok := byHour[(h+23)%24]; !ok {
			starts = append(starts, h)
		}
	}
	sort.Ints(starts)
	first := 0
	switch {
	case len(byHour) == 24:
	case len(starts) == 1:
		first = starts[0]
	default:
		return nil, apperr.ErrBookingMustBeInConsecutiveHours.WithDetails(
			"booking time slots must be consecutive hours, found %d separate runs starting at %v", len(starts), starts)
	}

	out := make([]HourSlot, 0, len(byHour))
	for i := 0; i < len(byHour); i++ {
		out = append(out, byHour[(first+i)%24])
	}
	for i, h := range out[:len(out)-1] {
		if h.Half {
			return nil, apperr.ErrBookingMustBeInConsecutiveHours.WithDetails(
				"half slot at hour %d leaves a gap before hour %d", h.Hour, out[i+1].Hour)
		}
	}
	return out, nil
}
