package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/ariefcatur/venue-booking/internal/timerange"
	"github.com/shopspring/decimal"
)

const (
	NameCrossDaySplit      = "CrossDaySplit"
	NameBasePrice          = "BasePrice"
	NameMembershipDiscount = "Membership"
	NameOverride           = "Override"
)

var one = decimal.NewFromInt(1)

// CrossDaySplit seeds one unpriced item per calendar day of a booking that
// runs past midnight. Same-day bookings pass through.
type CrossDaySplit struct{ Prio int }

func (CrossDaySplit) Name() string { return NameCrossDaySplit }
func (s CrossDaySplit) Priority() int { return s.Prio }

func (CrossDaySplit) Calculate(pc *Context, cur Result) (Result, error) {
	w := pc.Window()
	if !w.CrossesMidnight() {
		return cur, nil
	}
	for i, seg := range w.ExpandAcrossMidnight() {
		day := fmt.Sprintf("Day %d", i+1)
		cur.Items = append(cur.Items, Item{
			Window:      seg,
			Label:       "Booking Period (" + day + ")",
			Description: fmt.Sprintf("%s %s (%s)", day, seg, timerange.FormatDuration(seg.Duration())),
			Price:       decimal.Zero,
		})
	}
	return cur, nil
}

// BasePrice adds one item per requested hour:
// (half ? base/2 : base) * multiplier + additional fee, using the slot that
// covers the hour. Hours no slot covers are charged the plain base price.
type BasePrice struct{ Prio int }

func (BasePrice) Name() string { return NameBasePrice }
func (s BasePrice) Priority() int { return s.Prio }

func (BasePrice) Calculate(pc *Context, cur Result) (Result, error) {
	if !pc.BasePrice.Valid {
		return Result{}, apperr.ErrBasePriceNotSet.WithDetails("scope %s has no base price", pc.ScopeKey)
	}
	for _, seg := range pc.Segments() {
		typ, mult, fee := slots.SlotRegular, one, decimal.Zero
		if pc.Slots != nil {
			if s, ok := pc.Slots.FindCovering(seg.Window.Start); ok {
				typ, mult, fee = s.Type, s.Multiplier, s.AdditionalFee
			}
		}
		base := pc.BasePrice.Decimal
		if seg.Half {
			base = base.Div(decimal.NewFromInt(2))
		}
		desc := fmt.Sprintf("%s rate for hour %d (x%s", titleCase(typ.Label()), seg.Hour, mult)
		if fee.IsPositive() {
			desc += " + " + fee.String()
		}
		desc += ")"
		if seg.Half {
			desc += ", half hour"
		}
		cur.Items = append(cur.Items, Item{
			Window:      seg.Window,
			Label:       fmt.Sprintf("Base Price for Hour %d", seg.Hour),
			Description: desc,
			Price:       base.Mul(mult).Add(fee),
		})
	}
	return cur, nil
}

// MembershipDiscount scales every item by (1 - discount). It has to run
// after the items it discounts exist.
type MembershipDiscount struct{ Prio int }

func (MembershipDiscount) Name() string { return NameMembershipDiscount }
func (s MembershipDiscount) Priority() int { return s.Prio }

func (MembershipDiscount) Calculate(pc *Context, cur Result) (Result, error) {
	pct := pc.Subject.DiscountPct
	if !pct.IsPositive() {
		return cur, nil
	}
	factor := one.Sub(pct)
	for i := range cur.Items {
		cur.Items[i].Price = cur.Items[i].Price.Mul(factor)
	}
	return cur, nil
}

// OverridePrice discards everything before it and charges the context's
// override price as a single item. Without an override it is a no-op.
type OverridePrice struct{ Prio int }

func (OverridePrice) Name() string { return NameOverride }
func (s OverridePrice) Priority() int { return s.Prio }

func (OverridePrice) Calculate(pc *Context, cur Result) (Result, error) {
	if pc.Override == nil {
		return cur, nil
	}
	desc := pc.Override.Reason
	if desc == "" {
		desc = "Negotiated price"
	}
	return Result{Items: []Item{{
		Window:      pc.Window(),
		Label:       "Override Price",
		Description: desc,
		Price:       pc.Override.Price,
	}}}, nil
}

// Default priorities.
const (
	PriorityCrossDaySplit = 0
	PriorityBasePrice     = 10
	PriorityMembership    = 20
	PriorityOverride      = math.MaxInt
)

// DefaultStrategies lists the four built-in stages at their default
// priorities.
func DefaultStrategies() []Strategy {
	return []Strategy{
		CrossDaySplit{Prio: PriorityCrossDaySplit},
		BasePrice{Prio: PriorityBasePrice},
		MembershipDiscount{Prio: PriorityMembership},
		OverridePrice{Prio: PriorityOverride},
	}
}

// Build resolves strategy names from configuration. Each name may carry a
// priority as "Name:priority"; otherwise the default is used.
func Build(specs []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(specs))
	for _, spec := range specs {
		name, prio, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}
		switch name {
		case NameCrossDaySplit:
			out = append(out, CrossDaySplit{Prio: orDefault(prio, PriorityCrossDaySplit)})
		case NameBasePrice:
			out = append(out, BasePrice{Prio: orDefault(prio, PriorityBasePrice)})
		case NameMembershipDiscount:
			out = append(out, MembershipDiscount{Prio: orDefault(prio, PriorityMembership)})
		case NameOverride:
			out = append(out, OverridePrice{Prio: orDefault(prio, PriorityOverride)})
		default:
			return nil, fmt.Errorf("unknown pricing strategy %q", name)
		}
	}
	return out, nil
}

func parseSpec(spec string) (string, *int, error) {
	name, rest, found := strings.Cut(strings.TrimSpace(spec), ":")
	if !found {
		return name, nil, nil
	}
	var p int
	if _, err := fmt.Sscanf(rest, "%d", &p); err != nil {
		return "", nil, fmt.Errorf("strategy %q: bad priority: %w", spec, err)
	}
	return name, &p, nil
}

func orDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
