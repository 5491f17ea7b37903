// Package pricing turns a booking request into priced line items by folding
// an ordered list of strategies over an initially empty result. Each
// strategy sees everything the earlier ones produced, so priorities are part
// of the pricing contract: a discount registered before MembershipDiscount
// changes the amount the membership rate applies to.
package pricing

import (
	"fmt"
	"sort"

	"github.com/ariefcatur/venue-booking/internal/timerange"
	"github.com/shopspring/decimal"
)

type Item struct {
	Window      timerange.TimeRange `json:"window"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
}

type Result struct {
	Items []Item `json:"items"`
}

func (r Result) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Price)
	}
	return total
}

func (r Result) clone() Result {
	items := make([]Item, len(r.Items))
	copy(items, r.Items)
	return Result{Items: items}
}

// Strategy is one pricing stage. Lower priorities run first. Calculate gets
// its own copy of the running result and must depend only on its arguments.
type Strategy interface {
	Name() string
	Priority() int
	Calculate(pc *Context, cur Result) (Result, error)
}

// Run sorts strategies by priority (ties keep their given order) and folds
// them over an empty result. The first error aborts the run.
func Run(pc *Context, strategies []Strategy) (Result, error) {
	ordered := make([]Strategy, len(strategies))
	copy(ordered, strategies)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority() < ordered[j].Priority() })

	result := Result{}
	for _, s := range ordered {
		next, err := s.Calculate(pc, result.clone())
		if err != nil {
			return Result{}, fmt.Errorf("pricing strategy %s: %w", s.Name(), err)
		}
		result = next
	}
	return result, nil
}
