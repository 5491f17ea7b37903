package slots

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"github.com/shopspring/decimal"
)

// ConfigKey names the registry document in the config store.
const ConfigKey = "booking.time.slot.config"

// Registry is the overlap-free set of slots of one scope. Add is serialized;
// lookups may run concurrently.
type Registry struct {
	mu         sync.RWMutex
	scopeKey   string
	configured bool
	slots      []Slot
}

func NewRegistry(scopeKey string) *Registry {
	return &Registry{scopeKey: scopeKey}
}

func (r *Registry) ScopeKey() string { return r.scopeKey }

// Configured is false for a registry that only holds the seeded default.
func (r *Registry) Configured() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configured
}

func (r *Registry) Add(s Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.addLocked(s); err != nil {
		return err
	}
	r.configured = true
	return nil
}

func (r *Registry) addLocked(s Slot) error {
	for _, ex := range r.slots {
		if ex.Window.OverlapsTimeOfDay(s.Window) {
			return apperr.ErrSlotOverlap.WithDetails(
				"new slot [%s] overlaps existing slot [%s]", s.Window, ex.Window)
		}
	}
	if s.ScopeKey == "" {
		s.ScopeKey = r.scopeKey
	}
	r.slots = append(r.slots, s)
	return nil
}

// FindCovering returns the slot whose window holds the clock time of t.
func (r *Registry) FindCovering(t time.Time) (Slot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.slots {
		if s.Window.ContainsTimeOfDay(t) {
			return s, true
		}
	}
	return Slot{}, false
}

func (r *Registry) Slots() []Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// SeedUniform fills the day with back-to-back REGULAR slots at multiplier
// 1.0. Every slot goes through the overlap check.
func (r *Registry) SeedUniform(interval time.Duration) error {
	if err := ValidateInterval(interval); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for from := time.Duration(0); from < 24*time.Hour; from += interval {
		s, err := NewSlot(r.scopeKey, SlotRegular, from, from+interval, decimal.NewFromInt(1), decimal.Zero)
		if err != nil {
			return err
		}
		if err := r.addLocked(s); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInterval accepts whole-minute intervals that divide an hour, or
// whole hours that divide a day.
func ValidateInterval(d time.Duration) error {
	if d <= 0 || d%time.Minute != 0 {
		return apperr.ErrInvalidSlotDuration.WithDetails("interval %s must be a positive number of minutes", d)
	}
	if d <= time.Hour && time.Hour%d == 0 {
		return nil
	}
	if d%time.Hour == 0 && (24*time.Hour)%d == 0 {
		return nil
	}
	return apperr.ErrInvalidSlotDuration.WithDetails("interval %s must divide an hour or a day evenly", d)
}

type snapshot struct {
	ScopeKey   string `json:"scope_key"`
	Configured bool   `json:"is_configured"`
	Slots      []Slot `json:"time_slots"`
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(snapshot{ScopeKey: r.scopeKey, Configured: r.configured, Slots: r.slots})
}

// UnmarshalJSON rebuilds the registry slot by slot so a stored document
// that violates the overlap rule is rejected instead of loaded.
func (r *Registry) UnmarshalJSON(b []byte) error {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopeKey = s.ScopeKey
	r.configured = s.Configured
	r.slots = nil
	for _, sl := range s.Slots {
		if err := r.addLocked(sl); err != nil {
			return err
		}
	}
	return nil
}
