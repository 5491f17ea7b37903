package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/venue-booking/internal/auth"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/ariefcatur/venue-booking/internal/venues"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SlotsHandler struct {
	Scopes   venues.Repo
	Provider *slots.Provider
	Log      *zap.Logger
}

type AddSlotReq struct {
	Type          slots.SlotType   `json:"slot_type"`
	From          string           `json:"from"` // 15:04
	To            string           `json:"to"`
	Multiplier    decimal.Decimal  `json:"price_multiplier"`
	AdditionalFee *decimal.Decimal `json:"additional_fee,omitempty"`
}

type ReseedReq struct {
	Interval string `json:"interval"` // e.g. 30m, 2h
}

type slotsResp struct {
	ScopeKey   string       `json:"scope_key"`
	Configured bool         `json:"is_configured"`
	Slots      []slots.Slot `json:"time_slots"`
}

func (h *SlotsHandler) Register(r chi.Router, c Capability) {
	r.With(Require(c, auth.PermSlotsRead)).Get("/scopes/{scope}/slots", h.list)
	r.With(Require(c, auth.PermSlotsWrite)).Post("/scopes/{scope}/slots", h.add)
	r.With(Require(c, auth.PermSlotsWrite)).Post("/scopes/{scope}/slots/reseed", h.reseed)
}

// scope resolves the path scope; unknown scopes never reach the provider.
func (h *SlotsHandler) scope(w http.ResponseWriter, r *http.Request) (string, bool) {
	sc, err := h.Scopes.Get(r.Context(), chi.URLParam(r, "scope"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return "", false
	}
	return sc.ID, true
}

func (h *SlotsHandler) list(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	reg, err := h.Provider.Registry(r.Context(), scope)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotsResp(reg))
}

func (h *SlotsHandler) add(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req AddSlotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	from, err := parseClock(req.From)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	to, err := parseClock(req.To)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	fee := decimal.Zero
	if req.AdditionalFee != nil {
		fee = *req.AdditionalFee
	}
	s, err := slots.NewSlot(scope, req.Type, from, to, req.Multiplier, fee)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	reg, err := h.Provider.AddSlot(r.Context(), scope, s)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSlotsResp(reg))
}

func (h *SlotsHandler) reseed(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req ReseedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	d, err := time.ParseDuration(req.Interval)
	if err != nil {
		badRequest(w, "interval: "+err.Error())
		return
	}
	reg, err := h.Provider.Reseed(r.Context(), scope, d)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotsResp(reg))
}

func toSlotsResp(reg *slots.Registry) slotsResp {
	return slotsResp{ScopeKey: reg.ScopeKey(), Configured: reg.Configured(), Slots: reg.Slots()}
}

// parseClock reads "15:04" as an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
