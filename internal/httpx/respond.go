package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/venue-booking/internal/apperr"
	"go.uber.org/zap"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to their status; anything else is a 500
// whose cause is logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := apperr.StatusOf(err)
	body := errorBody{Error: apperr.CodeOf(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Details = ae.Details
	}
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "BadRequest", Details: msg})
}
